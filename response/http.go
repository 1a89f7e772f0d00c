package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/timgluz/tidevann/geo"
	"github.com/timgluz/tidevann/tideapi"
)

const (
	JSONContentType = "application/json"
	HTMLContentType = "text/html"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Info  string `json:"info,omitempty"`
}

func RenderFatal(w http.ResponseWriter, err error) {
	RenderError(w, err, http.StatusInternalServerError)
}

func RenderError(w http.ResponseWriter, err error, statusCode int) {
	renderJSON(w, ErrorResponse{Error: err.Error()}, statusCode)
}

// RenderTidalError renders err with the status matching its kind.
func RenderTidalError(w http.ResponseWriter, err error) {
	body := ErrorResponse{Error: err.Error()}

	var tideErr *tideapi.Error
	if errors.As(err, &tideErr) {
		body.Kind = tideErr.Kind.String()
		body.Info = tideErr.Info
	}

	renderJSON(w, body, StatusForError(err))
}

// StatusForError maps tide API errors to HTTP status codes. Errors which
// are not domain errors come from talking to upstream.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, tideapi.ErrAmbiguousStation):
		return http.StatusConflict
	case errors.Is(err, tideapi.ErrFallbackExceeded), errors.Is(err, tideapi.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, tideapi.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tideapi.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, tideapi.ErrMissingLocation), errors.Is(err, geo.ErrInvalidCoordinates):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func RenderSuccess(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func RenderJSONResponse(w http.ResponseWriter, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		RenderFatal(w, fmt.Errorf("failed to marshal data: %w", err))
		return
	}

	RenderSuccess(w, jsonData)
}

func renderJSON(w http.ResponseWriter, data any, statusCode int) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		jsonData = []byte(`{"error":"failed to marshal response"}`)
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", JSONContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write(jsonData)
}
