package response

import (
	"errors"
	"log/slog"
	"net/http"
)

var (
	ErrNotFound         = errors.New("no such endpoint")
	ErrMethodNotAllowed = errors.New("method not allowed on this endpoint")
)

// NewNotFoundHandler answers unknown routes with a JSON error body.
func NewNotFoundHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("Unknown endpoint", "method", r.Method, "path", r.URL.Path)
		RenderError(w, ErrNotFound, http.StatusNotFound)
	}
}

// NewMethodNotAllowedHandler answers known routes called with the wrong
// method. The router has already set the Allow header.
func NewMethodNotAllowedHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path, "allow", w.Header().Get("Allow"))
		RenderError(w, ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	}
}
