package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/timgluz/tidevann/response"
	"github.com/timgluz/tidevann/secret"
)

var (
	errUnauthorized    = errors.New("unauthorized")
	errUnsupportedAuth = errors.New("unsupported authorization type")
	errNotReady        = errors.New("service is not ready")
)

// BearerAuth lets requests through whose bearer token is in secretStore.
func BearerAuth(h httprouter.Handle, secretStore secret.Store, logger *slog.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || len(authHeader) < 7 {
			unauthorized(w, errUnauthorized, http.StatusUnauthorized)
			return
		}

		authType := strings.ToLower(strings.TrimSpace(authHeader[:7]))
		if authType != "bearer" {
			unauthorized(w, errUnsupportedAuth, http.StatusBadRequest)
			return
		}

		token := strings.TrimSpace(authHeader[7:])
		if token == "" {
			unauthorized(w, errUnauthorized, http.StatusUnauthorized)
			return
		}

		if secretStore == nil || !secretStore.IsReady() {
			response.RenderError(w, errNotReady, http.StatusInternalServerError)
			return
		}

		if err := secretStore.Verify(token); err != nil {
			if errors.Is(err, secret.ErrSecretNotFound) {
				logger.Warn("Rejected unknown bearer token", "path", r.URL.Path, "remote", r.RemoteAddr)
				unauthorized(w, errUnauthorized, http.StatusUnauthorized)
				return
			}

			logger.Error("Failed to verify bearer token", "error", err)
			response.RenderFatal(w, err)
			return
		}

		h(w, r, ps)
	}
}

func unauthorized(w http.ResponseWriter, err error, status int) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	response.RenderError(w, err, status)
}
