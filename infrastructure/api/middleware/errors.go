package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/internal/database"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps an error to an HTTP status and writes a JSON error body.
// Domain sentinels decide the status; anything unrecognized is a 500 with
// the detail kept out of the response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		WriteJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}

	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateRepository):
		return http.StatusConflict
	case errors.Is(err, repository.ErrInvalidRemoteURI):
		return http.StatusBadRequest
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrBadRequest marks request parsing and validation failures.
var ErrBadRequest = errors.New("bad request")
