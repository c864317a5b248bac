package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"magician-server/internal/domain"
	apperrors "magician-server/pkg/errors"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"
)

// maxJSONBodyBytes bounds generation payloads. Chat histories are the largest.
const maxJSONBodyBytes = 1 << 20

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.AuthUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.AuthUser)
	return user, ok && user != nil
}

// GetRequestIDFromContext returns the id assigned by the request logger.
func GetRequestIDFromContext(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// writeAppError maps err to its status and public message. Unexpected errors are logged.
func writeAppError(w http.ResponseWriter, logger domain.Logger, err error) {
	status := apperrors.GetStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err)
	}
	writeError(w, status, apperrors.PublicMessage(err))
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperrors.NewValidationError("Request body too large")
		case errors.Is(err, io.EOF):
			return apperrors.NewValidationError("Request body required")
		default:
			return apperrors.NewValidationError("Invalid request body")
		}
	}
	return nil
}
