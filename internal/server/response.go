package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dossierdb/dossier/domain"
)

// errorResponse is the envelope every gateway error leaves in.
type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Code    int      `json:"code"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the uniform JSON error envelope.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// writeSchemaError writes the envelope for a schema violation with one
// detail line per failed constraint.
func writeSchemaError(w http.ResponseWriter, details []string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:   http.StatusText(http.StatusUnprocessableEntity),
		Message: "document rejected by collection schema",
		Code:    http.StatusUnprocessableEntity,
		Details: details,
	})
}

// statusFor maps database errors onto HTTP status codes.
func statusFor(err error) int {
	var invalid domain.ErrInvalidArgument
	var readOnly domain.ErrReadOnly
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &readOnly):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotOpen{}):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
