package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes data as JSON with the given status. A nil data sends
// only the status.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.FromContext(r.Context()).Error("Failed to encode JSON response", log.FieldError, err)
	}
}

// RespondError writes a structured error body.
//
//	RespondError(w, r, http.StatusBadRequest, "invalid month", err.Error())
func RespondError(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	RespondJSON(w, r, status, ErrorResponse{Error: message, Details: details})
}

// respondSourceError maps a failed load to a response. Every data source
// failure is an upstream problem, hence 502.
func respondSourceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidMonth):
		RespondError(w, r, http.StatusBadRequest, "invalid month", err.Error())
	case errors.Is(err, core.ErrUnauthorized):
		RespondError(w, r, http.StatusBadGateway, core.ErrUnauthorized.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		RespondError(w, r, http.StatusGatewayTimeout, "data source timed out", nil)
	default:
		RespondError(w, r, http.StatusBadGateway, "data source unavailable", err.Error())
	}
}
