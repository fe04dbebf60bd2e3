package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/couplestools/accounts/pkg/api"
)

// sendJSON writes a JSON response
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError writes a JSON error response with a single message
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}

// sendFieldErrors writes a 4xx JSON error response with per-field messages
func sendFieldErrors(logger *slog.Logger, w http.ResponseWriter, fields map[string]string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: "validation failed",
		Fields:  fields,
	}
	sendJSON(logger, w, resp, statusCode)
}
