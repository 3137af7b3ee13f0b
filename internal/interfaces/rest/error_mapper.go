package rest

import (
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/storefront/internal/application"
)

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError maps err onto the service taxonomy and writes the error envelope. Only
// the public message reaches the client; internal causes are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	svcErr := application.ToServiceError(err)

	if svcErr.HTTPStatus >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", svcErr.Code,
			"error", err,
		)
	}

	WriteJSON(w, svcErr.HTTPStatus, APIResponse{
		Success: false,
		Error: &ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
		},
	})
}
