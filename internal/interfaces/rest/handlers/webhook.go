package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest"
)

// SignatureHeader carries the notification signature when the gateway sends it out of
// band. It takes precedence over signature_key in the body.
const SignatureHeader = "X-Signature-Key"

// HandleNotification godoc
//
//	@Summary		Payment gateway notification
//	@Description	Authenticated by the X-Signature-Key header, or the signature_key in the body when the header is absent. Non-2xx answers make the gateway redeliver.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Signature-Key	header	string	false	"Notification signature"
//	@Success		200	{object}	rest.APIResponse{data=services.WebhookResult}
//	@Failure		400	{object}	rest.APIResponse
//	@Failure		401	{object}	rest.APIResponse
//	@Failure		500	{object}	rest.APIResponse
//	@Router			/api/v1/payments/notifications [post]
func (h *Handlers) HandleNotification(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		rest.WriteError(w, r, application.NewValidationError("Notification body could not be read", err), h.logger)
		return
	}

	signature := strings.TrimSpace(r.Header.Get(SignatureHeader))
	result, err := h.webhooks.HandleNotification(r.Context(), payload, signature)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, result)
}
