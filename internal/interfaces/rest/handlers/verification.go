package handlers

import (
	"net/http"

	"github.com/DanielPopoola/storefront/internal/interfaces/rest"
)

// VerifyReceipt godoc
//
//	@Summary	Check a printed receipt
//	@Tags		verification
//	@Produce	json
//	@Param		receipt	query		string	true	"Receipt number, RCPT-..."
//	@Param		code	query		string	true	"Verification code, VRF-..."
//	@Success	200		{object}	rest.APIResponse{data=services.ReceiptVerification}
//	@Failure	400		{object}	rest.APIResponse
//	@Failure	429		{object}	rest.APIResponse
//	@Router		/api/v1/receipts/verify [get]
func (h *Handlers) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	var receipt, code string
	if err := queryParam(r, "receipt", true, &receipt); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	if err := queryParam(r, "code", true, &code); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.verification.VerifyReceipt(r.Context(), receipt, code)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, result)
}

// VerifyTracking godoc
//
//	@Summary	Check a tracking code
//	@Tags		verification
//	@Produce	json
//	@Param		code	query		string	true	"Tracking code, TMB-RESI-..."
//	@Success	200		{object}	rest.APIResponse{data=services.TrackingVerification}
//	@Failure	400		{object}	rest.APIResponse
//	@Failure	429		{object}	rest.APIResponse
//	@Router		/api/v1/tracking/verify [get]
func (h *Handlers) VerifyTracking(w http.ResponseWriter, r *http.Request) {
	var code string
	if err := queryParam(r, "code", true, &code); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.verification.VerifyTracking(r.Context(), code)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, result)
}
