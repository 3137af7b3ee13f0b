package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/DanielPopoola/storefront/internal/interfaces/rest"
)

// Health godoc
//
//	@Summary	Liveness and database reachability
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	rest.APIResponse{data=HealthResponse}
//	@Failure	503	{object}	rest.APIResponse
//	@Router		/healthz [get]
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, rest.APIResponse{
			Error: &rest.ErrorDetail{Code: "UNAVAILABLE", Message: "Database is unreachable"},
		})
		return
	}
	rest.RespondWithData(w, http.StatusOK, HealthResponse{Status: "ok"})
}
