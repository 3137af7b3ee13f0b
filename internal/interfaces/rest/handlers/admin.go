package handlers

import (
	"net/http"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/application/services"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest/middleware"
)

const defaultSummaryMinutes = 60

// AdminCreateOrder godoc
//
//	@Summary	Place an order on a customer's behalf
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	StaffBearer
//	@Param		request	body		AdminCreateOrderRequest	true	"Order"
//	@Success	201		{object}	rest.APIResponse{data=CreateOrderResponse}
//	@Failure	400		{object}	rest.APIResponse
//	@Failure	409		{object}	rest.APIResponse
//	@Router		/api/v1/admin/orders [post]
func (h *Handlers) AdminCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateOrderRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	cmd := req.command()
	cmd.ShippingCost = req.ShippingCost
	if staff, ok := middleware.StaffFromContext(r.Context()); ok {
		cmd.CreatedBy = &staff
	}
	h.createOrder(w, r, cmd)
}

// ListOrders godoc
//
//	@Summary	List orders
//	@Tags		admin
//	@Produce	json
//	@Security	StaffBearer
//	@Param		status	query		string	false	"Payment status filter"	Enums(PENDING, PAID, FAILED, EXPIRED, CANCELLED)
//	@Param		limit	query		int		false	"Page size, at most 100"
//	@Param		offset	query		int		false	"Rows to skip"
//	@Success	200		{object}	rest.APIResponse{data=OrderListResponse}
//	@Router		/api/v1/admin/orders [get]
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		status        *string
		limit, offset *int
	)
	for _, p := range []struct {
		name string
		dest any
	}{
		{"status", &status},
		{"limit", &limit},
		{"offset", &offset},
	} {
		if err := queryParam(r, p.name, false, p.dest); err != nil {
			rest.WriteError(w, r, err, h.logger)
			return
		}
	}

	var filter application.OrderFilter
	if status != nil {
		filter.Status = domain.PaymentStatus(*status)
	}
	if limit != nil {
		filter.Limit = *limit
	}
	if offset != nil {
		filter.Offset = *offset
	}

	page, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	resp := OrderListResponse{
		Orders: make([]OrderResponse, 0, len(page.Orders)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, o := range page.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	rest.RespondWithData(w, http.StatusOK, resp)
}

// GetOrder godoc
//
//	@Summary	Full order
//	@Tags		admin
//	@Produce	json
//	@Security	StaffBearer
//	@Param		id	path		string	true	"Order ID"
//	@Success	200	{object}	rest.APIResponse{data=OrderResponse}
//	@Failure	404	{object}	rest.APIResponse
//	@Router		/api/v1/admin/orders/{id} [get]
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, toOrderResponse(order))
}

// ConfirmShipment godoc
//
//	@Summary	Record courier handover
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	StaffBearer
//	@Param		id		path		string			true	"Order ID"
//	@Param		request	body		ShipmentRequest	true	"Shipment"
//	@Success	200		{object}	rest.APIResponse{data=OrderResponse}
//	@Failure	409		{object}	rest.APIResponse
//	@Failure	412		{object}	rest.APIResponse
//	@Router		/api/v1/admin/orders/{id}/shipment [post]
func (h *Handlers) ConfirmShipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	var req ShipmentRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.orders.ConfirmShipment(r.Context(), services.ConfirmShipmentCommand{
		OrderID:           id,
		ExpeditionName:    req.ExpeditionName,
		TrackingReference: req.TrackingReference,
	})
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, toOrderResponse(order))
}

// CancelOrder godoc
//
//	@Summary	Cancel a pending order
//	@Tags		admin
//	@Produce	json
//	@Security	StaffBearer
//	@Param		id	path		string	true	"Order ID"
//	@Success	200	{object}	rest.APIResponse{data=OrderResponse}
//	@Failure	409	{object}	rest.APIResponse
//	@Router		/api/v1/admin/orders/{id}/cancel [post]
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, toOrderResponse(order))
}

// WebhookSummary godoc
//
//	@Summary	Webhook processing summary
//	@Tags		admin
//	@Produce	json
//	@Security	StaffBearer
//	@Param		minutes	query		int	false	"Trailing window in minutes, default 60"
//	@Success	200		{object}	rest.APIResponse{data=services.WebhookSummary}
//	@Router		/api/v1/admin/webhooks/summary [get]
func (h *Handlers) WebhookSummary(w http.ResponseWriter, r *http.Request) {
	var minutes *int
	if err := queryParam(r, "minutes", false, &minutes); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	window := defaultSummaryMinutes * time.Minute
	if minutes != nil {
		window = time.Duration(*minutes) * time.Minute
	}

	summary, err := h.monitor.Summarize(r.Context(), window)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, summary)
}
