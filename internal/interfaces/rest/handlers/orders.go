package handlers

import (
	"net/http"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/application/services"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest"
)

// CreateOrder godoc
//
//	@Summary	Place an order
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateOrderRequest	true	"Checkout"
//	@Success	201		{object}	rest.APIResponse{data=CreateOrderResponse}
//	@Failure	400		{object}	rest.APIResponse
//	@Failure	409		{object}	rest.APIResponse
//	@Failure	502		{object}	rest.APIResponse
//	@Router		/api/v1/orders [post]
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	h.createOrder(w, r, req.command())
}

func (h *Handlers) createOrder(w http.ResponseWriter, r *http.Request, cmd services.CreateOrderCommand) {
	result, err := h.orders.Create(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	resp := CreateOrderResponse{
		OrderID:     result.Order.ID,
		AccessToken: result.AccessToken,
		Order:       services.NewPublicOrderView(result.Order),
	}
	if result.Order.PaymentToken != nil {
		resp.PaymentToken = *result.Order.PaymentToken
	}
	if result.Order.PaymentRedirectURL != nil {
		resp.RedirectURL = *result.Order.PaymentRedirectURL
	}

	rest.RespondWithData(w, http.StatusCreated, resp)
}

// GetOrderStatus godoc
//
//	@Summary	Customer view of an order
//	@Tags		orders
//	@Produce	json
//	@Param		id		path		string	true	"Order ID"
//	@Param		token	query		string	true	"Access token issued at checkout"
//	@Success	200		{object}	rest.APIResponse{data=services.PublicOrderView}
//	@Failure	401		{object}	rest.APIResponse
//	@Router		/api/v1/orders/{id}/status [get]
func (h *Handlers) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}

	var token *string
	if err := queryParam(r, "token", false, &token); err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	if token == nil || *token == "" {
		rest.WriteError(w, r, application.NewUnauthorizedError("Not authorized to view this order"), h.logger)
		return
	}

	view, err := h.orders.GetPublicOrder(r.Context(), id, *token)
	if err != nil {
		rest.WriteError(w, r, err, h.logger)
		return
	}
	rest.RespondWithData(w, http.StatusOK, view)
}
