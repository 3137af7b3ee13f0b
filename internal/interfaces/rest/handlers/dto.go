package handlers

import (
	"time"

	"github.com/DanielPopoola/storefront/internal/application/services"
	"github.com/DanielPopoola/storefront/internal/domain"
)

type CustomerRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Phone      string `json:"phone" validate:"required,max=32"`
	Address    string `json:"address" validate:"required,max=500"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=16"`
}

type OrderItemRequest struct {
	ProductID        string            `json:"product_id" validate:"required,uuid"`
	Quantity         int               `json:"quantity" validate:"required,min=1,max=100"`
	VariantSelection map[string]string `json:"variant_selection,omitempty"`
}

type CreateOrderRequest struct {
	Customer CustomerRequest    `json:"customer" validate:"required"`
	Notes    string             `json:"notes" validate:"max=1000"`
	Items    []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// AdminCreateOrderRequest lets staff place an order on a customer's behalf, with
// an optional shipping cost override.
type AdminCreateOrderRequest struct {
	CreateOrderRequest
	ShippingCost *int64 `json:"shipping_cost,omitempty" validate:"omitempty,min=0"`
}

func (req CreateOrderRequest) command() services.CreateOrderCommand {
	cmd := services.CreateOrderCommand{
		Customer: domain.Customer{
			Name:       req.Customer.Name,
			Email:      req.Customer.Email,
			Phone:      req.Customer.Phone,
			Address:    req.Customer.Address,
			City:       req.Customer.City,
			PostalCode: req.Customer.PostalCode,
		},
		Notes: req.Notes,
		Items: make([]services.OrderLine, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, services.OrderLine{
			ProductID:        item.ProductID,
			Quantity:         item.Quantity,
			VariantSelection: item.VariantSelection,
		})
	}
	return cmd
}

type ShipmentRequest struct {
	ExpeditionName    string `json:"expedition_name" validate:"required,max=100"`
	TrackingReference string `json:"tracking_reference" validate:"required,max=100"`
}

type CreateOrderResponse struct {
	OrderID      string                    `json:"order_id"`
	AccessToken  string                    `json:"access_token"`
	PaymentToken string                    `json:"payment_token"`
	RedirectURL  string                    `json:"redirect_url"`
	Order        *services.PublicOrderView `json:"order"`
}

type CustomerResponse struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type LineItemResponse struct {
	ID               string            `json:"id"`
	ProductID        string            `json:"product_id"`
	ProductTitle     string            `json:"product_title"`
	Quantity         int               `json:"quantity"`
	UnitPrice        int64             `json:"unit_price"`
	VariantSelection map[string]string `json:"variant_selection,omitempty"`
}

// OrderResponse is the full staff view of an order.
type OrderResponse struct {
	ID                   string             `json:"id"`
	OrderCode            string             `json:"order_code"`
	TrackingCode         string             `json:"tracking_code"`
	Customer             CustomerResponse   `json:"customer"`
	Notes                string             `json:"notes,omitempty"`
	Items                []LineItemResponse `json:"items"`
	Subtotal             int64              `json:"subtotal"`
	ShippingCost         int64              `json:"shipping_cost"`
	TotalAmount          int64              `json:"total_amount"`
	PaymentStatus        string             `json:"payment_status"`
	GatewayOrderID       string             `json:"gateway_order_id"`
	GatewayTransactionID *string            `json:"gateway_transaction_id,omitempty"`
	PaidAt               *time.Time         `json:"paid_at,omitempty"`
	ShippedToExpedition  bool               `json:"shipped_to_expedition"`
	ExpeditionName       *string            `json:"expedition_name,omitempty"`
	TrackingReference    *string            `json:"tracking_reference,omitempty"`
	ShippedAt            *time.Time         `json:"shipped_at,omitempty"`
	CreatedBy            *string            `json:"created_by,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, LineItemResponse{
			ID:               item.ID,
			ProductID:        item.ProductID,
			ProductTitle:     item.ProductTitle,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			VariantSelection: item.VariantSelection,
		})
	}

	return OrderResponse{
		ID:           o.ID,
		OrderCode:    o.OrderCode,
		TrackingCode: o.TrackingCode,
		Customer: CustomerResponse{
			Name:       o.Customer.Name,
			Email:      o.Customer.Email,
			Phone:      o.Customer.Phone,
			Address:    o.Customer.Address,
			City:       o.Customer.City,
			PostalCode: o.Customer.PostalCode,
		},
		Notes:                o.Notes,
		Items:                items,
		Subtotal:             o.Subtotal,
		ShippingCost:         o.ShippingCost,
		TotalAmount:          o.TotalAmount,
		PaymentStatus:        string(o.PaymentStatus),
		GatewayOrderID:       o.GatewayOrderID,
		GatewayTransactionID: o.GatewayTransactionID,
		PaidAt:               o.PaidAt,
		ShippedToExpedition:  o.ShippedToExpedition,
		ExpeditionName:       o.ExpeditionName,
		TrackingReference:    o.TrackingReference,
		ShippedAt:            o.ShippedAt,
		CreatedBy:            o.CreatedBy,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
