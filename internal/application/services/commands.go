package services

import (
	"github.com/DanielPopoola/storefront/internal/domain"
)

// OrderLine is one requested product in a checkout.
type OrderLine struct {
	ProductID        string
	Quantity         int
	VariantSelection map[string]string
}

type CreateOrderCommand struct {
	Customer domain.Customer
	Notes    string
	Items    []OrderLine
	// ShippingCost overrides the configured default when set.
	ShippingCost *int64
	CreatedBy    *string
}

type ConfirmShipmentCommand struct {
	OrderID           string
	ExpeditionName    string
	TrackingReference string
}

type CreateOrderResult struct {
	Order       *domain.Order
	AccessToken string
}
