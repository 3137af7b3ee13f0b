package services

import (
	"time"

	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/ordercode"
)

type PublicLineItem struct {
	ProductTitle     string            `json:"product_title"`
	Quantity         int               `json:"quantity"`
	UnitPrice        int64             `json:"unit_price"`
	VariantSelection map[string]string `json:"variant_selection,omitempty"`
}

// PublicOrderView is what a customer holding the access token may see. Contact and
// address fields are left out.
type PublicOrderView struct {
	OrderCode           string           `json:"order_code"`
	PaymentStatus       string           `json:"payment_status"`
	Items               []PublicLineItem `json:"items"`
	Subtotal            int64            `json:"subtotal"`
	ShippingCost        int64            `json:"shipping_cost"`
	TotalAmount         int64            `json:"total_amount"`
	PaymentRedirectURL  string           `json:"payment_redirect_url,omitempty"`
	ReceiptNumber       string           `json:"receipt_number,omitempty"`
	VerificationCode    string           `json:"verification_code,omitempty"`
	ShippedToExpedition bool             `json:"shipped_to_expedition"`
	ExpeditionName      string           `json:"expedition_name,omitempty"`
	TrackingCode        string           `json:"tracking_code,omitempty"`
	PaidAt              *time.Time       `json:"paid_at,omitempty"`
	ShippedAt           *time.Time       `json:"shipped_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

func NewPublicOrderView(o *domain.Order) *PublicOrderView {
	v := &PublicOrderView{
		OrderCode:           o.OrderCode,
		PaymentStatus:       string(o.PaymentStatus),
		Items:               publicItems(o.Items),
		Subtotal:            o.Subtotal,
		ShippingCost:        o.ShippingCost,
		TotalAmount:         o.TotalAmount,
		ShippedToExpedition: o.ShippedToExpedition,
		PaidAt:              o.PaidAt,
		ShippedAt:           o.ShippedAt,
		CreatedAt:           o.CreatedAt,
	}

	switch o.PaymentStatus {
	case domain.StatusPending:
		if o.PaymentRedirectURL != nil {
			v.PaymentRedirectURL = *o.PaymentRedirectURL
		}
	case domain.StatusPaid:
		v.ReceiptNumber = ordercode.ReceiptNumber(o.OrderCode)
		v.VerificationCode = ordercode.VerificationCode(o.OrderCode)
	}

	if o.ShippedToExpedition {
		v.TrackingCode = o.TrackingCode
		if o.ExpeditionName != nil {
			v.ExpeditionName = *o.ExpeditionName
		}
	}
	return v
}

// ReceiptSummary is returned when a receipt checks out.
type ReceiptSummary struct {
	ReceiptNumber string           `json:"receipt_number"`
	OrderCode     string           `json:"order_code"`
	PaymentStatus string           `json:"payment_status"`
	Items         []PublicLineItem `json:"items"`
	TotalAmount   int64            `json:"total_amount"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func newReceiptSummary(o *domain.Order) *ReceiptSummary {
	return &ReceiptSummary{
		ReceiptNumber: ordercode.ReceiptNumber(o.OrderCode),
		OrderCode:     o.OrderCode,
		PaymentStatus: string(o.PaymentStatus),
		Items:         publicItems(o.Items),
		TotalAmount:   o.TotalAmount,
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
	}
}

// ShipmentSummary is returned when a tracking code checks out.
type ShipmentSummary struct {
	TrackingCode      string     `json:"tracking_code"`
	OrderCode         string     `json:"order_code"`
	ExpeditionName    string     `json:"expedition_name"`
	TrackingReference string     `json:"tracking_reference"`
	ShippedAt         *time.Time `json:"shipped_at,omitempty"`
}

func newShipmentSummary(o *domain.Order) *ShipmentSummary {
	s := &ShipmentSummary{
		TrackingCode: o.TrackingCode,
		OrderCode:    o.OrderCode,
		ShippedAt:    o.ShippedAt,
	}
	if o.ExpeditionName != nil {
		s.ExpeditionName = *o.ExpeditionName
	}
	if o.TrackingReference != nil {
		s.TrackingReference = *o.TrackingReference
	}
	return s
}

func publicItems(items []domain.LineItem) []PublicLineItem {
	out := make([]PublicLineItem, 0, len(items))
	for _, item := range items {
		out = append(out, PublicLineItem{
			ProductTitle:     item.ProductTitle,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			VariantSelection: item.VariantSelection,
		})
	}
	return out
}
