// Package domain encodes orders, products and gateway notifications together with
// the rules that govern how their state may change.
package domain

import (
	"slices"
	"strings"
	"time"
)

// PaymentStatus represents the current state of an order's payment in its lifecycle
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusPaid      PaymentStatus = "PAID"
	StatusFailed    PaymentStatus = "FAILED"
	StatusExpired   PaymentStatus = "EXPIRED"
	StatusCancelled PaymentStatus = "CANCELLED"
)

// IsValid reports whether s is one of the known payment statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s PaymentStatus) IsTerminal() bool {
	return s.IsValid() && s != StatusPending
}

// LineItem is a snapshot of what was bought. It never changes after the order is placed,
// even if the catalog entry it came from does.
type LineItem struct {
	ID               string
	ProductID        string
	Quantity         int
	UnitPrice        int64
	ProductTitle     string
	VariantSelection map[string]string
}

func (li LineItem) Total() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// Customer holds the contact and delivery fields captured at checkout.
type Customer struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
}

type Order struct {
	ID           string
	OrderCode    string
	TrackingCode string
	Customer     Customer
	Notes        string
	Items        []LineItem

	Subtotal     int64
	ShippingCost int64
	TotalAmount  int64

	PaymentStatus        PaymentStatus
	GatewayOrderID       string
	GatewayTransactionID *string
	PaymentToken         *string
	PaymentRedirectURL   *string
	PaidAt               *time.Time

	ShippedToExpedition bool
	ExpeditionName      *string
	TrackingReference   *string
	ShippedAt           *time.Time

	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder builds a PENDING order and computes its amounts from the line items.
func NewOrder(
	id string,
	orderCode string,
	trackingCode string,
	gatewayOrderID string,
	customer Customer,
	items []LineItem,
	shippingCost int64,
	now time.Time,
) (*Order, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("order ID")
	}
	if orderCode == "" {
		return nil, NewMissingRequiredFieldError("order code")
	}
	if gatewayOrderID == "" {
		return nil, NewMissingRequiredFieldError("gateway order ID")
	}
	if strings.TrimSpace(customer.Name) == "" {
		return nil, NewMissingRequiredFieldError("customer name")
	}
	if len(items) == 0 {
		return nil, NewMissingRequiredFieldError("line items")
	}
	if shippingCost < 0 {
		return nil, NewInvalidAmountError(shippingCost)
	}

	var subtotal int64
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, NewInvalidQuantityError(item.ProductID, item.Quantity)
		}
		if item.UnitPrice < 0 {
			return nil, NewInvalidAmountError(item.UnitPrice)
		}
		subtotal += item.Total()
	}

	total := subtotal + shippingCost
	if total <= 0 {
		return nil, NewInvalidAmountError(total)
	}

	return &Order{
		ID:             id,
		OrderCode:      orderCode,
		TrackingCode:   trackingCode,
		Customer:       customer,
		Items:          items,
		Subtotal:       subtotal,
		ShippingCost:   shippingCost,
		TotalAmount:    total,
		PaymentStatus:  StatusPending,
		GatewayOrderID: gatewayOrderID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ProductIDs returns the distinct products referenced by the order, in line order.
func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if !slices.Contains(ids, item.ProductID) {
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

// AttachPayment records the gateway's answer to the transaction creation request.
func (o *Order) AttachPayment(transactionID, token, redirectURL string, now time.Time) {
	if transactionID != "" {
		o.GatewayTransactionID = &transactionID
	}
	o.PaymentToken = &token
	if redirectURL != "" {
		o.PaymentRedirectURL = &redirectURL
	}
	o.UpdatedAt = now
}

// CanTransitionTo returns nil when the order may move from its current status to target.
func (o *Order) CanTransitionTo(target PaymentStatus) error {
	switch o.PaymentStatus {
	case StatusPending:
		return o.allow(target, StatusPaid, StatusFailed, StatusExpired, StatusCancelled)
	}
	return NewInvalidTransitionError(o.PaymentStatus, target)
}

func (o *Order) allow(target PaymentStatus, allowed ...PaymentStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(o.PaymentStatus, target)
}

func (o *Order) transition(target PaymentStatus, now time.Time) error {
	if err := o.CanTransitionTo(target); err != nil {
		return err
	}
	o.PaymentStatus = target
	o.UpdatedAt = now
	return nil
}

// ApplyPaymentStatus moves the order to target as reported by the gateway.
// Reporting the status the order already has is a no-op and returns false.
func (o *Order) ApplyPaymentStatus(target PaymentStatus, transactionID string, now time.Time) (bool, error) {
	if target == o.PaymentStatus {
		return false, nil
	}
	if target == StatusPaid {
		if err := o.MarkPaid(transactionID, now); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := o.transition(target, now); err != nil {
		return false, err
	}
	if transactionID != "" {
		o.GatewayTransactionID = &transactionID
	}
	return true, nil
}

// MarkPaid transitions the order to PAID and records when the money arrived.
func (o *Order) MarkPaid(transactionID string, paidAt time.Time) error {
	if err := o.transition(StatusPaid, paidAt); err != nil {
		return err
	}
	if transactionID != "" {
		o.GatewayTransactionID = &transactionID
	}
	o.PaidAt = &paidAt
	return nil
}

func (o *Order) Cancel(now time.Time) error {
	return o.transition(StatusCancelled, now)
}

func (o *Order) Expire(now time.Time) error {
	return o.transition(StatusExpired, now)
}

// ConfirmShipment records the courier handover. Only paid orders can ship, and a
// shipped order keeps its first tracking reference: re-submitting the same
// expedition and reference is a no-op (false), anything else is rejected.
func (o *Order) ConfirmShipment(expeditionName, trackingReference string, now time.Time) (bool, error) {
	if o.PaymentStatus != StatusPaid {
		return false, NewNotPaidError(o.PaymentStatus)
	}
	if expeditionName == "" {
		return false, NewMissingRequiredFieldError("expedition name")
	}
	if trackingReference == "" {
		return false, NewMissingRequiredFieldError("tracking reference")
	}

	if o.ShippedToExpedition {
		if o.ExpeditionName != nil && *o.ExpeditionName == expeditionName &&
			o.TrackingReference != nil && *o.TrackingReference == trackingReference {
			return false, nil
		}
		return false, NewAlreadyShippedError()
	}

	o.ShippedToExpedition = true
	o.ExpeditionName = &expeditionName
	o.TrackingReference = &trackingReference
	o.ShippedAt = &now
	o.UpdatedAt = now
	return true, nil
}
