package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain validation errors
const (
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeNotAvailable         = "NOT_AVAILABLE"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodePendingOrderExists   = "PENDING_ORDER_EXISTS"
	ErrCodeNotPaid              = "NOT_PAID"
	ErrCodeAlreadyShipped       = "ALREADY_SHIPPED"
	ErrCodeUnknownStatus        = "UNKNOWN_TRANSACTION_STATUS"
)

var (
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrNotAvailable         = errors.New("product not available")
	ErrPendingOrderExists   = errors.New("pending order exists for product")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrNotPaid              = errors.New("order is not paid")
	ErrAlreadyShipped       = errors.New("order already shipped")
	ErrUnknownStatus        = errors.New("unknown transaction status")
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
		Err:     ErrMissingRequiredField,
	}
}

func NewInvalidAmountError(amount int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %d", amount),
	}
}

func NewInvalidQuantityError(productID string, qty int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidQuantity,
		Message: fmt.Sprintf("invalid quantity %d for product %s", qty, productID),
	}
}

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewOrderNotFoundError(ref string) *DomainError {
	return &DomainError{
		Code:    ErrCodeOrderNotFound,
		Message: fmt.Sprintf("order %s not found", ref),
		Err:     ErrOrderNotFound,
	}
}

func NewProductNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeProductNotFound,
		Message: fmt.Sprintf("product %s not found", id),
		Err:     ErrProductNotFound,
	}
}

func NewNotAvailableError(productID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotAvailable,
		Message: fmt.Sprintf("product %s is not available", productID),
		Err:     ErrNotAvailable,
	}
}

func NewPendingOrderExistsError(productID string) *DomainError {
	return &DomainError{
		Code:    ErrCodePendingOrderExists,
		Message: fmt.Sprintf("product %s already has a pending order", productID),
		Err:     ErrPendingOrderExists,
	}
}

func NewNotPaidError(status PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotPaid,
		Message: fmt.Sprintf("order payment status is %s, expected %s", status, StatusPaid),
		Err:     ErrNotPaid,
	}
}

func NewAlreadyShippedError() *DomainError {
	return &DomainError{
		Code:    ErrCodeAlreadyShipped,
		Message: "order has already been handed to the expedition",
		Err:     ErrAlreadyShipped,
	}
}

func NewUnknownStatusError(status string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnknownStatus,
		Message: fmt.Sprintf("unknown transaction status %q", status),
		Err:     ErrUnknownStatus,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
