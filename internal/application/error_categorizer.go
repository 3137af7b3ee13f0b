package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/storefront/internal/domain"
)

// ErrConcurrentModification is returned by repositories when the database aborted a
// transaction because a concurrent one touched the same rows.
var ErrConcurrentModification = errors.New("concurrent modification")

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if errors.Is(err, ErrConcurrentModification) {
		return CategoryTransient
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeValidation, ErrCodeNotFound, ErrCodeUnauthorized:
			return CategoryClientError
		case ErrCodeConflict, ErrCodeNotAvailable, ErrCodePreconditionFailed:
			return CategoryBusinessRule
		case ErrCodeTimeout:
			return CategoryTransient
		case ErrCodeUpstream:
			if svcErr.Retryable {
				return CategoryTransient
			}
			return CategoryPermanent
		case ErrCodeInternal:
			return CategoryInfrastructure
		}
	}

	var upstream UpstreamFailure
	if errors.As(err, &upstream) {
		if upstream.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	if errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrPendingOrderExists) ||
		errors.Is(err, domain.ErrNotAvailable) ||
		errors.Is(err, domain.ErrNotPaid) ||
		errors.Is(err, domain.ErrAlreadyShipped) {
		return CategoryBusinessRule
	}

	if errors.Is(err, domain.ErrOrderNotFound) ||
		errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrMissingRequiredField) ||
		errors.Is(err, domain.ErrUnknownStatus) {
		return CategoryClientError
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return CategoryClientError
	}

	// Default: Transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToServiceError maps any error onto the service taxonomy. Errors that are already
// ServiceErrors pass through untouched.
func ToServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return NewNotFoundError("Order")
	case errors.Is(err, domain.ErrProductNotFound):
		return NewNotFoundError("Product")
	case errors.Is(err, domain.ErrNotAvailable):
		return NewNotAvailableError(err)
	case errors.Is(err, domain.ErrPendingOrderExists):
		return NewConflictError("Product already has a pending order", err)
	case errors.Is(err, domain.ErrNotPaid):
		return NewPreconditionFailedError("Order has not been paid", err)
	case errors.Is(err, domain.ErrAlreadyShipped):
		return NewConflictError("Order has already been shipped", err)
	case errors.Is(err, domain.ErrInvalidTransition):
		return NewConflictError("Order status does not allow this change", err)
	case errors.Is(err, ErrConcurrentModification):
		return NewConflictError("Order was modified concurrently, please retry", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(err)
	}

	var upstream UpstreamFailure
	if errors.As(err, &upstream) {
		return NewUpstreamError(err, upstream.IsRetryable())
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return NewValidationError(domainErr.Message, err)
	}

	return NewInternalError(err)
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return ToServiceError(err).HTTPStatus
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return ToServiceError(err).Code
}

// PublicMessage is the text that may be shown to an API caller for err.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	return ToServiceError(err).Message
}
