package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

// ServiceError is what the HTTP layer renders. Message is safe to show to callers;
// Err keeps the internal cause for logs.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Retryable  bool
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeNotAvailable       = "NOT_AVAILABLE"
	ErrCodePreconditionFailed = "PRECONDITION_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeUpstream           = "UPSTREAM_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeTimeout            = "TIMEOUT"
)

func NewValidationError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewNotFoundError(resource string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

func NewConflictError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewNotAvailableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotAvailable,
		Message:    "Product is not available",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewPreconditionFailedError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodePreconditionFailed,
		Message:    message,
		HTTPStatus: http.StatusPreconditionFailed,
		Err:        err,
	}
}

func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewUpstreamError wraps a payment gateway failure. Customers only ever see the
// generic message.
func NewUpstreamError(err error, retryable bool) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUpstream,
		Message:    "Payment gateway is unavailable, please try again",
		HTTPStatus: http.StatusBadGateway,
		Retryable:  retryable,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Retryable:  true,
		Err:        err,
	}
}

func NewTimeoutError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeTimeout,
		Message:    "Request timed out",
		HTTPStatus: http.StatusGatewayTimeout,
		Retryable:  true,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// UpstreamFailure is implemented by errors returned from the payment gateway client.
type UpstreamFailure interface {
	error
	IsRetryable() bool
}
