package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayError is a failed gateway call. StatusCode is zero when no response
// arrived at all; Err then holds the transport error.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

// ErrorResponse covers both error shapes the gateway uses: Snap returns a list of
// messages, the core API a status code and message in the body.
type ErrorResponse struct {
	ErrorMessages []string `json:"error_messages"`
	StatusCode    string   `json:"status_code"`
	StatusMessage string   `json:"status_message"`
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the same request may succeed later.
func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether the gateway has no transaction for the requested id.
func (e *GatewayError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
