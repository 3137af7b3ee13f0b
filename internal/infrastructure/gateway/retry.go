package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
)

// RetryGatewayClient retries status queries on transient failures. Transaction
// creation is passed straight through: a checkout that fails is rolled back and the
// customer resubmits.
type RetryGatewayClient struct {
	inner      application.GatewayClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryGatewayClient(inner application.GatewayClient, cfg config.RetryConfig) *RetryGatewayClient {
	return &RetryGatewayClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: max(cfg.MaxAttempts, 1),
	}
}

var _ application.GatewayClient = (*RetryGatewayClient)(nil)

func (r *RetryGatewayClient) CreateTransaction(ctx context.Context, req application.CreateTransactionRequest) (*application.CreateTransactionResponse, error) {
	return r.inner.CreateTransaction(ctx, req)
}

// GetTransactionStatus with retry logic
func (r *RetryGatewayClient) GetTransactionStatus(ctx context.Context, gatewayOrderID string) (*domain.Notification, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*domain.Notification, error) {
			return r.inner.GetTransactionStatus(ctx, gatewayOrderID)
		},
	)
}

// Generic retry helper
func retry[T any](r *RetryGatewayClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}

	// Transport failures and timeouts
	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryGatewayClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.baseDelay <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int64N(int64(r.baseDelay)))

	return base + jitter
}
