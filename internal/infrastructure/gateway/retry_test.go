package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/infrastructure/gateway"
	"github.com/DanielPopoola/storefront/internal/infrastructure/gateway/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRetryClient(t *testing.T) (*mocks.MockGatewayClient, *gateway.RetryGatewayClient) {
	mockClient := mocks.NewMockGatewayClient(t)
	return mockClient, gateway.NewRetryGatewayClient(mockClient, config.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	})
}

func TestRetryGatewayClient_GetTransactionStatus_Success(t *testing.T) {
	mockClient, retryClient := newRetryClient(t)
	expected := &domain.Notification{OrderID: "gw-1", TransactionStatus: "settlement"}

	mockClient.EXPECT().
		GetTransactionStatus(mock.Anything, "gw-1").
		Return(expected, nil).
		Once()

	resp, err := retryClient.GetTransactionStatus(context.Background(), "gw-1")

	require.NoError(t, err)
	assert.Equal(t, expected, resp)
}

func TestRetryGatewayClient_GetTransactionStatus_RetriesOn5xx(t *testing.T) {
	mockClient, retryClient := newRetryClient(t)
	expected := &domain.Notification{OrderID: "gw-1", TransactionStatus: "settlement"}

	// First two calls fail with 500
	mockClient.EXPECT().
		GetTransactionStatus(mock.Anything, "gw-1").
		Return(nil, &gateway.GatewayError{Code: "http_error", Message: "Internal Server Error", StatusCode: 500}).
		Twice()

	mockClient.EXPECT().
		GetTransactionStatus(mock.Anything, "gw-1").
		Return(expected, nil).
		Once()

	resp, err := retryClient.GetTransactionStatus(context.Background(), "gw-1")

	require.NoError(t, err)
	assert.Equal(t, expected, resp)
}

func TestRetryGatewayClient_GetTransactionStatus_NoRetryOn4xx(t *testing.T) {
	mockClient, retryClient := newRetryClient(t)

	mockClient.EXPECT().
		GetTransactionStatus(mock.Anything, "gw-1").
		Return(nil, &gateway.GatewayError{Code: "status_404", Message: "not found", StatusCode: 404}).
		Once()

	_, err := retryClient.GetTransactionStatus(context.Background(), "gw-1")

	require.Error(t, err)
	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.True(t, gwErr.IsNotFound())
}

func TestRetryGatewayClient_GetTransactionStatus_MaxRetriesExceeded(t *testing.T) {
	mockClient, retryClient := newRetryClient(t)

	mockClient.EXPECT().
		GetTransactionStatus(mock.Anything, "gw-1").
		Return(nil, &gateway.GatewayError{Code: "http_error", StatusCode: 503}).
		Times(3)

	_, err := retryClient.GetTransactionStatus(context.Background(), "gw-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum retries exceeded")
	assert.True(t, application.IsRetryable(err))
}

func TestRetryGatewayClient_GetTransactionStatus_StopsOnCancel(t *testing.T) {
	mockClient, retryClient := newRetryClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	mockClient.EXPECT().
		GetTransactionStatus(mock.Anything, "gw-1").
		RunAndReturn(func(context.Context, string) (*domain.Notification, error) {
			cancel()
			return nil, context.Canceled
		}).
		Once()

	_, err := retryClient.GetTransactionStatus(ctx, "gw-1")

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetryGatewayClient_CreateTransaction_NotRetried(t *testing.T) {
	mockClient, retryClient := newRetryClient(t)
	req := application.CreateTransactionRequest{GatewayOrderID: "gw-1", Amount: 1000}

	mockClient.EXPECT().
		CreateTransaction(mock.Anything, req).
		Return(nil, &gateway.GatewayError{Code: "http_error", StatusCode: 502}).
		Once()

	_, err := retryClient.CreateTransaction(context.Background(), req)

	require.Error(t, err)
}
