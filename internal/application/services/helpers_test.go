package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/infrastructure/gateway"
	"github.com/stretchr/testify/require"
)

const (
	testServerKey   = "SB-Mid-server-current"
	testPreviousKey = "SB-Mid-server-previous"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingAlerter keeps every alert it receives.
type recordingAlerter struct {
	mu     sync.Mutex
	alerts []application.Alert
}

func (a *recordingAlerter) Alert(_ context.Context, alert application.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *recordingAlerter) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	events := make([]string, 0, len(a.alerts))
	for _, alert := range a.alerts {
		events = append(events, alert.Event)
	}
	return events
}

var errConnReset = errors.New("connection reset by peer")

// flakyOrderRepo fails the first n order lookups by gateway id, including those made
// inside transactions.
type flakyOrderRepo struct {
	application.OrderRepository
	failures *atomic.Int32
}

func newFlakyOrderRepo(inner application.OrderRepository, n int32) *flakyOrderRepo {
	r := &flakyOrderRepo{OrderRepository: inner, failures: &atomic.Int32{}}
	r.failures.Store(n)
	return r
}

func (r *flakyOrderRepo) FindByGatewayOrderIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	if r.failures.Add(-1) >= 0 {
		return nil, errConnReset
	}
	return r.OrderRepository.FindByGatewayOrderIDForUpdate(ctx, id)
}

func (r *flakyOrderRepo) WithTx(ctx context.Context, fn func(application.OrderRepository) error) error {
	return r.OrderRepository.WithTx(ctx, func(tx application.OrderRepository) error {
		return fn(&flakyOrderRepo{OrderRepository: tx, failures: r.failures})
	})
}

// notificationFor builds a gateway notification for order signed with key.
func notificationFor(order *domain.Order, transactionStatus, key string) domain.Notification {
	n := domain.Notification{
		OrderID:           order.GatewayOrderID,
		StatusCode:        "200",
		GrossAmount:       fmt.Sprintf("%d.00", order.TotalAmount),
		TransactionStatus: transactionStatus,
		TransactionID:     "txn-" + order.OrderCode,
		PaymentType:       "bank_transfer",
	}
	n.SignatureKey = gateway.Sign(n, key)
	return n
}

func payloadOf(t *testing.T, n domain.Notification) []byte {
	payload, err := json.Marshal(n)
	require.NoError(t, err)
	return payload
}
