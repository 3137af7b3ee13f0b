package domain_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testCustomer() domain.Customer {
	return domain.Customer{
		Name:    "Siti Rahma",
		Email:   "siti@example.com",
		Phone:   "+628123456789",
		Address: "Jl. Merdeka 10",
		City:    "Bandung",
	}
}

func createTestOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(
		"order-1",
		"TMB-1700000000-ABC123",
		"TMB-RESI-TMB170000000",
		"TMB-1700000000-ABC123-1700000001",
		testCustomer(),
		[]domain.LineItem{
			{ID: "li-1", ProductID: "prod-1", Quantity: 1, UnitPrice: 150000, ProductTitle: "Batik Shirt"},
			{ID: "li-2", ProductID: "prod-2", Quantity: 2, UnitPrice: 25000, ProductTitle: "Tote Bag"},
		},
		15000,
		now,
	)
	require.NoError(t, err)
	return order
}

func createOrderWithStatus(t *testing.T, status domain.PaymentStatus) *domain.Order {
	t.Helper()
	order := createTestOrder(t)
	order.PaymentStatus = status
	return order
}

func TestNewOrder(t *testing.T) {
	t.Run("computes amounts from line items", func(t *testing.T) {
		order := createTestOrder(t)

		assert.Equal(t, int64(200000), order.Subtotal)
		assert.Equal(t, int64(15000), order.ShippingCost)
		assert.Equal(t, int64(215000), order.TotalAmount)
		assert.Equal(t, domain.StatusPending, order.PaymentStatus)
		assert.False(t, order.ShippedToExpedition)
		assert.Equal(t, now, order.CreatedAt)
	})

	t.Run("rejects empty line items", func(t *testing.T) {
		_, err := domain.NewOrder("order-1", "TMB-1-A", "TMB-RESI-TMB1A", "gw-1", testCustomer(), nil, 0, now)

		assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
	})

	t.Run("rejects missing customer name", func(t *testing.T) {
		customer := testCustomer()
		customer.Name = "  "

		_, err := domain.NewOrder("order-1", "TMB-1-A", "TMB-RESI-TMB1A", "gw-1", customer,
			[]domain.LineItem{{ProductID: "p", Quantity: 1, UnitPrice: 10}}, 0, now)

		assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := domain.NewOrder("order-1", "TMB-1-A", "TMB-RESI-TMB1A", "gw-1", testCustomer(),
			[]domain.LineItem{{ProductID: "p", Quantity: 0, UnitPrice: 10}}, 0, now)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidQuantity))
	})

	t.Run("rejects zero total", func(t *testing.T) {
		_, err := domain.NewOrder("order-1", "TMB-1-A", "TMB-RESI-TMB1A", "gw-1", testCustomer(),
			[]domain.LineItem{{ProductID: "p", Quantity: 1, UnitPrice: 0}}, 0, now)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidAmount))
	})
}

func TestOrder_ProductIDs(t *testing.T) {
	order := createTestOrder(t)
	order.Items = append(order.Items, domain.LineItem{ProductID: "prod-1", Quantity: 1})

	assert.Equal(t, []string{"prod-1", "prod-2"}, order.ProductIDs())
}

func TestOrder_StateTransitions(t *testing.T) {
	t.Run("PENDING -> PAID sets paid timestamp and transaction id", func(t *testing.T) {
		order := createTestOrder(t)
		paidAt := now.Add(time.Minute)

		err := order.MarkPaid("txn-123", paidAt)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, order.PaymentStatus)
		require.NotNil(t, order.PaidAt)
		assert.Equal(t, paidAt, *order.PaidAt)
		assert.Equal(t, "txn-123", *order.GatewayTransactionID)
	})

	t.Run("PENDING -> CANCELLED", func(t *testing.T) {
		order := createTestOrder(t)

		require.NoError(t, order.Cancel(now))
		assert.Equal(t, domain.StatusCancelled, order.PaymentStatus)
	})

	t.Run("PENDING -> EXPIRED", func(t *testing.T) {
		order := createTestOrder(t)

		require.NoError(t, order.Expire(now))
		assert.Equal(t, domain.StatusExpired, order.PaymentStatus)
	})
}

func TestOrder_TerminalStatesNeverMove(t *testing.T) {
	terminal := []domain.PaymentStatus{
		domain.StatusPaid, domain.StatusFailed, domain.StatusExpired, domain.StatusCancelled,
	}
	all := append([]domain.PaymentStatus{domain.StatusPending}, terminal...)

	for _, from := range terminal {
		for _, to := range all {
			if from == to {
				continue
			}
			t.Run(string(from)+" -> "+string(to), func(t *testing.T) {
				order := createOrderWithStatus(t, from)

				changed, err := order.ApplyPaymentStatus(to, "txn", now)

				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.False(t, changed)
				assert.Equal(t, from, order.PaymentStatus)
			})
		}
	}
}

func TestOrder_ApplyPaymentStatus(t *testing.T) {
	t.Run("same status is a no-op", func(t *testing.T) {
		order := createOrderWithStatus(t, domain.StatusPaid)

		changed, err := order.ApplyPaymentStatus(domain.StatusPaid, "txn", now)

		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("pending to failed records transaction id", func(t *testing.T) {
		order := createTestOrder(t)

		changed, err := order.ApplyPaymentStatus(domain.StatusFailed, "txn-9", now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, domain.StatusFailed, order.PaymentStatus)
		assert.Equal(t, "txn-9", *order.GatewayTransactionID)
		assert.Nil(t, order.PaidAt)
	})
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   domain.PaymentStatus
		terminal bool
	}{
		{domain.StatusPending, false},
		{domain.StatusPaid, true},
		{domain.StatusFailed, true},
		{domain.StatusExpired, true},
		{domain.StatusCancelled, true},
		{domain.PaymentStatus("BOGUS"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestOrder_ConfirmShipment(t *testing.T) {
	t.Run("requires PAID", func(t *testing.T) {
		order := createTestOrder(t)

		_, err := order.ConfirmShipment("JNE", "JNE123", now)

		assert.ErrorIs(t, err, domain.ErrNotPaid)
		assert.False(t, order.ShippedToExpedition)
	})

	t.Run("marks shipped", func(t *testing.T) {
		order := createOrderWithStatus(t, domain.StatusPaid)

		changed, err := order.ConfirmShipment("JNE", "JNE123", now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, order.ShippedToExpedition)
		assert.Equal(t, "JNE", *order.ExpeditionName)
		assert.Equal(t, "JNE123", *order.TrackingReference)
		assert.Equal(t, now, *order.ShippedAt)
	})

	t.Run("identical re-confirmation is a no-op", func(t *testing.T) {
		order := createOrderWithStatus(t, domain.StatusPaid)
		_, err := order.ConfirmShipment("JNE", "JNE123", now)
		require.NoError(t, err)

		changed, err := order.ConfirmShipment("JNE", "JNE123", now.Add(time.Hour))

		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, now, *order.ShippedAt)
	})

	t.Run("different tracking reference is rejected", func(t *testing.T) {
		order := createOrderWithStatus(t, domain.StatusPaid)
		_, err := order.ConfirmShipment("JNE", "JNE123", now)
		require.NoError(t, err)

		_, err = order.ConfirmShipment("JNE", "JNE999", now)

		assert.ErrorIs(t, err, domain.ErrAlreadyShipped)
		assert.Equal(t, "JNE123", *order.TrackingReference)
	})
}
