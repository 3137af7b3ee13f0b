package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
)

// ReconcileResult summarizes one reconciliation of a stale order.
type ReconcileResult struct {
	OrderID  string
	From     domain.PaymentStatus
	To       domain.PaymentStatus
	Changed  bool
	// Skipped is set when the gateway has no transaction for the order yet.
	Skipped  bool
	Warnings []string
}

type notFoundError interface {
	IsNotFound() bool
}

// ReconcileService recovers payment updates whose webhook never arrived by asking
// the gateway directly. Status changes go through the same path as webhooks.
type ReconcileService struct {
	orders  application.OrderRepository
	gateway application.GatewayClient
	alerter application.Alerter
	cfg     config.OrderConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewReconcileService(
	orders application.OrderRepository,
	gateway application.GatewayClient,
	alerter application.Alerter,
	cfg config.OrderConfig,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		orders:  orders,
		gateway: gateway,
		alerter: alerter,
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FindStale lists PENDING orders older than the configured pending TTL.
func (s *ReconcileService) FindStale(ctx context.Context, limit int) ([]*domain.Order, error) {
	return s.orders.FindStalePending(ctx, s.now().Add(-s.cfg.PendingTTL), limit)
}

// Reconcile queries the gateway for the order's transaction and applies what it reports.
func (s *ReconcileService) Reconcile(ctx context.Context, order *domain.Order) (*ReconcileResult, error) {
	n, err := s.gateway.GetTransactionStatus(ctx, order.GatewayOrderID)
	if err != nil {
		var nf notFoundError
		if errors.As(err, &nf) && nf.IsNotFound() {
			if s.cfg.ExpireAfter > 0 && order.CreatedAt.Before(s.now().Add(-s.cfg.ExpireAfter)) {
				return s.expireAbandoned(ctx, order)
			}
			s.logger.Info("no gateway transaction for stale order",
				"order_id", order.ID,
				"gateway_order_id", order.GatewayOrderID,
			)
			return &ReconcileResult{
				OrderID: order.ID,
				From:    order.PaymentStatus,
				To:      order.PaymentStatus,
				Skipped: true,
			}, nil
		}
		return nil, err
	}

	target, err := domain.MapTransactionStatus(n.TransactionStatus)
	if err != nil {
		s.logger.Warn("gateway reported unknown transaction status",
			"order_id", order.ID,
			"transaction_status", n.TransactionStatus,
		)
		return nil, err
	}

	// The status document may omit the id; the lookup key is ours anyway.
	n.OrderID = order.GatewayOrderID

	res, err := applyPaymentStatus(ctx, s.orders, *n, target, s.now())
	if err != nil {
		return nil, err
	}

	if len(res.Warnings) > 0 {
		s.alerter.Alert(ctx, application.Alert{
			Level:   application.AlertWarning,
			Event:   "reconciled_with_warning",
			Message: "Payment reconciliation applied with warning",
			Fields: map[string]any{
				"order_id": res.OrderID,
				"warnings": res.Warnings,
			},
		})
	}

	return &ReconcileResult{
		OrderID:  res.OrderID,
		From:     res.From,
		To:       res.To,
		Changed:  res.Changed,
		Warnings: res.Warnings,
	}, nil
}

// expireAbandoned expires an order whose payment page was never opened. The status is
// re-read under the row lock, so a webhook that landed in the meantime wins.
func (s *ReconcileService) expireAbandoned(ctx context.Context, order *domain.Order) (*ReconcileResult, error) {
	result := &ReconcileResult{OrderID: order.ID}

	err := s.orders.WithTx(ctx, func(repo application.OrderRepository) error {
		o, err := repo.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		result.From = o.PaymentStatus
		result.To = o.PaymentStatus
		if o.PaymentStatus != domain.StatusPending {
			result.Skipped = true
			return nil
		}

		if err := o.Expire(s.now()); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, o); err != nil {
			return err
		}
		result.To = o.PaymentStatus
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.logger.Info("abandoned order expired",
			"order_id", order.ID,
			"gateway_order_id", order.GatewayOrderID,
			"created_at", order.CreatedAt,
		)
	}
	return result, nil
}
