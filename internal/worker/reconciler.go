package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DanielPopoola/storefront/internal/application/services"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
	"golang.org/x/sync/errgroup"
)

type ReconcileService interface {
	FindStale(ctx context.Context, limit int) ([]*domain.Order, error)
	Reconcile(ctx context.Context, order *domain.Order) (*services.ReconcileResult, error)
}

// Reconciler periodically asks the gateway about orders that stayed PENDING past
// their TTL, in case the webhook was lost.
type Reconciler struct {
	svc         ReconcileService
	interval    time.Duration
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

func NewReconciler(svc ReconcileService, cfg config.WorkerConfig, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		svc:         svc,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		concurrency: max(cfg.Concurrency, 1),
		logger:      logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler",
		"interval", r.interval,
		"batch_size", r.batchSize,
		"concurrency", r.concurrency,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunStats counts what one cycle did.
type RunStats struct {
	Checked int
	Changed int
	Skipped int
	Failed  int
}

// RunOnce executes a single reconciliation cycle. A failure on one order never
// stops the others.
func (r *Reconciler) RunOnce(ctx context.Context) RunStats {
	stale, err := r.svc.FindStale(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch stale orders", "error", err)
		return RunStats{}
	}
	if len(stale) == 0 {
		return RunStats{}
	}

	r.logger.Info("reconciling stale orders", "count", len(stale))

	var changed, skipped, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, order := range stale {
		g.Go(func() error {
			res, err := r.svc.Reconcile(gctx, order)
			switch {
			case err != nil:
				failed.Add(1)
				r.logger.Error("reconciliation failed for order",
					"order_id", order.ID,
					"gateway_order_id", order.GatewayOrderID,
					"error", err,
				)
			case res.Skipped:
				skipped.Add(1)
			case res.Changed:
				changed.Add(1)
				r.logger.Info("reconciled order", "order_id", order.ID, "from", res.From, "to", res.To)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := RunStats{
		Checked: len(stale),
		Changed: int(changed.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	r.logger.Info("reconciliation cycle finished",
		"checked", stats.Checked,
		"changed", stats.Changed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats
}
