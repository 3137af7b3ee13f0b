package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// statusApplied describes what applying a gateway status did to an order. Warnings
// are things staff should look at; they never undo the change.
type statusApplied struct {
	OrderID  string
	Changed  bool
	From     domain.PaymentStatus
	To       domain.PaymentStatus
	Message  string
	Warnings []string
}

func (r *statusApplied) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// applyPaymentStatus moves the order identified by n to target. It is the single
// path for both webhooks and reconciliation: the order row is locked and its status
// re-read inside the transaction, a PAID order is never touched again, and products
// are marked sold in the same transaction as the PAID transition.
func applyPaymentStatus(
	ctx context.Context,
	repo application.OrderRepository,
	n domain.Notification,
	target domain.PaymentStatus,
	now time.Time,
) (*statusApplied, error) {
	var result *statusApplied

	err := repo.WithTx(ctx, func(repo application.OrderRepository) error {
		order, err := repo.FindByGatewayOrderIDForUpdate(ctx, n.OrderID)
		if err != nil {
			return err
		}

		res := &statusApplied{OrderID: order.ID, From: order.PaymentStatus, To: order.PaymentStatus}

		switch {
		case order.PaymentStatus == domain.StatusPaid:
			res.Message = "Already processed"
			if target != domain.StatusPaid {
				res.warn("order is PAID, ignoring reported status %s", target)
			}
			result = res
			return nil
		case order.PaymentStatus == target:
			res.Message = "Status unchanged"
			result = res
			return nil
		case order.PaymentStatus.IsTerminal():
			res.Message = "Status not applied"
			res.warn("order is %s, ignoring reported status %s", order.PaymentStatus, target)
			result = res
			return nil
		}

		changed, err := order.ApplyPaymentStatus(target, n.TransactionID, now)
		if err != nil {
			return err
		}
		res.Changed = changed
		res.To = order.PaymentStatus
		res.Message = fmt.Sprintf("Order %s", strings.ToLower(string(order.PaymentStatus)))

		if order.PaymentStatus == domain.StatusPaid {
			if err := recordSales(ctx, repo, order, now, res); err != nil {
				return err
			}
			checkAmount(order, n, res)
		}

		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordSales takes the paid units out of the catalog. Products are locked in id order.
func recordSales(ctx context.Context, repo application.OrderRepository, order *domain.Order, now time.Time, res *statusApplied) error {
	qty := make(map[string]int, len(order.Items))
	for _, item := range order.Items {
		qty[item.ProductID] += item.Quantity
	}
	ids := order.ProductIDs()
	slices.Sort(ids)

	for _, id := range ids {
		p, err := repo.FindProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if shortfall := p.RecordSale(qty[id], now); shortfall > 0 {
			res.warn("product %s oversold by %d", id, shortfall)
		}
		if err := repo.UpdateProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// checkAmount compares the reported gross amount with the order total. A mismatch
// is only reported: the gateway is the source of truth for money received.
func checkAmount(order *domain.Order, n domain.Notification, res *statusApplied) {
	if n.GrossAmount == "" {
		return
	}
	reported, ok := n.ParsedGrossAmount()
	if !ok {
		res.warn("unparseable gross amount %q", n.GrossAmount)
		return
	}
	if expected := decimal.NewFromInt(order.TotalAmount); !reported.Equal(expected) {
		res.warn("gross amount %s does not match order total %s", reported.String(), expected.String())
	}
}
