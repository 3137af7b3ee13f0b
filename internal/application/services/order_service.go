package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/DanielPopoola/storefront/internal/accesstoken"
	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/ordercode"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type OrderService struct {
	repo    application.OrderRepository
	gateway application.GatewayClient
	tokens  *accesstoken.Issuer
	cfg     config.OrderConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewOrderService(
	repo application.OrderRepository,
	gateway application.GatewayClient,
	tokens *accesstoken.Issuer,
	cfg config.OrderConfig,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:    repo,
		gateway: gateway,
		tokens:  tokens,
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create places a PENDING order and opens a gateway transaction for it. Everything
// runs in one serializable transaction: if the gateway call fails or times out no
// order is left behind.
func (s *OrderService) Create(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	shippingCost := s.cfg.DefaultShippingCost
	if cmd.ShippingCost != nil {
		shippingCost = *cmd.ShippingCost
	}

	if s.cfg.CreateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CreateTimeout)
		defer cancel()
	}

	var order *domain.Order
	err := s.repo.WithSerializableTx(ctx, func(repo application.OrderRepository) error {
		now := s.now()

		items, err := reserveProducts(ctx, repo, cmd.Items)
		if err != nil {
			return err
		}

		code, err := ordercode.Generate(now)
		if err != nil {
			return err
		}

		o, err := domain.NewOrder(
			uuid.New().String(),
			code,
			ordercode.TrackingCode(code),
			ordercode.GatewayOrderID(code, now),
			cmd.Customer,
			items,
			shippingCost,
			now,
		)
		if err != nil {
			return err
		}
		o.Notes = cmd.Notes
		o.CreatedBy = cmd.CreatedBy

		if err := repo.CreateOrder(ctx, o); err != nil {
			return err
		}

		resp, err := s.gateway.CreateTransaction(ctx, application.CreateTransactionRequest{
			GatewayOrderID: o.GatewayOrderID,
			OrderCode:      o.OrderCode,
			Amount:         o.TotalAmount,
			ShippingCost:   o.ShippingCost,
			Customer:       o.Customer,
			Items:          o.Items,
		})
		if err != nil {
			return err
		}

		o.AttachPayment(resp.TransactionID, resp.Token, resp.RedirectURL, s.now())
		if err := repo.UpdateOrder(ctx, o); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, s.fail("order creation failed", err)
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"order_code", order.OrderCode,
		"gateway_order_id", order.GatewayOrderID,
		"total_amount", order.TotalAmount,
	)

	return &CreateOrderResult{
		Order:       order,
		AccessToken: s.tokens.Issue(order.ID),
	}, nil
}

// reserveProducts locks every requested product, checks it can be sold and
// snapshots it into line items. Products are locked in id order so two checkouts
// sharing products cannot deadlock.
func reserveProducts(ctx context.Context, repo application.OrderRepository, lines []OrderLine) ([]domain.LineItem, error) {
	wanted := make(map[string]int, len(lines))
	for _, line := range lines {
		wanted[line.ProductID] += line.Quantity
	}

	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	products := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		p, err := repo.FindProductForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := p.CheckSellable(wanted[id]); err != nil {
			return nil, err
		}

		// Only one unit exists, so an unpaid order already holds it.
		if p.SingleUnit {
			pending, err := repo.HasPendingOrderForProduct(ctx, id)
			if err != nil {
				return nil, err
			}
			if pending {
				return nil, domain.NewPendingOrderExistsError(id)
			}
		}
		products[id] = p
	}

	items := make([]domain.LineItem, 0, len(lines))
	for _, line := range lines {
		p := products[line.ProductID]
		items = append(items, domain.LineItem{
			ID:               uuid.New().String(),
			ProductID:        p.ID,
			Quantity:         line.Quantity,
			UnitPrice:        p.Price,
			ProductTitle:     p.Title,
			VariantSelection: line.VariantSelection,
		})
	}
	return items, nil
}

func validateCreate(cmd CreateOrderCommand) error {
	required := []struct{ field, value string }{
		{"customer name", cmd.Customer.Name},
		{"customer email", cmd.Customer.Email},
		{"customer phone", cmd.Customer.Phone},
		{"shipping address", cmd.Customer.Address},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return application.NewValidationError(r.field+" is required", domain.NewMissingRequiredFieldError(r.field))
		}
	}

	if len(cmd.Items) == 0 {
		return application.NewValidationError("at least one item is required", domain.NewMissingRequiredFieldError("items"))
	}
	for _, item := range cmd.Items {
		if item.ProductID == "" {
			return application.NewValidationError("product ID is required", domain.NewMissingRequiredFieldError("product ID"))
		}
		if item.Quantity <= 0 {
			return application.NewValidationError("quantity must be positive", domain.NewInvalidQuantityError(item.ProductID, item.Quantity))
		}
	}

	if cmd.ShippingCost != nil && *cmd.ShippingCost < 0 {
		return application.NewValidationError("shipping cost cannot be negative", domain.NewInvalidAmountError(*cmd.ShippingCost))
	}
	return nil
}

// GetOrder is the staff view: the full order.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail("get order failed", err)
	}
	return order, nil
}

type OrderPage struct {
	Orders []*domain.Order
	Total  int
	Limit  int
	Offset int
}

// ListOrders reads without locks; the page may be slightly stale.
func (s *OrderService) ListOrders(ctx context.Context, filter application.OrderFilter) (*OrderPage, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, application.NewValidationError("unknown payment status", nil)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	filter.Limit = min(filter.Limit, maxListLimit)
	filter.Offset = max(filter.Offset, 0)

	orders, total, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.fail("list orders failed", err)
	}

	return &OrderPage{
		Orders: orders,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// GetPublicOrder returns the customer's view of an order. The token is checked
// before any lookup, so a wrong token reveals nothing about whether the order exists.
func (s *OrderService) GetPublicOrder(ctx context.Context, id, token string) (*PublicOrderView, error) {
	if !s.tokens.Verify(id, token) {
		return nil, application.NewUnauthorizedError("Not authorized to view this order")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail("get public order failed", err)
	}
	return NewPublicOrderView(order), nil
}

// ConfirmShipment records the courier handover of a paid order.
func (s *OrderService) ConfirmShipment(ctx context.Context, cmd ConfirmShipmentCommand) (*domain.Order, error) {
	if strings.TrimSpace(cmd.ExpeditionName) == "" || strings.TrimSpace(cmd.TrackingReference) == "" {
		return nil, application.NewValidationError("expedition name and tracking reference are required", nil)
	}

	var order *domain.Order
	err := s.repo.WithTx(ctx, func(repo application.OrderRepository) error {
		o, err := repo.FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		changed, err := o.ConfirmShipment(strings.TrimSpace(cmd.ExpeditionName), strings.TrimSpace(cmd.TrackingReference), s.now())
		if err != nil {
			return err
		}
		if changed {
			if err := repo.UpdateOrder(ctx, o); err != nil {
				return err
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, s.fail("confirm shipment failed", err)
	}

	s.logger.Info("shipment confirmed",
		"order_id", order.ID,
		"expedition", cmd.ExpeditionName,
	)
	return order, nil
}

// Cancel moves a PENDING order to CANCELLED, which frees its products for new checkouts.
func (s *OrderService) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := s.repo.WithTx(ctx, func(repo application.OrderRepository) error {
		o, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := o.Cancel(s.now()); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, s.fail("cancel order failed", err)
	}

	s.logger.Info("order cancelled", "order_id", order.ID)
	return order, nil
}

// fail converts err to a ServiceError and logs anything that is not the caller's fault.
func (s *OrderService) fail(msg string, err error) error {
	svcErr := application.ToServiceError(err)
	switch application.CategorizeError(svcErr) {
	case application.CategoryClientError, application.CategoryBusinessRule:
		s.logger.Debug(msg, "code", svcErr.Code, "error", err)
	default:
		s.logger.Error(msg, "code", svcErr.Code, "error", err)
	}
	return svcErr
}
