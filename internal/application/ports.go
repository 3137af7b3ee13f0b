package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/storefront/internal/domain"
)

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status domain.PaymentStatus
	Limit  int
	Offset int
}

// OrderRepository is the port for order and product persistence. Products live here
// because every write to an order's payment state may also have to touch them in
// the same transaction.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	UpdateOrder(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error)
	FindByCode(ctx context.Context, orderCode string) (*domain.Order, error)
	FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*domain.Order, error)
	FindByTrackingCode(ctx context.Context, trackingCode string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Order, error)
	HasPendingOrderForProduct(ctx context.Context, productID string) (bool, error)

	FindProductForUpdate(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error

	// WithTx runs fn inside a read-committed transaction.
	WithTx(ctx context.Context, fn func(repo OrderRepository) error) error
	// WithSerializableTx runs fn inside a SERIALIZABLE transaction.
	WithSerializableTx(ctx context.Context, fn func(repo OrderRepository) error) error
}

// WebhookLogRepository is the port for the notification audit trail.
type WebhookLogRepository interface {
	Create(ctx context.Context, entry *domain.WebhookLogEntry) error
	Update(ctx context.Context, entry *domain.WebhookLogEntry) error
	FindByID(ctx context.Context, id string) (*domain.WebhookLogEntry, error)
	CountByStatus(ctx context.Context, since time.Time) (map[domain.ProcessingStatus]int, error)
	ListRecentIssues(ctx context.Context, since time.Time, limit int) ([]*domain.WebhookLogEntry, error)
}

type CreateTransactionRequest struct {
	GatewayOrderID string
	OrderCode      string
	Amount         int64
	ShippingCost   int64
	Customer       domain.Customer
	Items          []domain.LineItem
}

type CreateTransactionResponse struct {
	Token         string
	RedirectURL   string
	TransactionID string
}

// GatewayClient is the port for the external payment gateway.
type GatewayClient interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResponse, error)
	GetTransactionStatus(ctx context.Context, gatewayOrderID string) (*domain.Notification, error)
}

// SignatureVerifier checks the signature presented with a gateway notification.
type SignatureVerifier interface {
	Verify(n domain.Notification, signature string) bool
}

type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

type Alert struct {
	Level   AlertLevel
	Event   string
	Message string
	Fields  map[string]any
}

// Alerter delivers operational alerts. Delivery is best effort and never blocks
// or fails the caller.
type Alerter interface {
	Alert(ctx context.Context, alert Alert)
}
