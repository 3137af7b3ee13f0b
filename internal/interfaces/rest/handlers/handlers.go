package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/application/services"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/go-playground/validator"
)

type OrderService interface {
	Create(ctx context.Context, cmd services.CreateOrderCommand) (*services.CreateOrderResult, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter application.OrderFilter) (*services.OrderPage, error)
	GetPublicOrder(ctx context.Context, id, token string) (*services.PublicOrderView, error)
	ConfirmShipment(ctx context.Context, cmd services.ConfirmShipmentCommand) (*domain.Order, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
}

type WebhookService interface {
	HandleNotification(ctx context.Context, payload []byte, signature string) (*services.WebhookResult, error)
}

type VerificationService interface {
	VerifyReceipt(ctx context.Context, receiptNumber, verificationCode string) (*services.ReceiptVerification, error)
	VerifyTracking(ctx context.Context, trackingCode string) (*services.TrackingVerification, error)
}

type MonitorService interface {
	Summarize(ctx context.Context, window time.Duration) (*services.WebhookSummary, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers serves the storefront HTTP API.
type Handlers struct {
	orders       OrderService
	webhooks     WebhookService
	verification VerificationService
	monitor      MonitorService
	db           Pinger
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewHandlers(
	orders OrderService,
	webhooks WebhookService,
	verification VerificationService,
	monitor MonitorService,
	db Pinger,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		orders:       orders,
		webhooks:     webhooks,
		verification: verification,
		monitor:      monitor,
		db:           db,
		validate:     newValidator(),
		logger:       logger,
	}
}

// RegisterRoutes mounts every endpoint on mux. Admin routes are wrapped with staff,
// unauthenticated customer routes with public.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux, staff, public func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/orders", public(http.HandlerFunc(h.CreateOrder)))
	mux.Handle("GET /api/v1/orders/{id}/status", public(http.HandlerFunc(h.GetOrderStatus)))
	mux.Handle("GET /api/v1/receipts/verify", public(http.HandlerFunc(h.VerifyReceipt)))
	mux.Handle("GET /api/v1/tracking/verify", public(http.HandlerFunc(h.VerifyTracking)))

	mux.HandleFunc("POST /api/v1/payments/notifications", h.HandleNotification)

	mux.Handle("POST /api/v1/admin/orders", staff(http.HandlerFunc(h.AdminCreateOrder)))
	mux.Handle("GET /api/v1/admin/orders", staff(http.HandlerFunc(h.ListOrders)))
	mux.Handle("GET /api/v1/admin/orders/{id}", staff(http.HandlerFunc(h.GetOrder)))
	mux.Handle("POST /api/v1/admin/orders/{id}/shipment", staff(http.HandlerFunc(h.ConfirmShipment)))
	mux.Handle("POST /api/v1/admin/orders/{id}/cancel", staff(http.HandlerFunc(h.CancelOrder)))
	mux.Handle("GET /api/v1/admin/webhooks/summary", staff(http.HandlerFunc(h.WebhookSummary)))

	mux.HandleFunc("GET /healthz", h.Health)
}
