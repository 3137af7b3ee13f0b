package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/ordercode"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// DefaultCustomer returns a complete set of checkout fields.
func DefaultCustomer() domain.Customer {
	return domain.Customer{
		Name:       "Sari Wulandari",
		Email:      "sari@example.com",
		Phone:      "+6281234567890",
		Address:    "Jl. Melati No. 12",
		City:       "Bandung",
		PostalCode: "40115",
	}
}

// NewSingleUnitProduct returns an available one-of-a-kind product.
func NewSingleUnitProduct(price int64) *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:         uuid.New().String(),
		Title:      "Handmade batik scarf",
		Price:      price,
		Status:     domain.ProductAvailable,
		SingleUnit: true,
		Stock:      1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewStockedProduct returns an available product with stock units on hand.
func NewStockedProduct(price int64, stock int) *domain.Product {
	p := NewSingleUnitProduct(price)
	p.Title = "Printed tote bag"
	p.SingleUnit = false
	p.Stock = stock
	return p
}

// NewPendingOrder builds an order buying one unit of each product.
func NewPendingOrder(t *testing.T, products ...*domain.Product) *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return NewPendingOrderAt(t, now, products...)
}

// NewPendingOrderAt is NewPendingOrder with a fixed creation time.
func NewPendingOrderAt(t *testing.T, now time.Time, products ...*domain.Product) *domain.Order {
	code, err := ordercode.Generate(now)
	require.NoError(t, err)

	items := make([]domain.LineItem, 0, len(products))
	for _, p := range products {
		items = append(items, domain.LineItem{
			ID:               uuid.New().String(),
			ProductID:        p.ID,
			Quantity:         1,
			UnitPrice:        p.Price,
			ProductTitle:     p.Title,
			VariantSelection: map[string]string{"color": "indigo"},
		})
	}

	order, err := domain.NewOrder(
		uuid.New().String(),
		code,
		ordercode.TrackingCode(code),
		ordercode.GatewayOrderID(code, now),
		DefaultCustomer(),
		items,
		15000,
		now,
	)
	require.NoError(t, err)
	return order
}

// ProductSeeder inserts catalog rows. The catalog is owned outside this service, so
// the insert is not part of application.OrderRepository.
type ProductSeeder interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
}

// SeedProducts persists products through repo.
func SeedProducts(t *testing.T, ctx context.Context, repo ProductSeeder, products ...*domain.Product) {
	for _, p := range products {
		require.NoError(t, repo.CreateProduct(ctx, p))
	}
}

// SeedOrder persists order and its items in one transaction.
func SeedOrder(t *testing.T, ctx context.Context, repo application.OrderRepository, order *domain.Order) {
	err := repo.WithTx(ctx, func(txRepo application.OrderRepository) error {
		return txRepo.CreateOrder(ctx, order)
	})
	require.NoError(t, err)
}
