package domain

import "time"

type ProductStatus string

const (
	ProductAvailable ProductStatus = "AVAILABLE"
	ProductSold      ProductStatus = "SOLD"
	ProductArchived  ProductStatus = "ARCHIVED"
)

// Product is the slice of a catalog entry the order engine needs: price, availability
// and how many units can still be sold.
type Product struct {
	ID         string
	Title      string
	Price      int64
	Status     ProductStatus
	SingleUnit bool
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CheckSellable returns NotAvailable unless qty units can be sold right now.
func (p *Product) CheckSellable(qty int) error {
	if qty <= 0 {
		return NewInvalidQuantityError(p.ID, qty)
	}
	if p.Status != ProductAvailable {
		return NewNotAvailableError(p.ID)
	}
	if p.SingleUnit {
		if qty != 1 {
			return NewInvalidQuantityError(p.ID, qty)
		}
		return nil
	}
	if p.Stock < qty {
		return NewNotAvailableError(p.ID)
	}
	return nil
}

// RecordSale applies a paid sale of qty units. Single-unit products become SOLD,
// stocked products lose qty units and become SOLD when they run out. The returned
// shortfall is the number of units sold beyond what was in stock; it is non-zero
// only when a payment arrived for goods that were no longer there.
func (p *Product) RecordSale(qty int, now time.Time) (shortfall int) {
	p.UpdatedAt = now

	if p.SingleUnit {
		if p.Status == ProductSold {
			shortfall = qty
		}
		p.Status = ProductSold
		p.Stock = 0
		return shortfall
	}

	if p.Stock < qty {
		shortfall = qty - p.Stock
		p.Stock = 0
	} else {
		p.Stock -= qty
	}
	if p.Stock == 0 {
		p.Status = ProductSold
	}
	return shortfall
}
