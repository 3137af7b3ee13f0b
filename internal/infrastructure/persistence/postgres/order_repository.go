package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `
	id, order_code, tracking_code,
	customer_name, customer_email, customer_phone, shipping_address, shipping_city, shipping_postal_code, notes,
	subtotal, shipping_cost, total_amount,
	payment_status, gateway_order_id, gateway_transaction_id, payment_token, payment_redirect_url, paid_at,
	shipped_to_expedition, expedition_name, tracking_reference, shipped_at,
	created_by, created_at, updated_at`

const productColumns = `id, title, price, status, single_unit, stock, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
	q    Executor
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{
		pool: db.Pool,
		q:    db.Pool,
	}
}

var _ application.OrderRepository = (*OrderRepository)(nil)

// CreateOrder inserts the order and its line items. Callers run it inside a
// transaction so the items never exist without their order.
func (r *OrderRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
		        $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := r.q.Exec(ctx, query,
		o.ID,
		o.OrderCode,
		o.TrackingCode,
		o.Customer.Name,
		o.Customer.Email,
		o.Customer.Phone,
		o.Customer.Address,
		o.Customer.City,
		o.Customer.PostalCode,
		o.Notes,
		o.Subtotal,
		o.ShippingCost,
		o.TotalAmount,
		o.PaymentStatus,
		o.GatewayOrderID,
		o.GatewayTransactionID,
		o.PaymentToken,
		o.PaymentRedirectURL,
		o.PaidAt,
		o.ShippedToExpedition,
		o.ExpeditionName,
		o.TrackingReference,
		o.ShippedAt,
		o.CreatedBy,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, product_title, variant_selection)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, item := range o.Items {
		variant := item.VariantSelection
		if variant == nil {
			variant = map[string]string{}
		}
		_, err := r.q.Exec(ctx, itemQuery,
			item.ID,
			o.ID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.ProductTitle,
			variant,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// UpdateOrder persists the mutable payment and fulfillment fields. Line items and
// amounts are immutable once created.
func (r *OrderRepository) UpdateOrder(ctx context.Context, o *domain.Order) error {
	query := `
		UPDATE orders
		SET payment_status = $1,
			gateway_transaction_id = $2, payment_token = $3, payment_redirect_url = $4, paid_at = $5,
			shipped_to_expedition = $6, expedition_name = $7, tracking_reference = $8, shipped_at = $9,
			updated_at = $10
		WHERE id = $11
	`

	result, err := r.q.Exec(ctx, query,
		o.PaymentStatus,
		o.GatewayTransactionID,
		o.PaymentToken,
		o.PaymentRedirectURL,
		o.PaidAt,
		o.ShippedToExpedition,
		o.ExpeditionName,
		o.TrackingReference,
		o.ShippedAt,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewOrderNotFoundError(o.ID)
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.findOne(ctx, id, query, id)
}

// FindByIDForUpdate retrieves an order with a row-level lock
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, id, query, id)
}

func (r *OrderRepository) FindByCode(ctx context.Context, orderCode string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_code = $1`
	return r.findOne(ctx, orderCode, query, orderCode)
}

func (r *OrderRepository) FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE gateway_order_id = $1 FOR UPDATE`
	return r.findOne(ctx, gatewayOrderID, query, gatewayOrderID)
}

// FindByTrackingCode returns the order a tracking code was derived from. Codes of
// orders placed within the same few seconds can coincide; shipped orders win, then
// the most recently shipped or created.
func (r *OrderRepository) FindByTrackingCode(ctx context.Context, trackingCode string) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE tracking_code = $1
		ORDER BY shipped_to_expedition DESC, shipped_at DESC NULLS LAST, created_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, trackingCode, query, trackingCode)
}

// ListOrders is a lock-free read; the returned total ignores limit and offset.
func (r *OrderRepository) ListOrders(ctx context.Context, filter application.OrderFilter) ([]*domain.Order, int, error) {
	query := `
		SELECT ` + orderColumns + `, COUNT(*) OVER() AS total
		FROM orders
		WHERE ($1::text = '' OR payment_status = $1::text)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}

	total := 0
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		o, dest := orderScanTargets()
		err := row.Scan(append(dest, &total)...)
		return o, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan orders: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// FindStalePending finds PENDING orders created before the cutoff, oldest first.
func (r *OrderRepository) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE payment_status = 'PENDING'
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale pending orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		o, dest := orderScanTargets()
		return o, row.Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("scan stale pending orders: %w", err)
	}

	return orders, nil
}

func (r *OrderRepository) HasPendingOrderForProduct(ctx context.Context, productID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE oi.product_id = $1
			  AND o.payment_status = 'PENDING'
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending orders for product: %w", err)
	}
	return exists, nil
}

// CreateProduct inserts a catalog row. Checkout only reads and locks products, so
// this and FindProductByID sit outside application.OrderRepository and serve
// seeding and inspection.
func (r *OrderRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (` + productColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.Exec(ctx, query,
		p.ID, p.Title, p.Price, p.Status, p.SingleUnit, p.Stock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindProductByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.q.QueryRow(ctx, query, id), id)
}

// FindProductForUpdate retrieves a product with a row-level lock
func (r *OrderRepository) FindProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return scanProduct(r.q.QueryRow(ctx, query, id), id)
}

func (r *OrderRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products SET status = $1, stock = $2, updated_at = $3 WHERE id = $4`

	result, err := r.q.Exec(ctx, query, p.Status, p.Stock, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewProductNotFoundError(p.ID)
	}
	return nil
}

// WithTx executes a function within a database transaction
func (r *OrderRepository) WithTx(ctx context.Context, fn func(application.OrderRepository) error) error {
	return r.withTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// WithSerializableTx executes fn at SERIALIZABLE isolation. A transaction aborted by
// Postgres to keep the history serializable fails with application.ErrConcurrentModification.
func (r *OrderRepository) WithSerializableTx(ctx context.Context, fn func(application.OrderRepository) error) error {
	return r.withTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func (r *OrderRepository) withTx(ctx context.Context, opts pgx.TxOptions, fn func(application.OrderRepository) error) error {
	return runInTx(ctx, r.pool, opts, func(tx pgx.Tx) error {
		return fn(&OrderRepository{
			pool: r.pool,
			q:    tx, // Switch the executor to the transaction
		})
	})
}

func (r *OrderRepository) findOne(ctx context.Context, ref, query string, args ...any) (*domain.Order, error) {
	o, dest := orderScanTargets()
	if err := r.q.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewOrderNotFoundError(ref)
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `
		SELECT id, order_id, product_id, quantity, unit_price, product_title, variant_selection
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, product_title, id
	`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    domain.LineItem
			orderID string
		)
		if err := rows.Scan(
			&item.ID, &orderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.ProductTitle, &item.VariantSelection,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	return rows.Err()
}

// orderScanTargets returns a fresh order and the scan destinations matching orderColumns.
func orderScanTargets() (*domain.Order, []any) {
	o := &domain.Order{}
	return o, []any{
		&o.ID, &o.OrderCode, &o.TrackingCode,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Customer.Address, &o.Customer.City, &o.Customer.PostalCode, &o.Notes,
		&o.Subtotal, &o.ShippingCost, &o.TotalAmount,
		&o.PaymentStatus, &o.GatewayOrderID, &o.GatewayTransactionID,
		&o.PaymentToken, &o.PaymentRedirectURL, &o.PaidAt,
		&o.ShippedToExpedition, &o.ExpeditionName, &o.TrackingReference, &o.ShippedAt,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	}
}

func scanProduct(row pgx.Row, id string) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Status, &p.SingleUnit, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewProductNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &p, nil
}
