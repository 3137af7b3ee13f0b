package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrWebhookLogNotFound = errors.New("webhook log entry not found")

const webhookLogColumns = `
	id, provider, gateway_order_id, transaction_status, gross_amount, payload,
	signature, signature_valid, processing_status, attempts, message, last_error,
	processed_at, created_at, updated_at`

type WebhookLogRepository struct {
	q Executor
}

func NewWebhookLogRepository(db *DB) *WebhookLogRepository {
	return &WebhookLogRepository{q: db.Pool}
}

var _ application.WebhookLogRepository = (*WebhookLogRepository)(nil)

// Create appends a new entry. It runs outside any order transaction so the entry
// survives a rollback of the processing it describes.
func (r *WebhookLogRepository) Create(ctx context.Context, e *domain.WebhookLogEntry) error {
	query := `
		INSERT INTO webhook_logs (` + webhookLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	attempts, message, lastError := domain.OutcomeFields(e.Outcome)
	_, err := r.q.Exec(ctx, query,
		e.ID,
		e.Provider,
		e.GatewayOrderID,
		e.TransactionStatus,
		e.GrossAmount,
		e.Payload,
		e.Signature,
		e.SignatureValid,
		e.Status(),
		attempts,
		message,
		lastError,
		processedAt(e),
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook log entry: %w", err)
	}
	return nil
}

// Update records the entry's current outcome. The payload and parsed fields are
// never rewritten.
func (r *WebhookLogRepository) Update(ctx context.Context, e *domain.WebhookLogEntry) error {
	query := `
		UPDATE webhook_logs
		SET signature_valid = $1, processing_status = $2, attempts = $3, message = $4,
			last_error = $5, processed_at = $6, updated_at = $7
		WHERE id = $8
	`

	attempts, message, lastError := domain.OutcomeFields(e.Outcome)
	result, err := r.q.Exec(ctx, query,
		e.SignatureValid,
		e.Status(),
		attempts,
		message,
		lastError,
		processedAt(e),
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook log entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWebhookLogNotFound
	}
	return nil
}

func (r *WebhookLogRepository) FindByID(ctx context.Context, id string) (*domain.WebhookLogEntry, error) {
	query := `SELECT ` + webhookLogColumns + ` FROM webhook_logs WHERE id = $1`

	entry, err := scanWebhookLog(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWebhookLogNotFound
		}
		return nil, fmt.Errorf("failed to scan webhook log entry: %w", err)
	}
	return entry, nil
}

// CountByStatus tallies entries received since the given time. Statuses with no
// entries are absent from the map.
func (r *WebhookLogRepository) CountByStatus(ctx context.Context, since time.Time) (map[domain.ProcessingStatus]int, error) {
	query := `
		SELECT processing_status, COUNT(*)
		FROM webhook_logs
		WHERE created_at >= $1
		GROUP BY processing_status
	`

	rows, err := r.q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count webhook logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ProcessingStatus]int)
	for rows.Next() {
		var (
			status domain.ProcessingStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan webhook log count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// ListRecentIssues returns the newest entries that were rejected, failed or
// processed with a warning.
func (r *WebhookLogRepository) ListRecentIssues(ctx context.Context, since time.Time, limit int) ([]*domain.WebhookLogEntry, error) {
	query := `
		SELECT ` + webhookLogColumns + `
		FROM webhook_logs
		WHERE created_at >= $1
		  AND processing_status IN ('invalid_signature', 'failed', 'processed_with_warning')
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query webhook log issues: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.WebhookLogEntry, error) {
		return scanWebhookLog(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan webhook log issues: %w", err)
	}
	return entries, nil
}

func processedAt(e *domain.WebhookLogEntry) *time.Time {
	if e.Status() == domain.ProcessingReceived {
		return nil
	}
	at := e.Outcome.At()
	return &at
}

func scanWebhookLog(row pgx.Row) (*domain.WebhookLogEntry, error) {
	var (
		e           domain.WebhookLogEntry
		status      domain.ProcessingStatus
		attempts    int
		message     string
		lastError   string
		processedAt *time.Time
	)

	err := row.Scan(
		&e.ID, &e.Provider, &e.GatewayOrderID, &e.TransactionStatus, &e.GrossAmount, &e.Payload,
		&e.Signature, &e.SignatureValid, &status, &attempts, &message, &lastError,
		&processedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	at := e.CreatedAt
	if processedAt != nil {
		at = *processedAt
	}
	e.Outcome = domain.RestoreOutcome(status, attempts, message, lastError, at)
	return &e, nil
}
