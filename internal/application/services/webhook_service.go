package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/google/uuid"
)

// WebhookResult is reported back to the gateway.
type WebhookResult struct {
	Success  bool   `json:"success"`
	Attempts int    `json:"attempts"`
	Message  string `json:"message"`
}

type WebhookService struct {
	orders   application.OrderRepository
	logs     application.WebhookLogRepository
	verifier application.SignatureVerifier
	alerter  application.Alerter
	retry    config.RetryConfig
	provider string
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewWebhookService(
	orders application.OrderRepository,
	logs application.WebhookLogRepository,
	verifier application.SignatureVerifier,
	alerter application.Alerter,
	retry config.RetryConfig,
	provider string,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		orders:   orders,
		logs:     logs,
		verifier: verifier,
		alerter:  alerter,
		retry:    retry,
		provider: provider,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		sleep:    sleepCtx,
	}
}

// HandleNotification authenticates, records and applies one gateway notification.
// The signature is read from the payload when none is passed in.
//
// Every call leaves exactly one terminal outcome in the webhook log. A notification
// whose processing keeps failing returns an error after the configured attempts so
// the gateway redelivers it later.
func (s *WebhookService) HandleNotification(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	var n domain.Notification
	parseErr := json.Unmarshal(payload, &n)
	if signature == "" {
		signature = n.SignatureKey
	}

	entry := domain.NewWebhookLogEntry(uuid.New().String(), s.provider, payload, n, signature, s.now())
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record webhook", "error", err)
		return nil, application.NewInternalError(fmt.Errorf("record webhook: %w", err))
	}

	logger := s.logger.With(
		"webhook_id", entry.ID,
		"gateway_order_id", n.OrderID,
		"transaction_status", n.TransactionStatus,
	)

	if parseErr != nil {
		s.finish(ctx, entry, domain.Failed{LastError: "malformed payload: " + parseErr.Error(), FailedAt: s.now()}, logger)
		return nil, application.NewValidationError("Malformed notification payload", parseErr)
	}

	if !s.verifier.Verify(n, signature) {
		s.finish(ctx, entry, domain.InvalidSignature{RejectedAt: s.now()}, logger)
		return nil, application.NewUnauthorizedError("Invalid signature")
	}
	entry.SignatureValid = true

	target, err := domain.MapTransactionStatus(n.TransactionStatus)
	if err != nil {
		warning := fmt.Sprintf("unknown transaction status %q", n.TransactionStatus)
		s.finish(ctx, entry, domain.ProcessedWithWarning{Attempts: 1, Warning: warning, ProcessedAt: s.now()}, logger)
		return &WebhookResult{Success: true, Attempts: 1, Message: "Ignored: " + warning}, nil
	}

	maxAttempts := max(s.retry.MaxAttempts, 1)
	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		res, err := applyPaymentStatus(ctx, s.orders, n, target, s.now())
		if err == nil {
			var outcome domain.ProcessingOutcome = domain.Processed{Attempts: attempt, Message: res.Message, ProcessedAt: s.now()}
			if len(res.Warnings) > 0 {
				outcome = domain.ProcessedWithWarning{
					Attempts:    attempt,
					Warning:     strings.Join(res.Warnings, "; "),
					ProcessedAt: s.now(),
				}
			}
			logger.Info("webhook processed",
				"order_id", res.OrderID,
				"from", res.From,
				"to", res.To,
				"attempt", attempt,
			)
			s.finish(ctx, entry, outcome, logger)
			return &WebhookResult{Success: true, Attempts: attempt, Message: res.Message}, nil
		}

		lastErr = err
		logger.Warn("webhook processing attempt failed", "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			if err := s.sleep(ctx, s.retry.BaseDelay*time.Duration(attempt)); err != nil {
				break
			}
		}
	}

	s.finish(ctx, entry, domain.Failed{Attempts: attempts, LastError: lastErr.Error(), FailedAt: s.now()}, logger)

	return &WebhookResult{Success: false, Attempts: attempts, Message: "Processing failed"},
		application.NewInternalError(fmt.Errorf("webhook processing failed after %d attempts: %w", attempts, lastErr))
}

// finish records the terminal outcome and raises an alert for anything but a clean run.
// It runs detached from ctx so a cancelled request still leaves its audit record.
func (s *WebhookService) finish(ctx context.Context, entry *domain.WebhookLogEntry, outcome domain.ProcessingOutcome, logger *slog.Logger) {
	ctx = context.WithoutCancel(ctx)

	entry.Record(outcome)
	if err := s.logs.Update(ctx, entry); err != nil {
		logger.Error("failed to record webhook outcome", "status", outcome.Status(), "error", err)
	}

	fields := map[string]any{
		"webhook_id":       entry.ID,
		"gateway_order_id": entry.GatewayOrderID,
	}
	switch o := outcome.(type) {
	case domain.InvalidSignature:
		logger.Warn("webhook rejected: invalid signature")
		s.alerter.Alert(ctx, application.Alert{
			Level:   application.AlertWarning,
			Event:   string(domain.ProcessingInvalidSignature),
			Message: "Payment notification rejected: invalid signature",
			Fields:  fields,
		})
	case domain.ProcessedWithWarning:
		fields["warning"] = o.Warning
		logger.Warn("webhook processed with warning", "warning", o.Warning)
		s.alerter.Alert(ctx, application.Alert{
			Level:   application.AlertWarning,
			Event:   string(domain.ProcessingProcessedWithWarning),
			Message: "Payment notification processed with warning",
			Fields:  fields,
		})
	case domain.Failed:
		fields["attempts"] = o.Attempts
		fields["last_error"] = o.LastError
		logger.Error("webhook processing failed", "attempts", o.Attempts, "error", o.LastError)
		s.alerter.Alert(ctx, application.Alert{
			Level:   application.AlertCritical,
			Event:   string(domain.ProcessingFailed),
			Message: "Payment notification processing failed",
			Fields:  fields,
		})
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
