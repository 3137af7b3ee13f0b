package services

import (
	"context"
	"time"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/domain"
)

const (
	minSummaryWindow = time.Minute
	recentIssueLimit = 20
)

type WebhookIssue struct {
	ID                string    `json:"id"`
	GatewayOrderID    string    `json:"gateway_order_id"`
	TransactionStatus string    `json:"transaction_status"`
	Status            string    `json:"status"`
	Attempts          int       `json:"attempts"`
	Detail            string    `json:"detail,omitempty"`
	ReceivedAt        time.Time `json:"received_at"`
}

type WebhookSummary struct {
	WindowMinutes    int            `json:"window_minutes"`
	Since            time.Time      `json:"since"`
	TotalReceived    int            `json:"total_received"`
	Processed        int            `json:"processed"`
	Warning          int            `json:"warning"`
	Failed           int            `json:"failed"`
	InvalidSignature int            `json:"invalid_signature"`
	InFlight         int            `json:"in_flight"`
	RecentIssues     []WebhookIssue `json:"recent_issues"`
}

// MonitorService reports on the webhook audit log. It never writes.
type MonitorService struct {
	logs application.WebhookLogRepository
	now  func() time.Time
}

func NewMonitorService(logs application.WebhookLogRepository) *MonitorService {
	return &MonitorService{
		logs: logs,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Summarize counts notifications received within the trailing window, which is
// raised to one minute when shorter.
func (s *MonitorService) Summarize(ctx context.Context, window time.Duration) (*WebhookSummary, error) {
	window = max(window, minSummaryWindow)
	since := s.now().Add(-window)

	counts, err := s.logs.CountByStatus(ctx, since)
	if err != nil {
		return nil, application.ToServiceError(err)
	}

	issues, err := s.logs.ListRecentIssues(ctx, since, recentIssueLimit)
	if err != nil {
		return nil, application.ToServiceError(err)
	}

	summary := &WebhookSummary{
		WindowMinutes:    int(window / time.Minute),
		Since:            since,
		Processed:        counts[domain.ProcessingProcessed],
		Warning:          counts[domain.ProcessingProcessedWithWarning],
		Failed:           counts[domain.ProcessingFailed],
		InvalidSignature: counts[domain.ProcessingInvalidSignature],
		InFlight:         counts[domain.ProcessingReceived],
		RecentIssues:     make([]WebhookIssue, 0, len(issues)),
	}
	for _, c := range counts {
		summary.TotalReceived += c
	}

	for _, e := range issues {
		attempts, message, lastError := domain.OutcomeFields(e.Outcome)
		detail := message
		if lastError != "" {
			detail = lastError
		}
		summary.RecentIssues = append(summary.RecentIssues, WebhookIssue{
			ID:                e.ID,
			GatewayOrderID:    e.GatewayOrderID,
			TransactionStatus: e.TransactionStatus,
			Status:            string(e.Status()),
			Attempts:          attempts,
			Detail:            detail,
			ReceivedAt:        e.CreatedAt,
		})
	}

	return summary, nil
}
