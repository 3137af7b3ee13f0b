package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/ordercode"
)

// Reasons a submitted receipt or tracking code is rejected.
const (
	ReasonInvalidReceiptFormat   = "invalid_receipt_format"
	ReasonReceiptNotFound        = "receipt_not_found"
	ReasonVerificationMismatch   = "verification_code_mismatch"
	ReasonInvalidTrackingFormat  = "invalid_resi_format"
	ReasonTrackingNotFound       = "resi_not_found"
	ReasonNotShippedToExpedition = "not_shipped_to_expedition"
)

type ReceiptVerification struct {
	Valid   bool            `json:"valid"`
	Reason  string          `json:"reason,omitempty"`
	Receipt *ReceiptSummary `json:"receipt,omitempty"`
}

type TrackingVerification struct {
	Valid    bool             `json:"valid"`
	Reason   string           `json:"reason,omitempty"`
	Shipment *ShipmentSummary `json:"shipment,omitempty"`
}

// VerificationService lets anyone holding a printed receipt or tracking code check
// it against the order it claims to belong to.
type VerificationService struct {
	repo   application.OrderRepository
	logger *slog.Logger
}

func NewVerificationService(repo application.OrderRepository, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		repo:   repo,
		logger: logger,
	}
}

func (s *VerificationService) VerifyReceipt(ctx context.Context, receiptNumber, verificationCode string) (*ReceiptVerification, error) {
	code, ok := ordercode.ParseReceiptNumber(receiptNumber)
	if !ok {
		return &ReceiptVerification{Reason: ReasonInvalidReceiptFormat}, nil
	}

	order, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return &ReceiptVerification{Reason: ReasonReceiptNotFound}, nil
		}
		s.logger.Error("receipt lookup failed", "error", err)
		return nil, application.ToServiceError(err)
	}

	expected := ordercode.VerificationCode(order.OrderCode)
	submitted := strings.ToUpper(strings.TrimSpace(verificationCode))
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) != 1 {
		return &ReceiptVerification{Reason: ReasonVerificationMismatch}, nil
	}

	return &ReceiptVerification{
		Valid:   true,
		Receipt: newReceiptSummary(order),
	}, nil
}

func (s *VerificationService) VerifyTracking(ctx context.Context, trackingCode string) (*TrackingVerification, error) {
	code, ok := ordercode.NormalizeTrackingCode(trackingCode)
	if !ok {
		return &TrackingVerification{Reason: ReasonInvalidTrackingFormat}, nil
	}

	order, err := s.repo.FindByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return &TrackingVerification{Reason: ReasonTrackingNotFound}, nil
		}
		s.logger.Error("tracking lookup failed", "error", err)
		return nil, application.ToServiceError(err)
	}

	if !order.ShippedToExpedition {
		return &TrackingVerification{Reason: ReasonNotShippedToExpedition}, nil
	}

	return &TrackingVerification{
		Valid:    true,
		Shipment: newShipmentSummary(order),
	}, nil
}
