package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses reported by the payment gateway.
const (
	TransactionCapture    = "capture"
	TransactionSettlement = "settlement"
	TransactionPending    = "pending"
	TransactionDeny       = "deny"
	TransactionExpire     = "expire"
	TransactionCancel     = "cancel"
)

var transactionStatusMap = map[string]PaymentStatus{
	TransactionCapture:    StatusPaid,
	TransactionSettlement: StatusPaid,
	TransactionPending:    StatusPending,
	TransactionDeny:       StatusFailed,
	TransactionExpire:     StatusExpired,
	TransactionCancel:     StatusCancelled,
}

// MapTransactionStatus translates the gateway vocabulary into an order payment status.
func MapTransactionStatus(transactionStatus string) (PaymentStatus, error) {
	status, ok := transactionStatusMap[strings.ToLower(strings.TrimSpace(transactionStatus))]
	if !ok {
		return "", NewUnknownStatusError(transactionStatus)
	}
	return status, nil
}

// Notification is the subset of a gateway webhook payload the engine acts on.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id,omitempty"`
	SignatureKey      string `json:"signature_key,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	FraudStatus       string `json:"fraud_status,omitempty"`
}

// ParsedGrossAmount returns the reported amount, or false when it is absent or malformed.
func (n Notification) ParsedGrossAmount() (decimal.Decimal, bool) {
	if n.GrossAmount == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(n.GrossAmount)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// ProcessingStatus is the persisted name of a ProcessingOutcome.
type ProcessingStatus string

const (
	ProcessingReceived             ProcessingStatus = "received"
	ProcessingInvalidSignature     ProcessingStatus = "invalid_signature"
	ProcessingProcessed            ProcessingStatus = "processed"
	ProcessingProcessedWithWarning ProcessingStatus = "processed_with_warning"
	ProcessingFailed               ProcessingStatus = "failed"
)

// ProcessingOutcome is where a notification got to. Each state carries only the
// data that makes sense for it; use a type switch to get at it.
type ProcessingOutcome interface {
	Status() ProcessingStatus
	At() time.Time
	outcome()
}

type Received struct {
	ReceivedAt time.Time
}

type InvalidSignature struct {
	RejectedAt time.Time
}

type Processed struct {
	Attempts    int
	Message     string
	ProcessedAt time.Time
}

type ProcessedWithWarning struct {
	Attempts    int
	Warning     string
	ProcessedAt time.Time
}

type Failed struct {
	Attempts  int
	LastError string
	FailedAt  time.Time
}

func (Received) Status() ProcessingStatus             { return ProcessingReceived }
func (InvalidSignature) Status() ProcessingStatus     { return ProcessingInvalidSignature }
func (Processed) Status() ProcessingStatus            { return ProcessingProcessed }
func (ProcessedWithWarning) Status() ProcessingStatus { return ProcessingProcessedWithWarning }
func (Failed) Status() ProcessingStatus               { return ProcessingFailed }

func (o Received) At() time.Time             { return o.ReceivedAt }
func (o InvalidSignature) At() time.Time     { return o.RejectedAt }
func (o Processed) At() time.Time            { return o.ProcessedAt }
func (o ProcessedWithWarning) At() time.Time { return o.ProcessedAt }
func (o Failed) At() time.Time               { return o.FailedAt }

func (Received) outcome()             {}
func (InvalidSignature) outcome()     {}
func (Processed) outcome()            {}
func (ProcessedWithWarning) outcome() {}
func (Failed) outcome()               {}

// OutcomeFields flattens an outcome into the columns it is stored as.
func OutcomeFields(o ProcessingOutcome) (attempts int, message, lastError string) {
	switch v := o.(type) {
	case Processed:
		return v.Attempts, storableText(v.Message), ""
	case ProcessedWithWarning:
		return v.Attempts, storableText(v.Warning), ""
	case Failed:
		return v.Attempts, "", storableText(v.LastError)
	}
	return 0, "", ""
}

// RestoreOutcome rebuilds an outcome from its stored columns.
func RestoreOutcome(status ProcessingStatus, attempts int, message, lastError string, at time.Time) ProcessingOutcome {
	switch status {
	case ProcessingInvalidSignature:
		return InvalidSignature{RejectedAt: at}
	case ProcessingProcessed:
		return Processed{Attempts: attempts, Message: message, ProcessedAt: at}
	case ProcessingProcessedWithWarning:
		return ProcessedWithWarning{Attempts: attempts, Warning: message, ProcessedAt: at}
	case ProcessingFailed:
		return Failed{Attempts: attempts, LastError: lastError, FailedAt: at}
	}
	return Received{ReceivedAt: at}
}

// WebhookLogEntry is the audit record of one received notification. Entries are
// created before the signature is checked and are never deleted.
type WebhookLogEntry struct {
	ID                string
	Provider          string
	GatewayOrderID    string
	TransactionStatus string
	GrossAmount       decimal.NullDecimal
	Payload           []byte
	Signature         string
	SignatureValid    bool
	Outcome           ProcessingOutcome
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewWebhookLogEntry records a notification as received. The payload is kept verbatim.
func NewWebhookLogEntry(id, provider string, payload []byte, n Notification, signature string, now time.Time) *WebhookLogEntry {
	entry := &WebhookLogEntry{
		ID:                id,
		Provider:          provider,
		GatewayOrderID:    storableText(n.OrderID),
		TransactionStatus: storableText(n.TransactionStatus),
		Payload:           payload,
		Signature:         storableText(signature),
		Outcome:           Received{ReceivedAt: now},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if amount, ok := n.ParsedGrossAmount(); ok {
		amount = amount.Round(2)
		if amount.Abs().LessThan(maxLoggedAmount) {
			entry.GrossAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
	}
	return entry
}

// maxLoggedAmount is the exclusive bound of the gross_amount column, NUMERIC(18,2).
// Amounts outside it are left null; the verbatim payload still has them.
var maxLoggedAmount = decimal.New(1, 16)

// storableText drops what a Postgres TEXT column refuses: NUL bytes and invalid UTF-8.
func storableText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
}

func (e *WebhookLogEntry) Record(outcome ProcessingOutcome) {
	e.Outcome = outcome
	e.UpdatedAt = outcome.At()
}

func (e *WebhookLogEntry) Status() ProcessingStatus {
	if e.Outcome == nil {
		return ProcessingReceived
	}
	return e.Outcome.Status()
}
