package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentCanceled  = "payment_intent.canceled"
)

var (
	ErrNotConfigured    = errors.New("payment processor not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type IntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Event is a verified processor notification about a payment intent.
type Event struct {
	ID       string
	Type     string
	IntentID string
	Status   string
	Metadata map[string]string
}

type Processor interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// MinorUnits converts a major-unit amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
