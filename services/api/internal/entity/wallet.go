package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "debit"
	TransactionTypeCredit TransactionType = "credit"
)

const ReferenceTypeClassified = "classified"

type Wallet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is an append-only ledger row. Amount is always positive; Type
// says which side of the transfer the wallet was on.
type Transaction struct {
	ID            string          `json:"id"`
	WalletID      string          `json:"wallet_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type TransferRequest struct {
	FromWalletID string
	ToWalletID   string
	Amount       decimal.Decimal
	// Description goes on the debit row, CounterDescription on the credit row.
	Description        string
	CounterDescription string
	ReferenceType      string
	ReferenceID        string
}

type TransferResult struct {
	From   *Wallet
	To     *Wallet
	Debit  *Transaction
	Credit *Transaction
}
