package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletModel struct {
	ID        string          `gorm:"type:uuid;primary_key"`
	UserID    string          `gorm:"type:uuid;uniqueIndex;not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WalletModel) TableName() string {
	return "wallets"
}

func (w *WalletModel) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

type TransactionModel struct {
	ID            string          `gorm:"type:uuid;primary_key"`
	WalletID      string          `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Type          string          `gorm:"type:varchar(10);not null"`
	Description   string          `gorm:"type:text"`
	ReferenceType *string         `gorm:"type:varchar(50)"`
	ReferenceID   *string         `gorm:"type:uuid;index"`
	CreatedAt     time.Time
}

func (TransactionModel) TableName() string {
	return "wallet_transactions"
}

func (t *TransactionModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
