package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const ClassifiedStatusActive = "active"

type Classified struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Location    *string          `json:"location"`
	PostingFee  decimal.Decimal  `json:"posting_fee"`
	Images      []string         `json:"images"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type UploadURL struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}
