package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type AdStatus string

const (
	AdStatusPending AdStatus = "pending"
	AdStatusActive  AdStatus = "active"
	AdStatusExpired AdStatus = "expired"
	AdStatusPaused  AdStatus = "paused"
)

func (s AdStatus) Valid() bool {
	switch s {
	case AdStatusPending, AdStatusActive, AdStatusExpired, AdStatusPaused:
		return true
	}
	return false
}

// AcceptsClicks is true for active and expired ads; clicks keep counting
// after the impression target is hit.
func (s AdStatus) AcceptsClicks() bool {
	return s == AdStatusActive || s == AdStatusExpired
}

var AdStatuses = []AdStatus{AdStatusPending, AdStatusActive, AdStatusExpired, AdStatusPaused}

type Ad struct {
	ID                 string          `json:"id"`
	AdvertiserID       string          `json:"advertiser_id"`
	Title              string          `json:"title"`
	ImageURL           string          `json:"image_url"`
	ImageKey           string          `json:"image_key,omitempty"`
	LinkURL            string          `json:"link_url"`
	PaymentAmount      decimal.Decimal `json:"payment_amount"`
	TargetImpressions  int64           `json:"target_impressions"`
	CurrentImpressions int64           `json:"current_impressions"`
	CurrentClicks      int64           `json:"current_clicks"`
	Status             AdStatus        `json:"status"`
	PaymentIntentID    string          `json:"payment_intent_id,omitempty"`
	ExpiresAt          time.Time       `json:"expires_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// AdUpdate carries the owner-editable fields. Nil means unchanged.
type AdUpdate struct {
	Title     *string
	LinkURL   *string
	Status    *AdStatus
	ExpiresAt *time.Time
}

func (u AdUpdate) Empty() bool {
	return u.Title == nil && u.LinkURL == nil && u.Status == nil && u.ExpiresAt == nil
}

type AdImpression struct {
	ID        string    `json:"id"`
	AdID      string    `json:"ad_id"`
	UserID    string    `json:"user_id"`
	ReelID    string    `json:"reel_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AdClick struct {
	ID        string    `json:"id"`
	AdID      string    `json:"ad_id"`
	UserID    *string   `json:"user_id"`
	ReelID    *string   `json:"reel_id"`
	CreatedAt time.Time `json:"created_at"`
}
