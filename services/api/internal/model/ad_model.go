package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AdModel struct {
	ID                 string          `gorm:"type:uuid;primary_key"`
	AdvertiserID       string          `gorm:"type:uuid;not null;index"`
	Title              string          `gorm:"type:text;not null"`
	ImageURL           string          `gorm:"type:text;not null"`
	ImageKey           string          `gorm:"type:text"`
	LinkURL            string          `gorm:"type:text;not null"`
	PaymentAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TargetImpressions  int64           `gorm:"not null"`
	CurrentImpressions int64           `gorm:"not null;default:0"`
	CurrentClicks      int64           `gorm:"not null;default:0"`
	Status             string          `gorm:"type:varchar(20);not null;default:pending;index"`
	PaymentIntentID    *string         `gorm:"type:varchar(255)"`
	ExpiresAt          time.Time       `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (AdModel) TableName() string {
	return "ads"
}

func (a *AdModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

type AdImpressionModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	AdID      string `gorm:"type:uuid;not null;index"`
	UserID    string `gorm:"type:uuid;not null"`
	ReelID    string `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

func (AdImpressionModel) TableName() string {
	return "ad_impressions"
}

func (m *AdImpressionModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

type AdClickModel struct {
	ID        string  `gorm:"type:uuid;primary_key"`
	AdID      string  `gorm:"type:uuid;not null;index"`
	UserID    *string `gorm:"type:uuid"`
	ReelID    *string `gorm:"type:uuid"`
	CreatedAt time.Time
}

func (AdClickModel) TableName() string {
	return "ad_clicks"
}

func (m *AdClickModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
