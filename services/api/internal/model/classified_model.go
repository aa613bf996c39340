package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ClassifiedModel struct {
	ID          string              `gorm:"type:uuid;primary_key"`
	UserID      string              `gorm:"type:uuid;not null;index"`
	Title       string              `gorm:"type:text;not null"`
	Description string              `gorm:"type:text;not null"`
	Price       decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Category    *string             `gorm:"type:varchar(100);index"`
	Location    *string             `gorm:"type:varchar(255)"`
	PostingFee  decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Images      pq.StringArray      `gorm:"type:text[];not null;default:'{}'"`
	Status      string              `gorm:"type:varchar(20);not null;default:active;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ClassifiedModel) TableName() string {
	return "classifieds"
}

func (c *ClassifiedModel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
