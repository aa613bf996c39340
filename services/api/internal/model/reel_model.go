package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReelModel struct {
	ID           string   `gorm:"type:uuid;primary_key"`
	UserID       string   `gorm:"type:uuid;not null;index"`
	S3Key        string   `gorm:"column:s3_key;type:text;uniqueIndex;not null"`
	S3URL        string   `gorm:"column:s3_url;type:text"`
	S3ServeURL   string   `gorm:"column:s3_serve_url;type:text"`
	ThumbnailURL string   `gorm:"type:text"`
	DurationSec  *float64 `gorm:"type:numeric(10,2)"`
	SizeBytes    *int64   `gorm:"type:bigint"`
	Converted    bool     `gorm:"not null;default:false"`
	Status       string   `gorm:"type:varchar(20);not null;default:processing;index"`
	LikesCount   int64    `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ReelModel) TableName() string {
	return "reels"
}

func (r *ReelModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

type ReelLikeModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	ReelID    string `gorm:"type:uuid;not null;uniqueIndex:idx_reel_likes_reel_user"`
	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_reel_likes_reel_user"`
	CreatedAt time.Time
}

func (ReelLikeModel) TableName() string {
	return "reel_likes"
}

func (l *ReelLikeModel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}
