package entity

import "time"

type ReelStatus string

const (
	// ReelStatusProcessing is set at finalize; the reel is hidden from feeds
	// until the transcode callback marks it ready.
	ReelStatusProcessing ReelStatus = "processing"
	ReelStatusReady      ReelStatus = "ready"
)

type Reel struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	S3Key        string     `json:"s3_key"`
	S3URL        string     `json:"s3_url"`
	ServeURL     string     `json:"s3_serve_url"`
	ThumbnailURL string     `json:"thumbnail_url"`
	DurationSec  *float64   `json:"duration_sec"`
	SizeBytes    *int64     `json:"size_bytes"`
	Converted    bool       `json:"converted"`
	Status       ReelStatus `json:"status"`
	LikesCount   int64      `json:"likes_count"`
	IsLikedByMe  bool       `json:"isLikedByMe"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
