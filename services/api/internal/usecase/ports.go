package usecase

import (
	"context"
	"time"

	"quddle-backend/pkg/queue"
	"quddle-backend/pkg/s3"
)

// ObjectStore is the slice of the S3 client the use cases need.
type ObjectStore interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration, acl string) (string, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	HeadObject(ctx context.Context, bucket, key string) (*s3.ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	ObjectURL(bucket, key string) string
}

// Buckets names the three buckets media lives in.
type Buckets struct {
	Main      string
	Ads       string
	Processed string
}

// TranscodeDispatcher hands finalized reels to the external transcode
// pipeline.
type TranscodeDispatcher interface {
	PublishTranscodeTask(ctx context.Context, task *queue.TranscodeTask) error
}

var (
	_ ObjectStore         = (*s3.Client)(nil)
	_ TranscodeDispatcher = (*queue.Client)(nil)
)
