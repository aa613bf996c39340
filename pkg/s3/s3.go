package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quddle-backend/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const (
	DefaultUploadTTL   = 900 * time.Second
	DefaultDownloadTTL = 3600 * time.Second
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key           string
	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  time.Time
}

// Client issues presigned URLs and checks objects across the main (reels,
// classifieds), ads and processed (transcode output) buckets. It never
// touches the catalog.
type Client struct {
	s3Client  *s3.S3
	region    string
	endpoint  string
	useSSL    bool
	Main      string
	Ads       string
	Processed string
}

func NewClient(cfg *config.Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)
	}

	// Support MinIO for local development
	if cfg.AWSEndpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWSEndpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if cfg.S3UseSSL == "false" {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Client{
		s3Client:  s3.New(sess),
		region:    cfg.AWSRegion,
		endpoint:  cfg.AWSEndpoint,
		useSSL:    cfg.S3UseSSL != "false",
		Main:      cfg.S3BucketName,
		Ads:       cfg.S3AdsBucketName,
		Processed: cfg.S3ProcessedBucketName,
	}, nil
}

// EnsureBuckets creates missing buckets. Only meaningful against MinIO.
func (c *Client) EnsureBuckets(ctx context.Context) error {
	seen := map[string]bool{}
	for _, bucket := range []string{c.Main, c.Ads, c.Processed} {
		if bucket == "" || seen[bucket] {
			continue
		}
		seen[bucket] = true

		_, err := c.s3Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err == nil {
			continue
		}
		_, err = c.s3Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			var aerr awserr.Error
			if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou || aerr.Code() == s3.ErrCodeBucketAlreadyExists) {
				continue
			}
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// PresignPut returns a URL the client can PUT the object body to. acl is
// optional ("" leaves it to the bucket policy).
func (c *Client) PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration, acl string) (string, error) {
	if ttl <= 0 {
		ttl = DefaultUploadTTL
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if acl != "" {
		input.ACL = aws.String(acl)
	}

	req, _ := c.s3Client.PutObjectRequest(input)
	req.SetContext(ctx)
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}
	return url, nil
}

func (c *Client) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultDownloadTTL
	}
	req, _ := c.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
	}
	return url, nil
}

// HeadObject returns ErrObjectNotFound when the key does not exist.
func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	out, err := c.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to head object %s: %w", key, err)
	}

	return &ObjectInfo{
		Key:           key,
		ContentLength: aws.Int64Value(out.ContentLength),
		ContentType:   aws.StringValue(out.ContentType),
		ETag:          aws.StringValue(out.ETag),
		LastModified:  aws.TimeValue(out.LastModified),
	}, nil
}

// DeleteObject treats a missing key as already deleted.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// ObjectURL is the public (unsigned) URL of an object.
func (c *Client) ObjectURL(bucket, key string) string {
	if c.endpoint != "" && !strings.Contains(c.endpoint, "amazonaws.com") {
		// MinIO URL format
		protocol := "https"
		if !c.useSSL {
			protocol = "http"
		}
		endpoint := strings.TrimPrefix(c.endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, bucket, key)
	}

	region := c.region
	if region == "" {
		region = "us-east-1"
	}
	// Virtual-hosted style breaks TLS for bucket names containing dots.
	if strings.Contains(bucket, ".") {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", region, bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
