package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/metrics"
	"quddle-backend/pkg/queue"
	"quddle-backend/pkg/s3"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/repo/persistent"

	"github.com/google/uuid"
)

const maxReelBytes = 200 * 1024 * 1024

type PresignResult struct {
	UploadURL string
	Bucket    string
	Key       string
	ReelID    string
}

type FinalizeInput struct {
	ReelID      string
	Key         string
	S3URL       string
	SizeBytes   *int64
	DurationSec *float64
}

type TranscodeCallback struct {
	S3Key        string
	NewS3URL     string
	ThumbnailURL string
}

type ReelUseCase interface {
	Presign(ctx context.Context, userID, contentType string, sizeBytes *int64) (*PresignResult, error)
	Finalize(ctx context.Context, userID string, input FinalizeInput) (*entity.Reel, error)
	ListMine(ctx context.Context, userID string) ([]*entity.Reel, error)
	// ListAll returns every ready reel in a fresh random order on each call.
	ListAll(ctx context.Context, userID string) ([]*entity.Reel, error)
	PlaybackURL(ctx context.Context, reelID string) (string, time.Duration, error)
	Delete(ctx context.Context, userID, reelID string) error
	ToggleLike(ctx context.Context, userID, reelID string) (*entity.Reel, bool, error)
	UpdateFromTranscode(ctx context.Context, secret string, callback TranscodeCallback) (*entity.Reel, error)
}

type reelUseCase struct {
	reelRepo      persistent.ReelRepository
	store         ObjectStore
	buckets       Buckets
	dispatcher    TranscodeDispatcher
	webhookSecret string
	shuffle       func(n int, swap func(i, j int))
	logger        *logger.Logger
}

// NewReelUseCase wires the reel catalog. dispatcher may be nil when no
// transcode queue is configured.
func NewReelUseCase(
	reelRepo persistent.ReelRepository,
	store ObjectStore,
	buckets Buckets,
	dispatcher TranscodeDispatcher,
	webhookSecret string,
	logger *logger.Logger,
) ReelUseCase {
	return &reelUseCase{
		reelRepo:      reelRepo,
		store:         store,
		buckets:       buckets,
		dispatcher:    dispatcher,
		webhookSecret: webhookSecret,
		shuffle:       rand.Shuffle,
		logger:        logger,
	}
}

func (uc *reelUseCase) Presign(ctx context.Context, userID, contentType string, sizeBytes *int64) (*PresignResult, error) {
	if !strings.HasPrefix(contentType, "video/") {
		return nil, apperrors.BadRequestError(nil, "Invalid or missing contentType")
	}
	if sizeBytes != nil && *sizeBytes > maxReelBytes {
		return nil, apperrors.BadRequestError(nil, "File too large")
	}

	reelID := uuid.New().String()
	key := fmt.Sprintf("%s%s.%s", reelPrefix(userID), reelID, videoExtension(contentType))

	url, err := uc.store.PresignPut(ctx, uc.buckets.Main, key, contentType, s3.DefaultUploadTTL, "")
	if err != nil {
		uc.logger.Error("Failed to presign reel upload: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to generate upload URL")
	}

	uc.logger.Info("Presigned URL created: reel=%s key=%s bucket=%s", reelID, key, uc.buckets.Main)
	return &PresignResult{UploadURL: url, Bucket: uc.buckets.Main, Key: key, ReelID: reelID}, nil
}

func (uc *reelUseCase) Finalize(ctx context.Context, userID string, input FinalizeInput) (*entity.Reel, error) {
	if input.ReelID == "" || input.Key == "" {
		return nil, apperrors.BadRequestError(nil, "reelId and key are required")
	}
	if !isUUID(input.ReelID) {
		return nil, apperrors.BadRequestError(nil, "Invalid reelId format")
	}
	if !strings.HasPrefix(input.Key, reelPrefix(userID)) {
		return nil, apperrors.ForbiddenError(nil, "Key does not belong to this user")
	}
	if !strings.HasPrefix(path.Base(input.Key), input.ReelID+".") {
		return nil, apperrors.BadRequestError(nil, "Key does not match reelId")
	}

	info, err := uc.store.HeadObject(ctx, uc.buckets.Main, input.Key)
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			uc.logger.Info("S3 object not found: %s", input.Key)
			return nil, apperrors.BadRequestError(err, "S3 object not found for provided key")
		}
		uc.logger.Error("Failed to head object %s: %v", input.Key, err)
		return nil, apperrors.DependencyError(err, "Failed to verify uploaded object")
	}

	sourceURL := input.S3URL
	if sourceURL == "" {
		sourceURL = uc.store.ObjectURL(uc.buckets.Main, input.Key)
	}
	sizeBytes := input.SizeBytes
	if sizeBytes == nil && info.ContentLength > 0 {
		size := info.ContentLength
		sizeBytes = &size
	}

	reel := &entity.Reel{
		ID:     input.ReelID,
		UserID: userID,
		S3Key:  input.Key,
		S3URL:  sourceURL,
		// Expected transcode outputs; confirmed by the transcode callback.
		ServeURL:     uc.store.ObjectURL(uc.buckets.Processed, input.ReelID+"_720p.m3u8"),
		ThumbnailURL: uc.store.ObjectURL(uc.buckets.Processed, input.ReelID+"_thumb.0000000_thumb.m3u8"),
		DurationSec:  input.DurationSec,
		SizeBytes:    sizeBytes,
		Converted:    false,
		Status:       entity.ReelStatusProcessing,
	}
	if err := uc.reelRepo.Create(ctx, reel); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.BadRequestError(err, "Reel already finalized")
		}
		uc.logger.Error("Failed to save reel: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to save reel")
	}

	uc.dispatchTranscode(ctx, reel)
	uc.logger.Info("Reel saved: id=%s user=%s key=%s", reel.ID, reel.UserID, reel.S3Key)
	return reel, nil
}

func (uc *reelUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Reel, error) {
	reels, err := uc.reelRepo.ListReady(ctx, userID, userID)
	if err != nil {
		uc.logger.Error("Failed to list reels for %s: %v", userID, err)
		return nil, apperrors.DependencyError(err, "Failed to list reels")
	}
	return reels, nil
}

func (uc *reelUseCase) ListAll(ctx context.Context, userID string) ([]*entity.Reel, error) {
	reels, err := uc.reelRepo.ListReady(ctx, "", userID)
	if err != nil {
		uc.logger.Error("Failed to list all reels: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to list all reels")
	}
	uc.shuffle(len(reels), func(i, j int) { reels[i], reels[j] = reels[j], reels[i] })
	return reels, nil
}

func (uc *reelUseCase) PlaybackURL(ctx context.Context, reelID string) (string, time.Duration, error) {
	reel, err := uc.load(ctx, reelID)
	if err != nil {
		return "", 0, err
	}

	url, err := uc.store.PresignGet(ctx, uc.buckets.Main, reel.S3Key, s3.DefaultDownloadTTL)
	if err != nil {
		uc.logger.Error("Failed to presign playback for %s: %v", reelID, err)
		return "", 0, apperrors.DependencyError(err, "Failed to generate playback URL")
	}
	return url, s3.DefaultDownloadTTL, nil
}

func (uc *reelUseCase) Delete(ctx context.Context, userID, reelID string) error {
	reel, err := uc.load(ctx, reelID)
	if err != nil {
		return err
	}
	if reel.UserID != userID {
		return apperrors.ForbiddenError(nil, "Not allowed to delete this reel")
	}

	if err := uc.store.DeleteObject(ctx, uc.buckets.Main, reel.S3Key); err != nil {
		uc.logger.Warn("S3 delete warning for %s: %v", reel.S3Key, err)
	}

	if err := uc.reelRepo.Delete(ctx, reelID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundError(err, "Reel not found")
		}
		uc.logger.Error("Failed to delete reel %s: %v", reelID, err)
		return apperrors.DependencyError(err, "Failed to delete reel")
	}
	return nil
}

func (uc *reelUseCase) ToggleLike(ctx context.Context, userID, reelID string) (*entity.Reel, bool, error) {
	if !isUUID(reelID) {
		return nil, false, apperrors.NotFoundError(nil, "Reel not found")
	}

	reel, liked, err := uc.reelRepo.ToggleLike(ctx, reelID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, apperrors.NotFoundError(err, "Reel not found")
		}
		uc.logger.Error("Failed to toggle like on %s: %v", reelID, err)
		return nil, false, apperrors.DependencyError(err, "Failed to update like count")
	}
	return reel, liked, nil
}

func (uc *reelUseCase) UpdateFromTranscode(ctx context.Context, secret string, callback TranscodeCallback) (*entity.Reel, error) {
	if callback.S3Key == "" || callback.NewS3URL == "" {
		return nil, apperrors.BadRequestError(nil, "s3_key and newS3Url are required")
	}
	// An unset secret rejects every callback rather than accepting a missing
	// header.
	if uc.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(uc.webhookSecret)) != 1 {
		return nil, apperrors.ForbiddenError(nil, "Unauthorized")
	}

	reel, err := uc.reelRepo.UpdateFromTranscode(ctx, persistent.TranscodeResult{
		S3Key:        callback.S3Key,
		ServeURL:     callback.NewS3URL,
		ThumbnailURL: callback.ThumbnailURL,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundError(err, "Reel not found")
		}
		uc.logger.Error("Failed to update reel from transcode: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to update reel")
	}

	uc.logger.Info("Reel updated from transcode: id=%s url=%s", reel.ID, reel.ServeURL)
	return reel, nil
}

func (uc *reelUseCase) dispatchTranscode(ctx context.Context, reel *entity.Reel) {
	if uc.dispatcher == nil {
		return
	}
	task := &queue.TranscodeTask{
		ReelID:          reel.ID,
		UserID:          reel.UserID,
		SourceBucket:    uc.buckets.Main,
		SourceKey:       reel.S3Key,
		ProcessedBucket: uc.buckets.Processed,
		CreatedAt:       time.Now().UTC(),
	}
	if err := uc.dispatcher.PublishTranscodeTask(ctx, task); err != nil {
		// The object-store trigger can still pick the upload up.
		metrics.TranscodeTasksTotal.WithLabelValues("error").Inc()
		uc.logger.Warn("Failed to publish transcode task for reel %s: %v", reel.ID, err)
		return
	}
	metrics.TranscodeTasksTotal.WithLabelValues("published").Inc()
}

func (uc *reelUseCase) load(ctx context.Context, reelID string) (*entity.Reel, error) {
	if !isUUID(reelID) {
		return nil, apperrors.NotFoundError(nil, "Reel not found")
	}
	reel, err := uc.reelRepo.GetByID(ctx, reelID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundError(err, "Reel not found")
		}
		uc.logger.Error("Failed to fetch reel %s: %v", reelID, err)
		return nil, apperrors.DependencyError(err, "Failed to fetch reel")
	}
	return reel, nil
}

func reelPrefix(userID string) string {
	return fmt.Sprintf("reels/%s/", userID)
}

func videoExtension(contentType string) string {
	if contentType == "video/quicktime" {
		return "mov"
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		return sub
	}
	return "mp4"
}
