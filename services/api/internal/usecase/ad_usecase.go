package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/metrics"
	"quddle-backend/pkg/payment"
	"quddle-backend/pkg/s3"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxAdImageBytes = 10 * 1024 * 1024
	// AdActivePeriod is how long a paid ad runs once the payment clears.
	AdActivePeriod = 30 * 24 * time.Hour
)

var linkURLPattern = regexp.MustCompile(`^https?://.+`)

type CreateAdInput struct {
	Title             string
	LinkURL           string
	PaymentAmount     decimal.Decimal
	TargetImpressions int64
	ContentType       string
	SizeBytes         *int64
}

type CreateAdResult struct {
	Ad        *entity.Ad
	UploadURL string
	ImageKey  string
}

// UpdateAdInput holds the raw owner-editable fields. Nil means not provided.
type UpdateAdInput struct {
	Title     *string
	LinkURL   *string
	Status    *string
	ExpiresAt *string
}

type PaymentResult struct {
	Intent *payment.Intent
	Ad     *entity.Ad
}

type AdUseCase interface {
	Create(ctx context.Context, userID string, input CreateAdInput) (*CreateAdResult, error)
	ListActive(ctx context.Context) ([]*entity.Ad, error)
	ListMine(ctx context.Context, userID string) ([]*entity.Ad, error)
	Get(ctx context.Context, adID string) (*entity.Ad, error)
	RecordImpression(ctx context.Context, adID, userID, reelID string) (*entity.AdImpression, error)
	RecordClick(ctx context.Context, adID string, userID, reelID *string) (*entity.AdClick, error)
	Update(ctx context.Context, userID, adID string, input UpdateAdInput) (*entity.Ad, error)
	Delete(ctx context.Context, userID, adID string) error
	InitiatePayment(ctx context.Context, userID, adID string) (*PaymentResult, error)
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error
}

type adUseCase struct {
	adRepo    persistent.AdRepository
	store     ObjectStore
	buckets   Buckets
	processor payment.Processor
	currency  string
	now       func() time.Time
	logger    *logger.Logger
}

// NewAdUseCase wires the ad engine. processor may be nil, in which case
// payment endpoints answer 503.
func NewAdUseCase(
	adRepo persistent.AdRepository,
	store ObjectStore,
	buckets Buckets,
	processor payment.Processor,
	currency string,
	logger *logger.Logger,
) AdUseCase {
	return &adUseCase{
		adRepo:    adRepo,
		store:     store,
		buckets:   buckets,
		processor: processor,
		currency:  currency,
		now:       time.Now,
		logger:    logger,
	}
}

func (uc *adUseCase) Create(ctx context.Context, userID string, input CreateAdInput) (*CreateAdResult, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" || input.LinkURL == "" || input.PaymentAmount.IsZero() || input.TargetImpressions == 0 {
		return nil, apperrors.BadRequestError(nil, "Missing required fields: title, link_url, payment_amount, target_impressions")
	}
	if !input.PaymentAmount.IsPositive() {
		return nil, apperrors.BadRequestError(nil, "Payment amount must be greater than 0")
	}
	if input.TargetImpressions < 0 {
		return nil, apperrors.BadRequestError(nil, "Target impressions must be greater than 0")
	}
	if !linkURLPattern.MatchString(input.LinkURL) {
		return nil, apperrors.BadRequestError(nil, "Invalid link_url format")
	}
	if !strings.HasPrefix(input.ContentType, "image/") {
		return nil, apperrors.BadRequestError(nil, "Image upload is required. Provide contentType (image/jpeg, image/png, etc.)")
	}
	if input.SizeBytes != nil && *input.SizeBytes > maxAdImageBytes {
		return nil, apperrors.BadRequestError(nil, "Image file too large (max 10MB)")
	}

	adID := uuid.New().String()
	imageKey := fmt.Sprintf("ads/%s/%s.%s", userID, adID, imageExtension(input.ContentType))

	uploadURL, err := uc.store.PresignPut(ctx, uc.buckets.Ads, imageKey, input.ContentType, s3.DefaultUploadTTL, "")
	if err != nil {
		uc.logger.Error("Failed to presign ad image: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to generate upload URL")
	}

	ad := &entity.Ad{
		ID:                adID,
		AdvertiserID:      userID,
		Title:             input.Title,
		ImageURL:          uc.store.ObjectURL(uc.buckets.Ads, imageKey),
		ImageKey:          imageKey,
		LinkURL:           input.LinkURL,
		PaymentAmount:     input.PaymentAmount,
		TargetImpressions: input.TargetImpressions,
		Status:            entity.AdStatusPending,
		// Replaced when the payment clears.
		ExpiresAt: uc.now().UTC(),
	}
	if err := uc.adRepo.Create(ctx, ad); err != nil {
		uc.logger.Error("Failed to create ad: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to create ad")
	}

	uc.logger.Info("Ad %s created by %s", ad.ID, userID)
	return &CreateAdResult{Ad: ad, UploadURL: uploadURL, ImageKey: imageKey}, nil
}

func (uc *adUseCase) ListActive(ctx context.Context) ([]*entity.Ad, error) {
	ads, err := uc.adRepo.ListActive(ctx)
	if err != nil {
		uc.logger.Error("Failed to get active ads: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to fetch active ads")
	}
	return ads, nil
}

func (uc *adUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Ad, error) {
	ads, err := uc.adRepo.ListByAdvertiser(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to get ads for %s: %v", userID, err)
		return nil, apperrors.DependencyError(err, "Failed to fetch your ads")
	}
	return ads, nil
}

func (uc *adUseCase) Get(ctx context.Context, adID string) (*entity.Ad, error) {
	if !isUUID(adID) {
		return nil, apperrors.BadRequestError(nil, "Invalid ad ID format")
	}
	return uc.load(ctx, adID)
}

func (uc *adUseCase) RecordImpression(ctx context.Context, adID, userID, reelID string) (*entity.AdImpression, error) {
	if !isUUID(adID) {
		return nil, apperrors.BadRequestError(nil, "Invalid ad ID format")
	}
	if userID == "" || reelID == "" {
		return nil, apperrors.BadRequestError(nil, "Missing required fields: user_id, reel_id")
	}
	if !isUUID(userID) || !isUUID(reelID) {
		return nil, apperrors.BadRequestError(nil, "Invalid user_id or reel_id format")
	}

	impression := &entity.AdImpression{AdID: adID, UserID: userID, ReelID: reelID}
	ad, err := uc.adRepo.RecordImpression(ctx, impression)
	if err != nil {
		metrics.AdEventsTotal.WithLabelValues("impression", "rejected").Inc()
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFoundError(err, "Ad not found")
		case errors.Is(err, apperrors.ErrLimitReached):
			return nil, apperrors.BadRequestError(err, "Ad has reached its target impressions")
		case errors.Is(err, apperrors.ErrInvalidState):
			return nil, apperrors.BadRequestError(err, "Ad is not active")
		}
		uc.logger.Error("Failed to record impression for ad %s: %v", adID, err)
		return nil, apperrors.DependencyError(err, "Failed to record impression")
	}

	metrics.AdEventsTotal.WithLabelValues("impression", "recorded").Inc()
	if ad.Status == entity.AdStatusExpired {
		uc.logger.Info("Ad %s reached its target of %d impressions", ad.ID, ad.TargetImpressions)
	}
	return impression, nil
}

func (uc *adUseCase) RecordClick(ctx context.Context, adID string, userID, reelID *string) (*entity.AdClick, error) {
	if !isUUID(adID) {
		return nil, apperrors.BadRequestError(nil, "Invalid ad ID format")
	}
	userID = emptyToNil(userID)
	reelID = emptyToNil(reelID)
	if userID != nil && !isUUID(*userID) {
		return nil, apperrors.BadRequestError(nil, "Invalid user_id format")
	}
	if reelID != nil && !isUUID(*reelID) {
		return nil, apperrors.BadRequestError(nil, "Invalid reel_id format")
	}

	click := &entity.AdClick{AdID: adID, UserID: userID, ReelID: reelID}
	if _, err := uc.adRepo.RecordClick(ctx, click); err != nil {
		metrics.AdEventsTotal.WithLabelValues("click", "rejected").Inc()
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFoundError(err, "Ad not found")
		case errors.Is(err, apperrors.ErrInvalidState):
			return nil, apperrors.BadRequestError(err, "Ad is not active")
		}
		uc.logger.Error("Failed to record click for ad %s: %v", adID, err)
		return nil, apperrors.DependencyError(err, "Failed to record click")
	}

	metrics.AdEventsTotal.WithLabelValues("click", "recorded").Inc()
	return click, nil
}

func (uc *adUseCase) Update(ctx context.Context, userID, adID string, input UpdateAdInput) (*entity.Ad, error) {
	if !isUUID(adID) {
		return nil, apperrors.BadRequestError(nil, "Invalid ad ID format")
	}
	if _, err := uc.loadOwned(ctx, userID, adID, "update"); err != nil {
		return nil, err
	}

	var update entity.AdUpdate
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.BadRequestError(nil, "Title cannot be empty")
		}
		update.Title = &title
	}
	if input.LinkURL != nil {
		if !linkURLPattern.MatchString(*input.LinkURL) {
			return nil, apperrors.BadRequestError(nil, "Invalid link_url format")
		}
		update.LinkURL = input.LinkURL
	}
	if input.Status != nil {
		status := entity.AdStatus(*input.Status)
		if !status.Valid() {
			return nil, apperrors.BadRequestError(nil, "Invalid status. Must be one of: pending, active, paused, expired")
		}
		update.Status = &status
	}
	if input.ExpiresAt != nil {
		expiresAt, err := parseTimestamp(*input.ExpiresAt)
		if err != nil {
			return nil, apperrors.BadRequestError(err, "Invalid expires_at date format")
		}
		update.ExpiresAt = &expiresAt
	}
	if update.Empty() {
		return nil, apperrors.BadRequestError(nil, "No fields provided to update")
	}

	ad, err := uc.adRepo.Update(ctx, adID, update)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundError(err, "Ad not found")
		}
		uc.logger.Error("Failed to update ad %s: %v", adID, err)
		return nil, apperrors.DependencyError(err, "Failed to update ad")
	}
	return ad, nil
}

func (uc *adUseCase) Delete(ctx context.Context, userID, adID string) error {
	if !isUUID(adID) {
		return apperrors.BadRequestError(nil, "Invalid ad ID format")
	}
	ad, err := uc.loadOwned(ctx, userID, adID, "delete")
	if err != nil {
		return err
	}

	if err := uc.adRepo.Delete(ctx, adID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundError(err, "Ad not found")
		}
		uc.logger.Error("Failed to delete ad %s: %v", adID, err)
		return apperrors.DependencyError(err, "Failed to delete ad")
	}

	if ad.ImageKey != "" {
		if err := uc.store.DeleteObject(ctx, uc.buckets.Ads, ad.ImageKey); err != nil {
			uc.logger.Warn("Failed to delete ad image %s: %v", ad.ImageKey, err)
		}
	}
	return nil
}

func (uc *adUseCase) InitiatePayment(ctx context.Context, userID, adID string) (*PaymentResult, error) {
	if uc.processor == nil {
		return nil, apperrors.UnavailableError(payment.ErrNotConfigured,
			"Payment service not configured. Please install Stripe and set STRIPE_SECRET_KEY.")
	}
	if !isUUID(adID) {
		return nil, apperrors.BadRequestError(nil, "Invalid ad ID format")
	}
	ad, err := uc.loadOwned(ctx, userID, adID, "pay for")
	if err != nil {
		return nil, err
	}

	switch ad.Status {
	case entity.AdStatusPending:
	case entity.AdStatusActive, entity.AdStatusExpired:
		return nil, apperrors.BadRequestError(nil, fmt.Sprintf("Ad is already %s. Payment not required.", ad.Status))
	default:
		return nil, apperrors.BadRequestError(nil, fmt.Sprintf("Cannot initiate payment for ad with status: %s", ad.Status))
	}
	if payment.MinorUnits(ad.PaymentAmount) <= 0 {
		return nil, apperrors.BadRequestError(nil, "Invalid payment amount")
	}

	intent, err := uc.processor.CreatePaymentIntent(ctx, payment.IntentRequest{
		Amount:      ad.PaymentAmount,
		Currency:    uc.currency,
		Description: fmt.Sprintf("Payment for ad: %s", ad.Title),
		Metadata: map[string]string{
			"ad_id":              ad.ID,
			"advertiser_id":      ad.AdvertiserID,
			"ad_title":           ad.Title,
			"target_impressions": strconv.FormatInt(ad.TargetImpressions, 10),
		},
		IdempotencyKey: "ad-payment-" + ad.ID + "-" + ad.PaymentAmount.String(),
	})
	if err != nil {
		uc.logger.Error("Failed to create payment intent for ad %s: %v", ad.ID, err)
		return nil, apperrors.DependencyError(err, "Failed to initiate payment")
	}

	if err := uc.adRepo.SetPaymentIntent(ctx, ad.ID, intent.ID); err != nil {
		// The intent exists; the webhook carries the ad id in metadata, so
		// activation still works without the stored reference.
		uc.logger.Warn("Failed to store payment intent %s on ad %s: %v", intent.ID, ad.ID, err)
	} else {
		ad.PaymentIntentID = intent.ID
	}

	uc.logger.Info("Payment intent %s created for ad %s", intent.ID, ad.ID)
	return &PaymentResult{Intent: intent, Ad: ad}, nil
}

func (uc *adUseCase) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	if uc.processor == nil {
		return apperrors.UnavailableError(payment.ErrNotConfigured, "Payment service not configured")
	}

	event, err := uc.processor.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return apperrors.BadRequestError(err, "Invalid webhook signature")
		}
		return apperrors.BadRequestError(err, "Invalid webhook payload")
	}

	adID := event.Metadata["ad_id"]
	if event.Type != payment.EventPaymentSucceeded || adID == "" {
		uc.logger.Info("Ignoring payment event %s (%s)", event.ID, event.Type)
		return nil
	}

	ad, err := uc.adRepo.Activate(ctx, adID, uc.now().UTC().Add(AdActivePeriod))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			uc.logger.Warn("Payment %s references unknown ad %s", event.IntentID, adID)
			return nil
		case errors.Is(err, apperrors.ErrInvalidState):
			// Redelivered event or the owner changed the status by hand.
			uc.logger.Info("Ad %s is not pending, payment %s ignored", adID, event.IntentID)
			return nil
		}
		uc.logger.Error("Failed to activate ad %s: %v", adID, err)
		return apperrors.DependencyError(err, "Failed to activate ad")
	}

	uc.logger.Info("Ad %s activated by payment %s until %s", ad.ID, event.IntentID, ad.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (uc *adUseCase) load(ctx context.Context, adID string) (*entity.Ad, error) {
	ad, err := uc.adRepo.GetByID(ctx, adID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundError(err, "Ad not found")
		}
		uc.logger.Error("Failed to fetch ad %s: %v", adID, err)
		return nil, apperrors.DependencyError(err, "Failed to fetch ad")
	}
	return ad, nil
}

func (uc *adUseCase) loadOwned(ctx context.Context, userID, adID, action string) (*entity.Ad, error) {
	ad, err := uc.load(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.AdvertiserID != userID {
		return nil, apperrors.ForbiddenError(nil, fmt.Sprintf("You do not have permission to %s this ad", action))
	}
	return ad, nil
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		return sub
	}
	return "jpg"
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
