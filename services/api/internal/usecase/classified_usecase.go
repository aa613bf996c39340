package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/s3"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxClassifiedImages = 5

type ClassifiedConfig struct {
	PostingFee      decimal.Decimal
	StartingBalance decimal.Decimal
	SystemUserID    string
}

type PostClassifiedInput struct {
	Title       string
	Description string
	Price       *decimal.Decimal
	Category    *string
	Location    *string
	ImageCount  int
}

type PostClassifiedResult struct {
	Classified *entity.Classified
	UploadURLs []entity.UploadURL
	NewBalance decimal.Decimal
	Message    string
}

type ClassifiedUseCase interface {
	Post(ctx context.Context, userID string, input PostClassifiedInput) (*PostClassifiedResult, error)
	List(ctx context.Context, category, status string) ([]*entity.Classified, error)
	ListMine(ctx context.Context, userID string) ([]*entity.Classified, error)
	UpdateImages(ctx context.Context, userID, classifiedID string, imageKeys []string) (*entity.Classified, error)
}

type classifiedUseCase struct {
	classifiedRepo persistent.ClassifiedRepository
	walletRepo     persistent.WalletRepository
	store          ObjectStore
	buckets        Buckets
	config         ClassifiedConfig
	logger         *logger.Logger
}

func NewClassifiedUseCase(
	classifiedRepo persistent.ClassifiedRepository,
	walletRepo persistent.WalletRepository,
	store ObjectStore,
	buckets Buckets,
	config ClassifiedConfig,
	logger *logger.Logger,
) ClassifiedUseCase {
	return &classifiedUseCase{
		classifiedRepo: classifiedRepo,
		walletRepo:     walletRepo,
		store:          store,
		buckets:        buckets,
		config:         config,
		logger:         logger,
	}
}

func (uc *classifiedUseCase) Post(ctx context.Context, userID string, input PostClassifiedInput) (*PostClassifiedResult, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Title == "" || input.Description == "" {
		return nil, apperrors.BadRequestError(nil, "Title and description are required")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, apperrors.BadRequestError(nil, "Price cannot be negative")
	}

	userWallet, err := uc.walletRepo.GetOrCreate(ctx, userID, uc.config.StartingBalance)
	if err != nil {
		uc.logger.Error("Failed to get wallet for %s: %v", userID, err)
		return nil, apperrors.DependencyError(err, "Failed to get wallet")
	}
	if userWallet.Balance.LessThan(uc.config.PostingFee) {
		return nil, uc.insufficientBalance(userWallet.Balance)
	}

	systemWallet, err := uc.walletRepo.GetByUserID(ctx, uc.config.SystemUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			uc.logger.Error("System wallet %s is missing", uc.config.SystemUserID)
			return nil, apperrors.InternalError(err, "Admin wallet not found")
		}
		return nil, apperrors.DependencyError(err, "Failed to get admin wallet")
	}

	classified := &entity.Classified{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Location:    input.Location,
		PostingFee:  uc.config.PostingFee,
		Images:      []string{},
		Status:      entity.ClassifiedStatusActive,
	}
	fee := entity.TransferRequest{
		FromWalletID:       userWallet.ID,
		ToWalletID:         systemWallet.ID,
		Amount:             uc.config.PostingFee,
		Description:        fmt.Sprintf("Posted classified: %s", classified.Title),
		CounterDescription: fmt.Sprintf("Posting fee from user: %s", classified.Title),
		ReferenceType:      entity.ReferenceTypeClassified,
		ReferenceID:        classified.ID,
	}

	result, err := uc.classifiedRepo.CreateWithFee(ctx, classified, fee)
	recordTransfer(fee.ReferenceType, err)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			// Balance moved between the check above and the locked read.
			current := userWallet.Balance
			if w, werr := uc.walletRepo.GetByUserID(ctx, userID); werr == nil {
				current = w.Balance
			}
			return nil, uc.insufficientBalance(current)
		}
		if errors.Is(err, apperrors.ErrInvalidTransfer) {
			return nil, err
		}
		uc.logger.Error("Failed to post classified for %s: %v", userID, err)
		return nil, apperrors.DependencyError(err, "Failed to post classified")
	}

	uploadURLs, err := uc.presignImages(ctx, userID, classified.ID, input.ImageCount)
	if err != nil {
		// Fee and row are committed at this point.
		uc.logger.Error("Classified %s posted and fee charged, but presigning images failed: %v", classified.ID, err)
		return nil, apperrors.DependencyError(err, fmt.Sprintf(
			"Classified %s was posted and the posting fee was charged, but upload URLs could not be generated",
			classified.ID))
	}

	uc.logger.Info("Classified %s posted by %s", classified.ID, userID)
	return &PostClassifiedResult{
		Classified: classified,
		UploadURLs: uploadURLs,
		NewBalance: result.From.Balance,
		Message:    fmt.Sprintf("Ad posted successfully! AED %s deducted from your wallet.", uc.config.PostingFee),
	}, nil
}

func (uc *classifiedUseCase) List(ctx context.Context, category, status string) ([]*entity.Classified, error) {
	if status == "" {
		status = entity.ClassifiedStatusActive
	}
	classifieds, err := uc.classifiedRepo.List(ctx, persistent.ClassifiedFilter{Category: category, Status: status})
	if err != nil {
		uc.logger.Error("Failed to list classifieds: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to list classifieds")
	}
	return classifieds, nil
}

func (uc *classifiedUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Classified, error) {
	classifieds, err := uc.classifiedRepo.ListByUser(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to list classifieds for %s: %v", userID, err)
		return nil, apperrors.DependencyError(err, "Failed to list classifieds")
	}
	return classifieds, nil
}

func (uc *classifiedUseCase) UpdateImages(ctx context.Context, userID, classifiedID string, imageKeys []string) (*entity.Classified, error) {
	if _, err := uuid.Parse(classifiedID); err != nil {
		return nil, apperrors.NotFoundError(err, "Classified not found")
	}
	if len(imageKeys) > maxClassifiedImages {
		return nil, apperrors.BadRequestError(nil, fmt.Sprintf("At most %d images are allowed", maxClassifiedImages))
	}

	if _, err := uc.classifiedRepo.GetByIDForUser(ctx, classifiedID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundError(err, "Classified not found")
		}
		return nil, apperrors.DependencyError(err, "Failed to load classified")
	}

	prefix := classifiedPrefix(userID, classifiedID)
	urls := make([]string, 0, len(imageKeys))
	for _, key := range imageKeys {
		if !strings.HasPrefix(key, prefix) {
			return nil, apperrors.BadRequestError(nil, "Invalid image key")
		}
		urls = append(urls, uc.store.ObjectURL(uc.buckets.Main, key))
	}

	classified, err := uc.classifiedRepo.UpdateImages(ctx, classifiedID, urls)
	if err != nil {
		uc.logger.Error("Failed to update classified images: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to update images")
	}
	return classified, nil
}

func (uc *classifiedUseCase) presignImages(ctx context.Context, userID, classifiedID string, count int) ([]entity.UploadURL, error) {
	if count > maxClassifiedImages {
		count = maxClassifiedImages
	}
	uploadURLs := make([]entity.UploadURL, 0, max(count, 0))
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("%simage_%d.jpg", classifiedPrefix(userID, classifiedID), i)
		url, err := uc.store.PresignPut(ctx, uc.buckets.Main, key, "image/jpeg", s3.DefaultUploadTTL, "")
		if err != nil {
			return nil, err
		}
		uploadURLs = append(uploadURLs, entity.UploadURL{Key: key, UploadURL: url})
	}
	return uploadURLs, nil
}

func (uc *classifiedUseCase) insufficientBalance(current decimal.Decimal) error {
	return apperrors.BadRequestError(apperrors.ErrInsufficientFunds, fmt.Sprintf(
		"Insufficient balance. You need AED %s to post an ad. Current balance: AED %s",
		uc.config.PostingFee, current,
	))
}

func classifiedPrefix(userID, classifiedID string) string {
	return fmt.Sprintf("classifieds/%s/%s/", userID, classifiedID)
}
