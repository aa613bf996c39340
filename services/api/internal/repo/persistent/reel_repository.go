package persistent

import (
	"context"
	"errors"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TranscodeResult is what the transcode pipeline reports for a finished
// object.
type TranscodeResult struct {
	S3Key        string
	ServeURL     string
	ThumbnailURL string
}

type ReelRepository interface {
	Create(ctx context.Context, reel *entity.Reel) error
	GetByID(ctx context.Context, id string) (*entity.Reel, error)
	// ListReady returns ready reels, newest first. An empty ownerID lists
	// every user's reels. IsLikedByMe is filled for viewerID.
	ListReady(ctx context.Context, ownerID, viewerID string) ([]*entity.Reel, error)
	// UpdateFromTranscode marks the reel stored under S3Key as converted and
	// ready.
	UpdateFromTranscode(ctx context.Context, result TranscodeResult) (*entity.Reel, error)
	Delete(ctx context.Context, id string) error
	// ToggleLike flips the (reel, user) like and recounts likes_count from the
	// like rows. Returns the updated reel and whether the user now likes it.
	ToggleLike(ctx context.Context, reelID, userID string) (*entity.Reel, bool, error)
}

type reelRepository struct {
	db *gorm.DB
}

func NewReelRepository(db *gorm.DB) ReelRepository {
	return &reelRepository{db: db}
}

func (r *reelRepository) Create(ctx context.Context, reel *entity.Reel) error {
	reelModel := ToReelModel(reel)
	if err := r.db.WithContext(ctx).Create(reelModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicate
		}
		return err
	}
	reel.ID = reelModel.ID
	reel.CreatedAt = reelModel.CreatedAt
	reel.UpdatedAt = reelModel.UpdatedAt
	return nil
}

func (r *reelRepository) GetByID(ctx context.Context, id string) (*entity.Reel, error) {
	return getReel(r.db.WithContext(ctx), id)
}

func (r *reelRepository) ListReady(ctx context.Context, ownerID, viewerID string) ([]*entity.Reel, error) {
	db := r.db.WithContext(ctx)

	var reelModels []model.ReelModel
	query := db.Where("status = ?", string(entity.ReelStatusReady))
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}
	if err := query.Order("created_at DESC").Find(&reelModels).Error; err != nil {
		return nil, err
	}

	reels := make([]*entity.Reel, len(reelModels))
	ids := make([]string, len(reelModels))
	for i := range reelModels {
		reels[i] = ToReelEntity(&reelModels[i])
		ids[i] = reelModels[i].ID
	}
	if viewerID == "" || len(ids) == 0 {
		return reels, nil
	}

	var liked []string
	if err := db.Model(&model.ReelLikeModel{}).
		Where("user_id = ? AND reel_id IN ?", viewerID, ids).
		Pluck("reel_id", &liked).Error; err != nil {
		return nil, err
	}
	likedSet := make(map[string]struct{}, len(liked))
	for _, id := range liked {
		likedSet[id] = struct{}{}
	}
	for _, reel := range reels {
		_, reel.IsLikedByMe = likedSet[reel.ID]
	}
	return reels, nil
}

func (r *reelRepository) UpdateFromTranscode(ctx context.Context, result TranscodeResult) (*entity.Reel, error) {
	updates := map[string]interface{}{
		"s3_serve_url": result.ServeURL,
		"converted":    true,
		"status":       string(entity.ReelStatusReady),
	}
	if result.ThumbnailURL != "" {
		updates["thumbnail_url"] = result.ThumbnailURL
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&model.ReelModel{}).Where("s3_key = ?", result.S3Key).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}

	var reelModel model.ReelModel
	if err := db.Where("s3_key = ?", result.S3Key).First(&reelModel).Error; err != nil {
		return nil, err
	}
	return ToReelEntity(&reelModel), nil
}

func (r *reelRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ReelModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *reelRepository) ToggleLike(ctx context.Context, reelID, userID string) (*entity.Reel, bool, error) {
	var (
		reel  *entity.Reel
		liked bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serializes toggles on the same reel.
		var reelModel model.ReelModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", reelID).
			First(&reelModel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		res := tx.Where("reel_id = ? AND user_id = ?", reelID, userID).Delete(&model.ReelLikeModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := &model.ReelLikeModel{ReelID: reelID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
				return err
			}
			liked = true
		}

		var count int64
		if err := tx.Model(&model.ReelLikeModel{}).Where("reel_id = ?", reelID).Count(&count).Error; err != nil {
			return err
		}
		if err := tx.Model(&reelModel).Update("likes_count", count).Error; err != nil {
			return err
		}
		reelModel.LikesCount = count

		reel = ToReelEntity(&reelModel)
		reel.IsLikedByMe = liked
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return reel, liked, nil
}

func getReel(db *gorm.DB, id string) (*entity.Reel, error) {
	var reelModel model.ReelModel
	if err := db.Where("id = ?", id).First(&reelModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return ToReelEntity(&reelModel), nil
}
