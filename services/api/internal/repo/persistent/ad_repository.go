package persistent

import (
	"context"
	"errors"
	"time"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/model"

	"gorm.io/gorm"
)

type AdRepository interface {
	Create(ctx context.Context, ad *entity.Ad) error
	GetByID(ctx context.Context, id string) (*entity.Ad, error)
	// ListActive returns servable ads: active with impressions left.
	ListActive(ctx context.Context) ([]*entity.Ad, error)
	ListByAdvertiser(ctx context.Context, advertiserID string) ([]*entity.Ad, error)
	Update(ctx context.Context, id string, update entity.AdUpdate) (*entity.Ad, error)
	Delete(ctx context.Context, id string) error
	SetPaymentIntent(ctx context.Context, id, intentID string) error
	// Activate moves a pending ad to active. Returns ErrInvalidState when the
	// ad is not pending.
	Activate(ctx context.Context, id string, expiresAt time.Time) (*entity.Ad, error)
	// RecordImpression increments the impression counter and writes the audit
	// row in one transaction. The increment that reaches the target flips the
	// status to expired. Returns ErrLimitReached or ErrInvalidState when the
	// ad cannot take another impression.
	RecordImpression(ctx context.Context, impression *entity.AdImpression) (*entity.Ad, error)
	RecordClick(ctx context.Context, click *entity.AdClick) (*entity.Ad, error)
}

type adRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) AdRepository {
	return &adRepository{db: db}
}

func (r *adRepository) Create(ctx context.Context, ad *entity.Ad) error {
	adModel := ToAdModel(ad)
	if err := r.db.WithContext(ctx).Create(adModel).Error; err != nil {
		return err
	}
	ad.ID = adModel.ID
	ad.CreatedAt = adModel.CreatedAt
	ad.UpdatedAt = adModel.UpdatedAt
	return nil
}

func (r *adRepository) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	return getAd(r.db.WithContext(ctx), id)
}

func (r *adRepository) ListActive(ctx context.Context) ([]*entity.Ad, error) {
	var adModels []model.AdModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND current_impressions < target_impressions", string(entity.AdStatusActive)).
		Order("created_at DESC").
		Find(&adModels).Error
	if err != nil {
		return nil, err
	}
	return toAdEntities(adModels), nil
}

func (r *adRepository) ListByAdvertiser(ctx context.Context, advertiserID string) ([]*entity.Ad, error) {
	var adModels []model.AdModel
	err := r.db.WithContext(ctx).
		Where("advertiser_id = ?", advertiserID).
		Order("created_at DESC").
		Find(&adModels).Error
	if err != nil {
		return nil, err
	}
	return toAdEntities(adModels), nil
}

func (r *adRepository) Update(ctx context.Context, id string, update entity.AdUpdate) (*entity.Ad, error) {
	updates := map[string]interface{}{}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.LinkURL != nil {
		updates["link_url"] = *update.LinkURL
	}
	if update.Status != nil {
		updates["status"] = string(*update.Status)
	}
	if update.ExpiresAt != nil {
		updates["expires_at"] = *update.ExpiresAt
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&model.AdModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return getAd(db, id)
}

func (r *adRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AdModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *adRepository) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	res := r.db.WithContext(ctx).Model(&model.AdModel{}).Where("id = ?", id).Update("payment_intent_id", intentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *adRepository) Activate(ctx context.Context, id string, expiresAt time.Time) (*entity.Ad, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.AdModel{}).
		Where("id = ? AND status = ?", id, string(entity.AdStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(entity.AdStatusActive),
			"expires_at": expiresAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := getAd(db, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrInvalidState
	}
	return getAd(db, id)
}

func (r *adRepository) RecordImpression(ctx context.Context, impression *entity.AdImpression) (*entity.Ad, error) {
	var ad *entity.Ad
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.AdModel{}).
			Where("id = ? AND status = ? AND current_impressions < target_impressions",
				impression.AdID, string(entity.AdStatusActive)).
			Updates(map[string]interface{}{
				"current_impressions": gorm.Expr("current_impressions + 1"),
				"status": gorm.Expr("CASE WHEN current_impressions + 1 >= target_impressions THEN ? ELSE status END",
					string(entity.AdStatusExpired)),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			current, err := getAd(tx, impression.AdID)
			if err != nil {
				return err
			}
			if current.CurrentImpressions >= current.TargetImpressions {
				return apperrors.ErrLimitReached
			}
			return apperrors.ErrInvalidState
		}

		impressionModel := &model.AdImpressionModel{
			AdID:   impression.AdID,
			UserID: impression.UserID,
			ReelID: impression.ReelID,
		}
		if err := tx.Create(impressionModel).Error; err != nil {
			return err
		}
		impression.ID = impressionModel.ID
		impression.CreatedAt = impressionModel.CreatedAt

		var err error
		ad, err = getAd(tx, impression.AdID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ad, nil
}

func (r *adRepository) RecordClick(ctx context.Context, click *entity.AdClick) (*entity.Ad, error) {
	var ad *entity.Ad
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.AdModel{}).
			Where("id = ? AND status IN ?", click.AdID,
				[]string{string(entity.AdStatusActive), string(entity.AdStatusExpired)}).
			Update("current_clicks", gorm.Expr("current_clicks + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if _, err := getAd(tx, click.AdID); err != nil {
				return err
			}
			return apperrors.ErrInvalidState
		}

		clickModel := &model.AdClickModel{
			AdID:   click.AdID,
			UserID: click.UserID,
			ReelID: click.ReelID,
		}
		if err := tx.Create(clickModel).Error; err != nil {
			return err
		}
		click.ID = clickModel.ID
		click.CreatedAt = clickModel.CreatedAt

		var err error
		ad, err = getAd(tx, click.AdID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ad, nil
}

func getAd(db *gorm.DB, id string) (*entity.Ad, error) {
	var adModel model.AdModel
	if err := db.Where("id = ?", id).First(&adModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return ToAdEntity(&adModel), nil
}

func toAdEntities(adModels []model.AdModel) []*entity.Ad {
	ads := make([]*entity.Ad, len(adModels))
	for i := range adModels {
		ads[i] = ToAdEntity(&adModels[i])
	}
	return ads
}
