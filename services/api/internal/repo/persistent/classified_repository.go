package persistent

import (
	"context"
	"errors"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/model"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ClassifiedFilter struct {
	Category string
	Status   string
}

type ClassifiedRepository interface {
	// CreateWithFee charges the posting fee and inserts the classified in one
	// transaction. When the transfer fails nothing is written.
	CreateWithFee(ctx context.Context, classified *entity.Classified, fee entity.TransferRequest) (*entity.TransferResult, error)
	List(ctx context.Context, filter ClassifiedFilter) ([]*entity.Classified, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Classified, error)
	// GetByIDForUser returns ErrNotFound for classifieds owned by someone else.
	GetByIDForUser(ctx context.Context, id, userID string) (*entity.Classified, error)
	UpdateImages(ctx context.Context, id string, images []string) (*entity.Classified, error)
}

type classifiedRepository struct {
	db *gorm.DB
}

func NewClassifiedRepository(db *gorm.DB) ClassifiedRepository {
	return &classifiedRepository{db: db}
}

func (r *classifiedRepository) CreateWithFee(ctx context.Context, classified *entity.Classified, fee entity.TransferRequest) (*entity.TransferResult, error) {
	var result *entity.TransferResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = transfer(tx, fee)
		if err != nil {
			return err
		}

		classifiedModel := ToClassifiedModel(classified)
		if err := tx.Create(classifiedModel).Error; err != nil {
			return err
		}
		classified.ID = classifiedModel.ID
		classified.CreatedAt = classifiedModel.CreatedAt
		classified.UpdatedAt = classifiedModel.UpdatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *classifiedRepository) List(ctx context.Context, filter ClassifiedFilter) ([]*entity.Classified, error) {
	query := r.db.WithContext(ctx).Model(&model.ClassifiedModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var classifiedModels []model.ClassifiedModel
	if err := query.Order("created_at DESC").Find(&classifiedModels).Error; err != nil {
		return nil, err
	}
	return toClassifiedEntities(classifiedModels), nil
}

func (r *classifiedRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Classified, error) {
	var classifiedModels []model.ClassifiedModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&classifiedModels).Error
	if err != nil {
		return nil, err
	}
	return toClassifiedEntities(classifiedModels), nil
}

func (r *classifiedRepository) GetByIDForUser(ctx context.Context, id, userID string) (*entity.Classified, error) {
	var classifiedModel model.ClassifiedModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&classifiedModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return ToClassifiedEntity(&classifiedModel), nil
}

func (r *classifiedRepository) UpdateImages(ctx context.Context, id string, images []string) (*entity.Classified, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.ClassifiedModel{}).Where("id = ?", id).Update("images", pq.StringArray(images))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}

	var classifiedModel model.ClassifiedModel
	if err := db.Where("id = ?", id).First(&classifiedModel).Error; err != nil {
		return nil, err
	}
	return ToClassifiedEntity(&classifiedModel), nil
}

func toClassifiedEntities(classifiedModels []model.ClassifiedModel) []*entity.Classified {
	classifieds := make([]*entity.Classified, len(classifiedModels))
	for i := range classifiedModels {
		classifieds[i] = ToClassifiedEntity(&classifiedModels[i])
	}
	return classifieds
}
