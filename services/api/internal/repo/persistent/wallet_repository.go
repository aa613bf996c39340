package persistent

import (
	"context"
	"errors"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository interface {
	// GetOrCreate returns the user's wallet, inserting one with the given
	// starting balance on first access. Concurrent first calls converge on the
	// same row through the unique user_id index.
	GetOrCreate(ctx context.Context, userID string, startingBalance decimal.Decimal) (*entity.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Wallet, error)
	Transfer(ctx context.Context, req entity.TransferRequest) (*entity.TransferResult, error)
	ListTransactions(ctx context.Context, walletID string, limit, offset int) ([]*entity.Transaction, error)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetOrCreate(ctx context.Context, userID string, startingBalance decimal.Decimal) (*entity.Wallet, error) {
	db := r.db.WithContext(ctx)

	walletModel := model.WalletModel{
		ID:      uuid.New().String(),
		UserID:  userID,
		Balance: startingBalance,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&walletModel).Error
	if err != nil {
		return nil, err
	}

	var stored model.WalletModel
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return ToWalletEntity(&stored), nil
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID string) (*entity.Wallet, error) {
	var walletModel model.WalletModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&walletModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return ToWalletEntity(&walletModel), nil
}

func (r *walletRepository) Transfer(ctx context.Context, req entity.TransferRequest) (*entity.TransferResult, error) {
	var result *entity.TransferResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = transfer(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID string, limit, offset int) ([]*entity.Transaction, error) {
	var transactionModels []model.TransactionModel
	query := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*entity.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}

// transfer moves req.Amount between two wallets inside tx. Both rows are
// locked in id order so opposing transfers cannot deadlock. Nothing is
// written when the source balance is short.
func transfer(tx *gorm.DB, req entity.TransferRequest) (*entity.TransferResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.BadRequestError(apperrors.ErrInvalidTransfer, "Transfer amount must be positive")
	}
	if req.FromWalletID == req.ToWalletID {
		return nil, apperrors.BadRequestError(apperrors.ErrInvalidTransfer, "Cannot transfer to the same wallet")
	}

	var locked []model.WalletModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", []string{req.FromWalletID, req.ToWalletID}).
		Order("id").
		Find(&locked).Error; err != nil {
		return nil, err
	}

	var from, to *model.WalletModel
	for i := range locked {
		switch locked[i].ID {
		case req.FromWalletID:
			from = &locked[i]
		case req.ToWalletID:
			to = &locked[i]
		}
	}
	if from == nil || to == nil {
		return nil, apperrors.ErrNotFound
	}
	if from.Balance.LessThan(req.Amount) {
		return nil, apperrors.ErrInsufficientFunds
	}

	from.Balance = from.Balance.Sub(req.Amount)
	to.Balance = to.Balance.Add(req.Amount)

	if err := tx.Model(from).Update("balance", from.Balance).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(to).Update("balance", to.Balance).Error; err != nil {
		return nil, err
	}

	debit := &model.TransactionModel{
		WalletID:      from.ID,
		Amount:        req.Amount,
		Type:          string(entity.TransactionTypeDebit),
		Description:   req.Description,
		ReferenceType: nullable(req.ReferenceType),
		ReferenceID:   nullable(req.ReferenceID),
	}
	credit := &model.TransactionModel{
		WalletID:      to.ID,
		Amount:        req.Amount,
		Type:          string(entity.TransactionTypeCredit),
		Description:   req.CounterDescription,
		ReferenceType: nullable(req.ReferenceType),
		ReferenceID:   nullable(req.ReferenceID),
	}
	if credit.Description == "" {
		credit.Description = req.Description
	}
	if err := tx.Create(debit).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(credit).Error; err != nil {
		return nil, err
	}

	return &entity.TransferResult{
		From:   ToWalletEntity(from),
		To:     ToWalletEntity(to),
		Debit:  ToTransactionEntity(debit),
		Credit: ToTransactionEntity(credit),
	}, nil
}
