package usecase

import (
	"context"
	"errors"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/metrics"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/repo/persistent"

	"github.com/shopspring/decimal"
)

type WalletUseCase interface {
	GetWallet(ctx context.Context, userID string) (*entity.Wallet, error)
	GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, error)
	Transfer(ctx context.Context, req entity.TransferRequest) (*entity.TransferResult, error)
}

type walletUseCase struct {
	walletRepo      persistent.WalletRepository
	startingBalance decimal.Decimal
	logger          *logger.Logger
}

func NewWalletUseCase(walletRepo persistent.WalletRepository, startingBalance decimal.Decimal, logger *logger.Logger) WalletUseCase {
	return &walletUseCase{
		walletRepo:      walletRepo,
		startingBalance: startingBalance,
		logger:          logger,
	}
}

func (uc *walletUseCase) GetWallet(ctx context.Context, userID string) (*entity.Wallet, error) {
	wallet, err := uc.walletRepo.GetOrCreate(ctx, userID, uc.startingBalance)
	if err != nil {
		uc.logger.Error("Failed to get wallet: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to get wallet")
	}
	return wallet, nil
}

func (uc *walletUseCase) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundError(err, "Wallet not found")
		}
		uc.logger.Error("Failed to get wallet: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to get wallet")
	}

	transactions, err := uc.walletRepo.ListTransactions(ctx, wallet.ID, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to get transactions: %v", err)
		return nil, apperrors.DependencyError(err, "Failed to get transactions")
	}
	return transactions, nil
}

func (uc *walletUseCase) Transfer(ctx context.Context, req entity.TransferRequest) (*entity.TransferResult, error) {
	if err := validateTransfer(req); err != nil {
		return nil, err
	}

	result, err := uc.walletRepo.Transfer(ctx, req)
	recordTransfer(req.ReferenceType, err)
	if err != nil {
		return nil, mapTransferError(err, uc.logger)
	}

	uc.logger.Info("Transferred %s from wallet %s to %s", req.Amount, req.FromWalletID, req.ToWalletID)
	return result, nil
}

func validateTransfer(req entity.TransferRequest) error {
	if !req.Amount.IsPositive() {
		return apperrors.BadRequestError(nil, "Transfer amount must be positive")
	}
	if req.FromWalletID == "" || req.ToWalletID == "" {
		return apperrors.BadRequestError(nil, "Source and destination wallets are required")
	}
	if req.FromWalletID == req.ToWalletID {
		return apperrors.BadRequestError(nil, "Cannot transfer to the same wallet")
	}
	return nil
}

func mapTransferError(err error, log *logger.Logger) error {
	switch {
	case errors.Is(err, apperrors.ErrInvalidTransfer):
		return err
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return apperrors.BadRequestError(err, "Insufficient balance")
	case errors.Is(err, apperrors.ErrNotFound):
		return apperrors.NotFoundError(err, "Wallet not found")
	default:
		log.Error("Wallet transfer failed: %v", err)
		return apperrors.DependencyError(err, "Transaction failed")
	}
}

func recordTransfer(referenceType string, err error) {
	if referenceType == "" {
		referenceType = "none"
	}
	status := "success"
	switch {
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		status = "insufficient_funds"
	case err != nil:
		status = "error"
	}
	metrics.WalletTransfersTotal.WithLabelValues(referenceType, status).Inc()
}
