package persistent

import (
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/model"

	"github.com/shopspring/decimal"
)

func ToUserEntity(m *model.UserModel) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) *model.UserModel {
	if e == nil {
		return nil
	}

	return &model.UserModel{
		ID:        e.ID,
		Name:      e.Name,
		Phone:     e.Phone,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func ToWalletEntity(m *model.WalletModel) *entity.Wallet {
	if m == nil {
		return nil
	}

	return &entity.Wallet{
		ID:        m.ID,
		UserID:    m.UserID,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToTransactionEntity(m *model.TransactionModel) *entity.Transaction {
	if m == nil {
		return nil
	}

	t := &entity.Transaction{
		ID:          m.ID,
		WalletID:    m.WalletID,
		Amount:      m.Amount,
		Type:        entity.TransactionType(m.Type),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
	if m.ReferenceType != nil {
		t.ReferenceType = *m.ReferenceType
	}
	if m.ReferenceID != nil {
		t.ReferenceID = *m.ReferenceID
	}
	return t
}

func ToTransactionModel(e *entity.Transaction) *model.TransactionModel {
	if e == nil {
		return nil
	}

	return &model.TransactionModel{
		ID:            e.ID,
		WalletID:      e.WalletID,
		Amount:        e.Amount,
		Type:          string(e.Type),
		Description:   e.Description,
		ReferenceType: nullable(e.ReferenceType),
		ReferenceID:   nullable(e.ReferenceID),
		CreatedAt:     e.CreatedAt,
	}
}

func ToAdEntity(m *model.AdModel) *entity.Ad {
	if m == nil {
		return nil
	}

	ad := &entity.Ad{
		ID:                 m.ID,
		AdvertiserID:       m.AdvertiserID,
		Title:              m.Title,
		ImageURL:           m.ImageURL,
		ImageKey:           m.ImageKey,
		LinkURL:            m.LinkURL,
		PaymentAmount:      m.PaymentAmount,
		TargetImpressions:  m.TargetImpressions,
		CurrentImpressions: m.CurrentImpressions,
		CurrentClicks:      m.CurrentClicks,
		Status:             entity.AdStatus(m.Status),
		ExpiresAt:          m.ExpiresAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.PaymentIntentID != nil {
		ad.PaymentIntentID = *m.PaymentIntentID
	}
	return ad
}

func ToAdModel(e *entity.Ad) *model.AdModel {
	if e == nil {
		return nil
	}

	return &model.AdModel{
		ID:                 e.ID,
		AdvertiserID:       e.AdvertiserID,
		Title:              e.Title,
		ImageURL:           e.ImageURL,
		ImageKey:           e.ImageKey,
		LinkURL:            e.LinkURL,
		PaymentAmount:      e.PaymentAmount,
		TargetImpressions:  e.TargetImpressions,
		CurrentImpressions: e.CurrentImpressions,
		CurrentClicks:      e.CurrentClicks,
		Status:             string(e.Status),
		PaymentIntentID:    nullable(e.PaymentIntentID),
		ExpiresAt:          e.ExpiresAt,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func ToImpressionEntity(m *model.AdImpressionModel) *entity.AdImpression {
	if m == nil {
		return nil
	}

	return &entity.AdImpression{
		ID:        m.ID,
		AdID:      m.AdID,
		UserID:    m.UserID,
		ReelID:    m.ReelID,
		CreatedAt: m.CreatedAt,
	}
}

func ToClickEntity(m *model.AdClickModel) *entity.AdClick {
	if m == nil {
		return nil
	}

	return &entity.AdClick{
		ID:        m.ID,
		AdID:      m.AdID,
		UserID:    m.UserID,
		ReelID:    m.ReelID,
		CreatedAt: m.CreatedAt,
	}
}

func ToReelEntity(m *model.ReelModel) *entity.Reel {
	if m == nil {
		return nil
	}

	return &entity.Reel{
		ID:           m.ID,
		UserID:       m.UserID,
		S3Key:        m.S3Key,
		S3URL:        m.S3URL,
		ServeURL:     m.S3ServeURL,
		ThumbnailURL: m.ThumbnailURL,
		DurationSec:  m.DurationSec,
		SizeBytes:    m.SizeBytes,
		Converted:    m.Converted,
		Status:       entity.ReelStatus(m.Status),
		LikesCount:   m.LikesCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ToReelModel(e *entity.Reel) *model.ReelModel {
	if e == nil {
		return nil
	}

	return &model.ReelModel{
		ID:           e.ID,
		UserID:       e.UserID,
		S3Key:        e.S3Key,
		S3URL:        e.S3URL,
		S3ServeURL:   e.ServeURL,
		ThumbnailURL: e.ThumbnailURL,
		DurationSec:  e.DurationSec,
		SizeBytes:    e.SizeBytes,
		Converted:    e.Converted,
		Status:       string(e.Status),
		LikesCount:   e.LikesCount,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func ToClassifiedEntity(m *model.ClassifiedModel) *entity.Classified {
	if m == nil {
		return nil
	}

	c := &entity.Classified{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Location:    m.Location,
		PostingFee:  m.PostingFee,
		Images:      []string(m.Images),
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Price.Valid {
		price := m.Price.Decimal
		c.Price = &price
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	return c
}

func ToClassifiedModel(e *entity.Classified) *model.ClassifiedModel {
	if e == nil {
		return nil
	}

	m := &model.ClassifiedModel{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Location:    e.Location,
		PostingFee:  e.PostingFee,
		Images:      e.Images,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Price != nil {
		m.Price = decimal.NewNullDecimal(*e.Price)
	}
	if m.Images == nil {
		m.Images = []string{}
	}
	return m
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
