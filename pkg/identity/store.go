package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CredentialModel struct {
	ID           string    `gorm:"type:uuid;primary_key"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Name         string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CredentialModel) TableName() string {
	return "auth_identities"
}

func (m *CredentialModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) CredentialStore {
	return &gormStore{db: db}
}

func (s *gormStore) Create(ctx context.Context, cred *Credential) error {
	m := &CredentialModel{
		ID:           cred.ID,
		Email:        cred.Email,
		PasswordHash: cred.PasswordHash,
		Name:         cred.Name,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	cred.ID = m.ID
	cred.CreatedAt = m.CreatedAt
	return nil
}

func (s *gormStore) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *gormStore) GetByID(ctx context.Context, id string) (*Credential, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *gormStore) first(ctx context.Context, query string, arg interface{}) (*Credential, error) {
	var m CredentialModel
	if err := s.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Credential{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		CreatedAt:    m.CreatedAt,
	}, nil
}
