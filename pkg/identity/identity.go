// Package identity is the authentication capability the API depends on:
// register, verify credentials, verify and refresh tokens, sign out. The
// LocalProvider backs it with a credentials table and signed JWTs; a managed
// provider can be swapped in behind the same interface.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("identity not found")
)

type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

type Provider interface {
	Register(ctx context.Context, email, password string, metadata map[string]string) (*Identity, *Session, error)
	VerifyCredentials(ctx context.Context, email, password string) (*Identity, *Session, error)
	VerifyToken(ctx context.Context, accessToken string) (*Identity, error)
	RefreshToken(ctx context.Context, refreshToken string) (*Identity, *Session, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// Credential is the stored form of an identity.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

type CredentialStore interface {
	Create(ctx context.Context, cred *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id string) (*Credential, error)
}

func (c *Credential) identity() *Identity {
	return &Identity{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}
