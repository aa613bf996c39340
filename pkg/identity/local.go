package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quddle-backend/pkg/jwt"
	"quddle-backend/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenRole        = "authenticated"
	revokedKeyPrefix = "auth:revoked:"
)

// LocalProvider stores bcrypt credentials and issues HS256 access/refresh
// tokens. Refresh tokens are single use: refreshing or signing out revokes
// the presented token's jti in redis until it would have expired anyway.
// Without redis, revocation is a no-op and refresh tokens live out their TTL.
type LocalProvider struct {
	store       CredentialStore
	tokens      *jwt.Service
	redisClient *redis.Client
	logger      *logger.Logger
	now         func() time.Time
}

func NewLocalProvider(store CredentialStore, tokens *jwt.Service, redisClient *redis.Client, logger *logger.Logger) *LocalProvider {
	return &LocalProvider{
		store:       store,
		tokens:      tokens,
		redisClient: redisClient,
		logger:      logger,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) Register(ctx context.Context, email, password string, metadata map[string]string) (*Identity, *Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &Credential{
		Email:        email,
		PasswordHash: string(hash),
		Name:         metadata["name"],
	}
	if err := p.store.Create(ctx, cred); err != nil {
		return nil, nil, err
	}

	session, err := p.issue(cred.ID, cred.Email)
	if err != nil {
		return nil, nil, err
	}
	return cred.identity(), session, nil
}

func (p *LocalProvider) VerifyCredentials(ctx context.Context, email, password string) (*Identity, *Session, error) {
	cred, err := p.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := p.issue(cred.ID, cred.Email)
	if err != nil {
		return nil, nil, err
	}
	return cred.identity(), session, nil
}

func (p *LocalProvider) VerifyToken(_ context.Context, accessToken string) (*Identity, error) {
	claims, err := p.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: claims.UserID, Email: claims.Email}, nil
}

func (p *LocalProvider) RefreshToken(ctx context.Context, refreshToken string) (*Identity, *Session, error) {
	claims, err := p.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	revoked, err := p.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, ErrInvalidToken
	}

	cred, err := p.store.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}

	if err := p.revoke(ctx, claims); err != nil {
		return nil, nil, err
	}

	session, err := p.issue(cred.ID, cred.Email)
	if err != nil {
		return nil, nil, err
	}
	return cred.identity(), session, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := p.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}
	return p.revoke(ctx, claims)
}

func (p *LocalProvider) issue(userID, email string) (*Session, error) {
	access, expiresAt, err := p.tokens.GenerateAccessToken(userID, email, tokenRole)
	if err != nil {
		return nil, err
	}
	refresh, _, err := p.tokens.GenerateRefreshToken(userID, email, tokenRole)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(p.tokens.AccessTTL().Seconds()),
		ExpiresAt:    expiresAt.Unix(),
	}, nil
}

func (p *LocalProvider) revoke(ctx context.Context, claims *jwt.Claims) error {
	if p.redisClient == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(p.now())
	if ttl <= 0 {
		return nil
	}
	if err := p.redisClient.Set(ctx, revokedKeyPrefix+claims.ID, 1, ttl).Err(); err != nil {
		p.logger.Error("Failed to revoke refresh token: %v", err)
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (p *LocalProvider) isRevoked(ctx context.Context, jti string) (bool, error) {
	if p.redisClient == nil || jti == "" {
		return false, nil
	}
	n, err := p.redisClient.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
