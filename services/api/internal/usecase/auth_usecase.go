package usecase

import (
	"context"
	"errors"
	"strings"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/identity"
	"quddle-backend/pkg/logger"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/repo/persistent"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*entity.User, *identity.Session, error)
	Login(ctx context.Context, email, password string) (*entity.User, *identity.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.User, *identity.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, requesterID, userID string) (*entity.User, error)
}

type authUseCase struct {
	provider identity.Provider
	userRepo persistent.UserRepository
	logger   *logger.Logger
}

func NewAuthUseCase(provider identity.Provider, userRepo persistent.UserRepository, logger *logger.Logger) AuthUseCase {
	return &authUseCase{
		provider: provider,
		userRepo: userRepo,
		logger:   logger,
	}
}

func (uc *authUseCase) Register(ctx context.Context, input RegisterInput) (*entity.User, *identity.Session, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, nil, apperrors.BadRequestError(nil, "Name, email, and password are required")
	}

	// Checked before the identity exists so a rejected phone leaves no
	// orphaned credentials behind.
	if input.Phone != "" {
		exists, err := uc.userRepo.ExistsByPhone(ctx, input.Phone)
		if err != nil {
			uc.logger.Error("Failed to check phone: %v", err)
			return nil, nil, apperrors.DependencyError(err, "Error checking phone number")
		}
		if exists {
			return nil, nil, apperrors.BadRequestError(nil, "Phone number already exists")
		}
	}

	ident, session, err := uc.provider.Register(ctx, input.Email, input.Password, map[string]string{"name": input.Name})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, nil, apperrors.BadRequestError(nil, "User already registered")
		}
		uc.logger.Error("Failed to register identity: %v", err)
		return nil, nil, apperrors.BadRequestError(err, "Registration failed")
	}

	user := &entity.User{
		ID:    ident.ID,
		Email: ident.Email,
		Name:  input.Name,
	}
	if input.Phone != "" {
		phone := input.Phone
		user.Phone = &phone
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, nil, apperrors.BadRequestError(nil, "Phone number already exists")
		}
		// The identity is usable without a profile; login falls back to its
		// metadata.
		uc.logger.Warn("User %s created in identity store but profile insert failed: %v", ident.ID, err)
	}

	uc.logger.Info("User registered: %s", ident.ID)
	return user, session, nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*entity.User, *identity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, apperrors.BadRequestError(nil, "Email and password are required")
	}

	ident, session, err := uc.provider.VerifyCredentials(ctx, email, password)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidCredentials) {
			uc.logger.Error("Failed to verify credentials: %v", err)
		}
		return nil, nil, apperrors.UnauthorizedError(nil, "Invalid email or password")
	}

	return uc.profileFor(ctx, ident), session, nil
}

func (uc *authUseCase) Refresh(ctx context.Context, refreshToken string) (*entity.User, *identity.Session, error) {
	if refreshToken == "" {
		return nil, nil, apperrors.BadRequestError(nil, "refreshToken is required")
	}

	ident, session, err := uc.provider.RefreshToken(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			uc.logger.Error("Failed to refresh token: %v", err)
		}
		return nil, nil, apperrors.UnauthorizedError(nil, "Invalid refresh token")
	}

	return uc.profileFor(ctx, ident), session, nil
}

func (uc *authUseCase) Logout(ctx context.Context, refreshToken string) error {
	if err := uc.provider.SignOut(ctx, refreshToken); err != nil {
		// Signing out an already invalid token is not an error for the client.
		uc.logger.Warn("Sign out failed: %v", err)
	}
	return nil
}

func (uc *authUseCase) GetProfile(ctx context.Context, requesterID, userID string) (*entity.User, error) {
	if requesterID != userID {
		return nil, apperrors.ForbiddenError(nil, "You can only view your own profile")
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundError(err, "User not found")
		}
		return nil, apperrors.DependencyError(err, "Failed to load profile")
	}
	return user, nil
}

// profileFor joins the identity with its profile row, falling back to the
// identity metadata when the row is missing.
func (uc *authUseCase) profileFor(ctx context.Context, ident *identity.Identity) *entity.User {
	user, err := uc.userRepo.GetByID(ctx, ident.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			uc.logger.Error("Error fetching user profile %s: %v", ident.ID, err)
		}
		name := ident.Name
		if name == "" {
			name = "User"
		}
		return &entity.User{ID: ident.ID, Email: ident.Email, Name: name}
	}
	user.Email = ident.Email
	return user
}
