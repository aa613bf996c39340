package usecase

import (
	"context"
	"errors"
	"testing"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/logger"
	"quddle-backend/services/api/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (AuthUseCase, *fakeProvider, *fakeUserRepo) {
	provider := newFakeProvider()
	users := newFakeUserRepo()
	return NewAuthUseCase(provider, users, logger.Nop()), provider, users
}

func TestAuthUseCase_Register(t *testing.T) {
	uc, provider, users := newAuthFixture()

	user, session, err := uc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "ada@example.com", Password: "secret", Phone: "+971500000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "+971500000000", *user.Phone)
	assert.NotEmpty(t, session.AccessToken)
	assert.Contains(t, users.users, user.ID)
	assert.Contains(t, provider.identities, "ada@example.com")
}

func TestAuthUseCase_RegisterDuplicatePhoneCreatesNoIdentity(t *testing.T) {
	uc, provider, users := newAuthFixture()
	phone := "+1555"
	users.users["existing"] = &entity.User{ID: "existing", Name: "Old", Phone: &phone}

	_, _, err := uc.Register(context.Background(), RegisterInput{Name: "N", Email: "n@x.io", Password: "p", Phone: phone})
	var svcErr *apperrors.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "Phone number already exists", svcErr.Message)
	assert.Empty(t, provider.identities)
}

func TestAuthUseCase_RegisterValidation(t *testing.T) {
	uc, _, _ := newAuthFixture()

	_, _, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "p"})
	assert.Contains(t, err.Error(), "Name, email, and password are required")

	_, _, err = uc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "p"})
	require.NoError(t, err)
	_, _, err = uc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "p"})
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))
}

func TestAuthUseCase_Login(t *testing.T) {
	uc, _, users := newAuthFixture()
	registered, _, err := uc.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@x.io", Password: "pw"})
	require.NoError(t, err)

	user, session, err := uc.Login(context.Background(), "ada@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.NotNil(t, session)

	_, _, err = uc.Login(context.Background(), "ada@x.io", "wrong")
	var svcErr *apperrors.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 401, svcErr.StatusCode())
	assert.Equal(t, "Invalid email or password", svcErr.Message)

	_, _, err = uc.Login(context.Background(), "", "pw")
	assert.Contains(t, err.Error(), "Email and password are required")

	// Missing profile row falls back to identity metadata.
	delete(users.users, registered.ID)
	user, _, err = uc.Login(context.Background(), "ada@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Nil(t, user.Phone)
}

func TestAuthUseCase_Refresh(t *testing.T) {
	uc, _, _ := newAuthFixture()
	_, session, err := uc.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@x.io", Password: "pw"})
	require.NoError(t, err)

	_, refreshed, err := uc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, _, err = uc.Refresh(context.Background(), "")
	assert.Contains(t, err.Error(), "refreshToken is required")

	_, _, err = uc.Refresh(context.Background(), "garbage")
	assert.True(t, apperrors.Is(err, apperrors.CategoryUnauthorized))
}

func TestAuthUseCase_LogoutNeverFails(t *testing.T) {
	uc, _, _ := newAuthFixture()
	assert.NoError(t, uc.Logout(context.Background(), ""))
	assert.NoError(t, uc.Logout(context.Background(), "unknown"))
}

func TestAuthUseCase_GetProfile(t *testing.T) {
	uc, _, _ := newAuthFixture()
	user, _, err := uc.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@x.io", Password: "pw"})
	require.NoError(t, err)

	profile, err := uc.GetProfile(context.Background(), user.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)

	_, err = uc.GetProfile(context.Background(), "someone", user.ID)
	assert.True(t, apperrors.Is(err, apperrors.CategoryForbidden))
}
