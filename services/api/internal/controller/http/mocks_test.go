package http

import (
	"context"
	"time"

	"quddle-backend/pkg/identity"
	"quddle-backend/pkg/validation"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockAuthUseCase is a mock implementation of AuthUseCase
type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, *identity.Session, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.User), args.Get(1).(*identity.Session), args.Error(2)
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (*entity.User, *identity.Session, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.User), args.Get(1).(*identity.Session), args.Error(2)
}

func (m *MockAuthUseCase) Refresh(ctx context.Context, refreshToken string) (*entity.User, *identity.Session, error) {
	args := m.Called(refreshToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.User), args.Get(1).(*identity.Session), args.Error(2)
}

func (m *MockAuthUseCase) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(refreshToken)
	return args.Error(0)
}

func (m *MockAuthUseCase) GetProfile(ctx context.Context, requesterID, userID string) (*entity.User, error) {
	args := m.Called(requesterID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

var _ usecase.AuthUseCase = (*MockAuthUseCase)(nil)

// MockWalletUseCase is a mock implementation of WalletUseCase
type MockWalletUseCase struct {
	mock.Mock
}

func (m *MockWalletUseCase) GetWallet(ctx context.Context, userID string) (*entity.Wallet, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Wallet), args.Error(1)
}

func (m *MockWalletUseCase) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*entity.Transaction, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Transaction), args.Error(1)
}

func (m *MockWalletUseCase) Transfer(ctx context.Context, req entity.TransferRequest) (*entity.TransferResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TransferResult), args.Error(1)
}

var _ usecase.WalletUseCase = (*MockWalletUseCase)(nil)

// MockAdUseCase is a mock implementation of AdUseCase
type MockAdUseCase struct {
	mock.Mock
}

func (m *MockAdUseCase) Create(ctx context.Context, userID string, input usecase.CreateAdInput) (*usecase.CreateAdResult, error) {
	args := m.Called(userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateAdResult), args.Error(1)
}

func (m *MockAdUseCase) ListActive(ctx context.Context) ([]*entity.Ad, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Ad), args.Error(1)
}

func (m *MockAdUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Ad, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Ad), args.Error(1)
}

func (m *MockAdUseCase) Get(ctx context.Context, adID string) (*entity.Ad, error) {
	args := m.Called(adID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Ad), args.Error(1)
}

func (m *MockAdUseCase) RecordImpression(ctx context.Context, adID, userID, reelID string) (*entity.AdImpression, error) {
	args := m.Called(adID, userID, reelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AdImpression), args.Error(1)
}

func (m *MockAdUseCase) RecordClick(ctx context.Context, adID string, userID, reelID *string) (*entity.AdClick, error) {
	args := m.Called(adID, userID, reelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AdClick), args.Error(1)
}

func (m *MockAdUseCase) Update(ctx context.Context, userID, adID string, input usecase.UpdateAdInput) (*entity.Ad, error) {
	args := m.Called(userID, adID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Ad), args.Error(1)
}

func (m *MockAdUseCase) Delete(ctx context.Context, userID, adID string) error {
	args := m.Called(userID, adID)
	return args.Error(0)
}

func (m *MockAdUseCase) InitiatePayment(ctx context.Context, userID, adID string) (*usecase.PaymentResult, error) {
	args := m.Called(userID, adID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PaymentResult), args.Error(1)
}

func (m *MockAdUseCase) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(payload, signature)
	return args.Error(0)
}

var _ usecase.AdUseCase = (*MockAdUseCase)(nil)

// MockReelUseCase is a mock implementation of ReelUseCase
type MockReelUseCase struct {
	mock.Mock
}

func (m *MockReelUseCase) Presign(ctx context.Context, userID, contentType string, sizeBytes *int64) (*usecase.PresignResult, error) {
	args := m.Called(userID, contentType, sizeBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PresignResult), args.Error(1)
}

func (m *MockReelUseCase) Finalize(ctx context.Context, userID string, input usecase.FinalizeInput) (*entity.Reel, error) {
	args := m.Called(userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reel), args.Error(1)
}

func (m *MockReelUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Reel, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Reel), args.Error(1)
}

func (m *MockReelUseCase) ListAll(ctx context.Context, userID string) ([]*entity.Reel, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Reel), args.Error(1)
}

func (m *MockReelUseCase) PlaybackURL(ctx context.Context, reelID string) (string, time.Duration, error) {
	args := m.Called(reelID)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *MockReelUseCase) Delete(ctx context.Context, userID, reelID string) error {
	args := m.Called(userID, reelID)
	return args.Error(0)
}

func (m *MockReelUseCase) ToggleLike(ctx context.Context, userID, reelID string) (*entity.Reel, bool, error) {
	args := m.Called(userID, reelID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entity.Reel), args.Bool(1), args.Error(2)
}

func (m *MockReelUseCase) UpdateFromTranscode(ctx context.Context, secret string, callback usecase.TranscodeCallback) (*entity.Reel, error) {
	args := m.Called(secret, callback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Reel), args.Error(1)
}

var _ usecase.ReelUseCase = (*MockReelUseCase)(nil)

// MockClassifiedUseCase is a mock implementation of ClassifiedUseCase
type MockClassifiedUseCase struct {
	mock.Mock
}

func (m *MockClassifiedUseCase) Post(ctx context.Context, userID string, input usecase.PostClassifiedInput) (*usecase.PostClassifiedResult, error) {
	args := m.Called(userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PostClassifiedResult), args.Error(1)
}

func (m *MockClassifiedUseCase) List(ctx context.Context, category, status string) ([]*entity.Classified, error) {
	args := m.Called(category, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Classified), args.Error(1)
}

func (m *MockClassifiedUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Classified, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Classified), args.Error(1)
}

func (m *MockClassifiedUseCase) UpdateImages(ctx context.Context, userID, classifiedID string, imageKeys []string) (*entity.Classified, error) {
	args := m.Called(userID, classifiedID, imageKeys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Classified), args.Error(1)
}

var _ usecase.ClassifiedUseCase = (*MockClassifiedUseCase)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	return gin.New()
}

// asUser wraps a handler so it runs as an authenticated caller.
func asUser(userID string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		h(c)
	}
}
