package usecase

import (
	"context"
	"errors"
	"testing"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/logger"
	"quddle-backend/services/api/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const systemUserID = "00000000-0000-0000-0000-000000000000"

type classifiedFixture struct {
	uc          ClassifiedUseCase
	wallets     *fakeWalletRepo
	classifieds *fakeClassifiedRepo
	store       *fakeStore
	system      *entity.Wallet
}

func newClassifiedFixture(withSystemWallet bool) *classifiedFixture {
	f := &classifiedFixture{wallets: newFakeWalletRepo(), store: newFakeStore()}
	f.classifieds = newFakeClassifiedRepo(f.wallets)
	if withSystemWallet {
		f.system = f.wallets.seed(systemUserID, decimal.Zero)
	}
	f.uc = NewClassifiedUseCase(f.classifieds, f.wallets, f.store, testBuckets, ClassifiedConfig{
		PostingFee:      decimal.NewFromInt(50),
		StartingBalance: decimal.NewFromInt(1000),
		SystemUserID:    systemUserID,
	}, logger.Nop())
	return f
}

func TestClassifiedUseCase_Post(t *testing.T) {
	f := newClassifiedFixture(true)
	user := uuid.New().String()
	category := "cars"

	result, err := f.uc.Post(context.Background(), user, PostClassifiedInput{
		Title:       "Bike",
		Description: "Barely used",
		Category:    &category,
		ImageCount:  7,
	})
	require.NoError(t, err)

	c := result.Classified
	assert.Equal(t, entity.ClassifiedStatusActive, c.Status)
	assert.True(t, c.PostingFee.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "950", result.NewBalance.String())
	assert.Equal(t, "Ad posted successfully! AED 50 deducted from your wallet.", result.Message)
	assert.Equal(t, "50", f.wallets.balance(f.system.ID).String())

	require.Len(t, result.UploadURLs, 5)
	assert.Equal(t, "classifieds/"+user+"/"+c.ID+"/image_0.jpg", result.UploadURLs[0].Key)
	assert.Contains(t, result.UploadURLs[4].UploadURL, "image_4.jpg")
	assert.Contains(t, result.UploadURLs[0].UploadURL, "ct=image/jpeg")

	require.Equal(t, 2, f.wallets.transactionCount())
	for _, tx := range f.wallets.transactions {
		assert.Equal(t, entity.ReferenceTypeClassified, tx.ReferenceType)
		assert.Equal(t, c.ID, tx.ReferenceID)
	}
	assert.Equal(t, "Posted classified: Bike", f.wallets.transactions[0].Description)
	assert.Equal(t, "Posting fee from user: Bike", f.wallets.transactions[1].Description)
}

func TestClassifiedUseCase_PostInsufficientBalance(t *testing.T) {
	f := newClassifiedFixture(true)
	user := uuid.New().String()
	f.wallets.seed(user, decimal.RequireFromString("49.5"))

	_, err := f.uc.Post(context.Background(), user, PostClassifiedInput{Title: "t", Description: "d"})
	var svcErr *apperrors.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 400, svcErr.StatusCode())
	assert.Equal(t, "Insufficient balance. You need AED 50 to post an ad. Current balance: AED 49.5", svcErr.Message)

	assert.Empty(t, f.classifieds.classifieds)
	assert.Equal(t, 0, f.wallets.transactionCount())
	assert.Equal(t, "0", f.wallets.balance(f.system.ID).String())
}

func TestClassifiedUseCase_PostMissingSystemWallet(t *testing.T) {
	f := newClassifiedFixture(false)

	_, err := f.uc.Post(context.Background(), uuid.New().String(), PostClassifiedInput{Title: "t", Description: "d"})
	var svcErr *apperrors.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 500, svcErr.StatusCode())
	assert.Equal(t, "Admin wallet not found", svcErr.Message)
	assert.Empty(t, f.classifieds.classifieds)
}

func TestClassifiedUseCase_PostInsertFailureRollsBackFee(t *testing.T) {
	f := newClassifiedFixture(true)
	user := uuid.New().String()
	wallet := f.wallets.seed(user, decimal.NewFromInt(100))
	f.classifieds.insertErr = errors.New("insert failed")

	_, err := f.uc.Post(context.Background(), user, PostClassifiedInput{Title: "t", Description: "d"})
	assert.True(t, apperrors.IsInternalError(err))
	assert.Equal(t, "100", f.wallets.balance(wallet.ID).String())
	assert.Equal(t, 0, f.wallets.transactionCount())
}

func TestClassifiedUseCase_PostPresignFailureReportsChargedClassified(t *testing.T) {
	f := newClassifiedFixture(true)
	user := uuid.New().String()
	wallet := f.wallets.seed(user, decimal.NewFromInt(100))
	f.store.err = errors.New("signer down")

	_, err := f.uc.Post(context.Background(), user, PostClassifiedInput{Title: "t", Description: "d", ImageCount: 2})
	var svcErr *apperrors.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.True(t, apperrors.IsInternalError(err))

	require.Len(t, f.classifieds.classifieds, 1)
	for id := range f.classifieds.classifieds {
		assert.Equal(t, "Classified "+id+" was posted and the posting fee was charged, but upload URLs could not be generated", svcErr.Message)
	}
	assert.Equal(t, "50", f.wallets.balance(wallet.ID).String())
	assert.Equal(t, 2, f.wallets.transactionCount())
}

func TestClassifiedUseCase_PostValidation(t *testing.T) {
	f := newClassifiedFixture(true)

	_, err := f.uc.Post(context.Background(), "u", PostClassifiedInput{Title: "t"})
	assert.Contains(t, err.Error(), "Title and description are required")

	negative := decimal.NewFromInt(-1)
	_, err = f.uc.Post(context.Background(), "u", PostClassifiedInput{Title: "t", Description: "d", Price: &negative})
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))
}

func TestClassifiedUseCase_UpdateImages(t *testing.T) {
	f := newClassifiedFixture(true)
	owner := uuid.New().String()
	posted, err := f.uc.Post(context.Background(), owner, PostClassifiedInput{Title: "t", Description: "d", ImageCount: 2})
	require.NoError(t, err)
	id := posted.Classified.ID
	keys := []string{posted.UploadURLs[0].Key, posted.UploadURLs[1].Key}

	_, err = f.uc.UpdateImages(context.Background(), uuid.New().String(), id, keys)
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))

	_, err = f.uc.UpdateImages(context.Background(), owner, id, []string{"classifieds/someone/else.jpg"})
	assert.Contains(t, err.Error(), "Invalid image key")

	updated, err := f.uc.UpdateImages(context.Background(), owner, id, keys)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://reels.s3.test/" + keys[0],
		"https://reels.s3.test/" + keys[1],
	}, updated.Images)
}

func TestClassifiedUseCase_List(t *testing.T) {
	f := newClassifiedFixture(true)
	owner := uuid.New().String()
	cars, jobs := "cars", "jobs"
	_, err := f.uc.Post(context.Background(), owner, PostClassifiedInput{Title: "a", Description: "d", Category: &cars})
	require.NoError(t, err)
	_, err = f.uc.Post(context.Background(), owner, PostClassifiedInput{Title: "b", Description: "d", Category: &jobs})
	require.NoError(t, err)

	all, err := f.uc.List(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := f.uc.List(context.Background(), "cars", "")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "a", filtered[0].Title)

	none, err := f.uc.List(context.Background(), "", "sold")
	require.NoError(t, err)
	assert.Empty(t, none)

	mine, err := f.uc.ListMine(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
