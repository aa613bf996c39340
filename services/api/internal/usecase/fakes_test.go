package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"quddle-backend/pkg/apperrors"
	"quddle-backend/pkg/identity"
	"quddle-backend/pkg/payment"
	"quddle-backend/pkg/queue"
	"quddle-backend/pkg/s3"
	"quddle-backend/services/api/internal/entity"
	"quddle-backend/services/api/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory stand-ins for the gorm repositories. They keep the same
// atomicity the SQL versions get from transactions by holding a mutex for the
// whole operation.

type fakeWalletRepo struct {
	mu           sync.Mutex
	wallets      map[string]*entity.Wallet
	transactions []*entity.Transaction
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: map[string]*entity.Wallet{}}
}

func (r *fakeWalletRepo) seed(userID string, balance decimal.Decimal) *entity.Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := &entity.Wallet{ID: uuid.New().String(), UserID: userID, Balance: balance}
	r.wallets[w.ID] = w
	return w
}

func (r *fakeWalletRepo) byUser(userID string) *entity.Wallet {
	for _, w := range r.wallets {
		if w.UserID == userID {
			return w
		}
	}
	return nil
}

func (r *fakeWalletRepo) GetOrCreate(_ context.Context, userID string, startingBalance decimal.Decimal) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.byUser(userID); w != nil {
		cp := *w
		return &cp, nil
	}
	w := &entity.Wallet{ID: uuid.New().String(), UserID: userID, Balance: startingBalance}
	r.wallets[w.ID] = w
	cp := *w
	return &cp, nil
}

func (r *fakeWalletRepo) GetByUserID(_ context.Context, userID string) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.byUser(userID)
	if w == nil {
		return nil, apperrors.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWalletRepo) Transfer(_ context.Context, req entity.TransferRequest) (*entity.TransferResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transferLocked(req)
}

func (r *fakeWalletRepo) transferLocked(req entity.TransferRequest) (*entity.TransferResult, error) {
	from, to := r.wallets[req.FromWalletID], r.wallets[req.ToWalletID]
	if from == nil || to == nil {
		return nil, apperrors.ErrNotFound
	}
	if from.Balance.LessThan(req.Amount) {
		return nil, apperrors.ErrInsufficientFunds
	}
	from.Balance = from.Balance.Sub(req.Amount)
	to.Balance = to.Balance.Add(req.Amount)

	debit := &entity.Transaction{ID: uuid.New().String(), WalletID: from.ID, Amount: req.Amount, Type: entity.TransactionTypeDebit,
		Description: req.Description, ReferenceType: req.ReferenceType, ReferenceID: req.ReferenceID, CreatedAt: time.Now()}
	credit := &entity.Transaction{ID: uuid.New().String(), WalletID: to.ID, Amount: req.Amount, Type: entity.TransactionTypeCredit,
		Description: req.CounterDescription, ReferenceType: req.ReferenceType, ReferenceID: req.ReferenceID, CreatedAt: time.Now()}
	r.transactions = append(r.transactions, debit, credit)

	fromCopy, toCopy := *from, *to
	return &entity.TransferResult{From: &fromCopy, To: &toCopy, Debit: debit, Credit: credit}, nil
}

func (r *fakeWalletRepo) ListTransactions(_ context.Context, walletID string, limit, offset int) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].WalletID == walletID {
			out = append(out, r.transactions[i])
		}
	}
	if offset > len(out) {
		return []*entity.Transaction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeWalletRepo) balance(walletID string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wallets[walletID].Balance
}

func (r *fakeWalletRepo) transactionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transactions)
}

type fakeClassifiedRepo struct {
	wallets     *fakeWalletRepo
	classifieds map[string]*entity.Classified
	insertErr   error
}

func newFakeClassifiedRepo(wallets *fakeWalletRepo) *fakeClassifiedRepo {
	return &fakeClassifiedRepo{wallets: wallets, classifieds: map[string]*entity.Classified{}}
}

func (r *fakeClassifiedRepo) CreateWithFee(_ context.Context, classified *entity.Classified, fee entity.TransferRequest) (*entity.TransferResult, error) {
	r.wallets.mu.Lock()
	defer r.wallets.mu.Unlock()

	// Roll back by restoring the snapshot when the insert fails.
	snapshot := map[string]decimal.Decimal{}
	for id, w := range r.wallets.wallets {
		snapshot[id] = w.Balance
	}
	txCount := len(r.wallets.transactions)

	result, err := r.wallets.transferLocked(fee)
	if err != nil {
		return nil, err
	}
	if r.insertErr != nil {
		for id, b := range snapshot {
			r.wallets.wallets[id].Balance = b
		}
		r.wallets.transactions = r.wallets.transactions[:txCount]
		return nil, r.insertErr
	}
	cp := *classified
	r.classifieds[classified.ID] = &cp
	return result, nil
}

func (r *fakeClassifiedRepo) List(_ context.Context, filter persistent.ClassifiedFilter) ([]*entity.Classified, error) {
	var out []*entity.Classified
	for _, c := range r.classifieds {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Category != "" && (c.Category == nil || *c.Category != filter.Category) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeClassifiedRepo) ListByUser(_ context.Context, userID string) ([]*entity.Classified, error) {
	var out []*entity.Classified
	for _, c := range r.classifieds {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClassifiedRepo) GetByIDForUser(_ context.Context, id, userID string) (*entity.Classified, error) {
	c, ok := r.classifieds[id]
	if !ok || c.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (r *fakeClassifiedRepo) UpdateImages(_ context.Context, id string, images []string) (*entity.Classified, error) {
	c, ok := r.classifieds[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c.Images = images
	return c, nil
}

type fakeAdRepo struct {
	mu          sync.Mutex
	ads         map[string]*entity.Ad
	impressions []*entity.AdImpression
	clicks      []*entity.AdClick
}

func newFakeAdRepo() *fakeAdRepo {
	return &fakeAdRepo{ads: map[string]*entity.Ad{}}
}

func (r *fakeAdRepo) get(id string) (*entity.Ad, error) {
	ad, ok := r.ads[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *ad
	return &cp, nil
}

func (r *fakeAdRepo) Create(_ context.Context, ad *entity.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ad.ID == "" {
		ad.ID = uuid.New().String()
	}
	ad.CreatedAt = time.Now()
	cp := *ad
	r.ads[ad.ID] = &cp
	return nil
}

func (r *fakeAdRepo) GetByID(_ context.Context, id string) (*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *fakeAdRepo) ListActive(_ context.Context) ([]*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Ad
	for _, ad := range r.ads {
		if ad.Status == entity.AdStatusActive && ad.CurrentImpressions < ad.TargetImpressions {
			cp := *ad
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAdRepo) ListByAdvertiser(_ context.Context, advertiserID string) ([]*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Ad
	for _, ad := range r.ads {
		if ad.AdvertiserID == advertiserID {
			cp := *ad
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAdRepo) Update(_ context.Context, id string, update entity.AdUpdate) (*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if update.Title != nil {
		ad.Title = *update.Title
	}
	if update.LinkURL != nil {
		ad.LinkURL = *update.LinkURL
	}
	if update.Status != nil {
		ad.Status = *update.Status
	}
	if update.ExpiresAt != nil {
		ad.ExpiresAt = *update.ExpiresAt
	}
	return r.get(id)
}

func (r *fakeAdRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ads[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.ads, id)
	return nil
}

func (r *fakeAdRepo) SetPaymentIntent(_ context.Context, id, intentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	ad.PaymentIntentID = intentID
	return nil
}

func (r *fakeAdRepo) Activate(_ context.Context, id string, expiresAt time.Time) (*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if ad.Status != entity.AdStatusPending {
		return nil, apperrors.ErrInvalidState
	}
	ad.Status = entity.AdStatusActive
	ad.ExpiresAt = expiresAt
	return r.get(id)
}

func (r *fakeAdRepo) RecordImpression(_ context.Context, impression *entity.AdImpression) (*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[impression.AdID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if ad.CurrentImpressions >= ad.TargetImpressions {
		return nil, apperrors.ErrLimitReached
	}
	if ad.Status != entity.AdStatusActive {
		return nil, apperrors.ErrInvalidState
	}
	ad.CurrentImpressions++
	if ad.CurrentImpressions >= ad.TargetImpressions {
		ad.Status = entity.AdStatusExpired
	}
	impression.ID = uuid.New().String()
	impression.CreatedAt = time.Now()
	r.impressions = append(r.impressions, impression)
	return r.get(ad.ID)
}

func (r *fakeAdRepo) RecordClick(_ context.Context, click *entity.AdClick) (*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[click.AdID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !ad.Status.AcceptsClicks() {
		return nil, apperrors.ErrInvalidState
	}
	ad.CurrentClicks++
	click.ID = uuid.New().String()
	click.CreatedAt = time.Now()
	r.clicks = append(r.clicks, click)
	return r.get(ad.ID)
}

type fakeReelRepo struct {
	mu    sync.Mutex
	reels map[string]*entity.Reel
	likes map[string]map[string]bool
}

func newFakeReelRepo() *fakeReelRepo {
	return &fakeReelRepo{reels: map[string]*entity.Reel{}, likes: map[string]map[string]bool{}}
}

func (r *fakeReelRepo) Create(_ context.Context, reel *entity.Reel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reels {
		if existing.S3Key == reel.S3Key {
			return apperrors.ErrDuplicate
		}
	}
	reel.CreatedAt = time.Now()
	cp := *reel
	r.reels[reel.ID] = &cp
	return nil
}

func (r *fakeReelRepo) GetByID(_ context.Context, id string) (*entity.Reel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reel, ok := r.reels[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *reel
	return &cp, nil
}

func (r *fakeReelRepo) ListReady(_ context.Context, ownerID, viewerID string) ([]*entity.Reel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Reel
	for _, reel := range r.reels {
		if reel.Status != entity.ReelStatusReady {
			continue
		}
		if ownerID != "" && reel.UserID != ownerID {
			continue
		}
		cp := *reel
		cp.IsLikedByMe = r.likes[reel.ID][viewerID]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeReelRepo) UpdateFromTranscode(_ context.Context, result persistent.TranscodeResult) (*entity.Reel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reel := range r.reels {
		if reel.S3Key == result.S3Key {
			reel.ServeURL = result.ServeURL
			if result.ThumbnailURL != "" {
				reel.ThumbnailURL = result.ThumbnailURL
			}
			reel.Converted = true
			reel.Status = entity.ReelStatusReady
			cp := *reel
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeReelRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reels[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.reels, id)
	delete(r.likes, id)
	return nil
}

func (r *fakeReelRepo) ToggleLike(_ context.Context, reelID, userID string) (*entity.Reel, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reel, ok := r.reels[reelID]
	if !ok {
		return nil, false, apperrors.ErrNotFound
	}
	if r.likes[reelID] == nil {
		r.likes[reelID] = map[string]bool{}
	}
	liked := !r.likes[reelID][userID]
	if liked {
		r.likes[reelID][userID] = true
	} else {
		delete(r.likes[reelID], userID)
	}
	reel.LikesCount = int64(len(r.likes[reelID]))
	cp := *reel
	cp.IsLikedByMe = liked
	return &cp, liked, nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	if r.err != nil {
		return r.err
	}
	if user.Phone != nil {
		for _, u := range r.users {
			if u.Phone != nil && *u.Phone == *user.Phone {
				return apperrors.ErrDuplicate
			}
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	for _, u := range r.users {
		if u.Phone != nil && *u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]int64
	deleted []string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]int64{}}
}

func (s *fakeStore) put(bucket, key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = size
}

func (s *fakeStore) PresignPut(_ context.Context, bucket, key, contentType string, ttl time.Duration, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://upload.test/" + bucket + "/" + key + "?ct=" + contentType + "&ttl=" + ttl.String(), nil
}

func (s *fakeStore) PresignGet(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://download.test/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
}

func (s *fakeStore) HeadObject(_ context.Context, bucket, key string) (*s3.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, s3.ErrObjectNotFound
	}
	return &s3.ObjectInfo{Key: key, ContentLength: size}, nil
}

func (s *fakeStore) DeleteObject(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+key)
	s.deleted = append(s.deleted, bucket+"/"+key)
	return nil
}

func (s *fakeStore) ObjectURL(bucket, key string) string {
	return "https://" + bucket + ".s3.test/" + key
}

type fakeProcessor struct {
	requests []payment.IntentRequest
	event    *payment.Event
	err      error
}

func (p *fakeProcessor) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.requests = append(p.requests, req)
	return &payment.Intent{
		ID:           "pi_test_123",
		ClientSecret: "pi_test_123_secret",
		Amount:       payment.MinorUnits(req.Amount),
		Currency:     req.Currency,
		Status:       "requires_payment_method",
	}, nil
}

func (p *fakeProcessor) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != "valid" {
		return nil, payment.ErrInvalidSignature
	}
	return p.event, nil
}

type fakeDispatcher struct {
	tasks []*queue.TranscodeTask
	err   error
}

func (d *fakeDispatcher) PublishTranscodeTask(_ context.Context, task *queue.TranscodeTask) error {
	if d.err != nil {
		return d.err
	}
	d.tasks = append(d.tasks, task)
	return nil
}

type fakeProvider struct {
	identities map[string]*identity.Identity
	passwords  map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{identities: map[string]*identity.Identity{}, passwords: map[string]string{}}
}

func (p *fakeProvider) session(id string) *identity.Session {
	return &identity.Session{AccessToken: "access-" + id, RefreshToken: "refresh-" + id, TokenType: "bearer"}
}

func (p *fakeProvider) Register(_ context.Context, email, password string, metadata map[string]string) (*identity.Identity, *identity.Session, error) {
	if _, ok := p.identities[email]; ok {
		return nil, nil, identity.ErrEmailTaken
	}
	ident := &identity.Identity{ID: uuid.New().String(), Email: email, Name: metadata["name"]}
	p.identities[email] = ident
	p.passwords[email] = password
	return ident, p.session(ident.ID), nil
}

func (p *fakeProvider) VerifyCredentials(_ context.Context, email, password string) (*identity.Identity, *identity.Session, error) {
	ident, ok := p.identities[email]
	if !ok || p.passwords[email] != password {
		return nil, nil, identity.ErrInvalidCredentials
	}
	return ident, p.session(ident.ID), nil
}

func (p *fakeProvider) VerifyToken(_ context.Context, token string) (*identity.Identity, error) {
	for _, ident := range p.identities {
		if "access-"+ident.ID == token {
			return ident, nil
		}
	}
	return nil, identity.ErrInvalidToken
}

func (p *fakeProvider) RefreshToken(_ context.Context, token string) (*identity.Identity, *identity.Session, error) {
	for _, ident := range p.identities {
		if "refresh-"+ident.ID == token {
			return ident, p.session(ident.ID), nil
		}
	}
	return nil, nil, identity.ErrInvalidToken
}

func (p *fakeProvider) SignOut(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	return errors.New("unknown token")
}

var (
	_ persistent.WalletRepository     = (*fakeWalletRepo)(nil)
	_ persistent.ClassifiedRepository = (*fakeClassifiedRepo)(nil)
	_ persistent.AdRepository         = (*fakeAdRepo)(nil)
	_ persistent.ReelRepository       = (*fakeReelRepo)(nil)
	_ persistent.UserRepository       = (*fakeUserRepo)(nil)
	_ ObjectStore                     = (*fakeStore)(nil)
	_ payment.Processor               = (*fakeProcessor)(nil)
	_ TranscodeDispatcher             = (*fakeDispatcher)(nil)
	_ identity.Provider               = (*fakeProvider)(nil)
)
