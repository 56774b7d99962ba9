package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/repository"
)

// memStore is an in-memory UserStore.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*model.User
	writes  int
	failGet error
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[int64]*model.User)}
}

func (s *memStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	for _, existing := range s.byID {
		if existing.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now().UTC()
	stored := *user
	s.byID[user.ID] = &stored
	return nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	for _, u := range s.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memStore) UserExists(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return false, s.failGet
	}
	_, ok := s.byID[id]
	return ok, nil
}

func (s *memStore) delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// memCache is an in-memory UserContextCache.
type memCache struct {
	mu      sync.Mutex
	entries map[int64]model.UserContext
	sets    int
	deletes int
}

func (c *memCache) GetUserContext(ctx context.Context, userID int64) (*model.UserContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uc, ok := c.entries[userID]
	if !ok {
		return nil, nil
	}
	return &uc, nil
}

func (c *memCache) SetUserContext(ctx context.Context, userID int64, userCtx *model.UserContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[int64]model.UserContext)
	}
	c.entries[userID] = *userCtx
	c.sets++
	return nil
}

func (c *memCache) DeleteUserContext(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.deletes++
	return nil
}

func (c *memCache) has(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[userID]
	return ok
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc     *AuthService
	store   *memStore
	clock   *clock
	metrics *metrics.InMemoryRecorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	signer, err := auth.NewTokenSigner([]byte("test-secret-at-least-32-bytes-long!!"), auth.DefaultTokenTTL, auth.WithClock(clk.Now))
	if err != nil {
		t.Fatalf("new token signer: %v", err)
	}

	store := newMemStore()
	recorder := metrics.NewInMemory()
	opts = append([]Option{WithMetrics(recorder)}, opts...)

	return &fixture{
		svc:     NewAuthService(store, signer, auth.NewPasswordHasher(4), opts...),
		store:   store,
		clock:   clk,
		metrics: recorder,
	}
}

func validRegister(email string) RegisterInput {
	return RegisterInput{Email: email, Name: "A", Password: "pw"}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected token")
	}

	uc := result.UserContext
	if uc.UserID != "1" || uc.Email != "a@x.com" || uc.Name != "A" {
		t.Errorf("unexpected user context: %+v", uc)
	}
	if uc.CustomFields.Plan != "free" || uc.CustomFields.Role != "user" {
		t.Errorf("expected default plan/role, got %+v", uc.CustomFields)
	}
	if uc.Company != nil {
		t.Errorf("expected no company, got %+v", uc.Company)
	}

	stored, _ := f.store.GetUserByID(context.Background(), 1)
	if stored.PasswordHash == "pw" || stored.PasswordHash == "" {
		t.Errorf("password stored in clear or empty: %q", stored.PasswordHash)
	}
	if f.metrics.Snapshot().RegistrationsSuccess != 1 {
		t.Errorf("expected one successful registration metric")
	}
}

func TestRegisterWithCompanyAndPlan(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result, err := f.svc.Register(context.Background(), RegisterInput{
		Email:       "b@x.com",
		Name:        "B",
		Password:    "pw",
		Plan:        "pro",
		Role:        "admin",
		CompanyID:   "acme",
		CompanyName: "Acme",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	uc := result.UserContext
	if uc.CustomFields.Plan != "pro" || uc.CustomFields.Role != "admin" {
		t.Errorf("unexpected custom fields: %+v", uc.CustomFields)
	}
	if uc.Company == nil || uc.Company.ID != "acme" || uc.Company.Name != "Acme" {
		t.Errorf("unexpected company: %+v", uc.Company)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing_email", RegisterInput{Name: "A", Password: "pw"}},
		{"missing_name", RegisterInput{Email: "a@x.com", Password: "pw"}},
		{"missing_password", RegisterInput{Email: "a@x.com", Name: "A"}},
		{"all_empty", RegisterInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			_, err := f.svc.Register(context.Background(), tt.input)
			if !errors.Is(err, ErrMissingRegisterFields) {
				t.Fatalf("expected ErrMissingRegisterFields, got %v", err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation kind, got %v", KindOf(err))
			}
			if f.store.writes != 0 {
				t.Fatalf("store written %d times on validation failure", f.store.writes)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if _, err := f.svc.Register(context.Background(), validRegister("a@x.com")); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if !errors.Is(err, ErrEmailExists) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrEmailExists conflict, got %v", err)
	}
	if err.Error() != "Email already exists" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if f.metrics.Snapshot().RegistrationsConflict != 1 {
		t.Errorf("expected one conflict metric")
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reg, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"correct_password", "a@x.com", "pw", nil},
		{"wrong_password", "a@x.com", "nope", ErrInvalidCredentials},
		{"unknown_email", "ghost@x.com", "pw", ErrInvalidCredentials},
		{"missing_email", "", "pw", ErrMissingLoginFields},
		{"missing_password", "a@x.com", "", ErrMissingLoginFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if result.Token == "" {
				t.Fatal("expected token")
			}
			if result.UserContext.UserID != reg.UserContext.UserID {
				t.Fatalf("user_id = %q, want %q", result.UserContext.UserID, reg.UserContext.UserID)
			}
		})
	}
}

func TestLoginErrorKinds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), "ghost@x.com", "pw")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth kind, got %v", err)
	}

	_, err = f.svc.Login(context.Background(), "", "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.store.failGet = errors.New("connection reset")

	_, err := f.svc.Login(context.Background(), "a@x.com", "pw")
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != nil {
		t.Fatalf("expected internal error, got kind %v", KindOf(err))
	}
	if MessageOf(err, "Login failed") != "Login failed" {
		t.Fatalf("internal error leaked message %q", MessageOf(err, "Login failed"))
	}
}

func TestMe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reg, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	first, err := f.svc.Me(context.Background(), reg.Token)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	second, err := f.svc.Me(context.Background(), reg.Token)
	if err != nil {
		t.Fatalf("second Me() error = %v", err)
	}
	if *first != *second {
		t.Fatalf("Me() not idempotent: %+v vs %+v", first, second)
	}
	if *first != reg.UserContext {
		t.Fatalf("Me() = %+v, want %+v", first, reg.UserContext)
	}
}

func TestMeTokenErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	other, err := auth.NewTokenSigner([]byte("another-secret-also-32-bytes-long!!"), auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("new token signer: %v", err)
	}
	forged, err := other.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong_signature", forged, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Me(context.Background(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrAuth) {
				t.Fatalf("expected auth kind, got %v", err)
			}
		})
	}
}

func TestMeTokenExpiry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reg, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	f.clock.Advance(time.Minute)
	if _, err := f.svc.Me(context.Background(), reg.Token); err != nil {
		t.Fatalf("token rejected at T+1m: %v", err)
	}

	f.clock.Advance(7 * 24 * time.Hour)
	if _, err := f.svc.Me(context.Background(), reg.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after 7d, got %v", err)
	}
	if f.metrics.Snapshot().TokensRejectedExpired != 1 {
		t.Errorf("expected one expired rejection metric")
	}
}

func TestMeUserGone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reg, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	id, _ := strconv.ParseInt(reg.UserContext.UserID, 10, 64)
	f.store.delete(id)

	_, err = f.svc.Me(context.Background(), reg.Token)
	if !errors.Is(err, ErrUserNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMeUsesCache(t *testing.T) {
	t.Parallel()
	cache := &memCache{}
	f := newFixture(t, WithUserCache(cache))

	reg, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := f.svc.Me(context.Background(), reg.Token); err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected cache fill, got %d sets", cache.sets)
	}

	got, err := f.svc.Me(context.Background(), reg.Token)
	if err != nil {
		t.Fatalf("cached Me() error = %v", err)
	}
	if *got != reg.UserContext {
		t.Fatalf("cached Me() = %+v, want %+v", got, reg.UserContext)
	}
	if cache.sets != 1 {
		t.Fatalf("cache hit should not refill, got %d sets", cache.sets)
	}

	snap := f.metrics.Snapshot()
	if snap.UserCacheMisses != 1 || snap.UserCacheHits != 1 {
		t.Fatalf("unexpected cache metrics: hits=%d misses=%d", snap.UserCacheHits, snap.UserCacheMisses)
	}
}

func TestMeCachedUserRemovedFromStore(t *testing.T) {
	t.Parallel()
	cache := &memCache{}
	f := newFixture(t, WithUserCache(cache))

	reg, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := f.svc.Me(context.Background(), reg.Token); err != nil {
		t.Fatalf("Me() error = %v", err)
	}

	id, _ := strconv.ParseInt(reg.UserContext.UserID, 10, 64)
	if !cache.has(id) {
		t.Fatal("expected cache entry after first Me()")
	}
	f.store.delete(id)

	_, err = f.svc.Me(context.Background(), reg.Token)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for removed user, got %v", err)
	}
	if cache.has(id) {
		t.Fatal("stale cache entry should be evicted")
	}

	// Later lookups miss the cache and still report the user gone.
	if _, err := f.svc.Me(context.Background(), reg.Token); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on repeat, got %v", err)
	}
}

func TestMeCachedStoreFailureIsInternal(t *testing.T) {
	t.Parallel()
	cache := &memCache{}
	f := newFixture(t, WithUserCache(cache))

	reg, err := f.svc.Register(context.Background(), validRegister("a@x.com"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := f.svc.Me(context.Background(), reg.Token); err != nil {
		t.Fatalf("Me() error = %v", err)
	}

	f.store.failGet = errors.New("db down")
	_, err = f.svc.Me(context.Background(), reg.Token)
	if err == nil || KindOf(err) != nil {
		t.Fatalf("expected internal error, got %v", err)
	}
	if cache.deletes != 0 {
		t.Fatalf("store failure should not evict, got %d deletes", cache.deletes)
	}
}

func TestKindOfAndMessageOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantKind error
		wantMsg  string
	}{
		{"validation", ErrMissingLoginFields, ErrValidation, "Email and password are required"},
		{"conflict", ErrEmailExists, ErrConflict, "Email already exists"},
		{"auth", ErrInvalidCredentials, ErrAuth, "Invalid credentials"},
		{"not_found", ErrUserNotFound, ErrNotFound, "User not found"},
		{"internal", errors.New("boom"), nil, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", got, tt.wantKind)
			}
			if got := MessageOf(tt.err, "fallback"); got != tt.wantMsg {
				t.Errorf("MessageOf() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}
