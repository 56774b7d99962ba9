// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/repository"
)

// UserStore persists user records.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
}

// TokenSigner issues and verifies bearer tokens.
type TokenSigner interface {
	Issue(userID int64) (string, error)
	Verify(token string) (*auth.TokenClaims, error)
}

// UserContextCache caches user contexts for Me lookups.
// A nil result with a nil error is a miss.
type UserContextCache interface {
	GetUserContext(ctx context.Context, userID int64) (*model.UserContext, error)
	SetUserContext(ctx context.Context, userID int64, userCtx *model.UserContext) error
	DeleteUserContext(ctx context.Context, userID int64) error
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token       string
	UserContext model.UserContext
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email       string
	Name        string
	Password    string
	Plan        string
	Role        string
	CompanyID   string
	CompanyName string
}

// AuthService handles registration, login and token lookups.
type AuthService struct {
	store   UserStore
	tokens  TokenSigner
	hasher  *auth.PasswordHasher
	cache   UserContextCache
	metrics metrics.Recorder
	logger  *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithUserCache enables the read-through cache for Me.
func WithUserCache(cache UserContextCache) Option {
	return func(s *AuthService) {
		s.cache = cache
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(s *AuthService) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *AuthService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(store UserStore, tokens TokenSigner, hasher *auth.PasswordHasher, opts ...Option) *AuthService {
	if hasher == nil {
		hasher = auth.NewPasswordHasher(auth.DefaultBcryptCost)
	}
	s := &AuthService{
		store:   store,
		tokens:  tokens,
		hasher:  hasher,
		metrics: metrics.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user and returns a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Email == "" || input.Name == "" || input.Password == "" {
		s.metrics.IncRegistration("invalid")
		return nil, ErrMissingRegisterFields
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		s.metrics.IncRegistration("error")
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		Plan:         input.Plan,
		Role:         input.Role,
		CompanyID:    optional(input.CompanyID),
		CompanyName:  optional(input.CompanyName),
	}
	if user.Plan == "" {
		user.Plan = model.DefaultPlan
	}
	if user.Role == "" {
		user.Role = model.DefaultRole
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			s.metrics.IncRegistration("conflict")
			return nil, ErrEmailExists
		}
		s.metrics.IncRegistration("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.issue(user)
	if err != nil {
		s.metrics.IncRegistration("error")
		return nil, err
	}

	s.metrics.IncRegistration("success")
	return result, nil
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		s.metrics.IncLogin("invalid")
		return nil, ErrMissingLoginFields
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Unknown emails still pay for one bcrypt comparison.
			_, _ = s.verifyPassword(password, s.dummy())
			s.metrics.IncLogin("failed")
			return nil, ErrInvalidCredentials
		}
		s.metrics.IncLogin("error")
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	ok, err := s.verifyPassword(password, user.PasswordHash)
	if err != nil {
		s.metrics.IncLogin("error")
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLogin("failed")
		return nil, ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		s.metrics.IncLogin("error")
		return nil, err
	}

	s.metrics.IncLogin("success")
	return result, nil
}

// Me resolves a bearer token to the current user context.
func (s *AuthService) Me(ctx context.Context, token string) (*model.UserContext, error) {
	if token == "" {
		s.metrics.IncTokenRejected("missing")
		return nil, ErrMissingToken
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			s.metrics.IncTokenRejected("expired")
		} else {
			s.metrics.IncTokenRejected("invalid")
		}
		return nil, ErrInvalidToken
	}

	if s.cache != nil {
		cached, err := s.cache.GetUserContext(ctx, claims.UserID)
		if err != nil {
			s.logger.Warn("user cache read failed", "user_id", claims.UserID, "error", err)
		}
		if cached != nil {
			s.metrics.IncUserCacheHit()
			return s.confirmCached(ctx, claims.UserID, cached)
		}
		s.metrics.IncUserCacheMiss()
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.evict(ctx, claims.UserID)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	userCtx := user.ToContext()
	if s.cache != nil {
		if err := s.cache.SetUserContext(ctx, user.ID, &userCtx); err != nil {
			s.logger.Warn("user cache write failed", "user_id", user.ID, "error", err)
		}
	}

	return &userCtx, nil
}

// confirmCached returns a cached context only while the store still holds the user.
func (s *AuthService) confirmCached(ctx context.Context, userID int64, cached *model.UserContext) (*model.UserContext, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		s.evict(ctx, userID)
		return nil, ErrUserNotFound
	}
	return cached, nil
}

func (s *AuthService) evict(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteUserContext(ctx, userID); err != nil {
		s.logger.Warn("user cache delete failed", "user_id", userID, "error", err)
	}
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.metrics.IncTokenIssued()

	return &AuthResult{
		Token:       token,
		UserContext: user.ToContext(),
	}, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	start := time.Now()
	defer func() { s.metrics.ObservePasswordHashDuration(time.Since(start)) }()
	return s.hasher.Hash(password)
}

func (s *AuthService) verifyPassword(password, hash string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObservePasswordHashDuration(time.Since(start)) }()
	return s.hasher.Verify(password, hash)
}

// dummy returns a valid hash used to equalize login timing for unknown emails.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("authgate-dummy-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
