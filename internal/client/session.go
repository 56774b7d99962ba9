package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/authgate/authgate/internal/handler/dto"
	"github.com/authgate/authgate/internal/model"
)

// API is the subset of Client a Session needs.
type API interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, token string) (*model.UserContext, error)
}

// EstablishHook runs after a session is established.
type EstablishHook func(ctx context.Context, user *model.UserContext)

// ClearHook runs after a session is cleared.
type ClearHook func()

// Session holds at most one authenticated user and keeps the token store in sync.
type Session struct {
	api    API
	store  TokenStore
	logger *slog.Logger

	onEstablish EstablishHook
	onClear     ClearHook

	mu    sync.Mutex
	token string
	user  *model.UserContext
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// OnEstablish registers the hook called after login, register or restore.
func OnEstablish(hook EstablishHook) SessionOption {
	return func(s *Session) {
		s.onEstablish = hook
	}
}

// OnClear registers the hook called after logout or a failed restore.
func OnClear(hook ClearHook) SessionOption {
	return func(s *Session) {
		s.onClear = hook
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates an empty Session.
func NewSession(api API, store TokenStore, opts ...SessionOption) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Session{
		api:    api,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rehydrates the session from the stored token and reports whether a
// user is now present. Any failure clears the stored token silently.
func (s *Session) Restore(ctx context.Context) bool {
	token, err := s.store.Load()
	if err != nil {
		s.logger.Debug("stored token unreadable", "error", err)
		s.Clear()
		return false
	}
	if token == "" {
		return false
	}

	user, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Debug("stored token rejected", "error", err)
		s.Clear()
		return false
	}

	if err := s.Establish(ctx, token, user); err != nil {
		s.logger.Debug("restore failed", "error", err)
		s.Clear()
		return false
	}
	return true
}

// Login authenticates and establishes the session.
// On failure the session is unchanged.
func (s *Session) Login(ctx context.Context, email, password string) (*model.UserContext, error) {
	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.Establish(ctx, result.Token, &result.UserContext); err != nil {
		return nil, err
	}
	return &result.UserContext, nil
}

// Register creates an account and establishes the session.
// On failure the session is unchanged.
func (s *Session) Register(ctx context.Context, req dto.RegisterRequest) (*model.UserContext, error) {
	result, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Establish(ctx, result.Token, &result.UserContext); err != nil {
		return nil, err
	}
	return &result.UserContext, nil
}

// Establish persists token, sets the current user and runs the OnEstablish hook.
func (s *Session) Establish(ctx context.Context, token string, user *model.UserContext) error {
	if err := s.store.Save(token); err != nil {
		return err
	}

	copied := *user
	s.mu.Lock()
	s.token = token
	s.user = &copied
	s.mu.Unlock()

	if s.onEstablish != nil {
		s.onEstablish(ctx, &copied)
	}
	return nil
}

// Clear drops the session and stored token, then runs the OnClear hook.
func (s *Session) Clear() {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear stored token", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if s.onClear != nil {
		s.onClear()
	}
}

// Logout ends the session.
func (s *Session) Logout() {
	s.Clear()
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *model.UserContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

// Token returns the current token, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether a user is present.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}
