// Package session holds the authenticated user's token and profile and
// keeps them in step with the credential store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/me/tourtrack/internal/api"
	"github.com/me/tourtrack/internal/credstore"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/pkg/model"
)

// ErrNotAuthenticated is returned when an operation needs a token and none
// is held.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Outcome messages.
const (
	MsgLoggedIn           = "Login successful"
	MsgPendingApproval    = "Your account is pending approval by an administrator."
	MsgInvalidCredentials = "Invalid username or password"
	MsgRegistered         = "Registration successful! Please wait for admin approval."
	MsgPasswordChanged    = "Password changed successfully"
)

// Backend is the subset of the API client the session needs.
type Backend interface {
	Token(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context) (*model.User, error)
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	ChangePassword(ctx context.Context, change model.PasswordChange) error
}

// Store is the session store. It is safe for concurrent use.
type Store struct {
	backend Backend
	creds   credstore.Store
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	token string
	user  *model.User
}

// New creates a Store. Call Restore to pick up a token from a previous run.
func New(backend Backend, creds credstore.Store, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		creds:   creds,
		logger:  logging.Component(logger, "session"),
		now:     time.Now,
	}
}

// Restore loads the persisted token. A JWT whose exp claim has passed is
// discarded instead of restored.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.creds.Get(ctx, credstore.TokenKey)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	if exp, ok := tokenExpiry(token); ok && !exp.After(s.now()) {
		s.logger.Info("stored token expired, discarding", "expired_at", exp)
		if err := s.creds.Delete(ctx, credstore.TokenKey); err != nil {
			return fmt.Errorf("discard expired token: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.logger.Debug("session restored")
	return nil
}

// Login exchanges credentials for a token, persists it and loads the user.
// Failures are reported in the Outcome, never as an error.
func (s *Store) Login(ctx context.Context, username, password string) model.Outcome {
	token, err := s.backend.Token(ctx, username, password)
	if err != nil {
		s.logger.Info("login failed", "username", username, "error", err)
		if api.StatusOf(err) == http.StatusForbidden &&
			strings.Contains(strings.ToLower(api.MessageOf(err)), "pending") {
			return model.Failed(MsgPendingApproval)
		}
		return model.Failed(MsgInvalidCredentials)
	}

	if err := s.creds.Set(ctx, credstore.TokenKey, token); err != nil {
		s.logger.Error("persist token", "error", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if _, err := s.FetchUser(ctx); err != nil {
		return model.Failed(api.MessageOf(err))
	}
	s.logger.Info("logged in", "username", username)
	return model.Succeeded(MsgLoggedIn)
}

// FetchUser loads the current user. Any failure ends the session and is
// returned to the caller.
func (s *Store) FetchUser(ctx context.Context) (*model.User, error) {
	if !s.IsAuthenticated() {
		s.Logout(false)
		return nil, ErrNotAuthenticated
	}

	u, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.Warn("fetch user failed", "error", err)
		s.Logout(false)
		return nil, err
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return u, nil
}

// Logout clears the session and the persisted token. expired only changes
// what gets logged.
func (s *Store) Logout(expired bool) {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.creds.Delete(context.Background(), credstore.TokenKey); err != nil {
		s.logger.Error("delete token", "error", err)
	}

	switch {
	case expired:
		s.logger.Info("session expired")
	case had:
		s.logger.Info("logged out")
	}
}

// Register creates an account. Errors carry the backend's detail message.
func (s *Store) Register(ctx context.Context, reg model.Registration) (model.Outcome, error) {
	if _, err := s.backend.Register(ctx, reg); err != nil {
		s.logger.Info("registration failed", "username", reg.Username, "error", err)
		return model.Failed(api.MessageOf(err)), err
	}
	s.logger.Info("registered", "username", reg.Username)
	return model.Succeeded(MsgRegistered), nil
}

// ChangePassword changes the user's password. Failures are reported in the
// Outcome.
func (s *Store) ChangePassword(ctx context.Context, current, next string) model.Outcome {
	err := s.backend.ChangePassword(ctx, model.PasswordChange{CurrentPassword: current, NewPassword: next})
	if err != nil {
		s.logger.Info("password change failed", "error", err)
		return model.Failed(api.MessageOf(err))
	}
	return model.Succeeded(MsgPasswordChanged)
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// IsAdmin reports whether the loaded user has the admin role.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.IsAdmin()
}

// User returns a copy of the loaded user, or nil.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the held token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// TokenExpiry returns the exp claim of the held token if it is a JWT
// carrying one.
func (s *Store) TokenExpiry() (time.Time, bool) {
	return tokenExpiry(s.Token())
}

// tokenExpiry reads exp without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
