// Package users manages accounts (admin) and the signed-in user's profile.
// Every operation reports its result to the notifier.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/me/tourtrack/internal/api"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/pkg/model"
)

// Backend is the subset of the API client the store needs.
type Backend interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserStatus(ctx context.Context, username string, status model.UserStatus) (*model.User, error)
	DeleteUser(ctx context.Context, username string) error
	Me(ctx context.Context) (*model.User, error)
	UpdateMe(ctx context.Context, update model.ProfileUpdate) (*model.User, error)
	UploadAvatar(ctx context.Context, file api.FilePart) (*model.User, error)
	RequestVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
}

// Notifier receives operation results.
type Notifier interface {
	Success(message string) int
	Error(message string) int
}

// Store keeps the last fetched account list.
type Store struct {
	backend  Backend
	notifier Notifier
	logger   *slog.Logger

	mu      sync.RWMutex
	users   []model.User
	errMsg  string
	loading int
}

// New creates a Store.
func New(backend Backend, notifier Notifier, logger *slog.Logger) *Store {
	return &Store{
		backend:  backend,
		notifier: notifier,
		logger:   logging.Component(logger, "users"),
	}
}

// FetchUsers loads all accounts. On failure it notifies, records the error
// and returns an empty list rather than an error.
func (s *Store) FetchUsers(ctx context.Context) []model.User {
	s.track(1)
	defer s.track(-1)

	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		s.fail("fetch users", err)
		s.notifier.Error("Failed to load users")
		return []model.User{}
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	s.logger.Debug("users loaded", "count", len(users))
	return slices.Clone(users)
}

// UpdateUserStatus sets an account's status and updates the held list.
func (s *Store) UpdateUserStatus(ctx context.Context, username string, status model.UserStatus) (*model.User, error) {
	s.track(1)
	defer s.track(-1)

	updated, err := s.backend.UpdateUserStatus(ctx, username, status)
	if err != nil {
		s.fail("update user status", err)
		s.notifier.Error("Failed to update user status")
		return nil, err
	}

	s.mu.Lock()
	if i := s.indexOf(username); i >= 0 {
		s.users[i] = *updated
	}
	s.mu.Unlock()
	s.notifier.Success(fmt.Sprintf("User %s status updated to %s", username, status))
	return updated, nil
}

// DeleteUser removes an account and drops it from the held list.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	s.track(1)
	defer s.track(-1)

	if err := s.backend.DeleteUser(ctx, username); err != nil {
		s.fail("delete user", err)
		s.notifier.Error("Failed to delete user")
		return err
	}

	s.mu.Lock()
	s.users = slices.DeleteFunc(s.users, func(u model.User) bool { return u.Username == username })
	s.mu.Unlock()
	s.notifier.Success(fmt.Sprintf("User %s has been deleted", username))
	return nil
}

// FetchProfile loads the signed-in user's profile.
func (s *Store) FetchProfile(ctx context.Context) (*model.User, error) {
	u, err := s.backend.Me(ctx)
	if err != nil {
		s.notifier.Error("Failed to load profile")
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes the signed-in user's email and/or password.
func (s *Store) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	s.track(1)
	defer s.track(-1)

	u, err := s.backend.UpdateMe(ctx, update)
	if err != nil {
		s.notifier.Error("Failed to update profile")
		return nil, err
	}
	s.notifier.Success("Profile updated successfully")
	return u, nil
}

// UploadAvatar replaces the signed-in user's avatar.
func (s *Store) UploadAvatar(ctx context.Context, file api.FilePart) (*model.User, error) {
	s.track(1)
	defer s.track(-1)

	u, err := s.backend.UploadAvatar(ctx, file)
	if err != nil {
		s.notifier.Error("Failed to upload avatar")
		return nil, err
	}
	s.notifier.Success("Avatar uploaded successfully")
	return u, nil
}

// RequestEmailVerification asks for a verification email.
func (s *Store) RequestEmailVerification(ctx context.Context, email string) error {
	s.track(1)
	defer s.track(-1)
	return s.report(s.backend.RequestVerification(ctx, email),
		"Verification email sent", "Failed to send verification email")
}

// RequestPasswordReset asks for a password reset email.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	return s.report(s.backend.RequestPasswordReset(ctx, email),
		"Password reset email sent", "Failed to send password reset email")
}

// ResetPassword sets a new password with a reset token.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.report(s.backend.ResetPassword(ctx, token, newPassword),
		"Password reset successfully", "Failed to reset password")
}

// VerifyEmail confirms an email address with a verification token.
func (s *Store) VerifyEmail(ctx context.Context, token string) error {
	return s.report(s.backend.VerifyEmail(ctx, token),
		"Email verified successfully", "Failed to verify email")
}

// Users returns a copy of the held account list.
func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// Pending returns the held accounts awaiting approval.
func (s *Store) Pending() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.User
	for _, u := range s.users {
		if u.IsPending() {
			out = append(out, u)
		}
	}
	return out
}

// Err returns the message of the last failed account operation, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Loading reports whether an operation is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

func (s *Store) report(err error, ok, failed string) error {
	if err != nil {
		s.logger.Info(failed, "error", err)
		s.notifier.Error(failed)
		return err
	}
	s.notifier.Success(ok)
	return nil
}

func (s *Store) track(delta int) {
	s.mu.Lock()
	s.loading += delta
	s.mu.Unlock()
}

func (s *Store) fail(op string, err error) {
	s.mu.Lock()
	s.errMsg = api.MessageOf(err)
	s.mu.Unlock()
	s.logger.Warn(op+" failed", "error", err)
}

// indexOf returns the position of username in s.users, or -1. Callers hold mu.
func (s *Store) indexOf(username string) int {
	return slices.IndexFunc(s.users, func(u model.User) bool { return u.Username == username })
}
