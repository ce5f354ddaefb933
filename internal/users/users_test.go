package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/tourtrack/internal/api"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/internal/notify"
	"github.com/me/tourtrack/pkg/model"
)

type fakeBackend struct {
	users    []model.User
	err      error
	avatar   string
	lastMail string
}

func (f *fakeBackend) ListUsers(context.Context) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeBackend) UpdateUserStatus(_ context.Context, username string, status model.UserStatus) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.User{Username: username, Status: status}, nil
}

func (f *fakeBackend) DeleteUser(context.Context, string) error { return f.err }

func (f *fakeBackend) Me(context.Context) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.User{Username: "alice", Email: "a@example.com"}, nil
}

func (f *fakeBackend) UpdateMe(_ context.Context, u model.ProfileUpdate) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.User{Username: "alice", Email: u.Email}, nil
}

func (f *fakeBackend) UploadAvatar(_ context.Context, file api.FilePart) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.avatar = file.Name
	return &model.User{Username: "alice", AvatarURL: "/avatars/" + file.Name}, nil
}

func (f *fakeBackend) RequestVerification(_ context.Context, email string) error {
	f.lastMail = email
	return f.err
}

func (f *fakeBackend) RequestPasswordReset(_ context.Context, email string) error {
	f.lastMail = email
	return f.err
}

func (f *fakeBackend) ResetPassword(context.Context, string, string) error { return f.err }

func (f *fakeBackend) VerifyEmail(context.Context, string) error { return f.err }

func messages(n *notify.Store) []string {
	var out []string
	for _, item := range n.List() {
		out = append(out, string(item.Kind)+":"+item.Message)
	}
	return out
}

var serverErr = &api.Error{Op: "x", Kind: api.KindServer, Status: 500, Message: "boom"}

func testUsers() []model.User {
	return []model.User{
		{Username: "alice", Role: model.RoleAdmin, Status: model.StatusActive},
		{Username: "bob", Role: model.RoleUser, Status: model.StatusPending},
		{Username: "carol", Role: model.RoleUser, Status: model.StatusPending},
	}
}

func TestFetchUsers(t *testing.T) {
	n := notify.New()
	s := New(&fakeBackend{users: testUsers()}, n, logging.Discard())

	got := s.FetchUsers(context.Background())
	assert.Len(t, got, 3)
	assert.Len(t, s.Pending(), 2)
	assert.Empty(t, n.List())
}

func TestFetchUsers_FailureReturnsEmptyList(t *testing.T) {
	n := notify.New()
	s := New(&fakeBackend{err: serverErr}, n, logging.Discard())

	got := s.FetchUsers(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, "boom", s.Err())
	assert.Equal(t, []string{"error:Failed to load users"}, messages(n))
}

func TestUpdateUserStatus(t *testing.T) {
	n := notify.New()
	backend := &fakeBackend{users: testUsers()}
	s := New(backend, n, logging.Discard())
	s.FetchUsers(context.Background())

	u, err := s.UpdateUserStatus(context.Background(), "bob", model.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, u.Status)
	assert.Len(t, s.Pending(), 1)
	assert.Equal(t, []string{"success:User bob status updated to active"}, messages(n))

	backend.err = serverErr
	_, err = s.UpdateUserStatus(context.Background(), "carol", model.StatusActive)
	require.Error(t, err)
	assert.Contains(t, messages(n), "error:Failed to update user status")
	assert.False(t, s.Loading())
}

func TestDeleteUser(t *testing.T) {
	n := notify.New()
	s := New(&fakeBackend{users: testUsers()}, n, logging.Discard())
	s.FetchUsers(context.Background())

	require.NoError(t, s.DeleteUser(context.Background(), "carol"))
	for _, u := range s.Users() {
		assert.NotEqual(t, "carol", u.Username)
	}
	assert.Equal(t, []string{"success:User carol has been deleted"}, messages(n))
}

func TestProfileOperations(t *testing.T) {
	n := notify.New()
	backend := &fakeBackend{}
	s := New(backend, n, logging.Discard())
	ctx := context.Background()

	u, err := s.FetchProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	u, err = s.UpdateProfile(ctx, model.ProfileUpdate{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)

	u, err = s.UploadAvatar(ctx, api.FilePart{Name: "me.png", Reader: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "me.png", backend.avatar)
	assert.Equal(t, "/avatars/me.png", u.AvatarURL)

	assert.Equal(t, []string{
		"success:Profile updated successfully",
		"success:Avatar uploaded successfully",
	}, messages(n))

	backend.err = serverErr
	_, err = s.FetchProfile(ctx)
	require.Error(t, err)
	assert.Contains(t, messages(n), "error:Failed to load profile")
}

func TestAccountEmails(t *testing.T) {
	tests := []struct {
		name    string
		call    func(s *Store) error
		success string
		failure string
	}{
		{"request verification", func(s *Store) error {
			return s.RequestEmailVerification(context.Background(), "a@example.com")
		}, "Verification email sent", "Failed to send verification email"},
		{"request reset", func(s *Store) error {
			return s.RequestPasswordReset(context.Background(), "a@example.com")
		}, "Password reset email sent", "Failed to send password reset email"},
		{"reset password", func(s *Store) error {
			return s.ResetPassword(context.Background(), "tok", "new")
		}, "Password reset successfully", "Failed to reset password"},
		{"verify email", func(s *Store) error {
			return s.VerifyEmail(context.Background(), "tok")
		}, "Email verified successfully", "Failed to verify email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := notify.New()
			require.NoError(t, tt.call(New(&fakeBackend{}, n, logging.Discard())))
			assert.Equal(t, []string{"success:" + tt.success}, messages(n))

			n = notify.New()
			require.Error(t, tt.call(New(&fakeBackend{err: serverErr}, n, logging.Discard())))
			assert.Equal(t, []string{"error:" + tt.failure}, messages(n))
		})
	}
}
