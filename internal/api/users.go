package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/me/tourtrack/pkg/model"
)

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.Do(ctx, "get current user", Request{Method: http.MethodGet, Path: "/users/me"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe patches the authenticated user's profile.
func (c *Client) UpdateMe(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	var u model.User
	err := c.Do(ctx, "update profile", Request{Method: http.MethodPatch, Path: "/users/me", JSON: update}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UploadAvatar replaces the authenticated user's avatar image.
func (c *Client) UploadAvatar(ctx context.Context, file FilePart) (*model.User, error) {
	var u model.User
	req := Request{
		Method:    http.MethodPost,
		Path:      "/users/me/avatar",
		FileField: "file",
		Files:     []FilePart{file},
	}
	if err := c.Do(ctx, "upload avatar", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers fetches all accounts. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.Do(ctx, "list users", Request{Method: http.MethodGet, Path: "/api/users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserStatus sets an account's status. Admin only.
func (c *Client) UpdateUserStatus(ctx context.Context, username string, status model.UserStatus) (*model.User, error) {
	var u model.User
	req := Request{
		Method: http.MethodPatch,
		Path:   "/api/users/" + url.PathEscape(username) + "/status",
		JSON:   model.StatusUpdate{Status: status},
	}
	if err := c.Do(ctx, "update user status", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes an account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.Do(ctx, "delete user", Request{Method: http.MethodDelete, Path: "/api/users/" + url.PathEscape(username)}, nil)
}
