package api

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/me/tourtrack/pkg/model"
)

// Token exchanges username and password for a bearer token using the
// OAuth2 password grant on POST /token. The exchange does not go through
// Do: no stored token is attached and a 401 here does not end the session.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	const op = "token"

	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.config.BaseURL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	c.logger.Debug("token request", "username", username)
	tok, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			c.logger.Debug("token request rejected", "status", re.Response.StatusCode)
			return "", statusError(op, re.Response.StatusCode, model.ParseErrorBody(re.Body))
		}
		return "", transportError(op, err)
	}
	return tok.AccessToken, nil
}

// Register creates a new account pending admin approval.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	var u model.User
	err := c.Do(ctx, "register", Request{Method: http.MethodPost, Path: "/api/auth/register", JSON: reg}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword changes the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	return c.Do(ctx, "change password", Request{Method: http.MethodPost, Path: "/api/auth/change-password", JSON: change}, nil)
}

// RequestVerification asks the backend to send a verification email.
func (c *Client) RequestVerification(ctx context.Context, email string) error {
	return c.Do(ctx, "request verification", Request{
		Method: http.MethodPost,
		Path:   "/request-verification",
		JSON:   model.EmailRequest{Email: email},
	}, nil)
}

// RequestPasswordReset asks the backend to send a password reset email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.Do(ctx, "request password reset", Request{
		Method: http.MethodPost,
		Path:   "/request-password-reset",
		JSON:   model.EmailRequest{Email: email},
	}, nil)
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.Do(ctx, "reset password", Request{
		Method: http.MethodPost,
		Path:   "/reset-password",
		JSON:   model.PasswordReset{Token: token, NewPassword: newPassword},
	}, nil)
}

// VerifyEmail confirms an email address using a verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.Do(ctx, "verify email", Request{
		Method: http.MethodPost,
		Path:   "/verify-email",
		JSON:   model.TokenRequest{Token: token},
	}, nil)
}
