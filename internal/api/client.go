// Package api wraps the tour backend's REST interface. Every call carries the
// stored bearer token and a request id; every failure comes back as an *Error
// with a user-facing message. A 401 response ends the local session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/tourtrack/internal/credstore"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/internal/router"
	"github.com/me/tourtrack/pkg/model"
)

// RequestIDHeader is set on every outgoing request.
const RequestIDHeader = "X-Request-ID"

// Notifier receives user-facing warnings raised by the client.
type Notifier interface {
	Warning(message string) int
}

// Navigator is the part of the router the client needs to send the user back
// to the login view.
type Navigator interface {
	CurrentPath() string
	Redirect(path string)
}

// Client talks to the tour backend.
type Client struct {
	httpClient *http.Client
	config     Config
	creds      credstore.Store
	logger     *slog.Logger

	mu        sync.RWMutex
	notifier  Notifier
	navigator Navigator
	onExpired []func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is
// overwritten by Config.Timeout when that is non-zero.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithNotifier sets the sink for session-expired warnings.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithNavigator sets the router used for the login redirect.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// NewClient creates a client reading its token from creds.
func NewClient(config Config, creds credstore.Store, logger *slog.Logger, opts ...Option) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		httpClient: &http.Client{},
		config:     config,
		creds:      creds,
		logger:     logging.Component(logger, "api-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if config.Timeout > 0 {
		c.httpClient.Timeout = config.Timeout
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// OnExpired registers fn to run whenever the backend rejects the token.
// Listeners run before the login redirect.
func (c *Client) OnExpired(fn func()) {
	c.mu.Lock()
	c.onExpired = append(c.onExpired, fn)
	c.mu.Unlock()
}

// FilePart is one file in a multipart upload.
type FilePart struct {
	Name   string
	Reader io.Reader
}

// Request describes one backend call. At most one of JSON, Form and Files
// is used as the body, in that order.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	JSON any
	Form url.Values

	// FileField is the multipart field name for Files.
	FileField string
	Files     []FilePart
}

// Do executes req and decodes a JSON response body into out, if out is
// non-nil. op names the operation in errors and logs.
func (c *Client) Do(ctx context.Context, op string, req Request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return unknownError(op, err)
	}
	c.authorize(ctx, httpReq)

	requestID := httpReq.Header.Get(RequestIDHeader)
	logger := c.logger.With("op", op, "method", req.Method, "path", req.Path, "request_id", requestID)
	logger.Debug("HTTP request")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		apiErr := transportError(op, err)
		logger.Debug("HTTP request failed", "kind", apiErr.Kind, "error", err)
		return apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	logger.Debug("HTTP response", "status", resp.StatusCode, "duration", time.Since(start))

	// An error status is handled even when its body is cut short; the
	// status alone decides whether the session ends.
	if resp.StatusCode >= 400 {
		if err != nil {
			logger.Debug("read error body", "error", err)
			body = nil
		}
		return c.handleFailure(ctx, op, resp.StatusCode, body)
	}
	if err != nil {
		return transportError(op, fmt.Errorf("read response: %w", err))
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return unknownError(op, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := c.config.BaseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case len(req.Files) > 0:
		buf, ct, err := encodeMultipart(req.FileField, req.Files)
		if err != nil {
			return nil, err
		}
		body = buf
		contentType = ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	return httpReq, nil
}

func encodeMultipart(field string, files []FilePart) (*bytes.Buffer, string, error) {
	if field == "" {
		field = "file"
	}
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// authorize attaches the stored bearer token, if any.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.creds == nil {
		return
	}
	if token := credstore.Lookup(ctx, c.creds, credstore.TokenKey); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// handleFailure turns an error response into an *Error. A 401 also ends the
// session: the token is dropped, expiry listeners run, and unless the user
// is already on the login view a warning is raised and the navigator is
// sent to login.
func (c *Client) handleFailure(ctx context.Context, op string, status int, body []byte) error {
	apiErr := statusError(op, status, model.ParseErrorBody(body))
	if status != http.StatusUnauthorized {
		return apiErr
	}

	apiErr.Message = MsgSessionExpired
	c.expireSession(context.WithoutCancel(ctx))
	return apiErr
}

func (c *Client) expireSession(ctx context.Context) {
	if c.creds != nil {
		if err := c.creds.Delete(ctx, credstore.TokenKey); err != nil {
			c.logger.Warn("drop expired token", "error", err)
		}
	}

	c.mu.RLock()
	listeners := append([]func(){}, c.onExpired...)
	notifier, navigator := c.notifier, c.navigator
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}

	if navigator == nil || navigator.CurrentPath() == router.LoginPath {
		return
	}
	c.logger.Info("session expired, redirecting to login", "from", navigator.CurrentPath())
	if notifier != nil {
		notifier.Warning(MsgSessionExpired)
	}
	navigator.Redirect(router.LoginPath)
}
