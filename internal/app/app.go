// Package app wires the client's stores together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/me/tourtrack/internal/api"
	"github.com/me/tourtrack/internal/config"
	"github.com/me/tourtrack/internal/credstore"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/internal/notify"
	"github.com/me/tourtrack/internal/router"
	"github.com/me/tourtrack/internal/session"
	"github.com/me/tourtrack/internal/theme"
	"github.com/me/tourtrack/internal/tours"
	"github.com/me/tourtrack/internal/users"
)

// App owns every store of a running client.
type App struct {
	Config config.ClientConfig
	Logger *slog.Logger

	Creds   credstore.Store
	Notify  *notify.Store
	Routes  *router.Table
	Nav     *router.Navigator
	Client  *api.Client
	Session *session.Store
	Tours   *tours.Store
	Users   *users.Store
	Theme   *theme.Store
}

type options struct {
	creds      credstore.Store
	httpClient *http.Client
	notifyOpts []notify.Option
}

// Option customises New.
type Option func(*options)

// WithCredStore uses s instead of opening the configured store.
func WithCredStore(s credstore.Store) Option {
	return func(o *options) { o.creds = s }
}

// WithHTTPClient passes hc to the API client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithNotifyOptions configures the notification store.
func WithNotifyOptions(opts ...notify.Option) Option {
	return func(o *options) { o.notifyOpts = append(o.notifyOpts, opts...) }
}

// New builds an App from cfg and restores any persisted session.
//
// A 401 from any API call drops the stored token, logs the session out,
// raises a warning and sends the navigator to the login view.
func New(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	creds := o.creds
	switch {
	case creds != nil:
	case cfg.Ephemeral:
		creds = credstore.NewMemoryStore()
	default:
		st, err := credstore.OpenSQLite(ctx, cfg.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open credential store: %w", err)
		}
		creds = st
	}

	notifications := notify.New(o.notifyOpts...)
	table := router.NewTable(router.DefaultRoutes)
	nav := router.NewNavigator(table, logger)

	clientOpts := []api.Option{api.WithNotifier(notifications), api.WithNavigator(nav)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	client := api.NewClient(api.Config{BaseURL: cfg.Server, Timeout: cfg.Timeout}, creds, logger, clientOpts...)

	sess := session.New(client, creds, logger)
	client.OnExpired(func() { sess.Logout(true) })
	nav.Attach(sess)

	if err := sess.Restore(ctx); err != nil {
		creds.Close()
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Creds:   creds,
		Notify:  notifications,
		Routes:  table,
		Nav:     nav,
		Client:  client,
		Session: sess,
		Tours:   tours.New(client, logger),
		Users:   users.New(client, notifications, logger),
		Theme:   theme.Load(ctx, creds, logger),
	}
	logger.Debug("app ready", "server", client.BaseURL(), "authenticated", sess.IsAuthenticated())
	return a, nil
}

// Navigate enters path through the route guard. For admin-only views the
// user profile is loaded first so the guard can see the role.
func (a *App) Navigate(ctx context.Context, path string) (router.Match, error) {
	if m, ok := a.Routes.Resolve(path); ok && m.Route.RequiresAdmin &&
		a.Session.IsAuthenticated() && a.Session.User() == nil {
		if _, err := a.Session.FetchUser(ctx); err != nil {
			a.Logger.Debug("load user before navigation", "path", path, "error", err)
		}
	}
	return a.Nav.Push(path)
}

// Close releases the credential store.
func (a *App) Close() error {
	return a.Creds.Close()
}
