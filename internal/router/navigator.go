package router

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/me/tourtrack/internal/logging"
)

// maxRedirects bounds guard redirect chains.
const maxRedirects = 5

var (
	// ErrUnknownRoute is returned for paths outside the route table.
	ErrUnknownRoute = errors.New("router: unknown route")
	// ErrRedirectLoop is returned when guard redirects do not settle.
	ErrRedirectLoop = errors.New("router: too many redirects")
)

// Navigator tracks the current view and runs the guard on navigation.
type Navigator struct {
	mu      sync.Mutex
	table   *Table
	guard   Guard
	session SessionView
	current *Match
	history []string
	logger  *slog.Logger
}

// NewNavigator creates a Navigator with no current view.
func NewNavigator(table *Table, logger *slog.Logger) *Navigator {
	return &Navigator{table: table, logger: logging.Component(logger, "router")}
}

// Attach sets the session consulted by the guard. Until then every
// navigation is treated as unauthenticated.
func (n *Navigator) Attach(s SessionView) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.session = s
}

// Push navigates to path, following guard redirects, and returns the view
// that was finally entered.
func (n *Navigator) Push(path string) (Match, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	target := path
	for i := 0; i <= maxRedirects; i++ {
		to, ok := n.table.Resolve(target)
		if !ok {
			return Match{}, fmt.Errorf("%w: %s", ErrUnknownRoute, target)
		}
		d := n.guard.Check(to, n.current, n.session)
		if d.Allow {
			n.enter(to)
			return to, nil
		}
		n.logger.Debug("navigation redirected", "from", target, "to", d.Redirect, "reason", d.Reason)
		target = d.Redirect
	}
	return Match{}, fmt.Errorf("%w: %s", ErrRedirectLoop, path)
}

// Redirect is Push for callers outside the view layer that cannot act on
// an error, such as the API client's session-expiry handling.
func (n *Navigator) Redirect(path string) {
	if _, err := n.Push(path); err != nil {
		n.logger.Warn("redirect failed", "path", path, "error", err)
	}
}

// CurrentPath returns the path of the current view, or "" before the first
// navigation.
func (n *Navigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return ""
	}
	return n.current.Path
}

// Current returns the current view.
func (n *Navigator) Current() (Match, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Match{}, false
	}
	return *n.current, true
}

// History returns the paths entered so far, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

// enter must be called with n.mu held.
func (n *Navigator) enter(m Match) {
	n.current = &m
	n.history = append(n.history, m.Path)
	n.logger.Debug("navigated", "path", m.Path, "route", m.Route.Name)
}
