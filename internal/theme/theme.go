// Package theme persists the light/dark display preference.
package theme

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/me/tourtrack/internal/credstore"
	"github.com/me/tourtrack/internal/logging"
)

// Theme is a display preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse validates s as a Theme.
func Parse(s string) (Theme, bool) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), true
	}
	return "", false
}

// Color is the accent color used for the theme-color hint.
func (t Theme) Color() string {
	if t == Dark {
		return "#1a1a1a"
	}
	return "#3498db"
}

// Store holds the current theme, backed by the credential store.
type Store struct {
	creds  credstore.Store
	logger *slog.Logger

	mu      sync.RWMutex
	current Theme
}

// Load creates a Store initialised from the persisted preference. Missing or
// unknown values fall back to Light.
func Load(ctx context.Context, creds credstore.Store, logger *slog.Logger) *Store {
	s := &Store{creds: creds, logger: logging.Component(logger, "theme"), current: Light}
	if t, ok := Parse(credstore.Lookup(ctx, creds, credstore.ThemeKey)); ok {
		s.current = t
	}
	return s
}

// Current returns the active theme.
func (s *Store) Current() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Toggle switches between light and dark and persists the result.
func (s *Store) Toggle(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Dark
	if s.current == Dark {
		next = Light
	}
	if err := s.set(ctx, next); err != nil {
		return s.current, err
	}
	return next, nil
}

// Set makes t the active theme and persists it.
func (s *Store) Set(ctx context.Context, t Theme) error {
	if _, ok := Parse(string(t)); !ok {
		return fmt.Errorf("unknown theme %q", t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(ctx, t)
}

// set persists t and updates current. Callers hold mu.
func (s *Store) set(ctx context.Context, t Theme) error {
	if err := s.creds.Set(ctx, credstore.ThemeKey, string(t)); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	s.current = t
	s.logger.Debug("theme changed", "theme", t)
	return nil
}
