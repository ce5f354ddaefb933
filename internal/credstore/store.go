// Package credstore persists the client's small key/value state across runs:
// the bearer token and the UI theme preference.
package credstore

import (
	"context"
	"errors"
	"time"
)

// Well-known keys.
const (
	TokenKey = "token"
	ThemeKey = "theme"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("credstore: key not found")

// Store is a persistent string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// UpdatedAt reports when key was last written.
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
	Close() error
}

// Lookup returns the value for key, or "" if it is missing or unreadable.
func Lookup(ctx context.Context, s Store, key string) string {
	v, err := s.Get(ctx, key)
	if err != nil {
		return ""
	}
	return v
}
