// Package location provides the user's position, either once or as a
// long-lived watch that must be stopped explicitly.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/me/tourtrack/internal/logging"
)

// Position lookup failures.
var (
	ErrPermissionDenied = errors.New("location access was denied")
	ErrUnavailable      = errors.New("location is not available")
	ErrTimeout          = errors.New("timed out determining location")
)

// ErrInvalidInterval is returned by Watch for a non-positive interval.
var ErrInvalidInterval = errors.New("location: watch interval must be positive")

// DefaultTimeout bounds a single position lookup.
const DefaultTimeout = 10 * time.Second

const earthRadiusKm = 6371.0

// Position is a point on the earth.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Provider yields the current position.
type Provider interface {
	Position(ctx context.Context) (Position, error)
}

// StaticProvider always reports the same point.
type StaticProvider struct {
	Latitude  float64
	Longitude float64
}

// Position implements Provider.
func (p StaticProvider) Position(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{Latitude: p.Latitude, Longitude: p.Longitude, Timestamp: time.Now()}, nil
}

// Watcher polls a Provider.
type Watcher struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a Watcher over p.
func NewWatcher(p Provider, logger *slog.Logger) *Watcher {
	return &Watcher{provider: p, timeout: DefaultTimeout, logger: logging.Component(logger, "location")}
}

// Current performs one lookup bounded by DefaultTimeout.
func (w *Watcher) Current(ctx context.Context) (Position, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	pos, err := w.provider.Position(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return Position{}, ErrTimeout
	}
	return pos, err
}

// Watch looks up the position immediately and then every interval, calling
// fn with each position and errFn (if non-nil) with each failure. The
// watch runs until ctx is done or the returned Subscription is stopped.
func (w *Watcher) Watch(ctx context.Context, interval time.Duration, fn func(Position), errFn func(error)) (*Subscription, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			pos, err := w.Current(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				w.logger.Debug("position lookup failed", "error", err)
				if errFn != nil {
					errFn(err)
				}
			} else {
				fn(pos)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	w.logger.Debug("watch started", "interval", interval)
	return sub, nil
}

// Subscription is a running watch.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop ends the watch and waits for its goroutine to exit. No callback runs
// after Stop returns. Calling Stop more than once is safe.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the watch has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b Position) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
