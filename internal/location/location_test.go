package location

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/tourtrack/internal/logging"
)

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (p *countingProvider) Position(ctx context.Context) (Position, error) {
	n := p.calls.Add(1)
	if p.err != nil {
		return Position{}, p.err
	}
	return Position{Latitude: float64(n), Longitude: 11}, nil
}

type slowProvider struct{}

func (slowProvider) Position(ctx context.Context) (Position, error) {
	<-ctx.Done()
	return Position{}, ctx.Err()
}

func TestHaversine(t *testing.T) {
	munich := Position{Latitude: 48.1374, Longitude: 11.5755}
	berlin := Position{Latitude: 52.5200, Longitude: 13.4050}

	assert.Zero(t, Haversine(munich, munich))
	d := Haversine(munich, berlin)
	assert.InDelta(t, 504, d, 5, "Munich-Berlin distance")
	assert.InDelta(t, d, Haversine(berlin, munich), 1e-9)
	assert.False(t, math.IsNaN(d))
}

func TestWatch_DeliversUntilStopped(t *testing.T) {
	p := &countingProvider{}
	w := NewWatcher(p, logging.Discard())

	var got atomic.Int32
	sub, err := w.Watch(context.Background(), 5*time.Millisecond, func(Position) { got.Add(1) }, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return got.Load() >= 3 }, time.Second, time.Millisecond)
	sub.Stop()

	after := got.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, got.Load(), "callback ran after Stop")

	// Stopping twice is safe.
	sub.Stop()
}

func TestWatch_ReportsErrors(t *testing.T) {
	p := &countingProvider{err: ErrPermissionDenied}
	w := NewWatcher(p, logging.Discard())

	errs := make(chan error, 10)
	sub, err := w.Watch(context.Background(), time.Hour, func(Position) {
		t.Error("unexpected position")
	}, func(err error) { errs <- err })
	require.NoError(t, err)
	defer sub.Stop()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrPermissionDenied)
	case <-time.After(time.Second):
		t.Fatal("no error delivered")
	}
}

func TestWatch_EndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := NewWatcher(&countingProvider{}, logging.Discard()).Watch(ctx, time.Millisecond, func(Position) {}, nil)
	require.NoError(t, err)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("watch did not end with its context")
	}
	sub.Stop()
}

func TestWatch_RejectsNonPositiveInterval(t *testing.T) {
	p := &countingProvider{}
	w := NewWatcher(p, logging.Discard())

	for _, interval := range []time.Duration{0, -time.Second} {
		sub, err := w.Watch(context.Background(), interval, func(Position) {}, nil)
		assert.ErrorIs(t, err, ErrInvalidInterval, "interval %s", interval)
		assert.Nil(t, sub)
	}
	assert.Zero(t, p.calls.Load(), "provider consulted for a rejected watch")
}

func TestCurrent_Timeout(t *testing.T) {
	w := NewWatcher(slowProvider{}, logging.Discard())
	w.timeout = 10 * time.Millisecond

	_, err := w.Current(context.Background())
	assert.True(t, errors.Is(err, ErrTimeout), "err = %v", err)
}

func TestStaticProvider(t *testing.T) {
	pos, err := StaticProvider{Latitude: 1, Longitude: 2}.Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos.Latitude)
	assert.Equal(t, 2.0, pos.Longitude)
}
