package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdd_IDsStrictlyIncreasing(t *testing.T) {
	s := New()
	a := s.Add("a", KindInfo, 0)
	b := s.Add("b", KindInfo, 0)
	s.Remove(b)
	c := s.Add("c", KindInfo, 0)

	require.Less(t, a, b)
	require.Less(t, b, c)

	items := s.List()
	require.Len(t, items, 2)
	require.Equal(t, "a", items[0].Message)
	require.Equal(t, "c", items[1].Message)
}

func TestAdd_NonPositiveTTLPersists(t *testing.T) {
	s := New()
	s.Add("stay", KindWarning, 0)
	s.Add("stay too", KindWarning, -time.Second)

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 2, s.Len())
}

func TestError_DefaultTTLExpires(t *testing.T) {
	s := New(WithDefaultTTL(KindError, 20*time.Millisecond))
	id := s.Error("x")

	items := s.List()
	require.Len(t, items, 1)
	require.Equal(t, KindError, items[0].Kind)
	require.Equal(t, 20*time.Millisecond, items[0].TTL)

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	// Removing an already-expired entry is a no-op.
	s.Remove(id)
	require.Equal(t, 0, s.Len())
}

func TestRemove_EarlyAndTwice(t *testing.T) {
	s := New()
	id := s.Error("x")
	s.Remove(id)
	require.Equal(t, 0, s.Len())
	s.Remove(id)
	s.Remove(12345)
	require.Equal(t, 0, s.Len())
}

func TestClearAll_WithPendingExpiry(t *testing.T) {
	s := New()
	s.Add("soon", KindInfo, 15*time.Millisecond)
	s.Add("later", KindInfo, time.Hour)
	s.ClearAll()
	require.Equal(t, 0, s.Len())

	keep := s.Add("after clear", KindInfo, 0)
	time.Sleep(40 * time.Millisecond)

	items := s.List()
	require.Len(t, items, 1)
	require.Equal(t, keep, items[0].ID)
}

func TestDefaultTTLs(t *testing.T) {
	s := New()
	s.Success("s")
	s.Error("e")
	s.Warning("w")
	s.Info("i")

	items := s.List()
	require.Len(t, items, 4)
	require.Equal(t, DefaultSuccessTTL, items[0].TTL)
	require.Equal(t, DefaultErrorTTL, items[1].TTL)
	require.Equal(t, DefaultWarningTTL, items[2].TTL)
	require.Equal(t, DefaultInfoTTL, items[3].TTL)
	require.Greater(t, DefaultErrorTTL, DefaultSuccessTTL)
	s.ClearAll()
}

func TestSubscribe(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return fixed }))

	var mu sync.Mutex
	var events []Event
	s.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	id := s.Add("hello", KindSuccess, 0)
	s.Remove(id)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	require.Equal(t, Added, events[0].Type)
	require.Equal(t, fixed, events[0].Notification.CreatedAt)
	require.Equal(t, Removed, events[1].Type)
	require.Equal(t, id, events[1].Notification.ID)
}
