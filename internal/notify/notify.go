// Package notify holds the queue of short-lived user notifications (toasts).
//
// Producers call Add or one of the severity helpers; entries with a positive
// TTL remove themselves once it elapses. Consumers either poll List or
// Subscribe to add/remove events.
package notify

import (
	"sync"
	"time"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Default display durations per kind.
const (
	DefaultInfoTTL    = 5 * time.Second
	DefaultSuccessTTL = 5 * time.Second
	DefaultWarningTTL = 7 * time.Second
	DefaultErrorTTL   = 8 * time.Second
)

// Notification is one queued message.
type Notification struct {
	ID        int
	Message   string
	Kind      Kind
	CreatedAt time.Time
	TTL       time.Duration // <= 0: stays until removed
}

// EventType distinguishes subscription events.
type EventType int

const (
	Added EventType = iota
	Removed
)

// Event is delivered to subscribers after the queue changed.
type Event struct {
	Type         EventType
	Notification Notification
}

// Store is the ordered notification queue. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    []Notification
	timers   map[int]*time.Timer
	lastID   int
	defaults map[Kind]time.Duration
	subs     []func(Event)
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultTTL overrides the default duration used by the helper for kind.
func WithDefaultTTL(kind Kind, ttl time.Duration) Option {
	return func(s *Store) { s.defaults[kind] = ttl }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		timers: make(map[int]*time.Timer),
		defaults: map[Kind]time.Duration{
			KindInfo:    DefaultInfoTTL,
			KindSuccess: DefaultSuccessTTL,
			KindWarning: DefaultWarningTTL,
			KindError:   DefaultErrorTTL,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a notification and returns its id. Ids are strictly increasing.
func (s *Store) Add(message string, kind Kind, ttl time.Duration) int {
	s.mu.Lock()
	s.lastID++
	n := Notification{
		ID:        s.lastID,
		Message:   message,
		Kind:      kind,
		CreatedAt: s.now(),
		TTL:       ttl,
	}
	s.items = append(s.items, n)
	if ttl > 0 {
		id := n.ID
		s.timers[id] = time.AfterFunc(ttl, func() { s.Remove(id) })
	}
	subs := s.subscribers()
	s.mu.Unlock()

	publish(subs, Event{Type: Added, Notification: n})
	return n.ID
}

// Remove deletes the notification with id. Unknown ids are ignored.
func (s *Store) Remove(id int) {
	s.mu.Lock()
	idx := -1
	for i, n := range s.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	n := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	subs := s.subscribers()
	s.mu.Unlock()

	publish(subs, Event{Type: Removed, Notification: n})
}

// ClearAll empties the queue. Pending expiries are cancelled; any that
// already fired find nothing to remove.
func (s *Store) ClearAll() {
	s.mu.Lock()
	removed := s.items
	s.items = nil
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	subs := s.subscribers()
	s.mu.Unlock()

	for _, n := range removed {
		publish(subs, Event{Type: Removed, Notification: n})
	}
}

// List returns a snapshot of the queue in insertion order.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of queued notifications.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers fn for future events. fn runs on the goroutine that
// changed the queue, without the store lock held.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Info queues an info notification shown for DefaultInfoTTL.
func (s *Store) Info(message string) int {
	return s.Add(message, KindInfo, s.defaultTTL(KindInfo))
}

// Success queues a success notification shown for DefaultSuccessTTL.
func (s *Store) Success(message string) int {
	return s.Add(message, KindSuccess, s.defaultTTL(KindSuccess))
}

// Warning queues a warning notification shown for DefaultWarningTTL.
func (s *Store) Warning(message string) int {
	return s.Add(message, KindWarning, s.defaultTTL(KindWarning))
}

// Error queues an error notification shown for DefaultErrorTTL.
func (s *Store) Error(message string) int {
	return s.Add(message, KindError, s.defaultTTL(KindError))
}

func (s *Store) defaultTTL(kind Kind) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults[kind]
}

// subscribers must be called with s.mu held.
func (s *Store) subscribers() []func(Event) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(Event), len(s.subs))
	copy(out, s.subs)
	return out
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
