// Package tokenstore holds the admin token of one browser session and tells
// interested components when it changes.
package tokenstore

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// Key is the slot key the admin token is stored under.
	Key = "freightdesk.adminToken"

	// ChangedEvent names the notification delivered on every Set and Clear.
	ChangedEvent = "admin-token-changed"
)

// Slot is a single key/value cell backing a Store
type Slot interface {
	Load(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Change describes a write observed by listeners
type Change struct {
	Event   string
	Token   string
	Present bool
}

// Listener receives change notifications. Listeners must not write to the
// store they are subscribed to.
type Listener func(Change)

// Toucher is implemented by slots whose value expires, so activity on the
// session can extend it
type Toucher interface {
	Touch(ctx context.Context) error
}

// Store is the session-scoped holder of the admin token.
// Listeners run synchronously after the write, before Set or Clear return.
// Writes are serialized with their notifications, so listeners observe
// changes in the order the slot took them.
type Store struct {
	slot   Slot
	logger zerolog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a Store over the given slot
func New(slot Slot, logger zerolog.Logger) *Store {
	return &Store{
		slot:      slot,
		logger:    logger,
		listeners: make(map[uint64]Listener),
	}
}

// Get returns the current token. An unavailable slot reads as absent.
func (s *Store) Get() (string, bool) {
	return s.load()
}

func (s *Store) load() (string, bool) {
	token, ok, err := s.slot.Load(context.Background())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Token slot unavailable, treating token as absent")
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Set replaces the token and notifies listeners
func (s *Store) Set(token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.slot.Save(context.Background(), token); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write admin token")
	}
	s.notify(Change{Event: ChangedEvent, Token: token, Present: token != ""})
}

// Clear removes the token and notifies listeners
func (s *Store) Clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.slot.Delete(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete admin token")
	}
	s.notify(Change{Event: ChangedEvent})
}

// Touch extends the lifetime of an expiring slot. Other slots ignore it.
func (s *Store) Touch() {
	t, ok := s.slot.(Toucher)
	if !ok {
		return
	}
	if err := t.Touch(context.Background()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to extend admin token lifetime")
	}
}

// reload reads the slot with writes held off and hands the result to fn
func (s *Store) reload(fn func(token string, present bool)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	token, present := s.load()
	fn(token, present)
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. The returned function is safe to call more than once.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(change Change) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}
