package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/assert"
	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/tokenstore"
)

const sweepSchedule = "@every 1m"

// SlotFactory creates the token slot for a new session
type SlotFactory func(sessionID string) tokenstore.Slot

// MemorySlots keeps tokens in process memory
func MemorySlots() SlotFactory {
	return func(string) tokenstore.Slot { return tokenstore.NewMemorySlot() }
}

// Options configures a Manager
type Options struct {
	Gateway   backend.Gateway
	Directory backend.Directory
	Slots     SlotFactory
	IdleTTL   time.Duration
	Retries   int
	Logger    zerolog.Logger
}

// Manager tracks live sessions and ends idle ones
type Manager struct {
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	cron *cron.Cron
}

// NewManager creates a session manager
func NewManager(opts Options) *Manager {
	if opts.Slots == nil {
		opts.Slots = MemorySlots()
	}
	return &Manager{
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session
func (m *Manager) Create() *Session {
	id := ulid.Make().String()
	assert.Length(id, ulid.EncodedSize)
	s := newSession(id, m.opts.Slots(id), m.opts.Gateway, m.opts.Directory, m.opts.Retries, m.opts.Logger)
	s.touch(m.now())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.opts.Logger.Debug().Str("session_id", id).Msg("Session created")
	return s
}

// Lookup returns a live session and marks it as used
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}

	now := m.now()
	if now.Sub(s.idleSince()) > m.opts.IdleTTL {
		m.End(id)
		return nil, false
	}
	s.touch(now)
	s.Store.Touch()
	return s, true
}

// End terminates a session
func (m *Manager) End(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.end()
		m.opts.Logger.Debug().Str("session_id", id).Msg("Session ended")
	}
}

// Sweep ends every session idle for longer than the TTL
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.opts.IdleTTL {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.End(id)
	}
	if len(expired) > 0 {
		m.opts.Logger.Info().Int("count", len(expired)).Msg("Ended idle sessions")
	}
	return len(expired)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Start schedules the idle sweep
func (m *Manager) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(sweepSchedule, func() { m.Sweep() }); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	c.Start()
	m.cron = c
	return nil
}

// Stop cancels the sweep and ends all sessions
func (m *Manager) Stop(ctx context.Context) {
	if m.cron != nil {
		select {
		case <-m.cron.Stop().Done():
		case <-ctx.Done():
		}
	}

	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.End(id)
	}
}
