// Package session manages the server-side state of console browser sessions.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/auth"
	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/identity"
	"github.com/freightdesk/console/internal/login"
	"github.com/freightdesk/console/internal/query"
	"github.com/freightdesk/console/internal/tokenstore"
)

// Session is one browser session: its token store and everything derived from it
type Session struct {
	ID string

	Store      *tokenstore.Store
	Hook       *tokenstore.Hook
	Cache      *query.Cache
	Conns      *auth.Connections
	Verifier   *auth.Verifier
	Aggregator *auth.Aggregator
	Guard      *auth.Tracker

	gateway backend.Gateway
	logger  zerolog.Logger

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(id string, slot tokenstore.Slot, gateway backend.Gateway, dir backend.Directory, retries int, logger zerolog.Logger) *Session {
	logger = logger.With().Str("session_id", id).Logger()

	store := tokenstore.New(slot, logger)
	cache := query.New(logger, query.WithRetries(retries), query.WithRetryIf(backend.Retryable))
	conns := auth.NewConnections(cache, gateway)
	verifier := auth.NewVerifier(cache, conns)

	s := &Session{
		ID:         id,
		Store:      store,
		Hook:       tokenstore.Mount(store),
		Cache:      cache,
		Conns:      conns,
		Verifier:   verifier,
		Aggregator: auth.NewAggregator(cache, dir, verifier),
		Guard:      auth.NewTracker(),
		gateway:    gateway,
		logger:     logger,
	}

	// The active connection and the guard's history belong to the old token
	// once it changes.
	s.Hook.OnChange(func(tokenstore.Change) {
		s.Conns.Drop()
		s.Guard.Reset()
	})

	return s
}

// Inputs returns the aggregator inputs for the given identity and the
// token currently held by the session's Token Store
func (s *Session) Inputs(id identity.Snapshot) auth.Inputs {
	token, ok := s.Hook.Refresh()
	return auth.Inputs{Identity: id, Token: token, HasToken: ok}
}

// LoginFlow returns a login flow bound to this session
func (s *Session) LoginFlow(settleDelay time.Duration, destination string) *login.Flow {
	return &login.Flow{
		Store:       s.Store,
		Gateway:     s.gateway,
		Connections: s.Conns,
		Verifier:    s.Verifier,
		SettleDelay: settleDelay,
		Destination: destination,
		Logger:      s.logger,
	}
}

// SignOut clears the admin token
func (s *Session) SignOut() {
	s.Store.Clear()
	s.logger.Info().Msg("Admin signed out")
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// end drops everything the session holds. The token is volatile and does
// not outlive the session.
func (s *Session) end() {
	s.Store.Clear()
	s.Hook.Unmount()
	s.Cache.Clear()
}
