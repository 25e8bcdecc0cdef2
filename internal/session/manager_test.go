package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/console/internal/auth"
	"github.com/freightdesk/console/internal/identity"
	"github.com/freightdesk/console/internal/testutil"
	"github.com/freightdesk/console/internal/tokenstore"
)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()

	fake := testutil.NewFakeBackend()
	m := NewManager(Options{
		Gateway:   fake,
		Directory: fake,
		IdleTTL:   time.Minute,
		Logger:    zerolog.Nop(),
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManager_CreateAndLookup(t *testing.T) {
	m, _ := newTestManager(t)

	s := m.Create()
	require.Len(t, s.ID, 26, "session IDs are ULIDs")

	got, ok := m.Lookup(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Lookup("unknown")
	assert.False(t, ok)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.Create()
	b := m.Create()
	a.Store.Set("tok-a")

	_, ok := b.Store.Get()
	assert.False(t, ok)
	_, ok = b.Hook.Token()
	assert.False(t, ok)
}

func TestManager_SweepEndsIdleSessionsAndClearsToken(t *testing.T) {
	m, now := newTestManager(t)

	idle := m.Create()
	idle.Store.Set("tok-admin")

	*now = now.Add(30 * time.Second)
	active := m.Create()

	*now = now.Add(45 * time.Second)
	assert.Equal(t, 1, m.Sweep())

	_, ok := m.Lookup(idle.ID)
	assert.False(t, ok)
	_, ok = idle.Store.Get()
	assert.False(t, ok, "ending a session must drop its token")

	_, ok = m.Lookup(active.ID)
	assert.True(t, ok)
}

func TestManager_LookupExpiresLazily(t *testing.T) {
	m, now := newTestManager(t)
	s := m.Create()

	*now = now.Add(2 * time.Minute)
	_, ok := m.Lookup(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestSession_TokenChangeDropsConnection(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.Create()
	ctx := context.Background()

	s.Store.Set("tok-a")
	conn, err := s.Conns.Current(ctx, "tok-a")
	require.NoError(t, err)
	require.Equal(t, "tok-a", conn.Token())

	s.Store.Set("tok-b")
	conn, err = s.Conns.Current(ctx, "tok-b")
	require.NoError(t, err)
	assert.Equal(t, "tok-b", conn.Token())
}

func TestManager_StartStop(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Start())

	s := m.Create()
	s.Store.Set("tok")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Stop(ctx)

	assert.Equal(t, 0, m.Len())
	_, ok := s.Store.Get()
	assert.False(t, ok)
}

func TestSession_InputsFollowTheSlot(t *testing.T) {
	fake := testutil.NewFakeBackend()
	slot := tokenstore.NewMemorySlot()
	m := NewManager(Options{
		Gateway:   fake,
		Directory: fake,
		Slots:     func(string) tokenstore.Slot { return slot },
		IdleTTL:   time.Minute,
		Logger:    zerolog.Nop(),
	})
	s := m.Create()

	_, err := s.LoginFlow(0, "/admin").Submit(context.Background(), "admin", "secret")
	require.NoError(t, err)
	require.True(t, s.Inputs(identity.Snapshot{}).HasToken)

	// The slot drops the token on its own, as an expired Redis key does.
	require.NoError(t, slot.Delete(context.Background()))

	in := s.Inputs(identity.Snapshot{})
	assert.False(t, in.HasToken)
	_, ok := s.Hook.Token()
	assert.False(t, ok)
}

func TestSession_NewRevokedTokenRedirectsAgain(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.Create()

	s.Store.Set("tok-revoked-1")
	d := s.Guard.Observe(auth.View{HasPasswordAdmin: true})
	require.True(t, d.Redirect)

	s.Store.Set("tok-revoked-2")
	d = s.Guard.Observe(auth.View{HasPasswordAdmin: true})
	assert.True(t, d.Redirect)
}

type countingSlot struct {
	tokenstore.MemorySlot
	mu      sync.Mutex
	touches int
}

func (c *countingSlot) Touch(ctx context.Context) error {
	c.mu.Lock()
	c.touches++
	c.mu.Unlock()
	return nil
}

func TestManager_LookupTouchesSlot(t *testing.T) {
	fake := testutil.NewFakeBackend()
	slot := &countingSlot{}
	m := NewManager(Options{
		Gateway:   fake,
		Directory: fake,
		Slots:     func(string) tokenstore.Slot { return slot },
		IdleTTL:   time.Minute,
		Logger:    zerolog.Nop(),
	})
	s := m.Create()

	_, ok := m.Lookup(s.ID)
	require.True(t, ok)
	_, ok = m.Lookup(s.ID)
	require.True(t, ok)
	assert.Equal(t, 2, slot.touches)
}
