package login

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/console/internal/auth"
	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/query"
	"github.com/freightdesk/console/internal/testutil"
	"github.com/freightdesk/console/internal/tokenstore"
)

type harness struct {
	flow   *Flow
	store  *tokenstore.Store
	fake   *testutil.FakeBackend
	writes []tokenstore.Change
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{fake: testutil.NewFakeBackend()}
	h.store = tokenstore.New(tokenstore.NewMemorySlot(), zerolog.Nop())
	h.store.Subscribe(func(c tokenstore.Change) { h.writes = append(h.writes, c) })

	cache := query.New(zerolog.Nop(), query.WithRetries(0))
	conns := auth.NewConnections(cache, h.fake)
	h.flow = &Flow{
		Store:       h.store,
		Gateway:     h.fake,
		Connections: conns,
		Verifier:    auth.NewVerifier(cache, conns),
		Destination: "/admin/dashboard",
		Logger:      zerolog.Nop(),
	}
	return h
}

// storedAny reports whether a token was ever written, even transiently
func (h *harness) storedAny() bool {
	for _, c := range h.writes {
		if c.Present {
			return true
		}
	}
	return false
}

func TestSubmit_EmptyCredentials(t *testing.T) {
	h := newHarness(t)

	for _, creds := range [][2]string{{"", "secret"}, {"admin", ""}, {"   ", "\t"}} {
		_, err := h.flow.Submit(context.Background(), creds[0], creds[1])
		assert.ErrorIs(t, err, ErrEmptyCredentials)
	}
	assert.Equal(t, int32(0), h.fake.LoginCalls.Load(), "validation must not reach the network")
	assert.Empty(t, h.writes)
}

func TestSubmit_Success(t *testing.T) {
	h := newHarness(t)

	dest, err := h.flow.Submit(context.Background(), "  admin ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/admin/dashboard", dest)

	token, ok := h.store.Get()
	require.True(t, ok)
	assert.Equal(t, "tok-admin", token)
	assert.Equal(t, int32(1), h.fake.VerifyCalls.Load())
}

func TestSubmit_RejectedNeverStoresToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.flow.Submit(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, ErrIncorrectCredentials)
	assert.NotErrorIs(t, err, ErrNotAdmin)

	assert.False(t, h.storedAny(), "a rejected login must never write a token")
	_, ok := h.store.Get()
	assert.False(t, ok)
	assert.Equal(t, int32(0), h.fake.VerifyCalls.Load())
}

func TestSubmit_VerificationFalseRollsBack(t *testing.T) {
	h := newHarness(t)

	_, err := h.flow.Submit(context.Background(), "viewer", "secret")
	require.ErrorIs(t, err, ErrNotAdmin)
	assert.NotErrorIs(t, err, ErrIncorrectCredentials)

	_, ok := h.store.Get()
	assert.False(t, ok, "token must be rolled back")

	require.Len(t, h.writes, 2)
	assert.True(t, h.writes[0].Present)
	assert.False(t, h.writes[1].Present, "rollback must broadcast the clear")
}

func TestSubmit_VerificationErrorRollsBack(t *testing.T) {
	h := newHarness(t)
	h.fake.SetVerifyErr(backend.ErrUnavailable)

	_, err := h.flow.Submit(context.Background(), "admin", "secret")
	require.ErrorIs(t, err, ErrVerification)
	assert.ErrorIs(t, err, backend.ErrUnavailable)

	_, ok := h.store.Get()
	assert.False(t, ok)
}

func TestSubmit_ExchangeFailureIsNotCredentialError(t *testing.T) {
	h := newHarness(t)
	h.fake.LoginErr = backend.ErrUnavailable

	_, err := h.flow.Submit(context.Background(), "admin", "secret")
	require.ErrorIs(t, err, backend.ErrUnavailable)
	assert.False(t, errors.Is(err, ErrIncorrectCredentials))
	assert.False(t, h.storedAny())
}

func TestSubmit_ResubmitRerunsEverything(t *testing.T) {
	h := newHarness(t)

	_, err := h.flow.Submit(context.Background(), "admin", "wrong")
	require.Error(t, err)

	_, err = h.flow.Submit(context.Background(), "admin", "secret")
	require.NoError(t, err)

	assert.Equal(t, int32(2), h.fake.LoginCalls.Load())
	assert.Equal(t, int32(1), h.fake.VerifyCalls.Load())
	_, ok := h.store.Get()
	assert.True(t, ok)
}

func TestSubmit_CancelledDuringSettleRollsBack(t *testing.T) {
	h := newHarness(t)
	h.flow.SettleDelay = 1 << 40

	ctx, cancel := context.WithCancel(context.Background())
	h.store.Subscribe(func(c tokenstore.Change) {
		if c.Present {
			cancel()
		}
	})

	_, err := h.flow.Submit(ctx, "admin", "secret")
	require.ErrorIs(t, err, context.Canceled)

	_, ok := h.store.Get()
	assert.False(t, ok)
}

func TestSubmit_SendsPasswordAsTyped(t *testing.T) {
	h := newHarness(t)
	h.fake.Accounts["padded"] = "  secret  "
	h.fake.SetAdmin("tok-padded", true)

	_, err := h.flow.Submit(context.Background(), "padded", "  secret  ")
	require.NoError(t, err)

	_, err = h.flow.Submit(context.Background(), "padded", "secret")
	assert.ErrorIs(t, err, ErrIncorrectCredentials)
}
