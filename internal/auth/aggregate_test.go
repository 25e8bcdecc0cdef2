package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/identity"
	"github.com/freightdesk/console/internal/query"
	"github.com/freightdesk/console/internal/testutil"
)

var pending = query.Snapshot{Status: query.StatusPending}

func settled(v any) query.Snapshot {
	return query.Snapshot{Status: query.StatusSuccess, Value: v}
}

func failed(err error) query.Snapshot {
	return query.Snapshot{Status: query.StatusError, Err: err}
}

func verified(isAdmin bool) Verification {
	return Verification{Enabled: true, Status: query.StatusSuccess, IsAdmin: isAdmin}
}

func TestDerive(t *testing.T) {
	boom := errors.New("backend unreachable")
	user := identity.Snapshot{Principal: "dana@example.com"}
	profile := &backend.Profile{Principal: "dana@example.com", Name: "Dana"}

	tests := []struct {
		name         string
		in           Inputs
		profile      query.Snapshot
		role         query.Snapshot
		verification Verification
		want         View
	}{
		{
			name: "anonymous visitor",
			in:   Inputs{},
			want: View{},
		},
		{
			name: "identity provider still initializing",
			in:   Inputs{Identity: identity.Snapshot{Initializing: true}},
			want: View{IsLoading: true},
		},
		{
			name:    "identity admin role never grants admin",
			in:      Inputs{Identity: user},
			profile: settled(profile),
			role:    settled(backend.RoleAdmin),
			want:    View{IsAuthenticated: true, Profile: profile, Role: backend.RoleAdmin},
		},
		{
			name:    "authenticated with profile fetch outstanding",
			in:      Inputs{Identity: user},
			profile: pending,
			role:    settled(backend.RoleClient),
			want:    View{IsAuthenticated: true, IsLoading: true, Role: backend.RoleClient},
		},
		{
			name:    "authenticated without profile shows setup",
			in:      Inputs{Identity: user},
			profile: settled((*backend.Profile)(nil)),
			role:    settled(backend.RoleGuest),
			want:    View{IsAuthenticated: true, ShowProfileSetup: true, Role: backend.RoleGuest},
		},
		{
			name:    "authenticated profile error surfaces",
			in:      Inputs{Identity: user},
			profile: failed(boom),
			role:    settled(backend.RoleClient),
			want:    View{IsAuthenticated: true, Err: boom, Role: backend.RoleClient},
		},
		{
			name:         "token with verification pending",
			in:           Inputs{Token: "t", HasToken: true},
			verification: Verification{Enabled: true, Status: query.StatusPending},
			want:         View{HasPasswordAdmin: true, IsLoading: true},
		},
		{
			name:         "token verified true",
			in:           Inputs{Token: "t", HasToken: true},
			verification: verified(true),
			want:         View{HasPasswordAdmin: true, IsAdmin: true},
		},
		{
			name:         "token verified false",
			in:           Inputs{Token: "t", HasToken: true},
			verification: verified(false),
			want:         View{HasPasswordAdmin: true},
		},
		{
			name:         "token verification error is not a denial",
			in:           Inputs{Token: "t", HasToken: true},
			verification: Verification{Enabled: true, Status: query.StatusError, Err: boom},
			want:         View{HasPasswordAdmin: true, Err: boom},
		},
		{
			name:         "no token ignores a stale verification",
			in:           Inputs{},
			verification: verified(true),
			want:         View{},
		},
		{
			name:    "anonymous errors are suppressed",
			in:      Inputs{},
			profile: failed(boom),
			role:    failed(boom),
			want:    View{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.in, tt.profile, tt.role, tt.verification)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newAggregator(t *testing.T, fake *testutil.FakeBackend) (*Aggregator, *query.Cache) {
	t.Helper()
	cache := query.New(zerolog.Nop(), query.WithRetries(0))
	verifier := NewVerifier(cache, NewConnections(cache, fake))
	return NewAggregator(cache, fake, verifier), cache
}

func TestAggregator_LoadingUntilSettled(t *testing.T) {
	fake := testutil.NewFakeBackend()
	fake.VerifyGate = make(chan struct{})
	agg, _ := newAggregator(t, fake)

	in := Inputs{Token: "tok-admin", HasToken: true}
	v := agg.View(context.Background(), in)
	assert.True(t, v.IsLoading)
	assert.False(t, v.IsAdmin)

	close(fake.VerifyGate)
	v, err := agg.Settle(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, v.IsLoading)
	assert.True(t, v.IsAdmin)
}

func TestAggregator_SettleTimesOutWhileLoading(t *testing.T) {
	fake := testutil.NewFakeBackend()
	fake.VerifyGate = make(chan struct{})
	defer close(fake.VerifyGate)
	agg, _ := newAggregator(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	v, err := agg.Settle(ctx, Inputs{Token: "tok-admin", HasToken: true})
	assert.Error(t, err)
	assert.True(t, v.IsLoading, "must not report settled while verification is outstanding")
}

func TestAggregator_AuthenticatedUserFetchesProfileAndRole(t *testing.T) {
	fake := testutil.NewFakeBackend()
	fake.Roles["dana@example.com"] = backend.RoleAdmin
	agg, _ := newAggregator(t, fake)

	v, err := agg.Settle(context.Background(), Inputs{Identity: identity.Snapshot{Principal: "dana@example.com"}})
	require.NoError(t, err)

	assert.True(t, v.IsAuthenticated)
	assert.True(t, v.ShowProfileSetup)
	assert.False(t, v.IsAdmin, "identity role must not grant admin without a token")
	assert.Equal(t, int32(0), fake.VerifyCalls.Load())
	assert.Equal(t, int32(1), fake.ProfileCalls.Load())
	assert.Equal(t, int32(1), fake.RoleCalls.Load())
}

func TestAggregator_RetryReissuesOnlyFailedEntries(t *testing.T) {
	fake := testutil.NewFakeBackend()
	fake.SetVerifyErr(backend.ErrUnavailable)
	agg, _ := newAggregator(t, fake)

	in := Inputs{Token: "tok-admin", HasToken: true}
	v, _ := agg.Settle(context.Background(), in)
	require.ErrorIs(t, v.Err, backend.ErrUnavailable)
	require.Equal(t, int32(1), fake.VerifyCalls.Load())

	fake.SetVerifyErr(nil)
	agg.Retry(in)
	v, _ = agg.Settle(context.Background(), in)

	assert.NoError(t, v.Err)
	assert.True(t, v.IsAdmin)
	assert.Equal(t, int32(2), fake.VerifyCalls.Load())
}
