package auth

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/identity"
	"github.com/freightdesk/console/internal/query"
)

const (
	ProfileQuery = "getCallerUserProfile"
	RoleQuery    = "getCallerUserRole"
)

// Inputs are the live values the aggregate view is derived from
type Inputs struct {
	Identity identity.Snapshot
	Token    string
	HasToken bool
}

// View is the combined authorization state. It is recomputed from its
// inputs every time and owns no state.
type View struct {
	IsAuthenticated  bool
	HasPasswordAdmin bool
	IsAdmin          bool
	IsLoading        bool
	Err              error
	ShowProfileSetup bool
	Profile          *backend.Profile
	Role             backend.Role
}

// Aggregator combines identity, profile, role and verification state
type Aggregator struct {
	cache    *query.Cache
	dir      backend.Directory
	verifier *Verifier
}

// NewAggregator creates an aggregator over the session cache
func NewAggregator(cache *query.Cache, dir backend.Directory, verifier *Verifier) *Aggregator {
	return &Aggregator{cache: cache, dir: dir, verifier: verifier}
}

// View returns the current view, starting any fetch the inputs call for.
// It never blocks on the network.
func (a *Aggregator) View(ctx context.Context, in Inputs) View {
	var profile, role query.Snapshot
	if in.Identity.Authenticated() {
		principal := in.Identity.Principal
		profile = a.cache.Ensure(ctx, profileKey(principal), func(ctx context.Context) (any, error) {
			return a.dir.CallerProfile(ctx, principal)
		})
		role = a.cache.Ensure(ctx, roleKey(principal), func(ctx context.Context) (any, error) {
			return a.dir.CallerRole(ctx, principal)
		})
	}
	verification := a.verifier.Observe(ctx, in.Token, in.HasToken)

	return Derive(in, profile, role, verification)
}

// Settle waits until every fetch the current auth mode depends on has
// settled, or ctx is done, and returns the resulting view.
func (a *Aggregator) Settle(ctx context.Context, in Inputs) (View, error) {
	a.View(ctx, in)

	keys := make([]query.Key, 0, 3)
	if in.Identity.Authenticated() {
		keys = append(keys, profileKey(in.Identity.Principal), roleKey(in.Identity.Principal))
	}
	if in.HasToken {
		keys = append(keys, VerifyKey(in.Token))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			_, err := a.cache.Wait(gctx, key)
			return err
		})
	}
	err := g.Wait()

	return a.View(ctx, in), err
}

// Retry drops the failed entries the view depends on so the next View
// issues them again. The verification entry is always dropped; profile and
// role entries only when they failed.
func (a *Aggregator) Retry(in Inputs) {
	if in.HasToken {
		a.verifier.Invalidate(in.Token)
	}
	if in.Identity.Authenticated() {
		for _, key := range []query.Key{profileKey(in.Identity.Principal), roleKey(in.Identity.Principal)} {
			if a.cache.Peek(key).Status == query.StatusError {
				a.cache.Invalidate(key)
			}
		}
	}
}

// Derive computes the view from snapshots of its dependencies
func Derive(in Inputs, profile, role query.Snapshot, verification Verification) View {
	authenticated := in.Identity.Authenticated()

	v := View{
		IsAuthenticated:  authenticated,
		HasPasswordAdmin: in.HasToken,
	}

	// Password-admin status comes only from the backend check for the token;
	// the identity provider's role never grants it.
	v.IsAdmin = in.HasToken && verification.Status == query.StatusSuccess && verification.IsAdmin

	v.IsLoading = in.Identity.Initializing ||
		(authenticated && (!profile.Settled() || !role.Settled())) ||
		(in.HasToken && verification.Pending())

	if authenticated || in.HasToken {
		switch {
		case authenticated && profile.Err != nil:
			v.Err = profile.Err
		case authenticated && role.Err != nil:
			v.Err = role.Err
		case in.HasToken && verification.Err != nil:
			v.Err = verification.Err
		}
	}

	if authenticated {
		p, _ := query.As[*backend.Profile](profile)
		v.Profile = p
		v.ShowProfileSetup = profile.Status == query.StatusSuccess && p == nil

		r, _ := query.As[backend.Role](role)
		v.Role = r
	}

	return v
}

func profileKey(principal string) query.Key {
	return query.Key{Name: ProfileQuery, Scope: principal}
}

func roleKey(principal string) query.Key {
	return query.Key{Name: RoleQuery, Scope: principal}
}
