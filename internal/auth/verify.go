package auth

import (
	"context"

	"github.com/freightdesk/console/internal/query"
)

// VerifyQuery names the admin verification call
const VerifyQuery = "isCallerAdmin"

// VerifyKey is the cache key of the verification result for token
func VerifyKey(token string) query.Key {
	return query.Key{Name: VerifyQuery, Scope: token}
}

// Verification is the state of the admin check for one token.
// A disabled verification (no token) is "not applicable", never false.
type Verification struct {
	Enabled bool
	Status  query.Status
	IsAdmin bool
	Err     error
}

// Pending reports whether an enabled verification has not settled yet
func (v Verification) Pending() bool {
	return v.Enabled && v.Status != query.StatusSuccess && v.Status != query.StatusError
}

// Verifier runs the token-scoped "is caller admin" call
type Verifier struct {
	cache *query.Cache
	conns *Connections
}

// NewVerifier creates a verifier using the session cache and connection
func NewVerifier(cache *query.Cache, conns *Connections) *Verifier {
	return &Verifier{cache: cache, conns: conns}
}

// Observe returns the cached verification for token, starting the call if
// nothing is cached. No request is made without a token.
func (v *Verifier) Observe(ctx context.Context, token string, present bool) Verification {
	if !present {
		return Verification{}
	}
	return toVerification(v.cache.Ensure(ctx, VerifyKey(token), v.fetch(token)))
}

// Peek returns the cached verification for token without issuing a call
func (v *Verifier) Peek(token string, present bool) Verification {
	if !present {
		return Verification{}
	}
	return toVerification(v.cache.Peek(VerifyKey(token)))
}

// Verify re-runs the call explicitly, bypassing any cached result
func (v *Verifier) Verify(ctx context.Context, token string) (bool, error) {
	value, err := v.cache.Refetch(ctx, VerifyKey(token), v.fetch(token))
	if err != nil {
		return false, err
	}
	isAdmin, _ := value.(bool)
	return isAdmin, nil
}

// Invalidate drops the cached verification for token so the next Observe
// issues exactly one new call.
func (v *Verifier) Invalidate(token string) {
	v.cache.Invalidate(VerifyKey(token))
}

func (v *Verifier) fetch(token string) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		conn, err := v.conns.Current(ctx, token)
		if err != nil {
			return nil, err
		}
		return conn.IsCallerAdmin(ctx)
	}
}

func toVerification(snap query.Snapshot) Verification {
	isAdmin, _ := query.As[bool](snap)
	return Verification{
		Enabled: true,
		Status:  snap.Status,
		IsAdmin: snap.Status == query.StatusSuccess && isAdmin,
		Err:     snap.Err,
	}
}
