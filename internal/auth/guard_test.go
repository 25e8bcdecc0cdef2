package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	boom := errors.New("boom")

	assert.Equal(t, StateLoading, Evaluate(View{IsLoading: true, Err: boom}))
	assert.Equal(t, StateError, Evaluate(View{HasPasswordAdmin: true, Err: boom}))
	assert.Equal(t, StateAuthorized, Evaluate(View{HasPasswordAdmin: true, IsAdmin: true}))
	assert.Equal(t, StateUnauthorized, Evaluate(View{HasPasswordAdmin: true}))
	assert.Equal(t, StateUnauthorized, Evaluate(View{}))
}

func TestTracker_RedirectsOncePerTransition(t *testing.T) {
	tr := NewTracker()

	d := tr.Observe(View{HasPasswordAdmin: true, IsLoading: true})
	assert.Equal(t, StateLoading, d.State)
	assert.False(t, d.Redirect, "never redirect while loading")

	d = tr.Observe(View{HasPasswordAdmin: true})
	assert.Equal(t, StateUnauthorized, d.State)
	assert.True(t, d.Redirect, "expired token redirects to login")

	for range 3 {
		d = tr.Observe(View{HasPasswordAdmin: true})
		assert.False(t, d.Redirect, "repeated evaluations must not redirect again")
	}

	// Verification flaps back to admin and then away again: a new transition.
	d = tr.Observe(View{HasPasswordAdmin: true, IsAdmin: true})
	assert.Equal(t, StateAuthorized, d.State)
	d = tr.Observe(View{HasPasswordAdmin: true})
	assert.True(t, d.Redirect)
}

func TestTracker_NoTokenNeverRedirects(t *testing.T) {
	tr := NewTracker()

	for range 3 {
		d := tr.Observe(View{})
		assert.Equal(t, StateUnauthorized, d.State)
		assert.False(t, d.Redirect)
	}
}

func TestTracker_SignOutLeavesStaticPrompt(t *testing.T) {
	tr := NewTracker()

	d := tr.Observe(View{HasPasswordAdmin: true, IsAdmin: true})
	assert.Equal(t, StateAuthorized, d.State)

	// Token cleared by sign-out.
	d = tr.Observe(View{})
	assert.Equal(t, StateUnauthorized, d.State)
	assert.False(t, d.Redirect)

	d = tr.Observe(View{})
	assert.False(t, d.Redirect)
}

func TestTracker_ResetAllowsRedirectForNewToken(t *testing.T) {
	tr := NewTracker()

	// First token revoked.
	d := tr.Observe(View{HasPasswordAdmin: true})
	assert.True(t, d.Redirect)

	// A new token is stored, and is revoked before any guarded request.
	tr.Reset()
	d = tr.Observe(View{HasPasswordAdmin: true})
	assert.True(t, d.Redirect)

	d = tr.Observe(View{HasPasswordAdmin: true})
	assert.False(t, d.Redirect)
}
