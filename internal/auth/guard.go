package auth

import "sync"

// State is the route guard's verdict for a view
type State int

const (
	StateLoading State = iota
	StateError
	StateAuthorized
	StateUnauthorized
)

func (s State) String() string {
	switch s {
	case StateError:
		return "error"
	case StateAuthorized:
		return "authorized"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "loading"
	}
}

// Evaluate maps a view to a guard state. Nothing is decided while loading,
// so a slow backend never bounces a legitimate admin.
func Evaluate(v View) State {
	switch {
	case v.IsLoading:
		return StateLoading
	case v.Err != nil:
		return StateError
	case v.IsAdmin:
		return StateAuthorized
	default:
		return StateUnauthorized
	}
}

// Decision is what the guard does for one evaluation
type Decision struct {
	State State
	// Redirect is set once per transition into "unauthorized with a token"
	// (expired or revoked token). Without a token the caller shows a static
	// sign-in prompt instead.
	Redirect bool
	Err      error
}

// Tracker remembers the last observed guard state of a session so the
// automatic redirect fires at most once per transition.
type Tracker struct {
	mu       sync.Mutex
	seen     bool
	last     State
	hadToken bool
}

// NewTracker creates a tracker with no history
func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset forgets the observed history. Called when the token changes, so a
// new token that turns out to be revoked redirects again.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.seen = false
	t.last = StateLoading
	t.hadToken = false
	t.mu.Unlock()
}

// Observe evaluates v and records it
func (t *Tracker) Observe(v View) Decision {
	state := Evaluate(v)
	d := Decision{State: state, Err: v.Err}

	t.mu.Lock()
	defer t.mu.Unlock()

	transitioned := !t.seen || state != t.last || v.HasPasswordAdmin != t.hadToken
	if state == StateUnauthorized && v.HasPasswordAdmin && transitioned {
		d.Redirect = true
	}

	t.seen = true
	t.last = state
	t.hadToken = v.HasPasswordAdmin

	return d
}
