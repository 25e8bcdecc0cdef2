package tokenstore

import "sync"

// Hook is a mounted, reactive view of a Store's token. It is updated inside
// the store's notification, so a read after Set or Clear never sees the old value.
type Hook struct {
	store *Store

	mu          sync.RWMutex
	token       string
	present     bool
	onChange    []Listener
	unsubscribe func()
}

// Mount reads the current token and subscribes to changes
func Mount(store *Store) *Hook {
	h := &Hook{store: store}
	h.unsubscribe = store.Subscribe(h.receive)
	// Read after subscribing so a write racing with Mount is not missed.
	store.reload(func(token string, present bool) {
		h.mu.Lock()
		h.token, h.present = token, present
		h.mu.Unlock()
	})
	return h
}

// Token returns the latest observed token
func (h *Hook) Token() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token, h.present
}

// Refresh reads the token from the store and reconciles the hook with it.
// A value that changed without a Set or Clear, such as an expired slot, is
// delivered to the OnChange callbacks like any other change.
func (h *Hook) Refresh() (string, bool) {
	var token string
	var present bool
	h.store.reload(func(t string, p bool) {
		token, present = t, p

		h.mu.RLock()
		same := h.token == t && h.present == p
		h.mu.RUnlock()
		if !same {
			h.receive(Change{Event: ChangedEvent, Token: t, Present: p})
		}
	})
	return token, present
}

// OnChange registers fn to run after the hook has taken a new value
func (h *Hook) OnChange(fn Listener) {
	h.mu.Lock()
	h.onChange = append(h.onChange, fn)
	h.mu.Unlock()
}

// Unmount stops following the store. Safe to call more than once.
func (h *Hook) Unmount() {
	h.unsubscribe()
}

func (h *Hook) receive(change Change) {
	h.mu.Lock()
	h.token = change.Token
	h.present = change.Present
	callbacks := append([]Listener(nil), h.onChange...)
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(change)
	}
}
