// Package identity adapts the external identity provider. It reports who
// the browser user is; it never decides admin status.
package identity

import (
	"net/http"
	"strings"
)

// Snapshot is the identity provider's view of the current request
type Snapshot struct {
	Initializing bool
	Principal    string
}

// Authenticated reports whether the provider has a live identity
func (s Snapshot) Authenticated() bool {
	return !s.Initializing && s.Principal != ""
}

// Provider resolves the identity of an incoming request
type Provider interface {
	Resolve(r *http.Request) Snapshot
}

// HeaderProvider trusts a header set by an authenticating reverse proxy
type HeaderProvider struct {
	Header string
}

// NewHeaderProvider creates a provider reading the given header
func NewHeaderProvider(header string) *HeaderProvider {
	return &HeaderProvider{Header: header}
}

func (p *HeaderProvider) Resolve(r *http.Request) Snapshot {
	if p.Header == "" {
		return Snapshot{}
	}
	return Snapshot{Principal: strings.ToLower(strings.TrimSpace(r.Header.Get(p.Header)))}
}
