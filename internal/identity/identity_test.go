package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderProvider(t *testing.T) {
	p := NewHeaderProvider("X-Forwarded-Email")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Email", "  Ops@FreightDesk.test ")
	snap := p.Resolve(req)
	assert.Equal(t, "ops@freightdesk.test", snap.Principal)
	assert.True(t, snap.Authenticated())

	snap = p.Resolve(httptest.NewRequest("GET", "/", nil))
	assert.False(t, snap.Authenticated())

	snap = NewHeaderProvider("").Resolve(req)
	assert.Empty(t, snap.Principal, "an empty header name disables the provider")
}

func TestSnapshot_InitializingIsNotAuthenticated(t *testing.T) {
	assert.False(t, Snapshot{Initializing: true, Principal: "ops@freightdesk.test"}.Authenticated())
}
