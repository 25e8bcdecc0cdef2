package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/query"
)

// ConnectionQuery names the cache entry holding the active backend connection
const ConnectionQuery = "connection"

var connectionKey = query.Key{Name: ConnectionQuery}

// Connections owns the session's active backend connection. There is at most
// one, and it is only handed out for the token it was built with.
type Connections struct {
	cache   *query.Cache
	gateway backend.Gateway
}

// NewConnections creates a connection holder over the session cache
func NewConnections(cache *query.Cache, gateway backend.Gateway) *Connections {
	return &Connections{cache: cache, gateway: gateway}
}

// Current returns the active connection for token, building one if the
// cached connection is missing or belongs to another token.
func (c *Connections) Current(ctx context.Context, token string) (backend.Conn, error) {
	if token == "" {
		return nil, backend.ErrNotReady
	}

	snap := c.cache.Peek(connectionKey)
	if conn, ok := query.As[backend.Conn](snap); ok && snap.Status == query.StatusSuccess && conn.Token() == token {
		return conn, nil
	}

	return c.Rebuild(ctx, token)
}

// Rebuild drops the active connection and constructs a new one for token
func (c *Connections) Rebuild(ctx context.Context, token string) (backend.Conn, error) {
	c.cache.Invalidate(connectionKey)

	value, err := c.cache.Refetch(ctx, connectionKey, func(ctx context.Context) (any, error) {
		return c.gateway.Connect(ctx, token)
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", backend.ErrNotReady, err)
	}

	conn, ok := value.(backend.Conn)
	if !ok || conn.Token() != token {
		return nil, backend.ErrNotReady
	}
	return conn, nil
}

// Drop forgets the active connection
func (c *Connections) Drop() {
	c.cache.Invalidate(connectionKey)
}
