// Package testutil provides in-memory fakes of the backend RPC surface.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/freightdesk/console/internal/backend"
)

// FakeBackend implements backend.Gateway and backend.Directory.
// Zero value is usable: every login is rejected and every token is a non-admin.
type FakeBackend struct {
	mu sync.Mutex

	// Accounts maps username to password; LoginAdmin returns "tok-"+username
	Accounts map[string]string
	// Admins holds the tokens for which IsCallerAdmin answers true
	Admins map[string]bool
	// VerifyErr, when set, is returned by IsCallerAdmin
	VerifyErr error
	// LoginErr, when set, is returned by LoginAdmin before checking accounts
	LoginErr error
	// VerifyGate, when set, blocks IsCallerAdmin until it is closed
	VerifyGate chan struct{}

	Profiles   map[string]*backend.Profile
	Roles      map[string]backend.Role
	ProfileErr error

	LoginCalls   atomic.Int32
	ConnectCalls atomic.Int32
	VerifyCalls  atomic.Int32
	ProfileCalls atomic.Int32
	RoleCalls    atomic.Int32
}

// NewFakeBackend creates a backend with one admin account "admin"/"secret"
// and one non-admin account "viewer"/"secret".
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Accounts: map[string]string{"admin": "secret", "viewer": "secret"},
		Admins:   map[string]bool{"tok-admin": true},
		Profiles: map[string]*backend.Profile{},
		Roles:    map[string]backend.Role{},
	}
}

// SetVerifyErr changes the error returned by IsCallerAdmin
func (f *FakeBackend) SetVerifyErr(err error) {
	f.mu.Lock()
	f.VerifyErr = err
	f.mu.Unlock()
}

// SetVerifyGate makes IsCallerAdmin block until gate is closed
func (f *FakeBackend) SetVerifyGate(gate chan struct{}) {
	f.mu.Lock()
	f.VerifyGate = gate
	f.mu.Unlock()
}

// SetAdmin changes the admin answer for token
func (f *FakeBackend) SetAdmin(token string, isAdmin bool) {
	f.mu.Lock()
	if f.Admins == nil {
		f.Admins = map[string]bool{}
	}
	f.Admins[token] = isAdmin
	f.mu.Unlock()
}

func (f *FakeBackend) LoginAdmin(ctx context.Context, username, password string) (string, error) {
	f.LoginCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	if want, ok := f.Accounts[username]; !ok || want != password {
		return "", backend.ErrRejected
	}
	return "tok-" + username, nil
}

func (f *FakeBackend) Connect(ctx context.Context, token string) (backend.Conn, error) {
	f.ConnectCalls.Add(1)
	if token == "" {
		return nil, backend.ErrNotReady
	}
	return &fakeConn{backend: f, token: token}, nil
}

func (f *FakeBackend) CallerProfile(ctx context.Context, principal string) (*backend.Profile, error) {
	f.ProfileCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	return f.Profiles[principal], nil
}

func (f *FakeBackend) CallerRole(ctx context.Context, principal string) (backend.Role, error) {
	f.RoleCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	if role, ok := f.Roles[principal]; ok {
		return role, nil
	}
	return backend.RoleGuest, nil
}

type fakeConn struct {
	backend *FakeBackend
	token   string
}

func (c *fakeConn) Token() string { return c.token }

func (c *fakeConn) IsCallerAdmin(ctx context.Context) (bool, error) {
	f := c.backend
	f.VerifyCalls.Add(1)

	f.mu.Lock()
	gate := f.VerifyGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VerifyErr != nil {
		return false, f.VerifyErr
	}
	return f.Admins[c.token], nil
}
