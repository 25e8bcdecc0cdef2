// Package login implements the admin password login sequence.
package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/auth"
	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/tokenstore"
)

var (
	// ErrEmptyCredentials is returned before any network call
	ErrEmptyCredentials = errors.New("username and password are required")
	// ErrIncorrectCredentials means the backend rejected the username or password
	ErrIncorrectCredentials = errors.New("incorrect username or password")
	// ErrNotAdmin means the credentials were accepted but the account is not an admin
	ErrNotAdmin = errors.New("signed in, but this account does not have admin access")
	// ErrVerification means the admin check could not be completed after sign-in
	ErrVerification = errors.New("could not confirm admin access")
)

// Flow runs the login steps against one session's token store
type Flow struct {
	Store       *tokenstore.Store
	Gateway     backend.Gateway
	Connections *auth.Connections
	Verifier    *auth.Verifier
	// SettleDelay is waited after rebuilding the connection, before verifying
	SettleDelay time.Duration
	// Destination is returned on success
	Destination string
	Logger      zerolog.Logger
}

// Submit runs every step from the start. It returns the destination to
// navigate to, or an error wrapping one of the package's sentinel errors or
// backend.ErrNotReady. On failure after the credential exchange started the
// token is cleared.
func (f *Flow) Submit(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	// Whitespace-only passwords count as empty; any other password is sent as typed.
	if username == "" || strings.TrimSpace(password) == "" {
		return "", ErrEmptyCredentials
	}

	log := f.Logger.With().Str("username", username).Logger()

	token, err := f.Gateway.LoginAdmin(ctx, username, password)
	if err != nil {
		f.rollback("")
		if errors.Is(err, backend.ErrRejected) {
			log.Info().Msg("Admin login rejected")
			return "", fmt.Errorf("%w: %w", ErrIncorrectCredentials, err)
		}
		log.Warn().Err(err).Msg("Admin login exchange failed")
		return "", err
	}

	f.Store.Set(token)

	if _, err := f.Connections.Rebuild(ctx, token); err != nil {
		log.Error().Err(err).Msg("Failed to rebuild backend connection after login")
		f.rollback(token)
		return "", err
	}

	if err := sleep(ctx, f.SettleDelay); err != nil {
		f.rollback(token)
		return "", err
	}

	isAdmin, err := f.Verifier.Verify(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("Admin verification failed after login")
		f.rollback(token)
		return "", fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if !isAdmin {
		log.Warn().Msg("Login succeeded but account is not an admin")
		f.rollback(token)
		return "", ErrNotAdmin
	}

	log.Info().Msg("Admin logged in")
	return f.Destination, nil
}

func (f *Flow) rollback(token string) {
	f.Store.Clear()
	f.Connections.Drop()
	if token != "" {
		f.Verifier.Invalidate(token)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
