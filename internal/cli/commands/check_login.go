package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/cli/userconfig"
	"github.com/freightdesk/console/internal/login"
	"github.com/freightdesk/console/internal/session"
)

// NewCheckLoginCmd creates the check-login command
func NewCheckLoginCmd() *cobra.Command {
	var envAlias, username, password string
	var settle time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check-login",
		Short: "Check that an account can sign in to the admin console",
		Long: `Runs the admin console login against a marketplace backend and reports
whether the account is accepted and has admin access.

The token obtained is kept in memory only and discarded on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := getEnvironment(envAlias)
			if err != nil {
				return err
			}

			username, password, err := readCredentials(username, password)
			if err != nil {
				return err
			}

			fmt.Printf("Signing in to %s (%s)...\n", env.Alias, env.BackendURL)
			err = runCheckLogin(cmd.Context(), os.Stdout, newBackendClient(env), username, password, settle, newLogger(verbose))
			if err == nil {
				_ = userconfig.RememberUsername(username)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&envAlias, "env", "", "Environment alias from freightdesk.json")
	cmd.Flags().StringVar(&username, "username", "", "Username (or set FREIGHTDESK_USERNAME, will prompt if not provided)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set FREIGHTDESK_PASSWORD, will prompt if not provided)")
	cmd.Flags().DurationVar(&settle, "settle", 250*time.Millisecond, "Delay between connection rebuild and admin verification")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each step")

	return cmd
}

// signIn runs the login flow in a fresh in-memory session. The caller ends
// the session through the returned manager.
func signIn(ctx context.Context, client *backend.Client, username, password string, settle time.Duration, log zerolog.Logger) (*session.Manager, *session.Session, error) {
	m := session.NewManager(session.Options{
		Gateway:   client,
		Directory: client,
		IdleTTL:   24 * time.Hour,
		Logger:    log,
	})
	sess := m.Create()

	if _, err := sess.LoginFlow(settle, "").Submit(ctx, username, password); err != nil {
		m.End(sess.ID)
		return nil, nil, err
	}
	return m, sess, nil
}

func runCheckLogin(ctx context.Context, out io.Writer, client *backend.Client, username, password string, settle time.Duration, log zerolog.Logger) error {
	m, sess, err := signIn(ctx, client, username, password, settle, log)
	if err != nil {
		fmt.Fprintf(out, "✗ %s\n", describeLoginFailure(err))
		return err
	}
	defer m.End(sess.ID)

	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  Account: %s\n", username)
	fmt.Fprintln(out, "  Role: Admin")
	return nil
}

func describeLoginFailure(err error) string {
	switch {
	case errors.Is(err, login.ErrEmptyCredentials):
		return "Username and password are required"
	case errors.Is(err, login.ErrIncorrectCredentials):
		return "Incorrect username or password"
	case errors.Is(err, login.ErrNotAdmin):
		return "Signed in, but this account does not have admin access"
	case errors.Is(err, backend.ErrNotReady):
		return "Backend connection not ready, try again"
	case errors.Is(err, login.ErrVerification):
		return "Could not confirm admin access"
	case errors.Is(err, backend.ErrUnavailable):
		return "Marketplace backend is unreachable"
	default:
		return fmt.Sprintf("Login failed: %v", err)
	}
}
