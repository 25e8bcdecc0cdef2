package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/cli/config"
	"github.com/freightdesk/console/internal/devbackend"
	"github.com/freightdesk/console/internal/livelocation"
	"github.com/freightdesk/console/internal/login"
)

// startDevBackend serves a seeded development backend and returns a client for it
func startDevBackend(t *testing.T) (*backend.Client, *devbackend.Server) {
	t.Helper()

	db, err := devbackend.OpenDatabase(filepath.Join(t.TempDir(), "dev.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	seed, err := devbackend.LoadSeedFile("")
	if err != nil {
		t.Fatalf("failed to load seed: %v", err)
	}
	if err := seed.Apply(db); err != nil {
		t.Fatalf("failed to apply seed: %v", err)
	}
	tokens, err := devbackend.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create tokens: %v", err)
	}

	srv := devbackend.New(db, tokens, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return backend.New(ts.URL, 5*time.Second), srv
}

func TestCheckLogin(t *testing.T) {
	client, _ := startDevBackend(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
		wantOut  string
	}{
		{"admin", "admin", "admin", nil, "✓ Login successful!"},
		{"not an admin", "dispatcher", "dispatcher", login.ErrNotAdmin, "does not have admin access"},
		{"wrong password", "admin", "nope", login.ErrIncorrectCredentials, "Incorrect username or password"},
		{"blank", "  ", "admin", login.ErrEmptyCredentials, "are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runCheckLogin(context.Background(), &out, client, tt.username, tt.password, 0, zerolog.Nop())

			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("expected output to contain %q, got %q", tt.wantOut, out.String())
			}
		})
	}
}

func TestCheckLogin_Unreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	var out bytes.Buffer
	err := runCheckLogin(context.Background(), &out, backend.New(url, time.Second), "admin", "admin", 0, zerolog.Nop())
	if !errors.Is(err, backend.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !strings.Contains(out.String(), "unreachable") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestTrack_ReportsUntilCancelled(t *testing.T) {
	client, _ := startDevBackend(t)
	ctx := context.Background()

	m, sess, err := signIn(ctx, client, "admin", "admin", 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	defer m.End(sess.ID)

	token, ok := sess.Hook.Token()
	if !ok {
		t.Fatal("expected a token after sign in")
	}
	actor, err := client.Actor(token)
	if err != nil {
		t.Fatalf("failed to create actor: %v", err)
	}

	transporters, err := actor.ListTransporters(ctx)
	if err != nil || len(transporters) == 0 {
		t.Fatalf("failed to list transporters: %v", err)
	}

	fixFile := filepath.Join(t.TempDir(), "fix.json")
	if err := os.WriteFile(fixFile, []byte(`{"latitude": -4.04, "longitude": 39.67}`), 0o600); err != nil {
		t.Fatalf("failed to write fix: %v", err)
	}

	reports := make(chan error, 1)
	reporter := reporterFunc(func(ctx context.Context, loc backend.Location) error {
		err := actor.UpdateLiveLocation(ctx, loc)
		select {
		case reports <- err:
		default:
		}
		return err
	})

	tracker := livelocation.NewTracker(&livelocation.FileLocator{Path: fixFile, TransporterID: transporters[0].ID}, reporter, zerolog.Nop())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- runTracker(runCtx, tracker, time.Hour) }()

	select {
	case err := <-reports:
		if err != nil {
			t.Fatalf("report failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no location reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tracker did not stop")
	}
	if tracker.Running() {
		t.Error("tracker still running after cancel")
	}
}

type reporterFunc func(ctx context.Context, loc backend.Location) error

func (f reporterFunc) UpdateLiveLocation(ctx context.Context, loc backend.Location) error {
	return f(ctx, loc)
}

func TestReadCredentials(t *testing.T) {
	t.Setenv("FREIGHTDESK_USERNAME", "env-user")
	t.Setenv("FREIGHTDESK_PASSWORD", "env-pass")

	username, password, err := readCredentials("flag-user", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if username != "flag-user" || password != "env-pass" {
		t.Errorf("expected flags to win over env vars, got %q/%q", username, password)
	}

	t.Setenv("FREIGHTDESK_PASSWORD", "")
	if _, _, err := readCredentials("flag-user", ""); err == nil {
		t.Error("expected an error for a missing password without a terminal")
	}
}

func TestInit_NewConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), config.ConfigFileName)

	if err := runInit(configPath, "http://localhost:8091/", ""); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}
	if len(cfg.Environments) != 1 {
		t.Fatalf("expected 1 environment, got %d", len(cfg.Environments))
	}
	if cfg.Environments[0].Alias != "env-1" {
		t.Errorf("expected alias 'env-1', got '%s'", cfg.Environments[0].Alias)
	}
	if cfg.Environments[0].BackendURL != "http://localhost:8091" {
		t.Errorf("expected trailing slash to be trimmed, got '%s'", cfg.Environments[0].BackendURL)
	}
}

func TestInit_AddsAndDeduplicates(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), config.ConfigFileName)

	if err := runInit(configPath, "http://localhost:8091", "local"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := runInit(configPath, "https://staging.freightdesk.test", "staging"); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	// Same URL again is a no-op
	if err := runInit(configPath, "http://localhost:8091", ""); err != nil {
		t.Fatalf("repeat init failed: %v", err)
	}
	if err := runInit(configPath, "https://other.freightdesk.test", "staging"); err == nil {
		t.Error("expected an error for a duplicate alias")
	}
	if err := runInit(configPath, "not a url", "broken"); err == nil {
		t.Error("expected an error for an invalid backend URL")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Environments) != 2 {
		t.Errorf("expected 2 environments, got %d", len(cfg.Environments))
	}
}

func TestDescribeLoginFailure(t *testing.T) {
	if got := describeLoginFailure(backend.ErrNotReady); !strings.Contains(got, "not ready") {
		t.Errorf("unexpected message: %q", got)
	}
	if got := describeLoginFailure(errors.New("boom")); got != "Login failed: boom" {
		t.Errorf("unexpected message: %q", got)
	}
}
