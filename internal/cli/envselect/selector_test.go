package envselect

import (
	"testing"

	"github.com/freightdesk/console/internal/cli/config"
	"github.com/freightdesk/console/internal/cli/userconfig"
)

func TestResolveEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &config.Config{
		Environments: []config.Environment{
			{Alias: "local", BackendURL: "http://localhost:8091"},
			{Alias: "staging", BackendURL: "https://staging.freightdesk.test"},
		},
	}

	env, err := ResolveEnvironment(cfg, "staging")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Alias != "staging" {
		t.Errorf("expected staging, got %s", env.Alias)
	}

	if _, err := ResolveEnvironment(cfg, "production"); err == nil {
		t.Error("expected error for unknown alias")
	}

	if err := userconfig.SetSelectedEnvironment("local"); err != nil {
		t.Fatalf("failed to select: %v", err)
	}
	env, err = ResolveEnvironment(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Alias != "local" {
		t.Errorf("expected the selected environment, got %s", env.Alias)
	}
}

func TestResolveEnvironment_SingleEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// A stale selection is ignored and cleared
	if err := userconfig.SetSelectedEnvironment("gone"); err != nil {
		t.Fatalf("failed to select: %v", err)
	}

	cfg := config.DefaultConfig()
	env, err := ResolveEnvironment(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Alias != "local" {
		t.Errorf("expected local, got %s", env.Alias)
	}

	selected, _ := userconfig.GetSelectedEnvironment()
	if selected != "" {
		t.Errorf("expected stale selection to be cleared, got %q", selected)
	}
}
