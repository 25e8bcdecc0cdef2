package userconfig

import (
	"os"
	"strings"
	"testing"
)

func TestSelectedEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	alias, err := GetSelectedEnvironment()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alias != "" {
		t.Errorf("expected no selection, got %q", alias)
	}

	if err := SetSelectedEnvironment("staging"); err != nil {
		t.Fatalf("failed to select: %v", err)
	}
	if err := RememberUsername("ops"); err != nil {
		t.Fatalf("failed to remember username: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SelectedEnvironment != "staging" || cfg.LastUsername != "ops" {
		t.Errorf("unexpected config %+v", cfg)
	}

	path, _ := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if strings.Contains(string(data), "token") {
		t.Error("user config must not contain tokens")
	}
}
