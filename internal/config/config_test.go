package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.Get()
	if !cfg.General.TrayEnabled {
		t.Error("Expected tray enabled by default")
	}
	if cfg.API.Enabled {
		t.Error("Expected API disabled by default")
	}
	if cfg.API.Addr != "127.0.0.1:18081" {
		t.Errorf("Expected loopback default address, got '%s'", cfg.API.Addr)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m, _ := NewManager(path)
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected config file to exist: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"general":{"language":"pt"},"api":{"enabled":true,"addr":"127.0.0.1:9999"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.Get()
	if cfg.General.Language != "pt" {
		t.Errorf("Expected language 'pt', got '%s'", cfg.General.Language)
	}
	if !cfg.API.Enabled || cfg.API.Addr != "127.0.0.1:9999" {
		t.Errorf("Unexpected API settings: %+v", cfg.API)
	}
	// fields absent from the file keep their defaults
	if !cfg.General.TrayEnabled {
		t.Error("Expected tray_enabled default to survive a partial file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m, _ := NewManager(path)

	os.WriteFile(path, []byte(`{not json`), 0600)
	if err := m.Load(); err == nil {
		t.Error("Expected parse error")
	}

	os.WriteFile(path, []byte(`{"api":{"enabled":true,"addr":""}}`), 0600)
	if err := m.Load(); err == nil {
		t.Error("Expected validation error for empty API address")
	}
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv(EnvAPIToken, "secret")
	m, _ := NewManager(filepath.Join(t.TempDir(), "config.json"))
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Get().API.Token; got != "secret" {
		t.Errorf("Expected token from env, got '%s'", got)
	}
}
