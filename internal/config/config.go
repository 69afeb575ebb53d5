// Package config provides application settings for the input repeater.
//
// Only front-end and hook settings live here. Playback interval and delay are
// entered fresh every session and are never written to disk.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// EnvAPIToken overrides the API token from the file
const EnvAPIToken = "MACRO_API_TOKEN"

// Config represents the application configuration
type Config struct {
	// General contains general application settings
	General GeneralConfig `json:"general"`

	// API contains the local control API settings
	API APIConfig `json:"api"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// Language forces the label language (e.g. "pt"); empty follows the system locale
	Language string `json:"language,omitempty"`

	// TrayEnabled shows the system tray menu; when false the console front end is used
	TrayEnabled bool `json:"tray_enabled"`
}

// APIConfig contains the local control API settings
type APIConfig struct {
	// Enabled starts the HTTP/WebSocket control API
	Enabled bool `json:"enabled"`

	// Addr is the listen address; keep it on loopback
	Addr string `json:"addr"`

	// Token is an optional bearer token required on every request but /health
	Token string `json:"token,omitempty"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			TrayEnabled: true,
		},
		API: APIConfig{
			Enabled: false,
			Addr:    "127.0.0.1:18081",
		},
	}
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	if c.API.Enabled && strings.TrimSpace(c.API.Addr) == "" {
		return fmt.Errorf("api.addr is required when the API is enabled")
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
}

// NewManager creates a configuration manager for path, or for the default
// per-user location when path is empty
func NewManager(path string) (*Manager, error) {
	if path == "" {
		p, err := getConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "macro")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "macro")
	default:
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(dir, "macro")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the file the manager reads and writes
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk and applies environment overrides
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err == nil {
		cfg := DefaultConfig()
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", m.configPath, err)
		}
		m.config = cfg
	}

	applyEnv(m.config)
	return m.config.Validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.API.Token = v
	}
}

// Save writes the configuration to disk, creating the directory if needed
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0600)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}
