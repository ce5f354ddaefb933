package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.Server != "http://localhost:8000" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if !strings.HasSuffix(cfg.DBPath, "tourtrack.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "server: https://tours.example.org\ntimeout: 5s\noutput: yaml\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "https://tours.example.org" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", cfg.Timeout)
	}
	if cfg.Output != "yaml" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat default lost: %q", cfg.LogFormat)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: https://file.example.org\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TOURTRACK_SERVER", "https://env.example.org")
	t.Setenv("TOURTRACK_TIMEOUT", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "https://env.example.org" {
		t.Errorf("Server = %q, want env value", cfg.Server)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %s, want 90s", cfg.Timeout)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr bool
	}{
		{"ok", func(*ClientConfig) {}, false},
		{"empty server", func(c *ClientConfig) { c.Server = "" }, true},
		{"zero timeout", func(c *ClientConfig) { c.Timeout = 0 }, true},
		{"bad output", func(c *ClientConfig) { c.Output = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
