package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Server.BaseURL = "https://notes.example.com/api"
	cfg.Gesture.CellWidthPx = 10

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.Server.BaseURL != "https://notes.example.com/api" {
		t.Errorf("Server.BaseURL: got %q", loaded.Server.BaseURL)
	}
	if loaded.Gesture.CellWidthPx != 10 {
		t.Errorf("Gesture.CellWidthPx: got %d, want 10", loaded.Gesture.CellWidthPx)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvServer, "")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8000/api" {
		t.Errorf("default BaseURL: got %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout().Seconds() != 30 {
		t.Errorf("default timeout: got %v", cfg.Server.Timeout())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(EnvServer, "https://override.example.com/api/")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.BaseURL != "https://override.example.com/api" {
		t.Errorf("BaseURL: got %q, want trailing slash trimmed override", cfg.Server.BaseURL)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	// t.Setenv registers cleanup; unsetting lets godotenv fill the variable.
	t.Setenv(EnvServer, "")
	if err := os.Unsetenv(EnvServer); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvServer+"=http://dotenv.local/api\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.BaseURL != "http://dotenv.local/api" {
		t.Errorf("BaseURL: got %q", cfg.Server.BaseURL)
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	partial := `version: 1
server:
  base_url: http://10.0.0.2:8000/api
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(partial), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.Gesture.CellWidthPx != 8 {
		t.Errorf("CellWidthPx: got %d, want default 8", cfg.Gesture.CellWidthPx)
	}
	if cfg.Server.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds: got %d, want default 30", cfg.Server.TimeoutSeconds)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty url", func(c *Config) { c.Server.BaseURL = "" }, true},
		{"no scheme", func(c *Config) { c.Server.BaseURL = "localhost:8000" }, true},
		{"negative timeout", func(c *Config) { c.Server.TimeoutSeconds = -1 }, true},
		{"zero cell width", func(c *Config) { c.Gesture.CellWidthPx = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
