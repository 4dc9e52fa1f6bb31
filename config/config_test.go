package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.TokensPerMinute != 30000 {
		t.Errorf("TokensPerMinute = %d, want 30000", cfg.TokensPerMinute)
	}
	if cfg.EstTokensPerRequest != 1400 {
		t.Errorf("EstTokensPerRequest = %d, want 1400", cfg.EstTokensPerRequest)
	}
	if cfg.BaseRetryDelay() != 1200*time.Millisecond {
		t.Errorf("BaseRetryDelay = %v, want 1200ms", cfg.BaseRetryDelay())
	}
	if cfg.MaxRetries != 8 {
		t.Errorf("MaxRetries = %d, want 8", cfg.MaxRetries)
	}
	if cfg.ResultDB != "acronymizer.db" {
		t.Errorf("ResultDB = %q, want acronymizer.db", cfg.ResultDB)
	}
	if cfg.SourceDB != "" {
		t.Errorf("SourceDB = %q, want empty (required, no default)", cfg.SourceDB)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "tokens_per_minute: 90000\nsource_db: /data/library.db\nnotify: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TokensPerMinute != 90000 {
		t.Errorf("TokensPerMinute = %d, want file override 90000", cfg.TokensPerMinute)
	}
	if cfg.SourceDB != "/data/library.db" {
		t.Errorf("SourceDB = %q, want /data/library.db", cfg.SourceDB)
	}
	if !cfg.Notify {
		t.Error("Notify = false, want file override true")
	}
	// Untouched keys keep their defaults.
	if cfg.EstTokensPerRequest != 1400 {
		t.Errorf("EstTokensPerRequest = %d, want default 1400", cfg.EstTokensPerRequest)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tokens_per_minute: [not a number"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load of malformed config returned nil error")
	}
}

func TestLoadEnvOverridesDatabases(t *testing.T) {
	t.Setenv("ACRONYMIZER_SOURCE_DB", "/env/source.db")
	t.Setenv("ACRONYMIZER_RESULT_DB", "/env/result.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceDB != "/env/source.db" || cfg.ResultDB != "/env/result.db" {
		t.Errorf("env overrides not applied: source=%q result=%q", cfg.SourceDB, cfg.ResultDB)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) { c.SourceDB = "/data/library.db" }, false},
		{"missing source db", func(c *Config) {}, true},
		{"no providers", func(c *Config) {
			c.SourceDB = "/data/library.db"
			c.LLMProviders = nil
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
