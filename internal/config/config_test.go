package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/promptprep/promptprep/internal/fault"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Chunking.MaxChunkSize != 8000 {
		t.Errorf("max_chunk_size = %d, want 8000", cfg.Chunking.MaxChunkSize)
	}
	if cfg.Chunking.DefaultMode != "smart" {
		t.Errorf("default_mode = %q, want smart", cfg.Chunking.DefaultMode)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Serve.Port != DefaultServeConfig().Port {
		t.Errorf("port = %d, want default", cfg.Serve.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[chunking]
max_chunk_size = 4000
min_chunk_size = 100
default_mode = "preserve"

[serve]
host = "0.0.0.0"
port = 9000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chunking.MaxChunkSize != 4000 {
		t.Errorf("max_chunk_size = %d, want 4000", cfg.Chunking.MaxChunkSize)
	}
	if cfg.Chunking.DefaultMode != "preserve" {
		t.Errorf("default_mode = %q, want preserve", cfg.Chunking.DefaultMode)
	}
	if cfg.Serve.Host != "0.0.0.0" || cfg.Serve.Port != 9000 {
		t.Errorf("serve = %+v", cfg.Serve)
	}
	// Untouched sections keep defaults.
	if cfg.Watch.DebounceMs != 300 {
		t.Errorf("debounce_ms = %d, want 300", cfg.Watch.DebounceMs)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[chunking\nmax ="), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !fault.IsKind(err, fault.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max chunk size", func(c *Config) { c.Chunking.MaxChunkSize = 0 }},
		{"min above max", func(c *Config) { c.Chunking.MinChunkSize = 9001 }},
		{"negative overlap", func(c *Config) { c.Chunking.ContextOverlap = -1 }},
		{"unknown chunk mode", func(c *Config) { c.Chunking.DefaultMode = "clever" }},
		{"unknown format mode", func(c *Config) { c.Format.DefaultMode = "fancy" }},
		{"empty host", func(c *Config) { c.Serve.Host = " " }},
		{"port out of range", func(c *Config) { c.Serve.Port = 70000 }},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -5 }},
		{"session without db path", func(c *Config) { c.Session.DBPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !fault.IsKind(err, fault.KindConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTPREP_MAX_CHUNK_SIZE", "2000")
	t.Setenv("PROMPTPREP_SERVE_PORT", "9100")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chunking.MaxChunkSize != 2000 {
		t.Errorf("max_chunk_size = %d, want 2000 from env", cfg.Chunking.MaxChunkSize)
	}
	if cfg.Serve.Port != 9100 {
		t.Errorf("port = %d, want 9100 from env", cfg.Serve.Port)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandHome("~/x.db"); got != filepath.Join(home, "x.db") {
		t.Errorf("ExpandHome(~/x.db) = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path altered: %q", got)
	}
}

func TestChunkOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.ChunkOptions()
	if opts.MaxChunkSize != cfg.Chunking.MaxChunkSize {
		t.Errorf("MaxChunkSize = %d", opts.MaxChunkSize)
	}
	if opts.Overlap != cfg.Chunking.ContextOverlap {
		t.Errorf("Overlap = %d", opts.Overlap)
	}
}
