// Package config loads and validates the promptprep configuration file.
// Values resolve as Env > TOML > Default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/promptprep/promptprep/internal/chunk"
	"github.com/promptprep/promptprep/internal/fault"
	"github.com/promptprep/promptprep/internal/format"
)

// Config is the root configuration.
type Config struct {
	Chunking   ChunkingConfig   `toml:"chunking"`
	Complexity ComplexityConfig `toml:"complexity"`
	Format     FormatConfig     `toml:"format"`
	Serve      ServeConfig      `toml:"serve"`
	Watch      WatchConfig      `toml:"watch"`
	Session    SessionConfig    `toml:"session"`
}

// ChunkingConfig holds the size limits the splitter works against.
type ChunkingConfig struct {
	MaxSafeSize    int    `toml:"max_safe_size"`   // Largest text accepted without a size warning
	MaxChunkSize   int    `toml:"max_chunk_size"`  // Target upper bound per chunk
	MinChunkSize   int    `toml:"min_chunk_size"`  // Smallest chunk a boundary search may produce
	ContextOverlap int    `toml:"context_overlap"` // Characters of trailing context carried between chunks
	DefaultMode    string `toml:"default_mode"`    // naive, smart, or preserve
}

// ComplexityConfig controls the multi-step task detector.
type ComplexityConfig struct {
	Threshold int `toml:"threshold"` // Minimum length before indicators are considered
}

// FormatConfig controls output rendering.
type FormatConfig struct {
	DefaultMode   string `toml:"default_mode"`   // default, enhanced, markdown, html, terminal
	ChromaStyle   string `toml:"chroma_style"`   // Highlight style name, empty for fallback
	TerminalWidth int    `toml:"terminal_width"` // Word wrap width for terminal rendering
}

// ServeConfig holds the HTTP API settings.
type ServeConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// WatchConfig holds the file watcher settings.
type WatchConfig struct {
	DebounceMs int `toml:"debounce_ms"` // Quiet period before a changed file is revalidated
}

// SessionConfig holds session history persistence settings.
type SessionConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"` // SQLite file, ~ expands to the home directory
}

// DefaultChunkingConfig returns the chunking defaults.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		MaxSafeSize:    8000,
		MaxChunkSize:   chunk.DefaultMaxChunkSize,
		MinChunkSize:   chunk.DefaultMinChunkSize,
		ContextOverlap: chunk.DefaultOverlap,
		DefaultMode:    string(chunk.ModeSmart),
	}
}

// DefaultFormatConfig returns the formatting defaults.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		DefaultMode:   string(format.ModeDefault),
		ChromaStyle:   "",
		TerminalWidth: 100,
	}
}

// DefaultServeConfig returns the HTTP API defaults.
func DefaultServeConfig() ServeConfig {
	return ServeConfig{
		Host: "127.0.0.1",
		Port: 8755,
	}
}

// Default returns a fully populated configuration.
func Default() *Config {
	return &Config{
		Chunking:   DefaultChunkingConfig(),
		Complexity: ComplexityConfig{Threshold: 500},
		Format:     DefaultFormatConfig(),
		Serve:      DefaultServeConfig(),
		Watch:      WatchConfig{DebounceMs: 300},
		Session: SessionConfig{
			Enabled: true,
			DBPath:  "~/.local/share/promptprep/session.db",
		},
	}
}

// DefaultPath returns the config file location. PROMPTPREP_CONFIG wins,
// then XDG_CONFIG_HOME, then ~/.config.
func DefaultPath() string {
	if env := os.Getenv("PROMPTPREP_CONFIG"); env != "" {
		return ExpandHome(env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "promptprep", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "promptprep", "config.toml")
}

// Load reads the config at path, or DefaultPath when path is empty. A
// missing file yields defaults; a malformed or invalid file is a
// configuration-kind error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fault.Wrap(fault.KindConfiguration, "parse_config", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fault.Wrap(fault.KindConfiguration, "read_config", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROMPTPREP_MAX_SAFE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.MaxSafeSize = n
		}
	}
	if v := os.Getenv("PROMPTPREP_MAX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.MaxChunkSize = n
		}
	}
	if v := os.Getenv("PROMPTPREP_SERVE_HOST"); v != "" {
		cfg.Serve.Host = v
	}
	if v := os.Getenv("PROMPTPREP_SERVE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Serve.Port = n
		}
	}
	if v := os.Getenv("PROMPTPREP_SESSION_DB"); v != "" {
		cfg.Session.DBPath = v
	}
}

// Validate checks every section and returns a configuration-kind error
// naming the first offending field.
func (c *Config) Validate() error {
	if err := ValidateChunkingConfig(&c.Chunking); err != nil {
		return fault.Configuration("bad_chunking", err.Error())
	}
	if c.Complexity.Threshold < 0 {
		return fault.Configuration("bad_complexity",
			fmt.Sprintf("threshold must be non-negative, got %d", c.Complexity.Threshold))
	}
	if err := ValidateFormatConfig(&c.Format); err != nil {
		return fault.Configuration("bad_format", err.Error())
	}
	if err := ValidateServeConfig(&c.Serve); err != nil {
		return fault.Configuration("bad_serve", err.Error())
	}
	if c.Watch.DebounceMs < 0 {
		return fault.Configuration("bad_watch",
			fmt.Sprintf("debounce_ms must be non-negative, got %d", c.Watch.DebounceMs))
	}
	if c.Session.Enabled && strings.TrimSpace(c.Session.DBPath) == "" {
		return fault.Configuration("bad_session", "db_path required when session history is enabled")
	}
	return nil
}

// ValidateChunkingConfig validates the chunking section.
func ValidateChunkingConfig(cfg *ChunkingConfig) error {
	if cfg.MaxSafeSize < 1 {
		return fmt.Errorf("max_safe_size must be at least 1, got %d", cfg.MaxSafeSize)
	}
	if cfg.MaxChunkSize < 1 {
		return fmt.Errorf("max_chunk_size must be at least 1, got %d", cfg.MaxChunkSize)
	}
	if cfg.MinChunkSize < 0 {
		return fmt.Errorf("min_chunk_size must be non-negative, got %d", cfg.MinChunkSize)
	}
	if cfg.MinChunkSize > cfg.MaxChunkSize {
		return fmt.Errorf("min_chunk_size (%d) must be <= max_chunk_size (%d)",
			cfg.MinChunkSize, cfg.MaxChunkSize)
	}
	if cfg.ContextOverlap < 0 {
		return fmt.Errorf("context_overlap must be non-negative, got %d", cfg.ContextOverlap)
	}
	if _, err := chunk.ParseMode(cfg.DefaultMode); err != nil {
		return fmt.Errorf("default_mode: %w", err)
	}
	return nil
}

// ValidateFormatConfig validates the format section.
func ValidateFormatConfig(cfg *FormatConfig) error {
	if _, err := format.ParseMode(cfg.DefaultMode); err != nil {
		return fmt.Errorf("default_mode: %w", err)
	}
	if cfg.TerminalWidth < 0 {
		return fmt.Errorf("terminal_width must be non-negative, got %d", cfg.TerminalWidth)
	}
	return nil
}

// ValidateServeConfig validates the serve section.
func ValidateServeConfig(cfg *ServeConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("host must not be empty")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	return nil
}

// ChunkOptions converts the chunking section into splitter options.
func (c *Config) ChunkOptions() chunk.Options {
	return chunk.Options{
		MinChunkSize: c.Chunking.MinChunkSize,
		MaxChunkSize: c.Chunking.MaxChunkSize,
		Overlap:      c.Chunking.ContextOverlap,
	}
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
