// Package config provides configuration types, defaults, and persistence for glint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/glint/internal/log"
	"github.com/zjrosen/glint/internal/render"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all glint configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Render  RenderConfig  `mapstructure:"render"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Log     LogConfig     `mapstructure:"log"`
}

// StoreConfig selects where settings are persisted.
type StoreConfig struct {
	// Backend is "file" (default), "sqlite" or "memory".
	Backend string `mapstructure:"backend"`

	// Path is the directory for the file backend or the database file for
	// sqlite. Empty uses a location under the glint config directory.
	Path string `mapstructure:"path"`
}

// EngineConfig tunes the highlight engine.
type EngineConfig struct {
	// MatchTimeout bounds a single regex scan. Default: 250ms
	MatchTimeout time.Duration `mapstructure:"match_timeout"`

	// CacheTTL is how long compiled patterns stay cached. 0 disables the cache.
	// Default: 10m
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// WatchConfig tunes change handling.
type WatchConfig struct {
	// Debounce is the quiet period after a change before a pass runs.
	// Default: 100ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// RenderConfig controls how frames are painted.
type RenderConfig struct {
	Format  string            `mapstructure:"format"`  // ansi (default), html or plain
	Palette map[string]string `mapstructure:"palette"` // var(--name) lookups, name -> "#hex"
}

// TracingConfig holds OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/glint/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Path  string `mapstructure:"path"`  // empty disables file logging
	Level string `mapstructure:"level"` // debug, info (default), warn, error
}

// Dir returns ~/.config/glint, or "" if the home directory is unavailable.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "glint")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// StorePath returns the configured store path, or the backend's default
// location under Dir.
func (s StoreConfig) StorePath() string {
	if s.Path != "" {
		return s.Path
	}
	dir := Dir()
	if dir == "" {
		dir = ".glint"
	}
	if s.Backend == BackendSQLite {
		return filepath.Join(dir, "glint.db")
	}
	return filepath.Join(dir, "settings")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendFile,
		},
		Engine: EngineConfig{
			MatchTimeout: 250 * time.Millisecond,
			CacheTTL:     10 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Render: RenderConfig{
			Format:  string(render.FormatANSI),
			Palette: map[string]string{},
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers Defaults with v so that partial config files are
// completed.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("engine.match_timeout", d.Engine.MatchTimeout)
	v.SetDefault("engine.cache_ttl", d.Engine.CacheTTL)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("render.format", d.Render.Format)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("log.level", d.Log.Level)
}

// Load unmarshals v and validates the result.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Render.Palette == nil {
		cfg.Render.Palette = map[string]string{}
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func Validate(c Config) error {
	if err := ValidateStore(c.Store); err != nil {
		return err
	}
	if err := ValidateEngine(c.Engine); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	if err := ValidateRender(c.Render); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\" or \"error\", got %q", c.Log.Level)
	}
	return nil
}

// ValidateStore checks the store section.
func ValidateStore(s StoreConfig) error {
	switch s.Backend {
	case "", BackendFile, BackendSQLite, BackendMemory:
		return nil
	default:
		return fmt.Errorf("store.backend must be \"file\", \"sqlite\" or \"memory\", got %q", s.Backend)
	}
}

// ValidateEngine checks the engine section.
func ValidateEngine(e EngineConfig) error {
	if e.MatchTimeout <= 0 {
		return fmt.Errorf("engine.match_timeout must be positive, got %v", e.MatchTimeout)
	}
	if e.CacheTTL < 0 {
		return fmt.Errorf("engine.cache_ttl must not be negative, got %v", e.CacheTTL)
	}
	return nil
}

// ValidateRender checks the output format and that every palette entry is a
// hex color.
func ValidateRender(r RenderConfig) error {
	if _, err := render.ParseFormat(r.Format); err != nil {
		return fmt.Errorf("render.format: %w", err)
	}
	names := make([]string, 0, len(r.Palette))
	for name := range r.Palette {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !render.IsHexColor(r.Palette[name]) {
			return fmt.Errorf("render.palette.%s must be a hex color, got %q", name, r.Palette[name])
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# glint configuration

# Where settings (rules, master toggle, default text color) are stored
store:
  backend: file      # file (default), sqlite or memory
  # path: ~/.config/glint/settings   # directory for file, database file for sqlite

# Highlight engine
engine:
  match_timeout: 250ms   # per-rule regex time limit
  cache_ttl: 10m         # how long compiled patterns are cached (0 disables)

# Change handling for 'glint render --watch' and 'glint view'
watch:
  debounce: 100ms

# Output
render:
  format: ansi   # ansi (default), html or plain
  # Colors for rules that use var(--name). Names are case-insensitive.
  palette: {}
  # palette:
  #   accent: "#FF8800"
  #   text-muted: "#777777"

# OpenTelemetry tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/glint/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Debug log (also enabled by --debug or GLINT_DEBUG=1)
# log:
#   path: glint.log
#   level: info
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
