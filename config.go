package hxhook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment overrides applied by LoadConfig.
const (
	EnvProduction = "HXHOOK_PRODUCTION"
	EnvDebug      = "HXHOOK_DEBUG"
	EnvLogLevel   = "HXHOOK_LOG_LEVEL"
	EnvProfile    = "HXHOOK_PROFILE"
	EnvProfileKey = "HXHOOK_PROFILE_KEY"
)

// Config is the file form of runtime options.
//
//	production = false
//	debug = true
//	log_level = "debug"
//
//	[profile]
//	enabled = true
//	key = "change-me"
//	sensitive = false
type Config struct {
	Production bool          `toml:"production" yaml:"production"`
	Debug      bool          `toml:"debug" yaml:"debug"`
	LogLevel   string        `toml:"log_level" yaml:"log_level"`
	Profile    ProfileConfig `toml:"profile" yaml:"profile"`
}

// ProfileConfig controls measurement recording and export.
type ProfileConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Key       string `toml:"key" yaml:"key"`
	Sensitive bool   `toml:"sensitive" yaml:"sensitive"`
}

// DefaultConfig returns the development defaults: debug assertions on,
// info logging, no profiling.
func DefaultConfig() Config {
	return Config{
		Debug:    true,
		LogLevel: "info",
	}
}

// LoadConfig reads a TOML or YAML file (chosen by extension) over the
// defaults and then applies environment overrides. An empty path skips the
// file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
			}
		case ".toml", "":
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
			}
		default:
			return Config{}, fmt.Errorf("config load failed (%s): unsupported extension", path)
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := parseBool(os.Getenv(EnvProduction)); ok {
		cfg.Production = v
	}
	if v, ok := parseBool(os.Getenv(EnvDebug)); ok {
		cfg.Debug = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := parseBool(os.Getenv(EnvProfile)); ok {
		cfg.Profile.Enabled = v
	}
	if v := os.Getenv(EnvProfileKey); v != "" {
		cfg.Profile.Key = v
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// Validate checks the config for contradictions.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("config invalid: log_level %q: %w", c.LogLevel, err)
	}
	if c.Profile.Enabled && c.Production {
		return fmt.Errorf("config invalid: profiling requires a non-production config")
	}
	if c.Profile.Enabled && strings.TrimSpace(c.Profile.Key) == "" {
		return fmt.Errorf("config invalid: profile.key is required when profiling is enabled")
	}
	return nil
}

// Logger builds a zerolog logger writing to w at the configured level.
// Development configs get the console writer.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if !c.Production {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("lib", "hxhook").Logger()
}

// Options converts the config into runtime options. recorder, when non-nil
// and profiling is enabled, becomes the meter; otherwise development configs
// log measurements through the logger.
func (c Config) Options(logger zerolog.Logger, recorder *Recorder) Options {
	opts := Options{
		Production: c.Production,
		Debug:      c.Debug,
		Logger:     &logger,
	}
	if c.Production {
		return opts
	}
	if c.Profile.Enabled && recorder != nil {
		opts.Meter = recorder
	} else {
		opts.Meter = NewLogMeter(logger)
	}
	return opts
}
