// Package config holds the tourtrack client configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (TOURTRACK_SERVER, ...).
const EnvPrefix = "TOURTRACK"

// DefaultTimeout is the per-request ceiling of the API client.
const DefaultTimeout = 30 * time.Second

// ClientConfig holds configuration for the tourtrack client.
type ClientConfig struct {
	Server    string        `mapstructure:"server"`     // Backend base URL (default "http://localhost:8000")
	Timeout   time.Duration `mapstructure:"timeout"`    // Per-request timeout
	DBPath    string        `mapstructure:"db_path"`    // Credential store path (default ~/.tourtrack/tourtrack.db)
	Ephemeral bool          `mapstructure:"ephemeral"`  // Keep credentials in memory only
	LogLevel  string        `mapstructure:"log_level"`  // debug, info, warn, error
	LogFormat string        `mapstructure:"log_format"` // text, json
	Output    string        `mapstructure:"output"`     // table, json, yaml
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Server:    "http://localhost:8000",
		Timeout:   DefaultTimeout,
		DBPath:    filepath.Join(Dir(), "tourtrack.db"),
		LogLevel:  "warn",
		LogFormat: "text",
		Output:    "table",
	}
}

// Dir returns the per-user configuration directory (~/.tourtrack).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tourtrack"
	}
	return filepath.Join(home, ".tourtrack")
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path looks for
// config.yaml in Dir(); a missing file there is not an error.
func Load(path string) (ClientConfig, error) {
	def := DefaultClientConfig()

	v := viper.New()
	v.SetDefault("server", def.Server)
	v.SetDefault("timeout", def.Timeout.String())
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("ephemeral", def.Ephemeral)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("output", def.Output)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return ClientConfig{}, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return ClientConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c ClientConfig) Validate() error {
	if c.Server == "" {
		return errors.New("config: server must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output)
	}
	return nil
}
