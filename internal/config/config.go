// Package config provides configuration management for the processor host.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Watchword WatchwordConfig `toml:"watchword"`
}

// ServerConfig contains server settings.
type ServerConfig struct {
	HTTPPort        int           `toml:"http_port" envconfig:"HTTP_PORT"`
	BindAddress     string        `toml:"bind_address" envconfig:"BIND_ADDRESS"`
	RootPath        string        `toml:"root_path" envconfig:"ROOT_PATH"`
	ReadTimeout     time.Duration `toml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `toml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxRequestSize  int64         `toml:"max_request_size" envconfig:"MAX_REQUEST_SIZE"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.HTTPPort)
}

// TelemetryConfig contains telemetry settings.
type TelemetryConfig struct {
	MetricsEnabled bool   `toml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	LogFormat      string `toml:"log_format" envconfig:"LOG_FORMAT"`
	LogLevel       string `toml:"log_level" envconfig:"LOG_LEVEL"`
}

// WatchwordConfig contains the default word lists for the bundled
// watchword processor. Per-request parameters override these.
type WatchwordConfig struct {
	FlagWords   []string `toml:"flag_words"`
	BlockWords  []string `toml:"block_words"`
	Replacement string   `toml:"replacement"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			BindAddress:     "0.0.0.0",
			RootPath:        "/",
			ReadTimeout:     time.Minute,
			WriteTimeout:    time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  10 * 1024 * 1024,
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
			LogFormat:      "json",
			LogLevel:       "info",
		},
		Watchword: WatchwordConfig{
			Replacement: "*****",
		},
	}
}

// Load loads configuration from a TOML file, then applies PROCHOST_*
// environment overrides on top. A missing file is not an error; the
// defaults still get the environment applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if err := envconfig.Process("PROCHOST_SERVER", &cfg.Server); err != nil {
		return nil, fmt.Errorf("reading server environment: %w", err)
	}
	if err := envconfig.Process("PROCHOST_TELEMETRY", &cfg.Telemetry); err != nil {
		return nil, fmt.Errorf("reading telemetry environment: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from file or returns defaults.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config from %s: %v\n", path, err)
		return Default()
	}
	return cfg
}
