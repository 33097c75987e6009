package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Telemetry.LogFormat != "json" || cfg.Telemetry.LogLevel != "info" {
		t.Errorf("telemetry defaults = %+v", cfg.Telemetry)
	}
	if !cfg.Telemetry.MetricsEnabled {
		t.Error("metrics disabled by default")
	}
	if cfg.Watchword.Replacement != "*****" {
		t.Errorf("Replacement = %q", cfg.Watchword.Replacement)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
http_port = 9000
root_path = "/gw"

[telemetry]
log_level = "debug"

[watchword]
flag_words = ["alpha", "beta"]
block_words = ["gamma"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.Server.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d, want 9000", cfg.Server.HTTPPort)
	}
	if cfg.Server.RootPath != "/gw" {
		t.Errorf("RootPath = %q", cfg.Server.RootPath)
	}
	// Unset keys keep their defaults.
	if cfg.Server.ReadTimeout != time.Minute {
		t.Errorf("ReadTimeout = %v, want default", cfg.Server.ReadTimeout)
	}
	if cfg.Server.BindAddress != "0.0.0.0" {
		t.Errorf("BindAddress = %q", cfg.Server.BindAddress)
	}
	if cfg.Telemetry.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.Telemetry.LogLevel)
	}
	if len(cfg.Watchword.FlagWords) != 2 || len(cfg.Watchword.BlockWords) != 1 {
		t.Errorf("watchword lists = %+v", cfg.Watchword)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() = %v, want defaults for a missing file", err)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want default", cfg.Server.HTTPPort)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nbroken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed file accepted")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PROCHOST_SERVER_HTTP_PORT", "7070")
	t.Setenv("PROCHOST_TELEMETRY_LOG_FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d, want 7070 from environment", cfg.Server.HTTPPort)
	}
	if cfg.Telemetry.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text from environment", cfg.Telemetry.LogFormat)
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not toml at all ["), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := LoadOrDefault(path)
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want default after parse failure", cfg.Server.HTTPPort)
	}
}
