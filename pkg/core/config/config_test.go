package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.General.Name != "zuse" {
		t.Errorf("General.Name = %v, want zuse", cfg.General.Name)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("General.LogLevel = %v, want info", cfg.General.LogLevel)
	}
	if cfg.Interpreter.CaseSensitive {
		t.Error("Interpreter.CaseSensitive should default to false")
	}
	if !cfg.Interpreter.WarnOnOverwrite {
		t.Error("Interpreter.WarnOnOverwrite should default to true")
	}
	if len(cfg.Interpreter.Modules) != 6 {
		t.Errorf("Interpreter.Modules = %v", cfg.Interpreter.Modules)
	}
	if cfg.Pipe.Transport != "grpc" {
		t.Errorf("Pipe.Transport = %v, want grpc", cfg.Pipe.Transport)
	}
	if cfg.Pipe.ErrorPrefix != "ERROR: " {
		t.Errorf("Pipe.ErrorPrefix = %q", cfg.Pipe.ErrorPrefix)
	}
	if cfg.Pipe.RequestTimeout.Duration != 30*time.Second {
		t.Errorf("Pipe.RequestTimeout = %v, want 30s", cfg.Pipe.RequestTimeout.Duration)
	}
	if cfg.Journal.Path != filepath.Join("./data", "journal.db") {
		t.Errorf("Journal.Path = %v", cfg.Journal.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if !zerror.HasCode(err, zerror.CodeConfigError) {
		t.Errorf("Load() error = %v, want CONFIG_ERROR", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "zuse.toml")
	configContent := `
[general]
name = "test"

[interpreter]
case_sensitive = true
modules = ["core", "control"]

[pool]
max_workers = 4

[pipe]
transport = "websocket"
request_timeout = "5s"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.Name != "test" {
		t.Errorf("General.Name = %v, want test", cfg.General.Name)
	}
	if !cfg.Interpreter.CaseSensitive {
		t.Error("Interpreter.CaseSensitive = false, want true")
	}
	if !cfg.Interpreter.WarnOnOverwrite {
		t.Error("unset WarnOnOverwrite should keep its default")
	}
	if len(cfg.Interpreter.Modules) != 2 {
		t.Errorf("Interpreter.Modules = %v", cfg.Interpreter.Modules)
	}
	if cfg.Pool.MaxWorkers != 4 {
		t.Errorf("Pool.MaxWorkers = %v, want 4", cfg.Pool.MaxWorkers)
	}
	if cfg.Pipe.Transport != "websocket" {
		t.Errorf("Pipe.Transport = %v", cfg.Pipe.Transport)
	}
	if cfg.Pipe.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("Pipe.RequestTimeout = %v", cfg.Pipe.RequestTimeout.Duration)
	}
	if cfg.Pipe.ErrorPrefix != "ERROR: " {
		t.Errorf("Pipe.ErrorPrefix = %q (default)", cfg.Pipe.ErrorPrefix)
	}
}

func TestLoad_YAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "zuse.yaml")
	configContent := `
general:
  log_level: debug
pool:
  max_workers: 2
  priority: high
pipe:
  error_prefix: "ERR "
  request_timeout: 250ms
journal:
  enabled: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.General.LogLevel != "debug" {
		t.Errorf("General.LogLevel = %v", cfg.General.LogLevel)
	}
	if cfg.Pool.MaxWorkers != 2 || cfg.Pool.Priority != "high" {
		t.Errorf("Pool = %+v", cfg.Pool)
	}
	if cfg.Pipe.ErrorPrefix != "ERR " {
		t.Errorf("Pipe.ErrorPrefix = %q", cfg.Pipe.ErrorPrefix)
	}
	if cfg.Pipe.RequestTimeout.Duration != 250*time.Millisecond {
		t.Errorf("Pipe.RequestTimeout = %v", cfg.Pipe.RequestTimeout.Duration)
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled = false")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad transport", "[pipe]\ntransport = \"carrier-pigeon\"\n"},
		{"bad priority", "[pool]\npriority = \"urgent\"\n"},
		{"negative loop cap", "[interpreter]\nmax_loop_iterations = -1\n"},
		{"syntax", "[pipe\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "zuse.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !zerror.HasCode(err, zerror.CodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("ZUSE_TEST_SOCKETS", "/run/zuse")

	cfg := Default()
	cfg.Pipe.SocketDir = "$ZUSE_TEST_SOCKETS"
	cfg.expandEnvVars()

	if cfg.Pipe.SocketDir != "/run/zuse" {
		t.Errorf("SocketDir = %v, want /run/zuse", cfg.Pipe.SocketDir)
	}
	if got := cfg.SocketPath("P"); got != "/run/zuse/zuse-P.sock" {
		t.Errorf("SocketPath() = %v", got)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	t.Setenv("ZUSE_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	originalWd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(originalWd)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.General.Name != "zuse" {
		t.Errorf("expected defaults, got %+v", cfg.General)
	}
}

func TestLoadFromEnv_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[general]\nname = \"from-env\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ZUSE_CONFIG", path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.General.Name != "from-env" {
		t.Errorf("General.Name = %v", cfg.General.Name)
	}
}
