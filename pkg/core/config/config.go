// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     config
// Description: Application configuration loaded from TOML or YAML files
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Config holds the complete application configuration
type Config struct {
	General     GeneralConfig     `toml:"general" yaml:"general"`
	Interpreter InterpreterConfig `toml:"interpreter" yaml:"interpreter"`
	Pool        PoolConfig        `toml:"pool" yaml:"pool"`
	Pipe        PipeConfig        `toml:"pipe" yaml:"pipe"`
	Journal     JournalConfig     `toml:"journal" yaml:"journal"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name" yaml:"name"`
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	LogFile   string `toml:"log_file" yaml:"log_file"`
}

// InterpreterConfig holds dispatcher settings
type InterpreterConfig struct {
	CaseSensitive     bool     `toml:"case_sensitive" yaml:"case_sensitive"`
	WarnOnOverwrite   bool     `toml:"warn_on_overwrite" yaml:"warn_on_overwrite"`
	Rethrow           bool     `toml:"rethrow" yaml:"rethrow"`
	MaxLoopIterations int      `toml:"max_loop_iterations" yaml:"max_loop_iterations"`
	Modules           []string `toml:"modules" yaml:"modules"`
	Prompt            string   `toml:"prompt" yaml:"prompt"`
}

// PoolConfig holds parallel job pool settings
type PoolConfig struct {
	// MaxWorkers caps the number of workers; 0 or less means unbounded
	MaxWorkers int    `toml:"max_workers" yaml:"max_workers"`
	Priority   string `toml:"priority" yaml:"priority"`
}

// PipeConfig holds pipe bridge settings
type PipeConfig struct {
	// Transport is "grpc", "websocket" or "line"
	Transport      string   `toml:"transport" yaml:"transport"`
	SocketDir      string   `toml:"socket_dir" yaml:"socket_dir"`
	ErrorPrefix    string   `toml:"error_prefix" yaml:"error_prefix"`
	// Terminator ends every response of the line transport
	Terminator     string   `toml:"terminator" yaml:"terminator"`
	RequestTimeout Duration `toml:"request_timeout" yaml:"request_timeout"`
}

// JournalConfig holds command journal settings
type JournalConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{
		Interpreter: InterpreterConfig{WarnOnOverwrite: true},
	}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file, or YAML for .yaml/.yml
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerror.Newf("config file not found: %s", path).WithCode(zerror.CodeConfigError)
		}
		return nil, zerror.Wrap(err, "failed to read config").WithCode(zerror.CodeIOError)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return nil, zerror.Wrap(err, "failed to parse config").WithCode(zerror.CodeInvalidConfig)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from ZUSE_CONFIG or the default locations.
// Without any config file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv("ZUSE_CONFIG"); path != "" {
		return Load(path)
	}

	defaultPaths := []string{
		"./configs/zuse.toml",
		"./zuse.toml",
		"./zuse.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/zuse/config.toml"),
	}
	for _, p := range defaultPaths {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "zuse"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Interpreter
	if c.Interpreter.MaxLoopIterations == 0 {
		c.Interpreter.MaxLoopIterations = 100000
	}
	if len(c.Interpreter.Modules) == 0 {
		c.Interpreter.Modules = []string{"core", "control", "async", "parallel", "script", "pipe"}
	}
	if c.Interpreter.Prompt == "" {
		c.Interpreter.Prompt = "zuse> "
	}

	// Pool
	if c.Pool.Priority == "" {
		c.Pool.Priority = "normal"
	}

	// Pipe
	if c.Pipe.Transport == "" {
		c.Pipe.Transport = "grpc"
	}
	if c.Pipe.SocketDir == "" {
		c.Pipe.SocketDir = os.TempDir()
	}
	if c.Pipe.ErrorPrefix == "" {
		c.Pipe.ErrorPrefix = "ERROR: "
	}
	if c.Pipe.Terminator == "" {
		c.Pipe.Terminator = "\x00"
	}
	if c.Pipe.RequestTimeout.Duration == 0 {
		c.Pipe.RequestTimeout.Duration = 30 * time.Second
	}

	// Journal
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(c.General.DataDir, "journal.db")
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.Pipe.SocketDir = os.ExpandEnv(c.Pipe.SocketDir)
	c.Journal.Path = os.ExpandEnv(c.Journal.Path)
}

// Validate checks enumerated and numeric settings
func (c *Config) Validate() error {
	switch c.Pipe.Transport {
	case "grpc", "websocket", "line":
	default:
		return zerror.Newf("unknown pipe transport %q", c.Pipe.Transport).
			WithCode(zerror.CodeInvalidConfig).WithDetail("field", "pipe.transport")
	}
	switch c.Pool.Priority {
	case "low", "normal", "high":
	default:
		return zerror.Newf("unknown pool priority %q", c.Pool.Priority).
			WithCode(zerror.CodeInvalidConfig).WithDetail("field", "pool.priority")
	}
	if c.Interpreter.MaxLoopIterations < 0 {
		return zerror.New("max_loop_iterations must not be negative").
			WithCode(zerror.CodeInvalidConfig).WithDetail("field", "interpreter.max_loop_iterations")
	}
	return nil
}

// SocketPath returns the unix socket path for a pipe name
func (c *Config) SocketPath(pipeName string) string {
	return filepath.Join(c.Pipe.SocketDir, "zuse-"+pipeName+".sock")
}
