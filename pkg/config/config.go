// Package config holds the blockedit settings file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied to fields the settings file leaves empty.
const (
	DefaultHistorySize = 100
	DefaultEventBuffer = 256
	DefaultAPIAddr     = "127.0.0.1:8080"
	DefaultGRPCAddr    = "127.0.0.1:50051"
)

// Config is the top-level settings file.
type Config struct {
	// Grammar is the path of an HCL grammar file. Empty selects the
	// built-in demo language.
	Grammar string `yaml:"grammar,omitempty"`
	// Start overrides the grammar's start symbol.
	Start string `yaml:"start,omitempty"`
	// Document is loaded at startup when it exists and is the default
	// target of save.
	Document string `yaml:"document,omitempty"`

	HistorySize int    `yaml:"history_size"`
	EventBuffer int    `yaml:"event_buffer"`
	LogLevel    string `yaml:"log_level"`

	API     APIConfig     `yaml:"api"`
	GRPC    GRPCConfig    `yaml:"grpc"`
	Journal JournalConfig `yaml:"journal,omitempty"`

	// Syslog lists remote servers that receive a copy of the log.
	Syslog []SyslogConfig `yaml:"syslog,omitempty"`
}

// SyslogConfig is one remote syslog destination.
type SyslogConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port,omitempty"` // default 514
	// Severity is the least severe level forwarded: error, warning, info
	// or debug. Empty forwards everything the log level lets through.
	Severity string `yaml:"severity,omitempty"`
	// Events forwards edit events as well as the log.
	Events bool `yaml:"events,omitempty"`
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	Addr  string            `yaml:"addr"`
	Keys  []string          `yaml:"keys,omitempty"`
	Users map[string]string `yaml:"users,omitempty"` // username -> password
}

// AuthEnabled reports whether any credential is configured.
func (a APIConfig) AuthEnabled() bool {
	return len(a.Keys) > 0 || len(a.Users) > 0
}

// GRPCConfig configures the gRPC editor service.
type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

// JournalConfig configures the on-disk edit event journal. The journal is
// off when Path is empty.
type JournalConfig struct {
	Path     string `yaml:"path,omitempty"`
	MaxSize  int64  `yaml:"max_size,omitempty"`
	MaxFiles int    `yaml:"max_files,omitempty"`
	// Outcome restricts the journal to events with this outcome.
	Outcome string `yaml:"outcome,omitempty"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		HistorySize: DefaultHistorySize,
		EventBuffer: DefaultEventBuffer,
		LogLevel:    "info",
		API:         APIConfig{Addr: DefaultAPIAddr},
		GRPC:        GRPCConfig{Addr: DefaultGRPCAddr},
	}
}

// Load reads a YAML settings file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	// Relative grammar and document paths are relative to the file.
	dir := filepath.Dir(path)
	cfg.Grammar = resolve(dir, cfg.Grammar)
	cfg.Document = resolve(dir, cfg.Document)
	cfg.Journal.Path = resolve(dir, cfg.Journal.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (c *Config) applyDefaults() {
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.API.Addr == "" {
		c.API.Addr = DefaultAPIAddr
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = DefaultGRPCAddr
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks values the defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Journal.MaxSize < 0 || c.Journal.MaxFiles < 0 {
		return fmt.Errorf("journal limits must not be negative")
	}
	for _, sl := range c.Syslog {
		if sl.Host == "" {
			return fmt.Errorf("syslog entries need a host")
		}
		if sl.Port < 0 || sl.Port > 65535 {
			return fmt.Errorf("syslog port %d out of range", sl.Port)
		}
	}
	for user, pass := range c.API.Users {
		if user == "" || pass == "" {
			return fmt.Errorf("api user entries need a name and a password")
		}
	}
	return nil
}

// Level returns the configured log level, Info if it does not parse.
func (c *Config) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}
