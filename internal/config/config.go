// Package config loads and validates the winsink configuration from
// ~/.config/winsink/config.yaml.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// HotkeyConfig holds the global hotkey bindings. An empty string disables
// the binding.
type HotkeyConfig struct {
	ToggleActive  string `yaml:"toggle_active,omitempty"`
	PinActive     string `yaml:"pin_active,omitempty"`
	ReleaseActive string `yaml:"release_active,omitempty"`
}

// Rule describes windows the daemon pins automatically. Class and Title are
// regular expressions; an empty pattern matches any value. Desktop is nil
// for any desktop; an explicit -1 matches sticky windows. Monitor is the
// RandR output name, empty for any monitor.
type Rule struct {
	Class   string `yaml:"class,omitempty"`
	Title   string `yaml:"title,omitempty"`
	Desktop *int   `yaml:"desktop,omitempty"`
	Monitor string `yaml:"monitor,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel      string       `yaml:"log_level"`
	Display       string       `yaml:"display,omitempty"`
	Socket        string       `yaml:"socket,omitempty"`
	PollInterval  int          `yaml:"poll_interval"`
	ReleaseOnExit *bool        `yaml:"release_on_exit,omitempty"`
	Hotkeys       HotkeyConfig `yaml:"hotkeys"`
	Rules         []Rule       `yaml:"rules,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		PollInterval: 2,
		Hotkeys: HotkeyConfig{
			ToggleActive: "Mod4-Mod1-b",
		},
		// ReleaseOnExit defaults to true via getter
	}
}

// GetReleaseOnExit returns the effective value, defaulting to true. When
// true, the daemon releases every window it pinned before shutting down.
func (c *Config) GetReleaseOnExit() bool {
	if c == nil || c.ReleaseOnExit == nil {
		return true
	}
	return *c.ReleaseOnExit
}

type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winsink", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from path. A missing file yields the
// defaults; unknown keys are rejected.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	cfg := &Config{}
	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse yaml: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = def.LogLevel
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.PollInterval < 1 {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be >= 1 second")}
	}
	for i, rule := range c.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		if strings.TrimSpace(rule.Class) == "" && strings.TrimSpace(rule.Title) == "" {
			return &ValidationError{Path: path, Err: fmt.Errorf("rule must set at least one of class, title")}
		}
		if rule.Class != "" {
			if _, err := regexp.Compile(rule.Class); err != nil {
				return &ValidationError{Path: path + ".class", Err: fmt.Errorf("invalid pattern: %w", err)}
			}
		}
		if rule.Title != "" {
			if _, err := regexp.Compile(rule.Title); err != nil {
				return &ValidationError{Path: path + ".title", Err: fmt.Errorf("invalid pattern: %w", err)}
			}
		}
		if rule.Desktop != nil && *rule.Desktop < -1 {
			return &ValidationError{Path: path + ".desktop", Err: fmt.Errorf("desktop must be >= -1")}
		}
	}
	return nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path. The same marshal
// caveat as Save applies.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
