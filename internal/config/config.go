package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/roskakori/nubops/internal/errors"
	"github.com/roskakori/nubops/internal/subst"
)

// Config represents the application configuration
type Config struct {
	Mode         Mode              `yaml:"mode"`
	TargetFolder string            `yaml:"target_folder"`
	Templates    string            `yaml:"templates,omitempty"`
	Symbols      map[string]string `yaml:"symbols,omitempty"`

	path string
}

// configDir is the default config directory
const configDir = ".config/nubops"
const configFile = "config.yaml"

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Mode:         ModeShow,
		TargetFolder: "/",
		Symbols:      make(map[string]string),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from the default path
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from path. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := New()
		cfg.path = path
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "failed to read config", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "failed to parse config "+path, err)
	}
	cfg.path = path

	// Initialize Symbols map if nil
	if cfg.Symbols == nil {
		cfg.Symbols = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "invalid config "+path, err)
	}

	return cfg, nil
}

// Path returns the file the config was loaded from or is saved to.
func (c *Config) Path() string {
	return c.path
}

// Validate checks the config values
func (c *Config) Validate() error {
	if !IsValidMode(c.Mode) {
		return fmt.Errorf("mode is %q but must be one of: %s", c.Mode, modeNames())
	}
	if !filepath.IsAbs(c.TargetFolder) {
		return fmt.Errorf("target_folder must be an absolute path: %s", c.TargetFolder)
	}
	for _, name := range c.SymbolNames() {
		if !subst.IsIdentifier(name) {
			return fmt.Errorf("symbol name must be an identifier like project_dir: %s", name)
		}
	}
	return nil
}

// Save writes the config to its path, or to the default path for a config
// created with New.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	c.path = path
	return nil
}

// SetSymbol sets a symbol
func (c *Config) SetSymbol(name, value string) error {
	if !subst.IsIdentifier(name) {
		return errors.Validation("symbol name must be an identifier like project_dir: " + name)
	}
	c.Symbols[name] = value
	return nil
}

// SymbolNames returns the configured symbol names, sorted
func (c *Config) SymbolNames() []string {
	names := make([]string, 0, len(c.Symbols))
	for name := range c.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func modeNames() string {
	names := make([]string, 0, len(ValidModes()))
	for _, m := range ValidModes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
