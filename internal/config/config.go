// Package config holds the interpreter and CLI settings and loads them from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no -config flag is given.
const EnvVar = "VEON_CONFIG"

// Config is the full set of user-tunable settings.
type Config struct {
	// MaxCallDepth bounds nested calls before a RecursionError is raised.
	MaxCallDepth int `yaml:"max_call_depth"`
	// LogLevel is one of debug, verbose, info, warning, error.
	LogLevel string `yaml:"log_level"`
	// Color enables styled terminal output.
	Color bool `yaml:"color"`
	// HistoryFile is where the REPL keeps its line history. Empty disables history.
	HistoryFile string `yaml:"history_file"`
}

var validLevels = []string{"debug", "verbose", "info", "warning", "error"}

// Default returns the built-in settings. History goes to ~/.veon_history
// when a home directory is known.
func Default() Config {
	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".veon_history")
	}
	return Config{
		MaxCallDepth: 1000,
		LogLevel:     "info",
		Color:        true,
		HistoryFile:  history,
	}
}

// Load reads a YAML file on top of Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("max_call_depth must be positive, got %d", c.MaxCallDepth)
	}
	for _, l := range validLevels {
		if strings.EqualFold(c.LogLevel, l) {
			return nil
		}
	}
	return fmt.Errorf("unknown log_level %q (want one of %s)", c.LogLevel, strings.Join(validLevels, ", "))
}

// Locate returns the config path to load: the explicit flag value if set,
// otherwise $VEON_CONFIG. An empty result means "use defaults".
func Locate(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(EnvVar)
}
