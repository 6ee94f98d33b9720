package runtime

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/evaluator"
)

// Config file locations, relative to the project directory and the user's
// home directory.
const (
	ProjectConfigFile = ".pylisp.json"
	UserConfigDir     = ".pylisp"
	UserConfigFile    = "config.json"
)

// Config holds the shell settings.
type Config struct {
	MaxDepth int    `json:"maxDepth,omitempty"`
	History  string `json:"history,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Pretty   bool   `json:"pretty,omitempty"`

	// Source is the file the settings came from; empty for defaults.
	Source string `json:"-"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	cfg := &Config{
		MaxDepth: evaluator.DefaultMaxDepth,
		Prompt:   "pylisp> ",
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.History = filepath.Join(home, UserConfigDir, "history")
	}
	return cfg
}

// ConfigError reports an unreadable or malformed config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the error as a diagnostic.
func (e *ConfigError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EConfig, e.Error(), nil, "")
}

// LoadConfig loads settings from project and user config files.
// Precedence: project (.pylisp.json) → user (~/.pylisp/config.json) →
// defaults. Fields a file leaves out keep their default. A missing file
// falls through; a malformed one is an error.
func LoadConfig(projectDir string) (*Config, error) {
	paths := []string{filepath.Join(projectDir, ProjectConfigFile)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, UserConfigDir, UserConfigFile))
	}

	for _, path := range paths {
		cfg, err := loadConfigFile(path)
		if err == nil {
			return cfg, nil
		}
		if !os.IsNotExist(err) {
			return nil, &ConfigError{Path: path, Err: err}
		}
	}

	return DefaultConfig(), nil
}

func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("maxDepth must not be negative, got %d", cfg.MaxDepth)
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = evaluator.DefaultMaxDepth
	}
	cfg.Source = path
	return cfg, nil
}
