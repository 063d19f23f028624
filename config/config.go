package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/lspboost/booster"
)

const configDirName = ".lspboost"

// Config matches .lspboost/config.yaml inside the workspace.
type Config struct {
	// Enabled activates the booster integration at startup.
	Enabled bool `yaml:"enabled"`
	// NoRemoteBoost skips wrapping when the workspace is remote.
	NoRemoteBoost bool `yaml:"no_remote_boost"`
	// IOOnly restricts the booster to stream buffering.
	IOOnly bool `yaml:"io_only"`
	// Program overrides the booster executable name.
	Program string `yaml:"program,omitempty"`
	// FalseToken overrides the JSON false stand-in.
	FalseToken string `yaml:"false_token,omitempty"`
	// LedgerPath overrides where session records are stored.
	LedgerPath string `yaml:"ledger_path,omitempty"`
	// LogFile receives booster log output; empty logs to stderr.
	LogFile string `yaml:"log_file,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{Enabled: true}
}

// Dir returns the workspace-local configuration directory.
func Dir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, configDirName)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(Dir(workspace), "config.yaml")
}

// DefaultLedgerPath returns the session database path for a workspace.
func DefaultLedgerPath(workspace string) string {
	return filepath.Join(Dir(workspace), "sessions.db")
}

// Load reads the YAML config, falling back to defaults when the file is
// missing. Any other read or parse failure is surfaced.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config YAML, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Options translates the file config into booster feature options.
func (c *Config) Options() booster.Options {
	return booster.Options{
		Program:       c.Program,
		FalseToken:    c.FalseToken,
		NoRemoteBoost: c.NoRemoteBoost,
		IOOnly:        c.IOOnly,
	}
}

// LedgerPathOrDefault resolves the ledger location for a workspace.
func (c *Config) LedgerPathOrDefault(workspace string) string {
	if c.LedgerPath != "" {
		return c.LedgerPath
	}
	return DefaultLedgerPath(workspace)
}
