// Package config loads relayfix configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds relayfix options.
type Config struct {
	// InstallPath overrides install discovery when set.
	InstallPath string `yaml:"install_path"`

	// ServiceName is the systemd unit to query and restart.
	ServiceName string `yaml:"service_name"`

	// BackupDir is where timestamped copies of the handler file live.
	BackupDir string `yaml:"backup_dir"`

	// JournalPath is the run-history SQLite database. Empty disables history.
	JournalPath string `yaml:"journal_path"`

	// KeepBackupDays prunes older backups after a successful fix; 0 keeps
	// everything.
	KeepBackupDays int `yaml:"keep_backup_days"`

	// LogLevel sets verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// NoRestart and NoBackup set the default for the matching fix/undo flags.
	NoRestart bool `yaml:"no_restart"`
	NoBackup  bool `yaml:"no_backup"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	dataDir := dataHome()
	return &Config{
		ServiceName:    "relaybot",
		BackupDir:      filepath.Join(dataDir, "backups"),
		JournalPath:    filepath.Join(dataDir, "history.db"),
		KeepBackupDays: 0,
		LogLevel:       "info",
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "relayfix", "config.yaml")
	}
	return filepath.Join(".relayfix", "config.yaml")
}

// Load reads configuration from path. A missing file returns the defaults
// without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LockPath returns the run-lock file used to serialize mutating invocations.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.BackupDir), "relayfix.lock")
}

func dataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "relayfix")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "relayfix")
	}
	return ".relayfix"
}
