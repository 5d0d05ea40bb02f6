package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".prodbot"

// Paths holds resolved filesystem paths for prodbot data.
type Paths struct {
	Base   string // ~/.prodbot
	Config string // ~/.prodbot/config.yaml
	Logs   string // ~/.prodbot/logs
	Data   string // ~/.prodbot/data
}

// ResolvePaths lays out prodbot's files under PRODBOT_HOME, or ~/.prodbot
// when it is unset.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("PRODBOT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Logs:   filepath.Join(base, "logs"),
		Data:   filepath.Join(base, "data"),
	}, nil
}

// CheckpointDB returns the sqlite checkpoint path, honoring an explicit override.
func (p Paths) CheckpointDB(cfg CheckpointConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(p.Data, "checkpoints.db")
}

// EnsureDirs creates the base, log and data directories.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Logs, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return &ConfigError{Message: "creating " + d + ": " + err.Error()}
		}
	}
	return nil
}
