// Package config holds server configuration with environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the tracker's runtime configuration.
type Config struct {
	// DataDir is where the mutation log database lives.
	DataDir string
	// IDPrefix is used for generated issue ids ("<prefix>-<n>").
	IDPrefix string
	// ReadyLimit caps list_ready results when the caller sets none.
	ReadyLimit int
	// StrictEpicClosure rejects closing an epic with open children.
	StrictEpicClosure bool
}

// Default returns the default configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:           filepath.Join(home, ".beads-mcp"),
		IDPrefix:          "bd",
		ReadyLimit:        50,
		StrictEpicClosure: false,
	}
}

// FromEnv returns the default configuration with BEADS_* environment
// overrides applied.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("BEADS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("BEADS_ID_PREFIX"); v != "" {
		cfg.IDPrefix = v
	}
	if v := os.Getenv("BEADS_READY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReadyLimit = n
		}
	}
	if v := os.Getenv("BEADS_STRICT_EPIC_CLOSURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictEpicClosure = b
		}
	}
	return cfg
}
