// Package config loads runtime settings from the environment.
//
// There is no configuration file. Every setting has a WM_WIN_TOOL_ prefixed
// environment variable and most can be overridden by a command line flag.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "WM_WIN_TOOL"

// AppName names the per-user data directory.
const AppName = "wm-win-tool"

// Config holds the settings shared by all commands.
type Config struct {
	// DataDir holds the stored sessions.
	DataDir string `envconfig:"DATA_DIR"`
	// Backend selects the window source and sink: wmctrl or ewmh.
	Backend string `envconfig:"BACKEND" default:"wmctrl"`
	// Wmctrl and Xprop are the external tools used by the wmctrl backend.
	Wmctrl string `envconfig:"WMCTRL" default:"wmctrl"`
	Xprop  string `envconfig:"XPROP"  default:"xprop"`
}

// Load reads the configuration from the environment and fills in the
// default data directory.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	return &cfg, nil
}

// DefaultDataDir returns $XDG_DATA_HOME/wm-win-tool, falling back to
// ~/.local/share/wm-win-tool.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine data directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}
