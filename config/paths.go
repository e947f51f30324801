package config

import (
	"os"
	"path/filepath"
)

const appName = "taskdeck"

// DefaultPath returns $XDG_CONFIG_HOME/taskdeck/config.yaml, falling back to
// ~/.config.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appName, "config.yaml")
	}
	return filepath.Join(home, ".config", appName, "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/taskdeck, falling back to
// ~/.local/share.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}
