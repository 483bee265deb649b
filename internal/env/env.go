package env

import (
	"os"
	"path/filepath"
)

const (
	defaultXDGConfigDirname = ".config"
	defaultXDGDataDirname   = ".local/share"
)

var (
	GOTRASH_CONFIG_PATH string

	GOTRASH_LOG_PATH string
)

func init() {
	// https://github.com/charmbracelet/log/issues/35
	os.Setenv("CLICOLOR_FORCE", "1")

	// Follow https://specifications.freedesktop.org/basedir-spec/latest/
	if GOTRASH_CONFIG_PATH = os.Getenv("GOTRASH_CONFIG_PATH"); GOTRASH_CONFIG_PATH == "" {
		GOTRASH_CONFIG_PATH = filepath.Join(ConfigHome(), "gotrash", "config.yaml")
	}

	if GOTRASH_LOG_PATH = os.Getenv("GOTRASH_LOG_PATH"); GOTRASH_LOG_PATH == "" {
		GOTRASH_LOG_PATH = filepath.Join(DataHome(), "gotrash", "debug.log")
	}
}

// ConfigHome returns $XDG_CONFIG_HOME, falling back to ~/.config.
func ConfigHome() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}
		configDir = filepath.Join(homeDir, defaultXDGConfigDirname)
	}
	return configDir
}

// DataHome returns $XDG_DATA_HOME, falling back to ~/.local/share.
func DataHome() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}
		dataDir = filepath.Join(homeDir, defaultXDGDataDirname)
	}
	return dataDir
}
