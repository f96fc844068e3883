// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
)

// CWD-relative directory names used when nothing else is configured.
const (
	DefaultConfigDirName = ".tweetsync"
	DefaultDataDirName   = ".tweetsync-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TWEETSYNC_CONFIG_DIR"
	EnvDataDir   = "TWEETSYNC_DATA_DIR"
)

// getwd is replaced in tests.
var getwd = os.Getwd

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TWEETSYNC_CONFIG_DIR env > $(CWD)/.tweetsync.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return cwdJoin(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > data_dir from config.yaml > TWEETSYNC_DATA_DIR env >
// $(CWD)/.tweetsync-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return cwdJoin(DefaultDataDirName)
}

func cwdJoin(name string) (string, error) {
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
