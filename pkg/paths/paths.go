// Package paths provides centralized path handling for modsmith.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for modsmith
	EnvConfigDir = "MODSMITH_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for modsmith
	EnvCacheDir = "MODSMITH_CACHE_DIR"

	// EnvStateDir overrides the XDG state directory for modsmith
	EnvStateDir = "MODSMITH_STATE_DIR"
)

// Default directories and files
const (
	// AppDirName is the directory name for modsmith-specific files
	AppDirName = "modsmith"

	// ConfigFileName is the name of the application config file
	ConfigFileName = "config.toml"

	// PolicyFileName is the default name of the policy rules file
	PolicyFileName = "policy.json"

	// ManifestFileName is the name of the per-project manifest file
	ManifestFileName = "modsmith.json"

	// IndexFileName is the name of the package index file
	IndexFileName = "modrinth.index.json"

	// ModsDirName is the directory mods are materialized into
	ModsDirName = "mods"
)

// ConfigDir returns the modsmith configuration directory,
// honoring MODSMITH_CONFIG_DIR over the XDG default.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// CacheDir returns the modsmith cache directory,
// honoring MODSMITH_CACHE_DIR over the XDG default.
func CacheDir() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.CacheHome, AppDirName)
}

// StateDir returns the modsmith state directory (logs, crash reports),
// honoring MODSMITH_STATE_DIR over the XDG default.
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.StateHome, AppDirName)
}

// ConfigFile returns the full path of the application config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// PolicyFile returns the full path of the default policy rules file.
func PolicyFile() string {
	return filepath.Join(ConfigDir(), PolicyFileName)
}
