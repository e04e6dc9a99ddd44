package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/inplace/
//   - Linux:   ~/.local/share/inplace/
//
// INPLACE_DATA_DIR overrides both.
func PlatformDataDir() string {
	if dir := os.Getenv("INPLACE_DATA_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/inplace/
//   - Linux:   ~/.config/inplace/
func PlatformConfigDir() string {
	if dir := os.Getenv("INPLACE_DATA_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxConfigDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/inplace/
//   - Linux:   ~/.local/state/inplace/
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", "inplace")
	case "linux":
		if state := os.Getenv("XDG_STATE_HOME"); state != "" {
			return filepath.Join(state, "inplace")
		}
		return filepath.Join(homeDir(), ".local", "state", "inplace")
	default:
		return filepath.Join(fallbackDataDir(), "logs")
	}
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

func macOSDataDir() string {
	return filepath.Join(homeDir(), "Library", "Application Support", "inplace")
}

// Linux paths follow the XDG Base Directory Specification.

func linuxDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "inplace")
	}
	return filepath.Join(homeDir(), ".local", "share", "inplace")
}

func linuxConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "inplace")
	}
	return filepath.Join(homeDir(), ".config", "inplace")
}

func fallbackDataDir() string {
	return filepath.Join(homeDir(), ".inplace")
}

// SupportedConfigFormats lists the file extensions Load understands.
func SupportedConfigFormats() []string {
	return []string{".toml", ".yaml", ".yml", ".json"}
}

// FindConfigFile returns the first existing config file in the config
// directory, or the default TOML path when none exists.
func FindConfigFile() string {
	dir := PlatformConfigDir()
	for _, ext := range SupportedConfigFormats() {
		p := filepath.Join(dir, "config"+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ConfigPath()
}
