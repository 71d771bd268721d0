// Package config provides configuration management for skiff.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the application name used for directories.
	AppName = "skiff"
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "config.yaml"

	// ConfigDirEnvVar overrides the configuration directory.
	ConfigDirEnvVar = "SKIFF_CONFIG_DIR"
	// DataDirEnvVar overrides the data directory (profile store location).
	DataDirEnvVar = "SKIFF_DATA_DIR"
)

// Paths holds all the application paths.
type Paths struct {
	ConfigDir  string
	DataDir    string
	CacheDir   string
	ConfigFile string
}

// GetPaths returns the application paths following the XDG Base Directory specification.
func GetPaths() Paths {
	configDir := getConfigDir()
	return Paths{
		ConfigDir:  configDir,
		DataDir:    getDataDir(),
		CacheDir:   getCacheDir(),
		ConfigFile: filepath.Join(configDir, ConfigFileName),
	}
}

// ProfilesDir returns the default directory of the file profile store.
func (p Paths) ProfilesDir() string {
	return filepath.Join(p.DataDir, "profiles")
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir
	}

	home := os.Getenv("HOME")
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", AppName)
		}
	case "darwin":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		if home != "" {
			// An existing ~/.config/skiff wins over the macOS location
			xdgPath := filepath.Join(home, ".config", AppName)
			if _, err := os.Stat(xdgPath); err == nil {
				return xdgPath
			}
			return filepath.Join(home, "Library", "Application Support", AppName)
		}
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		if home != "" {
			return filepath.Join(home, ".config", AppName)
		}
	}

	return filepath.Join(".", "."+AppName)
}

// getDataDir returns the data directory path.
func getDataDir() string {
	if dir := os.Getenv(DataDirEnvVar); dir != "" {
		return dir
	}

	home := os.Getenv("HOME")
	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, AppName)
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Local", AppName)
		}
	case "darwin":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		if home != "" {
			return filepath.Join(home, "Library", "Application Support", AppName)
		}
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		if home != "" {
			return filepath.Join(home, ".local", "share", AppName)
		}
	}

	return filepath.Join(".", "."+AppName, "data")
}

// getCacheDir returns the cache directory path.
// Scratch copies opened in $EDITOR live here.
func getCacheDir() string {
	home := os.Getenv("HOME")
	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, AppName, "cache")
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Local", AppName, "cache")
		}
	case "darwin":
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		if home != "" {
			return filepath.Join(home, "Library", "Caches", AppName)
		}
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName)
		}
		if home != "" {
			return filepath.Join(home, ".cache", AppName)
		}
	}

	return filepath.Join(".", "."+AppName, "cache")
}

// EnsureDirs creates all necessary directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
