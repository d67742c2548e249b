package config

import (
	"os"
	"path/filepath"
)

// Paths contains standard filesystem paths for mapjar.
type Paths struct {
	// HomeDir is the mapjar home directory (~/.mapjar).
	HomeDir string

	// ConfigFile is the path to the main config file.
	ConfigFile string

	// CacheDir is the default artifact cache directory.
	CacheDir string

	// EnvFile is the optional dotenv file loaded before the config.
	EnvFile string
}

// DefaultPaths returns the default filesystem paths.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	mapjarHome := filepath.Join(homeDir, ".mapjar")
	return &Paths{
		HomeDir:    mapjarHome,
		ConfigFile: filepath.Join(mapjarHome, "config.yaml"),
		CacheDir:   filepath.Join(mapjarHome, "cache"),
		EnvFile:    filepath.Join(mapjarHome, ".env"),
	}, nil
}

// GetConfigFile returns the config file path, honoring MAPJAR_CONFIG.
func GetConfigFile() (string, error) {
	if configPath := os.Getenv("MAPJAR_CONFIG"); configPath != "" {
		return ExpandPath(configPath)
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.ConfigFile, nil
}

// GetCacheDir returns the cache directory path, honoring MAPJAR_CACHE_DIR.
func GetCacheDir() (string, error) {
	if cacheDir := os.Getenv("MAPJAR_CACHE_DIR"); cacheDir != "" {
		return ExpandPath(cacheDir)
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.CacheDir, nil
}

// EnsureHomeDir creates the mapjar home directory if it doesn't exist.
func EnsureHomeDir() error {
	paths, err := DefaultPaths()
	if err != nil {
		return err
	}

	return os.MkdirAll(paths.HomeDir, 0o755)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}

// ExpandPaths expands ~ in every element.
func ExpandPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded, err := ExpandPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}
