package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fukkitmc/mapjar/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue is one configuration value and where it came from.
type ResolvedValue struct {
	Key    string
	Value  string
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// resolveString applies flag > env > config > default. Lower precedence
// values that are set and differ from the winner are recorded as shadowed.
func resolveString(key, flagValue, envName, configValue, defaultValue string) ResolvedValue {
	candidates := []struct {
		source ConfigSource
		value  string
	}{
		{SourceFlag, flagValue},
		{SourceEnv, os.Getenv(envName)},
		{SourceConfig, configValue},
		{SourceDefault, defaultValue},
	}

	result := ResolvedValue{Key: key, Shadowed: make(map[ConfigSource]string)}
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if result.Source == "" {
			result.Value = c.value
			result.Source = c.source
			continue
		}
		if c.value != result.Value {
			result.Shadowed[c.source] = c.value
		}
	}
	return result
}

// ResolveConfigPathOptions contains options for config path resolution.
type ResolveConfigPathOptions struct {
	// FlagValue is the --config flag value (empty if not set).
	FlagValue string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) MAPJAR_CONFIG env, (3) ~/.mapjar/config.yaml default.
func ResolveConfigPath(opts ResolveConfigPathOptions) (ResolvedValue, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return ResolvedValue{}, err
	}

	result := resolveString("config", opts.FlagValue, EnvConfig, "", paths.ConfigFile)
	result.Value, err = ExpandPath(result.Value)
	if err != nil {
		return ResolvedValue{}, err
	}
	return result, nil
}

// ResolveCacheDirOptions contains options for cache directory resolution.
type ResolveCacheDirOptions struct {
	// FlagValue is the --cache-dir flag value (empty if not set).
	FlagValue string
	// ConfigValue is cacheDir from the loaded config (empty if not set).
	ConfigValue string
}

// ResolveCacheDir resolves the cache directory using precedence:
// (1) --cache-dir flag, (2) MAPJAR_CACHE_DIR env, (3) config.cacheDir,
// (4) ~/.mapjar/cache default.
func ResolveCacheDir(opts ResolveCacheDirOptions) (ResolvedValue, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return ResolvedValue{}, err
	}

	result := resolveString("cacheDir", opts.FlagValue, EnvCacheDir, opts.ConfigValue, paths.CacheDir)
	result.Value, err = ExpandPath(result.Value)
	if err != nil {
		return ResolvedValue{}, err
	}
	return result, nil
}

// ResolveRefreshOptions contains options for refresh resolution.
type ResolveRefreshOptions struct {
	// FlagSet reports whether --refresh-dependencies was given.
	FlagSet   bool
	FlagValue bool
	// ConfigValue is refreshDependencies from the loaded config.
	ConfigValue bool
}

// ResolveRefresh resolves the refresh switch using precedence:
// (1) --refresh-dependencies flag, (2) MAPJAR_REFRESH_DEPENDENCIES env,
// (3) config.refreshDependencies, (4) false.
func ResolveRefresh(opts ResolveRefreshOptions) (bool, ResolvedValue, error) {
	var flagValue, configValue string
	if opts.FlagSet {
		flagValue = strconv.FormatBool(opts.FlagValue)
	}
	if opts.ConfigValue {
		configValue = "true"
	}

	if env := os.Getenv(EnvRefreshDependencies); env != "" {
		if _, err := strconv.ParseBool(env); err != nil {
			return false, ResolvedValue{}, fmt.Errorf("%s: invalid boolean %q", EnvRefreshDependencies, env)
		}
	}

	result := resolveString("refreshDependencies", flagValue, EnvRefreshDependencies, configValue, "false")
	refresh, err := strconv.ParseBool(result.Value)
	if err != nil {
		return false, ResolvedValue{}, err
	}
	return refresh, result, nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
