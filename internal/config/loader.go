package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable prefix for mapjar configuration.
const envPrefix = "MAPJAR"

// Environment variables with names that do not follow from the key.
const (
	EnvConfig              = "MAPJAR_CONFIG"
	EnvCacheDir            = "MAPJAR_CACHE_DIR"
	EnvMappedDir           = "MAPJAR_MAPPED_DIR"
	EnvRefreshDependencies = "MAPJAR_REFRESH_DEPENDENCIES"
)

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"cacheDir":            EnvCacheDir,
	"mappedDir":           EnvMappedDir,
	"mappings.file":       "MAPJAR_MAPPINGS_FILE",
	"mappings.name":       "MAPJAR_MAPPINGS_NAME",
	"mappings.version":    "MAPJAR_MAPPINGS_VERSION",
	"mappings.from":       "MAPJAR_MAPPINGS_FROM",
	"mappings.intermediate": "MAPJAR_MAPPINGS_INTERMEDIATE",
	"mappings.to":         "MAPJAR_MAPPINGS_TO",
	"minecraft.version":   "MAPJAR_MINECRAFT_VERSION",
	"minecraft.jar":       "MAPJAR_MINECRAFT_JAR",
	"classpath":           "MAPJAR_CLASSPATH",
	"engine.kind":         "MAPJAR_ENGINE_KIND",
	"engine.java":         "MAPJAR_ENGINE_JAVA",
	"engine.jar":          "MAPJAR_ENGINE_JAR",
	"engine.threads":      "MAPJAR_ENGINE_THREADS",
	"remap.timeout":       "MAPJAR_REMAP_TIMEOUT",
	"refreshDependencies": EnvRefreshDependencies,
	"log.timestamps":      "MAPJAR_LOG_TIMESTAMPS",
}

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	// Set up environment variable bindings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	return &Loader{v: v}
}

// Load loads configuration from the given file path.
// If configFile is empty, it uses the default config file path.
// Environment variables take precedence over file values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	// Expand ~ in path
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	// A missing config file is fine: defaults and env vars still apply.
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("expanding paths: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration and applies defaults.
func (l *Loader) LoadWithDefaults(configFile string) (*Config, error) {
	cfg, err := l.Load(configFile)
	if err != nil {
		return nil, err
	}

	return cfg.WithDefaults(), nil
}

// IsSet reports whether key has a value from the config file or environment.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// InConfig reports whether key is present in the config file.
func (l *Loader) InConfig(key string) bool {
	return l.v.InConfig(key)
}

// ConfigFileUsed returns the file the loader read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (c *Config) expandPaths() error {
	var err error
	for _, p := range []*string{&c.CacheDir, &c.MappedDir, &c.Mappings.File, &c.Minecraft.Jar, &c.Engine.Jar} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	c.Classpath, err = ExpandPaths(c.Classpath)
	return err
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return false, err
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables that are already set are left untouched. When path
// is empty, ./.env and ~/.mapjar/.env are tried and silently skipped if
// missing; an explicit path must exist.
func LoadEnvFile(path string) ([]string, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		if err := godotenv.Load(expanded); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", expanded, err)
		}
		return []string{expanded}, nil
	}

	candidates := []string{".env"}
	if paths, err := DefaultPaths(); err == nil {
		candidates = append(candidates, paths.EnvFile)
	}

	var loaded []string
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return loaded, fmt.Errorf("loading env file %s: %w", candidate, err)
		}
		loaded = append(loaded, candidate)
	}
	return loaded, nil
}
