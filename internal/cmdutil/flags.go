// Package cmdutil provides shared command utilities: flag groups, provider
// assembly from configuration and error reporting helpers.
package cmdutil

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/config"
)

// InputFlags override the remap inputs from the config file
// (remap, status, clean, fingerprint).
type InputFlags struct {
	MinecraftVersion string
	MinecraftJar     string
	MappingsFile     string
	MappingsName     string
	MappingsVersion  string
	CacheDir         string
	MappedDir        string
}

// AddTo registers the input flags on the given cobra command.
func (f *InputFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.MinecraftVersion, "minecraft-version", "",
		"Base artifact version (default: from config)")
	cmd.Flags().StringVar(&f.MinecraftJar, "minecraft-jar", "",
		"Source jar to remap (default: from config)")
	cmd.Flags().StringVar(&f.MappingsFile, "mappings", "",
		"Tiny v2 file or mappings jar (default: from config)")
	cmd.Flags().StringVar(&f.MappingsName, "mappings-name", "",
		"Mapping set name used in fingerprints (default: from config)")
	cmd.Flags().StringVar(&f.MappingsVersion, "mappings-version", "",
		"Mapping set version used in fingerprints (default: from config)")
	cmd.Flags().StringVar(&f.CacheDir, "cache-dir", "",
		"Directory for intermediate artifacts (env: MAPJAR_CACHE_DIR)")
	cmd.Flags().StringVar(&f.MappedDir, "mapped-dir", "",
		"Directory for mapped artifacts (default: cache dir)")
}

// Apply returns a copy of cfg with every set flag applied on top. The cache
// directory goes through flag > env > config > default resolution.
func (f *InputFlags) Apply(cfg *config.Config) (*config.Config, []config.ResolvedValue, error) {
	out := *cfg
	for _, o := range []struct {
		dst *string
		v   string
	}{
		{&out.Minecraft.Version, f.MinecraftVersion},
		{&out.Minecraft.Jar, f.MinecraftJar},
		{&out.Mappings.File, f.MappingsFile},
		{&out.Mappings.Name, f.MappingsName},
		{&out.Mappings.Version, f.MappingsVersion},
		{&out.MappedDir, f.MappedDir},
	} {
		if o.v == "" {
			continue
		}
		expanded, err := config.ExpandPath(o.v)
		if err != nil {
			return nil, nil, err
		}
		*o.dst = expanded
	}

	cacheDir, err := config.ResolveCacheDir(config.ResolveCacheDirOptions{
		FlagValue:   f.CacheDir,
		ConfigValue: cfg.CacheDir,
	})
	if err != nil {
		return nil, nil, err
	}
	// A mapped dir that only followed the cache dir default follows it again.
	if f.MappedDir == "" && (cfg.MappedDir == "" || cfg.MappedDir == cfg.CacheDir) {
		out.MappedDir = cacheDir.Value
	}
	out.CacheDir = cacheDir.Value

	return &out, []config.ResolvedValue{cacheDir}, nil
}

// RunFlags hold flags for commands that run the provider (remap).
type RunFlags struct {
	Timeout     time.Duration
	MetricsFile string
	ReportFile  string
	Output      string
}

// AddTo registers the run flags on the given cobra command.
func (f *RunFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.Timeout, "timeout", 0,
		"Abort the run after this long (default: remap.timeout from config)")
	cmd.Flags().StringVar(&f.MetricsFile, "metrics-file", "",
		"Write Prometheus metrics in textfile format to this path")
	cmd.Flags().StringVar(&f.ReportFile, "report", "",
		"Save the registered dependencies as YAML to this path")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "text",
		"Dependency output format: text, yaml, json")
}
