// Package config provides configuration loading and management.
package config

import (
	"runtime"
	"time"
)

// Built-in defaults.
const (
	DefaultArtifactName          = "minecraft"
	DefaultSourceNamespace       = "official"
	DefaultIntermediateNamespace = "intermediary"
	DefaultTargetNamespace       = "named"

	EngineBuiltin = "builtin"
	EngineExec    = "exec"

	DefaultJava         = "java"
	DefaultRemapTimeout = 30 * time.Minute
)

// MappingsConfig describes the mapping definition.
type MappingsConfig struct {
	// File is a .tiny file or a jar embedding mappings/mappings.tiny.
	// Env: MAPJAR_MAPPINGS_FILE
	File string `json:"file,omitempty"`

	// Name and Version identify the mapping set in fingerprints ("yarn", "1.16.5+build.10").
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`

	// From, Intermediate and To are the namespaces of both remap passes.
	From         string `json:"from,omitempty"`
	Intermediate string `json:"intermediate,omitempty"`
	To           string `json:"to,omitempty"`
}

// MinecraftConfig describes the source artifact.
type MinecraftConfig struct {
	// Version is the base artifact version.
	// Env: MAPJAR_MINECRAFT_VERSION
	Version string `json:"version,omitempty"`

	// Name is the logical artifact name. Default: "minecraft".
	Name string `json:"name,omitempty"`

	// Jar is the merged source jar.
	// Env: MAPJAR_MINECRAFT_JAR
	Jar string `json:"jar,omitempty"`
}

// EngineConfig selects the remap engine.
type EngineConfig struct {
	// Kind is "builtin" (in-process) or "exec" (tiny-remapper process).
	// Env: MAPJAR_ENGINE_KIND
	Kind string `json:"kind,omitempty"`

	// Java is the java executable for the exec engine.
	Java string `json:"java,omitempty"`

	// Jar is the tiny-remapper fat jar for the exec engine.
	Jar string `json:"jar,omitempty"`

	// JVMArgs are passed to java before -jar.
	JVMArgs []string `json:"jvmArgs,omitempty"`

	// Threads bounds engine parallelism. Zero means one per CPU.
	Threads int `json:"threads,omitempty"`
}

// RemapConfig holds remap run settings.
type RemapConfig struct {
	// Timeout bounds a whole provide run. Env: MAPJAR_REMAP_TIMEOUT
	Timeout time.Duration `json:"timeout,omitempty"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty"`
}

// Config represents the mapjar configuration.
// Loaded from ~/.mapjar/config.yaml, validated against the embedded CUE schema.
type Config struct {
	// CacheDir holds intermediate artifacts.
	// Env: MAPJAR_CACHE_DIR, Default: ~/.mapjar/cache
	CacheDir string `json:"cacheDir,omitempty"`

	// MappedDir holds mapped artifacts. Default: CacheDir.
	// Env: MAPJAR_MAPPED_DIR
	MappedDir string `json:"mappedDir,omitempty"`

	Mappings  MappingsConfig  `json:"mappings,omitempty"`
	Minecraft MinecraftConfig `json:"minecraft,omitempty"`

	// Classpath lists supporting jars used only for symbol resolution.
	Classpath []string `json:"classpath,omitempty"`

	Engine EngineConfig `json:"engine,omitempty"`
	Remap  RemapConfig  `json:"remap,omitempty"`

	// RefreshDependencies forces a rebuild of cached artifacts.
	// Env: MAPJAR_REFRESH_DEPENDENCIES
	RefreshDependencies bool `json:"refreshDependencies,omitempty"`

	Log LogConfig `json:"log,omitempty"`
}

// DefaultConfig returns a Config with all default values populated.
// Used by `mapjar config init` and as the base for WithDefaults.
func DefaultConfig() *Config {
	cacheDir, err := GetCacheDir()
	if err != nil {
		cacheDir = ""
	}
	timestamps := true
	return &Config{
		CacheDir: cacheDir,
		Mappings: MappingsConfig{
			From:         DefaultSourceNamespace,
			Intermediate: DefaultIntermediateNamespace,
			To:           DefaultTargetNamespace,
		},
		Minecraft: MinecraftConfig{Name: DefaultArtifactName},
		Engine: EngineConfig{
			Kind:    EngineBuiltin,
			Java:    DefaultJava,
			Threads: runtime.NumCPU(),
		},
		Remap: RemapConfig{Timeout: DefaultRemapTimeout},
		Log:   LogConfig{Timestamps: &timestamps},
	}
}

// WithDefaults returns a copy with unset fields filled from DefaultConfig.
func (c *Config) WithDefaults() *Config {
	d := DefaultConfig()
	out := *c
	out.Classpath = append([]string(nil), c.Classpath...)
	out.Engine.JVMArgs = append([]string(nil), c.Engine.JVMArgs...)

	if out.CacheDir == "" {
		out.CacheDir = d.CacheDir
	}
	if out.MappedDir == "" {
		out.MappedDir = out.CacheDir
	}
	setDefault(&out.Mappings.From, d.Mappings.From)
	setDefault(&out.Mappings.Intermediate, d.Mappings.Intermediate)
	setDefault(&out.Mappings.To, d.Mappings.To)
	setDefault(&out.Minecraft.Name, d.Minecraft.Name)
	setDefault(&out.Engine.Kind, d.Engine.Kind)
	setDefault(&out.Engine.Java, d.Engine.Java)
	if out.Engine.Threads == 0 {
		out.Engine.Threads = d.Engine.Threads
	}
	if out.Remap.Timeout == 0 {
		out.Remap.Timeout = d.Remap.Timeout
	}
	if out.Log.Timestamps == nil {
		out.Log.Timestamps = d.Log.Timestamps
	}
	return &out
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
