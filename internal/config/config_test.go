package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvCacheDir, "")

	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, filepath.Join(home, ".mapjar", "cache"), cfg.CacheDir)
	assert.Equal(t, "official", cfg.Mappings.From)
	assert.Equal(t, "intermediary", cfg.Mappings.Intermediate)
	assert.Equal(t, "named", cfg.Mappings.To)
	assert.Equal(t, "minecraft", cfg.Minecraft.Name)
	assert.Equal(t, EngineBuiltin, cfg.Engine.Kind)
	assert.Equal(t, "java", cfg.Engine.Java)
	assert.Positive(t, cfg.Engine.Threads)
	assert.Equal(t, 30*time.Minute, cfg.Remap.Timeout)
	require.NotNil(t, cfg.Log.Timestamps)
	assert.True(t, *cfg.Log.Timestamps)
	assert.False(t, cfg.RefreshDependencies)
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvCacheDir, "")

	off := false
	cfg := &Config{
		CacheDir:  "/custom/cache",
		Mappings:  MappingsConfig{Name: "yarn", To: "srg"},
		Engine:    EngineConfig{Kind: EngineExec, Threads: 2},
		Classpath: []string{"/lib/a.jar"},
		Log:       LogConfig{Timestamps: &off},
	}

	got := cfg.WithDefaults()

	assert.Equal(t, "/custom/cache", got.CacheDir)
	assert.Equal(t, "/custom/cache", got.MappedDir, "mapped dir defaults to the cache dir")
	assert.Equal(t, "yarn", got.Mappings.Name)
	assert.Equal(t, "official", got.Mappings.From)
	assert.Equal(t, "srg", got.Mappings.To)
	assert.Equal(t, EngineExec, got.Engine.Kind)
	assert.Equal(t, 2, got.Engine.Threads)
	assert.False(t, *got.Log.Timestamps)

	got.Classpath[0] = "changed"
	assert.Equal(t, "/lib/a.jar", cfg.Classpath[0], "defaults must not alias the input")
	assert.Empty(t, cfg.Mappings.From, "input is not modified")
}
