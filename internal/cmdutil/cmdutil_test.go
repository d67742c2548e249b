package cmdutil

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fukkitmc/mapjar/internal/config"
	oerrors "github.com/fukkitmc/mapjar/internal/errors"
	"github.com/fukkitmc/mapjar/internal/fingerprint"
	"github.com/fukkitmc/mapjar/internal/remap"
	"github.com/fukkitmc/mapjar/internal/remap/classfile"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvCacheDir, "")
	cfg := &config.Config{
		CacheDir:  "/cache",
		Minecraft: config.MinecraftConfig{Version: "1.16.5", Jar: "/mc.jar"},
		Mappings:  config.MappingsConfig{File: "/yarn.tiny", Name: "yarn", Version: "7"},
	}
	return cfg.WithDefaults()
}

func TestInputFlags_AddTo(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	(&InputFlags{}).AddTo(c)

	for _, name := range []string{"minecraft-version", "minecraft-jar", "mappings", "mappings-name", "mappings-version", "cache-dir", "mapped-dir"} {
		assert.NotNil(t, c.Flags().Lookup(name), name)
	}
}

func TestRunFlags_AddTo(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	(&RunFlags{}).AddTo(c)

	for _, name := range []string{"timeout", "metrics-file", "report", "output"} {
		assert.NotNil(t, c.Flags().Lookup(name), name)
	}
	assert.Equal(t, "text", c.Flags().Lookup("output").DefValue)
}

func TestInputFlags_Apply(t *testing.T) {
	cfg := baseConfig(t)

	got, resolved, err := (&InputFlags{MinecraftVersion: "1.17", CacheDir: "/flag-cache"}).Apply(cfg)

	require.NoError(t, err)
	assert.Equal(t, "1.17", got.Minecraft.Version)
	assert.Equal(t, "yarn", got.Mappings.Name)
	assert.Equal(t, "/flag-cache", got.CacheDir)
	assert.Equal(t, "/flag-cache", got.MappedDir, "mapped dir follows the cache dir")
	require.Len(t, resolved, 1)
	assert.Equal(t, config.SourceFlag, resolved[0].Source)
	assert.Equal(t, "1.16.5", cfg.Minecraft.Version, "input is not modified")
}

func TestInputFlags_ApplyKeepsExplicitMappedDir(t *testing.T) {
	cfg := baseConfig(t)
	cfg.MappedDir = "/mapped"

	got, _, err := (&InputFlags{CacheDir: "/flag-cache"}).Apply(cfg)

	require.NoError(t, err)
	assert.Equal(t, "/mapped", got.MappedDir)
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(config.EngineConfig{Kind: config.EngineBuiltin})
	require.NoError(t, err)
	assert.IsType(t, &classfile.Engine{}, e)

	e, err = NewEngine(config.EngineConfig{Kind: config.EngineExec, Jar: "/tr.jar", Java: "/usr/bin/java"})
	require.NoError(t, err)
	exec, ok := e.(*remap.ExecEngine)
	require.True(t, ok)
	assert.Equal(t, "/tr.jar", exec.Jar)
	assert.Equal(t, "/usr/bin/java", exec.Java)

	_, err = NewEngine(config.EngineConfig{Kind: "asm"})
	assert.ErrorIs(t, err, oerrors.ErrValidation)
}

func TestAssemble(t *testing.T) {
	cfg := baseConfig(t)

	asm, err := Assemble(AssembleOpts{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/cache", "minecraft-1.16.5-mapped-yarn-7.jar"), asm.Provider.Mapped().Path)
	assert.Equal(t, fingerprint.RoleIntermediary, asm.Provider.Intermediate().Role)
	assert.Equal(t, "/yarn.tiny", asm.Store.Path())
	assert.Equal(t, classfile.EngineName, asm.Engine.Name())
	assert.Empty(t, asm.Graph.Dependencies())
}

func TestAssemble_MissingInputs(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Mappings.File = ""

	_, err := Assemble(AssembleOpts{Config: cfg})

	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Contains(t, err.Error(), "mappings.file")
}

func TestRefs(t *testing.T) {
	cfg := baseConfig(t)
	cfg.MappedDir = "/mapped"

	intermediate, mapped, err := Refs(cfg)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cache", "minecraft-1.16.5-intermediary-yarn-7.jar"), intermediate.Path)
	assert.Equal(t, filepath.Join("/mapped", "minecraft-1.16.5-mapped-yarn-7.jar"), mapped.Path)

	cfg.Minecraft.Version = ""
	_, _, err = Refs(cfg)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
}

func TestExitError(t *testing.T) {
	err := ExitError(oerrors.ErrNotFound)
	var exitErr *oerrors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, oerrors.ExitNotFound, exitErr.Code)
	assert.False(t, exitErr.Printed)

	err = PrintedExitError(errors.New("boom"))
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, oerrors.ExitGeneralError, exitErr.Code)
	assert.True(t, exitErr.Printed)
}
