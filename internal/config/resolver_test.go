package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCacheDir_FlagPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvCacheDir, "/env/cache")

	result, err := ResolveCacheDir(ResolveCacheDirOptions{
		FlagValue:   "/flag/cache",
		ConfigValue: "/config/cache",
	})

	require.NoError(t, err)
	assert.Equal(t, "/flag/cache", result.Value)
	assert.Equal(t, SourceFlag, result.Source)
	assert.Equal(t, "/env/cache", result.Shadowed[SourceEnv])
	assert.Equal(t, "/config/cache", result.Shadowed[SourceConfig])
	assert.Contains(t, result.Shadowed, SourceDefault)
}

func TestResolveCacheDir_EnvPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvCacheDir, "/env/cache")

	result, err := ResolveCacheDir(ResolveCacheDirOptions{ConfigValue: "/config/cache"})

	require.NoError(t, err)
	assert.Equal(t, "/env/cache", result.Value)
	assert.Equal(t, SourceEnv, result.Source)
	assert.Equal(t, "/config/cache", result.Shadowed[SourceConfig])
	assert.NotContains(t, result.Shadowed, SourceFlag)
}

func TestResolveCacheDir_ConfigMatchingEnvIsNotShadowed(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvCacheDir, "/same")

	result, err := ResolveCacheDir(ResolveCacheDirOptions{ConfigValue: "/same"})

	require.NoError(t, err)
	assert.Equal(t, SourceEnv, result.Source)
	assert.NotContains(t, result.Shadowed, SourceConfig)
}

func TestResolveCacheDir_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvCacheDir, "")

	result, err := ResolveCacheDir(ResolveCacheDirOptions{})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mapjar", "cache"), result.Value)
	assert.Equal(t, SourceDefault, result.Source)
	assert.Empty(t, result.Shadowed)
}

func TestResolveConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("flag", func(t *testing.T) {
		t.Setenv(EnvConfig, "/env/config.yaml")
		result, err := ResolveConfigPath(ResolveConfigPathOptions{FlagValue: "~/flag.yaml"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "flag.yaml"), result.Value)
		assert.Equal(t, SourceFlag, result.Source)
		assert.Equal(t, "/env/config.yaml", result.Shadowed[SourceEnv])
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv(EnvConfig, "/env/config.yaml")
		result, err := ResolveConfigPath(ResolveConfigPathOptions{})
		require.NoError(t, err)
		assert.Equal(t, "/env/config.yaml", result.Value)
		assert.Equal(t, SourceEnv, result.Source)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv(EnvConfig, "")
		result, err := ResolveConfigPath(ResolveConfigPathOptions{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".mapjar", "config.yaml"), result.Value)
		assert.Equal(t, SourceDefault, result.Source)
	})
}

func TestResolveRefresh(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		opts   ResolveRefreshOptions
		want   bool
		source ConfigSource
	}{
		{name: "default off", want: false, source: SourceDefault},
		{name: "config on", opts: ResolveRefreshOptions{ConfigValue: true}, want: true, source: SourceConfig},
		{name: "env on", env: "true", want: true, source: SourceEnv},
		{name: "flag off beats env", env: "true", opts: ResolveRefreshOptions{FlagSet: true}, want: false, source: SourceFlag},
		{name: "flag on", opts: ResolveRefreshOptions{FlagSet: true, FlagValue: true}, want: true, source: SourceFlag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvRefreshDependencies, tt.env)

			got, resolved, err := ResolveRefresh(tt.opts)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.source, resolved.Source)
		})
	}
}

func TestResolveRefresh_InvalidEnv(t *testing.T) {
	t.Setenv(EnvRefreshDependencies, "sometimes")

	_, _, err := ResolveRefresh(ResolveRefreshOptions{})
	assert.ErrorContains(t, err, EnvRefreshDependencies)
}
