package version

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()

	require.NotEmpty(t, info.GoVersion, "GoVersion should be populated")
	require.NotEmpty(t, info.CUESDKVersion, "CUESDKVersion should be populated")
	assert.Equal(t, Version, info.Version)
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:       "v1.0.0",
		GitCommit:     "abc123",
		BuildDate:     "2026-01-29",
		GoVersion:     "go1.25",
		CUESDKVersion: "v0.15.4",
	}

	str := info.String()

	assert.Contains(t, str, "v1.0.0")
	assert.Contains(t, str, "abc123")
	assert.Contains(t, str, "2026-01-29")
	assert.Contains(t, str, "go1.25")
	assert.Contains(t, str, "v0.15.4")
}

func TestJavaMajor(t *testing.T) {
	tests := map[string]int{
		"1.8.0_392": 8,
		"17.0.9":    17,
		"21":        21,
		"11-ea":     11,
		"garbage":   0,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, JavaMajor(in))
		})
	}
}

func TestExtractJavaVersion(t *testing.T) {
	v, err := extractJavaVersion("openjdk version \"17.0.9\" 2023-10-17\nOpenJDK Runtime Environment\n")
	require.NoError(t, err)
	assert.Equal(t, "17.0.9", v)

	_, err = extractJavaVersion("no version here")
	assert.ErrorContains(t, err, "failed to parse java version")
}

func TestDetectJava(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		info := DetectJava(context.Background(), filepath.Join(t.TempDir(), "nope"))
		assert.False(t, info.Found)
		assert.Contains(t, info.String(), "not found")
	})

	t.Run("fake runtime", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), "java")
		body := "#!/bin/sh\necho 'openjdk version \"1.7.0_80\"' >&2\n"
		require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

		info := DetectJava(context.Background(), script)

		assert.True(t, info.Found)
		assert.Equal(t, "1.7.0_80", info.Version)
		assert.Equal(t, 7, info.Major)
		assert.False(t, info.Compatible)
		assert.Contains(t, info.Message, "8 or newer")
	})
}
