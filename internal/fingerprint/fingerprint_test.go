package fingerprint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/fukkitmc/mapjar/internal/errors"
)

func TestBuild(t *testing.T) {
	fp, err := Build("1.16.5", RoleIntermediary, "yarn", "1.16.5+build.10")
	require.NoError(t, err)
	assert.Equal(t, "1.16.5-intermediary-yarn-1.16.5+build.10", fp)
}

func TestBuild_DashedVersionIsEscaped(t *testing.T) {
	fp, err := Build("1.17-pre1", RoleMapped, "yarn", "1.17-pre1+build.3")
	require.NoError(t, err)
	assert.Equal(t, "1.17%2Dpre1-mapped-yarn-1.17%2Dpre1+build.3", fp)

	// A dash inside a component never reads as a separator.
	other, err := Build("1.17", "pre1-"+RoleMapped, "yarn", "1.17-pre1+build.3")
	require.NoError(t, err)
	assert.NotEqual(t, fp, other)
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build("1.16.5", RoleMapped, "yarn", "7")
	require.NoError(t, err)
	b, err := Build("1.16.5", RoleMapped, "yarn", "7")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_EveryComponentChangesOutput(t *testing.T) {
	base := [4]string{"1.16.5", RoleMapped, "yarn", "7"}
	ref, err := Build(base[0], base[1], base[2], base[3])
	require.NoError(t, err)

	for i := range base {
		changed := base
		changed[i] += "x"
		got, err := Build(changed[0], changed[1], changed[2], changed[3])
		require.NoError(t, err)
		assert.NotEqual(t, ref, got, "changing component %d must change the fingerprint", i)
	}
}

func TestBuild_NoCollisionAcrossSeparator(t *testing.T) {
	tests := []struct {
		name string
		a, b [4]string
	}{
		{
			name: "dash moved between base and role",
			a:    [4]string{"1.16-pre1", "mapped", "yarn", "1"},
			b:    [4]string{"1.16", "pre1-mapped", "yarn", "1"},
		},
		{
			name: "trailing and leading dash",
			a:    [4]string{"a-", "b", "c", "d"},
			b:    [4]string{"a", "-b", "c", "d"},
		},
		{
			name: "literal escape sequence",
			a:    [4]string{"a%2Db", "b", "c", "d"},
			b:    [4]string{"a-b", "b", "c", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa, err := Build(tt.a[0], tt.a[1], tt.a[2], tt.a[3])
			require.NoError(t, err)
			fb, err := Build(tt.b[0], tt.b[1], tt.b[2], tt.b[3])
			require.NoError(t, err)
			assert.NotEqual(t, fa, fb)
		})
	}
}

func TestBuild_PathSeparatorsEscaped(t *testing.T) {
	fp, err := Build("../../etc", RoleMapped, `yarn\x`, "1")
	require.NoError(t, err)
	assert.NotContains(t, fp, "/")
	assert.NotContains(t, fp, `\`)
}

func TestBuild_EmptyComponent(t *testing.T) {
	tests := []struct {
		name      string
		args      [4]string
		component string
	}{
		{"empty base version", [4]string{"", "mapped", "yarn", "1"}, "baseVersion"},
		{"empty role", [4]string{"1.16.5", "", "yarn", "1"}, "role"},
		{"blank mapping name", [4]string{"1.16.5", "mapped", "  ", "1"}, "mappingName"},
		{"empty mapping version", [4]string{"1.16.5", "mapped", "yarn", ""}, "mappingVersion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.args[0], tt.args[1], tt.args[2], tt.args[3])
			require.Error(t, err)

			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.component, inputErr.Component)
			assert.True(t, errors.Is(err, oerrors.ErrValidation))
		})
	}
}

func TestInputs(t *testing.T) {
	in := Inputs{BaseVersion: "1.16.5", MappingName: "yarn", MappingVersion: "7"}

	inter, err := in.Build(RoleIntermediary)
	require.NoError(t, err)
	mapped, err := in.Build(RoleMapped)
	require.NoError(t, err)

	assert.Equal(t, "1.16.5-intermediary-yarn-7", inter)
	assert.Equal(t, "1.16.5-mapped-yarn-7", mapped)
	assert.NoError(t, in.Validate())
	assert.Error(t, Inputs{BaseVersion: "1.16.5"}.Validate())
}
