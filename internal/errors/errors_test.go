//nolint:revive // Package name matches the package it tests
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	assert.NotEqual(t, ErrValidation, ErrNotFound)
	assert.NotEqual(t, ErrValidation, ErrRemap)
	assert.NotEqual(t, ErrNotFound, ErrRemap)
}

func TestDetailErrorError(t *testing.T) {
	detail := &DetailError{
		Type:     "not found",
		Message:  "mappings file not found",
		Location: "/cache/mappings/mappings.tiny",
		Context:  map[string]string{"Namespace": "official"},
		Hint:     "Run the mappings download task first",
	}

	out := detail.Error()

	assert.Contains(t, out, "Error: not found")
	assert.Contains(t, out, "Location: /cache/mappings/mappings.tiny")
	assert.Contains(t, out, "Namespace: official")
	assert.Contains(t, out, "mappings file not found")
	assert.Contains(t, out, "Hint: Run the mappings download task first")
}

func TestDetailErrorUnwrap(t *testing.T) {
	detail := &DetailError{Type: "test", Message: "test message", Cause: ErrValidation}

	assert.True(t, errors.Is(detail, ErrValidation))
	assert.Equal(t, ErrValidation, detail.Unwrap())
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("input jar not found", "/tmp/server.jar", "")

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var detail *DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "not found", detail.Type)
	assert.Equal(t, "/tmp/server.jar", detail.Location)
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrValidation, "schema check failed")

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.Contains(t, wrapped.Error(), "schema check failed")
}

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error returns success", err: nil, expected: ExitSuccess},
		{name: "validation error", err: ErrValidation, expected: ExitValidationError},
		{name: "not found error", err: ErrNotFound, expected: ExitNotFound},
		{name: "remap error", err: ErrRemap, expected: ExitRemapError},
		{name: "permission error", err: ErrPermission, expected: ExitPermissionDenied},
		{name: "wrapped not found", err: fmt.Errorf("mappings: %w", ErrNotFound), expected: ExitNotFound},
		{name: "remap wins over its cause", err: fmt.Errorf("%w: %w", ErrRemap, ErrValidation), expected: ExitRemapError},
		{name: "explicit exit error", err: NewExitError(errors.New("boom"), ExitRemapError), expected: ExitRemapError},
		{name: "unknown error", err: errors.New("something went wrong"), expected: ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCodeFromError(tt.err))
		})
	}
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Remap Error", ExitCodeName(ExitRemapError))
	assert.Equal(t, "Unknown", ExitCodeName(42))
}
