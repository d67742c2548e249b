package provider

import (
	"fmt"

	oerrors "github.com/fukkitmc/mapjar/internal/errors"
)

// PreconditionMissingError reports a required input that does not exist.
// It is raised before any cached file is touched.
type PreconditionMissingError struct {
	// What names the missing input ("mappings file", "input jar").
	What string

	// Path is where it was expected.
	Path string
}

func (e *PreconditionMissingError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Path)
}

// Unwrap returns the not-found sentinel.
func (e *PreconditionMissingError) Unwrap() error {
	return oerrors.ErrNotFound
}

// MissingOutputError reports that the mapped artifact is absent after a
// build or skip.
type MissingOutputError struct {
	Path string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("mapped jar not found: %s", e.Path)
}

// Unwrap returns the remap sentinel.
func (e *MissingOutputError) Unwrap() error {
	return oerrors.ErrRemap
}

// RebuildError wraps any failure inside the rebuild step.
type RebuildError struct {
	// Artifact is the logical artifact name.
	Artifact string

	// Cause is the failure that triggered cleanup.
	Cause error
}

func (e *RebuildError) Error() string {
	return fmt.Sprintf("failed to remap %s: %v", e.Artifact, e.Cause)
}

// Unwrap returns the cause.
func (e *RebuildError) Unwrap() error {
	return e.Cause
}

// Is matches the remap sentinel.
func (e *RebuildError) Is(target error) bool {
	return target == oerrors.ErrRemap
}

// CleanupSecondaryError is a failure during best-effort cleanup. It is
// logged and never replaces the error that triggered cleanup.
type CleanupSecondaryError struct {
	// Op is the cleanup step ("delete", "invalidate").
	Op string

	// Path is the file concerned, empty for cache invalidation.
	Path string

	Cause error
}

func (e *CleanupSecondaryError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cleanup %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("cleanup %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *CleanupSecondaryError) Unwrap() error {
	return e.Cause
}
