package remap

import (
	"fmt"

	oerrors "github.com/fukkitmc/mapjar/internal/errors"
)

// EngineError wraps a transformation failure with the input it concerned.
type EngineError struct {
	// Input is the jar being remapped.
	Input string

	// Engine names the engine that failed.
	Engine string

	// Cause is the underlying failure.
	Cause error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("failed to remap jar %s with %s: %v", e.Input, e.Engine, e.Cause)
}

// Unwrap returns the cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the remap sentinel.
func (e *EngineError) Is(target error) bool {
	return target == oerrors.ErrRemap
}

// PanicError is a recovered panic from engine code.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("engine panic: %v", e.Value)
}
