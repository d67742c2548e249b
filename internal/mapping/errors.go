package mapping

import (
	"fmt"

	oerrors "github.com/fukkitmc/mapjar/internal/errors"
)

// MappingUnavailableError is returned when the mapping definition file is
// absent or does not provide the requested namespaces.
type MappingUnavailableError struct {
	Path  string
	Cause error
}

func (e *MappingUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mappings unavailable at %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("mappings file not found: %s", e.Path)
}

// Unwrap returns the cause, or the not-found sentinel when the file is absent.
func (e *MappingUnavailableError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return oerrors.ErrNotFound
}

// NamespaceError reports a namespace the mapping file does not declare.
type NamespaceError struct {
	Namespace string
	Available []string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("namespace %q not declared (available: %v)", e.Namespace, e.Available)
}

// Unwrap ties the error to the validation sentinel.
func (e *NamespaceError) Unwrap() error {
	return oerrors.ErrValidation
}

// ParseError reports malformed Tiny input.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tiny mappings line %d: %s", e.Line, e.Message)
}

// Unwrap ties the error to the validation sentinel.
func (e *ParseError) Unwrap() error {
	return oerrors.ErrValidation
}
