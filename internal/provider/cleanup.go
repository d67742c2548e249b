package provider

import (
	"github.com/fukkitmc/mapjar/internal/artifact"
)

// Invalidator drops caches derived from a mapping definition.
type Invalidator interface {
	CleanFiles() error
}

// Cleanup deletes the mapped and intermediate artifacts and invalidates the
// mapping-derived caches of owner. Missing files are not errors. Every step
// runs even when an earlier one fails; failures are returned as
// *CleanupSecondaryError values.
func Cleanup(mappedPath, intermediatePath string, owner Invalidator) []error {
	var errs []error
	for _, p := range []string{mappedPath, intermediatePath} {
		if p == "" {
			continue
		}
		if err := artifact.Remove(p); err != nil {
			errs = append(errs, &CleanupSecondaryError{Op: "delete", Path: p, Cause: err})
		}
	}
	if owner != nil {
		if err := owner.CleanFiles(); err != nil {
			errs = append(errs, &CleanupSecondaryError{Op: "invalidate", Cause: err})
		}
	}
	return errs
}
