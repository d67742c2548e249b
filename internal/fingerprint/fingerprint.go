// Package fingerprint derives the version strings that key the remap cache.
//
// A fingerprint is built from four ordered components: the base (game)
// version, the artifact role, the mapping name and the mapping version. The
// same string is used as the cache file name segment and as the version of
// the registered dependency, so cache lookups and engine output paths always
// agree.
package fingerprint

import (
	"fmt"
	"strings"

	oerrors "github.com/fukkitmc/mapjar/internal/errors"
)

// Separator joins fingerprint components.
const Separator = "-"

// Roles used by the remap pipeline.
const (
	RoleIntermediary = "intermediary"
	RoleMapped       = "mapped"
)

// escaper keeps the encoding injective: a component can never contain a raw
// separator, and path separators never reach the file name.
var escaper = strings.NewReplacer(
	"%", "%25",
	"-", "%2D",
	"/", "%2F",
	`\`, "%5C",
)

// InvalidInputError is returned when a fingerprint component is empty.
type InvalidInputError struct {
	// Component names the offending input ("baseVersion", "role", ...).
	Component string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid fingerprint input: %s must not be empty", e.Component)
}

// Unwrap ties the error to the validation sentinel.
func (e *InvalidInputError) Unwrap() error {
	return oerrors.ErrValidation
}

// Build returns the fingerprint for the given components.
func Build(baseVersion, role, mappingName, mappingVersion string) (string, error) {
	parts := [...]struct{ name, value string }{
		{"baseVersion", baseVersion},
		{"role", role},
		{"mappingName", mappingName},
		{"mappingVersion", mappingVersion},
	}

	encoded := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p.value) == "" {
			return "", &InvalidInputError{Component: p.name}
		}
		encoded = append(encoded, escaper.Replace(p.value))
	}

	return strings.Join(encoded, Separator), nil
}

// Inputs holds the role-independent fingerprint components shared by the
// intermediate and the mapped artifact of one remap run.
type Inputs struct {
	BaseVersion    string
	MappingName    string
	MappingVersion string
}

// Build returns the fingerprint of these inputs for the given role.
func (in Inputs) Build(role string) (string, error) {
	return Build(in.BaseVersion, role, in.MappingName, in.MappingVersion)
}

// Validate reports the first empty component, if any.
func (in Inputs) Validate() error {
	_, err := in.Build(RoleMapped)
	return err
}
