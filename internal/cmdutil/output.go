package cmdutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fukkitmc/mapjar/internal/config"
	oerrors "github.com/fukkitmc/mapjar/internal/errors"
	"github.com/fukkitmc/mapjar/internal/output"
	"github.com/fukkitmc/mapjar/internal/provider"
)

// PrintValidationError prints a configuration error. ValidationErrors are
// listed one field per line; other errors fall back to key-value logging.
func PrintValidationError(msg string, err error) {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		output.Error(msg)
		var b strings.Builder
		for _, e := range verrs {
			fmt.Fprintf(&b, "  %s: %s\n", e.Field, e.Message)
		}
		output.Details(strings.TrimRight(b.String(), "\n"))
		return
	}
	var detail *oerrors.DetailError
	if errors.As(err, &detail) {
		output.Details(detail.Error())
		return
	}
	output.Error(msg, "error", err)
}

// PrintProvideError reports a failed provide run with its cause chain.
func PrintProvideError(name string, err error) {
	log := output.ArtifactLogger(name)

	var precondition *provider.PreconditionMissingError
	var rebuild *provider.RebuildError
	var missing *provider.MissingOutputError
	switch {
	case errors.As(err, &precondition):
		log.Error(precondition.What+" not found", "path", precondition.Path)
	case errors.As(err, &rebuild):
		log.Error("remap failed, cache cleaned", "error", rebuild.Cause)
	case errors.As(err, &missing):
		log.Error("mapped jar not found after remap, cache cleaned", "path", missing.Path)
	default:
		var detail *oerrors.DetailError
		if errors.As(err, &detail) {
			output.Details(detail.Error())
			return
		}
		log.Error("provide failed", "error", err)
	}
}

// ExitError wraps err with the exit code derived from it.
func ExitError(err error) error {
	return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err)}
}

// PrintedExitError is ExitError for errors the command already reported.
func PrintedExitError(err error) error {
	return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err), Printed: true}
}
