package cmd

import (
	oerrors "github.com/fukkitmc/mapjar/internal/errors"
)

// errValidation marks flag and configuration problems (exit code 2).
var errValidation = oerrors.ErrValidation
