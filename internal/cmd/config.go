package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/cmdtypes"
	"github.com/fukkitmc/mapjar/internal/cmdutil"
	"github.com/fukkitmc/mapjar/internal/config"
	oerrors "github.com/fukkitmc/mapjar/internal/errors"
	"github.com/fukkitmc/mapjar/internal/output"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage mapjar configuration",
	}

	c.AddCommand(newConfigInitCmd(gc))
	c.AddCommand(newConfigVetCmd(gc))

	return c
}

func newConfigInitCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Write a commented default configuration file.

The file is written to the resolved config path (--config, MAPJAR_CONFIG or
~/.mapjar/config.yaml).

Examples:
  # Initialize configuration
  mapjar config init

  # Overwrite existing configuration
  mapjar config init --force`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runConfigInit(c, gc.ConfigPath, force)
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return c
}

func runConfigInit(c *cobra.Command, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return cmdutil.ExitError(&oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: path,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		})
	}

	if err := artifact.EnsureParent(path); err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", oerrors.ErrPermission, err))
	}
	if err := os.WriteFile(path, []byte(config.DefaultConfigTemplate), 0o600); err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", oerrors.ErrPermission, err))
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("configuration written to "+path))
	return nil
}

func newConfigVetCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the configuration file",
		Long: `Validate the configuration file against the embedded schema.
Environment overrides are included.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			exists, err := config.ConfigFileExists(gc.ConfigPath)
			if err != nil {
				return cmdutil.ExitError(err)
			}
			if !exists {
				return cmdutil.ExitError(oerrors.NewNotFoundError(
					"configuration file not found", gc.ConfigPath, "Run 'mapjar config init' to create one."))
			}

			validator, err := config.NewValidator()
			if err != nil {
				return err
			}
			if err := validator.ValidateFile(gc.ConfigPath); err != nil {
				cmdutil.PrintValidationError("configuration invalid", err)
				return cmdutil.PrintedExitError(fmt.Errorf("%w: %w", errValidation, err))
			}

			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("configuration valid: "+gc.ConfigPath))
			return nil
		},
	}
}
