package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/cmdtypes"
	"github.com/fukkitmc/mapjar/internal/cmdutil"
	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/output"
	"github.com/fukkitmc/mapjar/internal/provider"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	inputs := &cmdutil.InputFlags{}

	c := &cobra.Command{
		Use:   "clean",
		Short: "Delete cached artifacts",
		Long: `Delete the intermediate and mapped jars for the configured inputs and
drop files derived from the mapping definition. Missing files are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runClean(c, gc, inputs)
		},
	}

	inputs.AddTo(c)

	return c
}

func runClean(c *cobra.Command, gc *cmdtypes.GlobalConfig, inputs *cmdutil.InputFlags) error {
	cfg, _, err := inputs.Apply(gc.Config)
	if err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", errValidation, err))
	}
	intermediate, mapped, err := cmdutil.Refs(cfg)
	if err != nil {
		return cmdutil.ExitError(err)
	}

	var owner provider.Invalidator
	if cfg.Mappings.File != "" {
		store, err := mapping.NewStore(mapping.StoreOptions{Path: cfg.Mappings.File})
		if err != nil {
			return cmdutil.ExitError(err)
		}
		owner = store
	}

	log := output.ArtifactLogger(cfg.Minecraft.Name)
	errs := provider.Cleanup(mapped.Path, intermediate.Path, owner)
	for _, e := range errs {
		log.Warn("cleanup incomplete", "error", e)
	}
	if len(errs) > 0 {
		return cmdutil.PrintedExitError(errors.Join(errs...))
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark(fmt.Sprintf("cleaned %s %s (%s %s)",
		cfg.Minecraft.Name, cfg.Minecraft.Version, cfg.Mappings.Name, cfg.Mappings.Version)))
	return nil
}
