package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/cmdtypes"
	"github.com/fukkitmc/mapjar/internal/config"
	"github.com/fukkitmc/mapjar/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show mapjar version information.

Displays:
  - mapjar version, commit, and build date
  - CUE SDK version used for config validation
  - the java runtime, when the exec engine is configured`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out := c.OutOrStdout()
			fmt.Fprintln(out, version.Get().String())

			if gc.Config != nil && gc.Config.Engine.Kind == config.EngineExec {
				fmt.Fprintln(out, "\nRemap engine (exec):")
				fmt.Fprintln(out, version.DetectJava(c.Context(), gc.Config.Engine.Java).String())
			}
			return nil
		},
	}
}
