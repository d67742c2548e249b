package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/cmdtypes"
	"github.com/fukkitmc/mapjar/internal/cmdutil"
	"github.com/fukkitmc/mapjar/internal/output"
)

type fingerprintEntry struct {
	Role        string `json:"role" yaml:"role"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Path        string `json:"path" yaml:"path"`
}

// NewFingerprintCmd creates the fingerprint command.
func NewFingerprintCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	inputs := &cmdutil.InputFlags{}
	var format string

	c := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print artifact fingerprints",
		Long: `Print the fingerprints and cache paths the configured inputs map to.
Nothing is read or written.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			f, ok := output.ParseFormat(format)
			if !ok {
				return cmdutil.ExitError(fmt.Errorf("%w: invalid output format %q, use one of %v",
					errValidation, format, output.ValidFormats()))
			}
			cfg, _, err := inputs.Apply(gc.Config)
			if err != nil {
				return cmdutil.ExitError(fmt.Errorf("%w: %w", errValidation, err))
			}
			intermediate, mapped, err := cmdutil.Refs(cfg)
			if err != nil {
				return cmdutil.ExitError(err)
			}

			entries := []fingerprintEntry{
				{Role: intermediate.Role, Fingerprint: intermediate.Version, Path: intermediate.Path},
				{Role: mapped.Role, Fingerprint: mapped.Version, Path: mapped.Path},
			}
			out := c.OutOrStdout()
			if f != output.FormatText {
				return output.WriteStructured(out, f, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\n", e.Role, e.Fingerprint, e.Path)
			}
			return nil
		},
	}

	inputs.AddTo(c)
	c.Flags().StringVarP(&format, "output", "o", "text", "Output format: text, yaml, json")

	return c
}
