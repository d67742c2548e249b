package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/cmdtypes"
	"github.com/fukkitmc/mapjar/internal/cmdutil"
	"github.com/fukkitmc/mapjar/internal/config"
	"github.com/fukkitmc/mapjar/internal/depgraph"
	"github.com/fukkitmc/mapjar/internal/output"
	"github.com/fukkitmc/mapjar/internal/provider"
)

// NewRemapCmd creates the remap command.
func NewRemapCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	inputs := &cmdutil.InputFlags{}
	run := &cmdutil.RunFlags{}

	c := &cobra.Command{
		Use:   "remap",
		Short: "Produce the mapped jar",
		Long: `Produce the mapped jar and register it as a dependency.

The source jar is remapped to the intermediate namespace, then to the target
namespace. Both results are cached under fingerprinted names; a later run
with the same inputs reuses them unless --refresh-dependencies is given.
A failed run removes both artifacts and the mapping caches.

Examples:
  # Remap using ~/.mapjar/config.yaml
  mapjar remap

  # Override inputs and write metrics for node_exporter
  mapjar remap --minecraft-version 1.16.5 --mappings yarn.jar \
    --mappings-name yarn --mappings-version 1.16.5+build.10 \
    --metrics-file /var/lib/node_exporter/mapjar.prom`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runRemap(c, gc, inputs, run)
		},
	}

	inputs.AddTo(c)
	run.AddTo(c)

	return c
}

func runRemap(c *cobra.Command, gc *cmdtypes.GlobalConfig, inputs *cmdutil.InputFlags, run *cmdutil.RunFlags) error {
	format, ok := output.ParseFormat(run.Output)
	if !ok {
		return cmdutil.ExitError(fmt.Errorf("%w: invalid output format %q, use one of %v",
			errValidation, run.Output, output.ValidFormats()))
	}

	cfg, resolved, err := inputs.Apply(gc.Config)
	if err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", errValidation, err))
	}
	if gc.Verbose {
		config.LogResolvedValues(resolved)
	}

	asm, err := cmdutil.Assemble(cmdutil.AssembleOpts{Config: cfg, Refresh: gc.Refresh})
	if err != nil {
		cmdutil.PrintValidationError("cannot remap", err)
		return cmdutil.PrintedExitError(err)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := run.Timeout
	if timeout == 0 {
		timeout = cfg.Remap.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var res *provider.Result
	title := fmt.Sprintf("Remapping %s %s to %s", cfg.Minecraft.Name, cfg.Minecraft.Version, cfg.Mappings.To)
	err = output.RunWithSpinner(ctx, func(ctx context.Context) error {
		var perr error
		res, perr = asm.Provider.Provide(ctx)
		return perr
	}, output.WithTitle(title))

	if run.MetricsFile != "" {
		if merr := asm.Registry.WriteTextfile(run.MetricsFile); merr != nil {
			output.Warn("writing metrics failed", "path", run.MetricsFile, "error", merr)
		}
	}

	if err != nil {
		cmdutil.PrintProvideError(cfg.Minecraft.Name, err)
		return cmdutil.PrintedExitError(err)
	}

	out := c.OutOrStdout()
	if format == output.FormatText {
		status := output.StatusCached
		if res.Outcome == provider.OutcomeRebuilt {
			status = output.StatusRebuilt
		}
		printArtifact(out, res.Intermediate, status)
		printArtifact(out, res.Mapped, status)
		fmt.Fprintln(out, output.FormatCheckmark(fmt.Sprintf("%s %s ready (%s in %s)",
			cfg.Minecraft.Name, res.Mapped.Version, res.Outcome, res.Elapsed.Round(time.Millisecond))))
	}
	if err := asm.Graph.WriteReport(out, format); err != nil {
		return err
	}

	if run.ReportFile != "" {
		if err := saveReport(run.ReportFile, asm.Graph); err != nil {
			return cmdutil.ExitError(err)
		}
		output.Debug("dependency report saved", "path", run.ReportFile)
	}
	return nil
}

func printArtifact(w io.Writer, ref artifact.Ref, status string) {
	fmt.Fprintln(w, output.FormatArtifactLine(ref.Role, filepath.Base(ref.Path), status))
}

// saveReport merges graph into the report at path so several runs can share
// one file.
func saveReport(path string, graph *depgraph.Graph) error {
	merged, err := depgraph.Load(path, depgraph.DefaultGroup)
	if err != nil {
		return err
	}
	for _, d := range graph.Dependencies() {
		merged.Register(d.Name, d.Version, d.Role)
	}
	return merged.Save(path)
}
