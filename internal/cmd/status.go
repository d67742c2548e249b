package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/cmdtypes"
	"github.com/fukkitmc/mapjar/internal/cmdutil"
	"github.com/fukkitmc/mapjar/internal/output"
)

// statusOptions holds the flags for the status command.
type statusOptions struct {
	inputs cmdutil.InputFlags
	output string
}

// artifactStatus is one row of the status report.
type artifactStatus struct {
	Role        string `json:"role" yaml:"role"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Path        string `json:"path" yaml:"path"`
	Status      string `json:"status" yaml:"status"`
}

// statusReport is the structured status output.
type statusReport struct {
	Valid     bool             `json:"valid" yaml:"valid"`
	Artifacts []artifactStatus `json:"artifacts" yaml:"artifacts"`
}

// NewStatusCmd creates the status command.
func NewStatusCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	opts := &statusOptions{}

	c := &cobra.Command{
		Use:   "status",
		Short: "Show cached artifact status",
		Long: `Show whether the intermediate and mapped jars for the configured inputs
are cached. The cache is only valid when both are present.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runStatus(c, gc, opts)
		},
	}

	opts.inputs.AddTo(c)
	c.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, yaml, json)")

	return c
}

func runStatus(c *cobra.Command, gc *cmdtypes.GlobalConfig, opts *statusOptions) error {
	if opts.output != "table" && opts.output != "yaml" && opts.output != "json" {
		return cmdutil.ExitError(fmt.Errorf("%w: invalid output format %q, use table, yaml, or json", errValidation, opts.output))
	}

	cfg, _, err := opts.inputs.Apply(gc.Config)
	if err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", errValidation, err))
	}
	intermediate, mapped, err := cmdutil.Refs(cfg)
	if err != nil {
		return cmdutil.ExitError(err)
	}

	report, err := buildStatusReport(intermediate, mapped, gc.Refresh)
	if err != nil {
		return cmdutil.ExitError(err)
	}

	out := c.OutOrStdout()
	if opts.output != "table" {
		format, _ := output.ParseFormat(opts.output)
		return output.WriteStructured(out, format, report)
	}

	tbl := output.NewTable("ROLE", "FILE", "DIRECTORY", "STATUS")
	for _, a := range report.Artifacts {
		tbl.Row(a.Role, filepath.Base(a.Path), filepath.Dir(a.Path), a.Status)
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}

// buildStatusReport classifies both artifacts. A present artifact is stale
// when its partner is missing or a refresh is pending.
func buildStatusReport(intermediate, mapped artifact.Ref, refresh bool) (*statusReport, error) {
	refs := []artifact.Ref{intermediate, mapped}
	exists := make([]bool, len(refs))
	for i, ref := range refs {
		ok, err := artifact.Exists(ref.Path)
		if err != nil {
			return nil, err
		}
		exists[i] = ok
	}

	valid := exists[0] && exists[1]
	report := &statusReport{Valid: valid && !refresh}
	for i, ref := range refs {
		status := output.StatusMissing
		if exists[i] {
			status = output.StatusCached
			if !valid || refresh {
				status = output.StatusStale
			}
		}
		report.Artifacts = append(report.Artifacts, artifactStatus{
			Role:        ref.Role,
			Fingerprint: ref.Version,
			Path:        ref.Path,
			Status:      status,
		})
	}
	return report, nil
}
