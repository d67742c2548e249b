// Package cmd provides CLI command implementations.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fukkitmc/mapjar/internal/cmdtypes"
	"github.com/fukkitmc/mapjar/internal/cmdutil"
	"github.com/fukkitmc/mapjar/internal/config"
	"github.com/fukkitmc/mapjar/internal/output"
	"github.com/fukkitmc/mapjar/internal/version"
)

// rootFlags holds the persistent flags.
type rootFlags struct {
	config     string
	envFile    string
	verbose    bool
	timestamps bool
	refresh    bool
}

// NewRootCmd creates the root command for the mapjar CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	gc := &cmdtypes.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "mapjar",
		Short: "Remap Minecraft jars into named mappings",
		Long: `mapjar produces a Minecraft jar remapped into a human-readable namespace.

It remaps the source jar to intermediary names, then to named mappings,
caches both artifacts under fingerprinted names and registers the result
as a dependency. A cached artifact is reused until the inputs change or
--refresh-dependencies is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeGlobals(cmd, flags, gc)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Path to config file (env: MAPJAR_CONFIG)")
	pf.StringVar(&flags.envFile, "env-file", "", "Load environment variables from this dotenv file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVar(&flags.timestamps, "timestamps", true, "Show timestamps in log output")
	pf.BoolVar(&flags.refresh, "refresh-dependencies", false,
		"Rebuild cached artifacts even when they are valid (env: MAPJAR_REFRESH_DEPENDENCIES)")

	rootCmd.AddCommand(NewRemapCmd(gc))
	rootCmd.AddCommand(NewStatusCmd(gc))
	rootCmd.AddCommand(NewCleanCmd(gc))
	rootCmd.AddCommand(NewFingerprintCmd(gc))
	rootCmd.AddCommand(NewConfigCmd(gc))
	rootCmd.AddCommand(NewVersionCmd(gc))

	return rootCmd
}

// initializeGlobals loads the env file and configuration, then sets up
// logging. Every value lands in gc.
func initializeGlobals(cmd *cobra.Command, flags *rootFlags, gc *cmdtypes.GlobalConfig) error {
	gc.Verbose = flags.verbose

	// The env file must be loaded before anything reads MAPJAR_* variables.
	envFiles, err := config.LoadEnvFile(flags.envFile)
	if err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", errValidation, err))
	}

	configPath, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{FlagValue: flags.config})
	if err != nil {
		return err
	}
	gc.ConfigPath = configPath.Value

	loaded, err := config.NewLoader().Load(configPath.Value)
	if err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", errValidation, err))
	}
	validator, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.Validate(loaded); err != nil {
		cmdutil.PrintValidationError("invalid configuration "+configPath.Value, err)
		return cmdutil.PrintedExitError(fmt.Errorf("%w: %w", errValidation, err))
	}
	gc.Config = loaded.WithDefaults()

	refresh, refreshValue, err := config.ResolveRefresh(config.ResolveRefreshOptions{
		FlagSet:     cmd.Flags().Changed("refresh-dependencies"),
		FlagValue:   flags.refresh,
		ConfigValue: loaded.RefreshDependencies,
	})
	if err != nil {
		return cmdutil.ExitError(fmt.Errorf("%w: %w", errValidation, err))
	}
	gc.Refresh = refresh
	gc.Resolved = []config.ResolvedValue{configPath, refreshValue}

	// Timestamps: flag (if explicitly set) > config > default (on).
	logCfg := output.LogConfig{Verbose: flags.verbose}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(flags.timestamps)
	} else if loaded.Log.Timestamps != nil {
		logCfg.Timestamps = loaded.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if flags.verbose {
		info := version.Get()
		output.Debug("mapjar started", "version", info.Version, "go", info.GoVersion)
		for _, f := range envFiles {
			output.Debug("env file loaded", "path", f)
		}
		config.LogResolvedValues(gc.Resolved)
	}

	return nil
}
