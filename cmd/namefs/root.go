package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/brettbedarf/namefs/config"
	"github.com/brettbedarf/namefs/internal/util"
	"github.com/spf13/cobra"
)

// app holds the state shared by every subcommand once flags are parsed
type app struct {
	configPath string
	verbose    int
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "namefs",
		Short: "Hierarchical name and node tree tool",
		Long: `namefs splits, joins and re-delimits hierarchical names such as
"oss.cs.fau.de", and builds in-memory node trees from node definition
files to print or search their full names.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML or JSON config file")
	cmd.PersistentFlags().IntVarP(&a.verbose, "verbose", "v", config.InfoVerbose,
		"Log verbosity level between 1 (error) and 5 (trace)")

	cmd.AddCommand(newSplitCommand(a))
	cmd.AddCommand(newJoinCommand(a))
	cmd.AddCommand(newConvertCommand(a))
	cmd.AddCommand(newHashCommand(a))
	cmd.AddCommand(newTreeCommand(a))
	cmd.AddCommand(newCatCommand(a))

	return cmd
}

// init loads the config file, applies the verbosity flag on top and sets up
// logging.
func (a *app) init(cmd *cobra.Command) error {
	override := &config.ConfigOverride{}
	if a.configPath != "" {
		loaded, err := config.LoadConfigOverrideFile(a.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", a.configPath, err)
		}
		override = loaded
	}
	if cmd.Flags().Changed("verbose") || override.LogLvl == nil {
		override.LogLvl = &a.verbose
	}
	cfg := config.NewConfig(override)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	util.InitializeLoggerTo(cmd.ErrOrStderr(), cfg.LogLvl)
	logger := util.GetLogger("main")
	logger.Debug().Str("config", a.configPath).Int("verbose", a.verbose).Msg("namefs initialized")
	return nil
}

// delimiter resolves a delimiter flag; empty means the configured one
func (a *app) delimiter(flag string) (rune, error) {
	if flag == "" {
		return a.cfg.NameDelimiter, nil
	}
	r, size := utf8.DecodeRuneInString(flag)
	if size != len(flag) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", flag)
	}
	return r, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
