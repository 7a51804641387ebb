// Package commands provides the CLI commands for the delegen tool.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"martianoff/delegen/internal/logger"
)

var (
	flagVerbose   bool
	flagJSONLog   bool
	flagConfig    string
	flagRoot      string
	flagExternals []string
	flagStrict    bool
	flagDir       string
	flagRev       string
	flagCache     bool
)

var rootCmd = &cobra.Command{
	Use:   "delegen",
	Short: "Forwarding implementation generator",
	Long: `delegen generates implementations of named interfaces whose methods
forward every call to a delegate expression.

Usage:
  delegen generate wrapper.delegate -o wrapper.rs   Generate from a request file
  delegen expand --table traits.delegate --attr "Shape to self.0" item.rs
  delegen inspect shapes.rs                         Show resolved interfaces
  delegen version                                   Print version`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(flagVerbose, flagJSONLog)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printDiagnostic(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flagJSONLog, "json-log", false, "Log as JSON")
	pf.StringVar(&flagConfig, "config", "", "Configuration file (default: nearest delegen.toml)")
	pf.StringVar(&flagRoot, "root", "", "Path emitted code is anchored under")
	pf.StringSliceVar(&flagExternals, "external", nil, "External root that gets the anchor path (repeatable)")
	pf.BoolVar(&flagStrict, "strict", false, "Reject import aliases bound to two different paths")
	pf.StringVarP(&flagDir, "dir", "C", "", "Directory source paths are resolved against")
	pf.StringVar(&flagRev, "rev", "", "Read sources from this git revision")
	pf.BoolVar(&flagCache, "cache", false, "Cache on-demand expansions on disk")
}
