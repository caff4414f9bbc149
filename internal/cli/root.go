package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "cargomend",
	Short: "cargomend — a diagnostic-driven build-fixing loop",
	Long: `cargomend repeatedly runs a build-check command, parses its structured
diagnostics, and applies minimal textual fixes at the flagged locations until
the build succeeds or no automatic fix applies.

Fixes are textual heuristics, not semantic edits: the next compiler run is
the only judge of whether a fix landed. Run history is stored in
~/.cargomend/ (SQLite).`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
}
