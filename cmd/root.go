package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codetrack/internal/config"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "codetrack",
	Short: "Collect and analyze local editor activity telemetry",
	Long: `codetrack ingests raw editor notifications, coalesces them into
activity events, and computes time-windowed statistics: active time, coding
time, per-file and per-language rankings, productivity score and streaks.

Data stays local; enable sync to reconcile with a remote store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}
