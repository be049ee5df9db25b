// Package cli provides the command-line interface for codesim.
package cli

import (
	"os"

	"github.com/RishiKendai/codesim/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "codesim",
	Short: "Pairwise similarity analysis for programming assignments",
	Long: `Codesim compares every pair of student submissions for an assignment,
flags near-identical work and detects submissions that hand in the
starter code unchanged.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitWithWriter(os.Stderr, logLevel, logFormat)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(analyzeCmd)
}
