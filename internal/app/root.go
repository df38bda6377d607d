// Package app contains the Cobra command tree for koalaviz.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
	flagData    string
)

var rootCmd = &cobra.Command{
	Use:   "koalaviz",
	Short: "Explore exported IDE usage telemetry",
	Long: `koalaviz loads an export of IDE usage telemetry (research sessions, UI
actions and tool-window events) from a directory of CSV files, a zip archive
or an s3:// URI, and shows which actions and windows users rely on and how long
they keep each window focused.

Run 'koalaviz dashboard' for the interactive view.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "koalaviz", appVersion)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Use a subcommand:")
		fmt.Fprintln(w, "  stats      Summarize the dataset and session durations")
		fmt.Fprintln(w, "  actions    Actions triggered by the most users")
		fmt.Fprintln(w, "  windows    Tool windows used by the most users")
		fmt.Fprintln(w, "  focus      Time spent with each tool window focused")
		fmt.Fprintln(w, "  dashboard  Interactive terminal dashboard")
		fmt.Fprintln(w, "  track      Snapshot and compare datasets over time")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/koalaviz/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagData, "data", "d", "", "Dataset to open: a directory, a zip archive or an s3:// URI")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
