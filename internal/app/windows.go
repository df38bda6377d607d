package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/koalaviz/internal/config"
	"github.com/blackwell-systems/koalaviz/internal/output"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

var (
	windowsNormalize bool
	windowsSelection selectionFlags
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Tool windows used by the most users",
	Long: `Count, for every tool window, how many distinct users interacted with it.
With --normalize the counts become the percentage of users who used any
tool window.`,
	RunE: runWindows,
}

func init() {
	windowsCmd.Flags().BoolVar(&windowsNormalize, "normalize", config.DefaultViews.Normalize, "Show percentages of users instead of counts")
	windowsSelection.register(windowsCmd.Flags())
	rootCmd.AddCommand(windowsCmd)
}

func runWindows(cmd *cobra.Command, args []string) error {
	cfg, ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	sel, err := windowsSelection.selection(fs, cfg.Views)
	if err != nil {
		return err
	}

	ranking, err := ws.TopWindows(workspace.WindowsParams{
		Normalize: boolFlag(fs, "normalize", windowsNormalize, cfg.Views.Normalize),
		Selection: sel,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), ranking)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, output.Section("Top Windows"))
	fmt.Fprintln(w)
	renderRanking(w, ranking, "Window", chartWidth(cfg))
	return nil
}
