package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/config"
	"github.com/blackwell-systems/koalaviz/internal/output"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

var (
	focusScale     string
	focusSelection selectionFlags
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Time spent with each tool window focused",
	Long: `Measure how long each user kept each tool window focused. Windows are
ranked by the total focused time of all users; the box plot shows how that
time is distributed across users in the chosen --scale.`,
	RunE: runFocus,
}

func init() {
	focusCmd.Flags().StringVar(&focusScale, "scale", config.DefaultViews.Scale, "Unit of the distribution: seconds, minutes or hours")
	focusSelection.register(focusCmd.Flags())
	rootCmd.AddCommand(focusCmd)
}

func runFocus(cmd *cobra.Command, args []string) error {
	cfg, ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	sel, err := focusSelection.selection(fs, cfg.Views)
	if err != nil {
		return err
	}
	scale, err := analyzer.ParseScale(stringFlag(fs, "scale", focusScale, cfg.Views.Scale))
	if err != nil {
		return err
	}

	view, err := ws.FocusTime(workspace.FocusParams{Scale: scale, Selection: sel})
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), view)
	}
	renderFocus(cmd.OutOrStdout(), view, chartWidth(cfg))
	return nil
}

func renderFocus(w io.Writer, view workspace.FocusView, width int) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Window Focus Time (%s)", view.Scale)))
	fmt.Fprintln(w)

	if len(view.Boxes) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" No focus events match the current selection."))
		return
	}

	boxes := make([]output.Box, len(view.Boxes))
	for i, b := range view.Boxes {
		boxes[i] = output.Box{Label: b.Window, Min: b.Min, Q1: b.Q1, Median: b.Median, Q3: b.Q3, Max: b.Max}
	}
	fmt.Fprint(w, output.BoxPlot(boxes, width, output.FormatNumber))
	fmt.Fprintln(w)

	tbl := output.NewTable("Window", "Total", "Users", "Median", "Max").AlignRight(1, 2, 3, 4)
	for i, b := range view.Boxes {
		tbl.AddRow(
			b.Window,
			output.FormatDuration(view.Totals.Rows[i].Value),
			output.FormatCount(b.Count),
			output.FormatNumber(b.Median),
			output.FormatNumber(b.Max),
		)
	}
	tbl.Fprint(w)
}
