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
	actionsKind      string
	actionsNormalize bool
	actionsSelection selectionFlags
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Actions triggered by the most users",
	Long: `Count, for every normalized action name, how many distinct users triggered
it. --kind shortcut keeps actions triggered through a keyboard shortcut,
--kind standalone keeps the others. With --normalize the counts become the
percentage of users who used any action of the selected kind.`,
	Example: `  koalaviz actions --data ./export --kind all --top 20
  koalaviz actions --labels Paste,Copy --filter-mode exclude`,
	RunE: runActions,
}

func init() {
	actionsCmd.Flags().StringVar(&actionsKind, "kind", config.DefaultViews.Kind, "Actions to count: all, shortcut or standalone")
	actionsCmd.Flags().BoolVar(&actionsNormalize, "normalize", config.DefaultViews.Normalize, "Show percentages of users instead of counts")
	actionsSelection.register(actionsCmd.Flags())
	rootCmd.AddCommand(actionsCmd)
}

// actionsOutput is the JSON-serializable output for the actions command.
type actionsOutput struct {
	Kind analyzer.ActionKind `json:"kind"`
	analyzer.Ranking
}

func runActions(cmd *cobra.Command, args []string) error {
	cfg, ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	sel, err := actionsSelection.selection(fs, cfg.Views)
	if err != nil {
		return err
	}
	kind, err := analyzer.ParseActionKind(stringFlag(fs, "kind", actionsKind, cfg.Views.Kind))
	if err != nil {
		return err
	}

	ranking, err := ws.TopActions(workspace.ActionsParams{
		Kind:      kind,
		Normalize: boolFlag(fs, "normalize", actionsNormalize, cfg.Views.Normalize),
		Selection: sel,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), actionsOutput{Kind: kind, Ranking: ranking})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Top Actions (%s)", kind)))
	fmt.Fprintln(w)
	renderRanking(w, ranking, "Action", chartWidth(cfg))
	return nil
}

// renderRanking prints a bar chart of a ranking followed by its table.
func renderRanking(w io.Writer, r analyzer.Ranking, labelHeader string, width int) {
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" No rows match the current selection."))
		return
	}

	format, valueHeader := output.FormatNumber, "Users"
	if r.Normalized {
		format, valueHeader = output.FormatPercent, "% of users"
	}

	bars := make([]output.Bar, len(r.Rows))
	tbl := output.NewTable(labelHeader, valueHeader).AlignRight(1)
	for i, row := range r.Rows {
		bars[i] = output.Bar{Label: row.Label, Value: row.Value}
		tbl.AddRow(row.Label, format(row.Value))
	}

	fmt.Fprint(w, output.BarChart(bars, width, format))
	fmt.Fprintln(w)
	tbl.Fprint(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.StyleMuted.Render(fmt.Sprintf(" %d users in total", r.Users)))
}
