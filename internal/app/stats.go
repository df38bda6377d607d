package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/output"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the dataset and session durations",
	Long: `Load the dataset and show the tables it contains, the number of users and
sessions, and how long sessions lasted, both per session and per user across
all of their sessions. The test account is excluded.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	_, ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}

	ov, err := ws.Overview()
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), ov)
	}
	renderOverview(cmd.OutOrStdout(), ov)
	return nil
}

func renderOverview(w io.Writer, ov workspace.Overview) {
	fmt.Fprintln(w, output.Section("Dataset"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.MetricLine("Source", ov.Source))
	fmt.Fprintln(w, output.MetricLine("Kind", string(ov.Kind)))
	fmt.Fprintln(w, output.MetricLine("Fingerprint", ov.Fingerprint))
	fmt.Fprintln(w, output.MetricLine("Loaded", ov.LoadedAt.Format("2006-01-02 15:04:05")))
	fmt.Fprintln(w)

	tables := output.NewTable("Table", "Rows").AlignRight(1)
	for _, t := range ov.Tables {
		tables.AddRow(t.Name, output.FormatCount(t.Rows))
	}
	tables.Fprint(w)

	fmt.Fprintln(w, output.Section("Research"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.MetricLine("Users", output.FormatCount(ov.Stats.Users)))
	fmt.Fprintln(w, output.MetricLine("Sessions", output.FormatCount(ov.Stats.Sessions)))
	fmt.Fprintln(w, output.MetricLine("Median sessions/user", output.FormatNumber(ov.Stats.MedianSessionsPerUser)))

	fmt.Fprintln(w, output.Section("Duration"))
	fmt.Fprintln(w)
	durations := output.NewTable("Per", "Count", "Min", "Median", "Max").AlignRight(1, 2, 3, 4)
	for _, d := range []analyzer.DurationSummary{ov.SessionDurations, ov.UserDurations} {
		durations.AddRow(
			string(d.Per),
			output.FormatCount(d.Groups),
			formatDurationCell(d, d.Min),
			formatDurationCell(d, d.Median),
			formatDurationCell(d, d.Max),
		)
	}
	durations.Fprint(w)
}

func formatDurationCell(d analyzer.DurationSummary, seconds float64) string {
	if d.Groups == 0 {
		return "n/a"
	}
	return output.FormatDuration(seconds)
}
