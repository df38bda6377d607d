package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/config"
	"github.com/blackwell-systems/koalaviz/internal/output"
	"github.com/blackwell-systems/koalaviz/internal/store"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

var (
	trackCompare int
	trackHistory int
	trackShow    int64
	trackView    string
	trackDelete  int64
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Snapshot and compare datasets over time",
	Long: `Analyze the dataset, store a snapshot of its summary metrics and top lists,
and compare against a previous snapshot to show deltas with trend arrows.

--history N prints the metrics of the N most recent snapshots instead, and
--show ID prints a stored view of one snapshot without loading any dataset.`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackCompare, "compare", 1, "Compare against Nth previous snapshot (1 = most recent)")
	trackCmd.Flags().IntVar(&trackHistory, "history", 0, "Show metric trends across N most recent snapshots")
	trackCmd.Flags().Int64Var(&trackShow, "show", 0, "Show a stored view of the snapshot with this ID")
	trackCmd.Flags().StringVar(&trackView, "view", "actions", "View printed by --show: actions, windows or focus")
	trackCmd.Flags().Int64Var(&trackDelete, "delete", 0, "Delete the snapshot with this ID")
	rootCmd.AddCommand(trackCmd)
}

var errHistoryDisabled = errors.New("snapshot history is disabled (history.enabled)")

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errHistoryDisabled
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	w := cmd.OutOrStdout()

	switch {
	case trackDelete > 0:
		return deleteSnapshot(w, db, trackDelete)
	case trackShow > 0:
		return showResult(w, db, trackShow, trackView, chartWidth(cfg))
	case trackHistory > 0:
		if flagJSON {
			return outputHistoryJSON(w, db, trackHistory)
		}
		return renderHistory(w, db, trackHistory)
	}

	ref := dataRef(cfg)
	if ref == "" {
		return errNoData
	}
	ws, err := newWorkspace(cfg)
	if err != nil {
		return err
	}
	if _, err := ws.Open(cmd.Context(), ref); err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	current, err := recordSnapshot(db, ws, cfg.Views)
	if err != nil {
		return err
	}

	// trackCompare=1 means compare against the immediate predecessor (offset 2 from newest).
	prevSnapshot, err := db.GetSnapshotN(trackCompare + 1)
	if err != nil {
		return fmt.Errorf("loading previous snapshot: %w", err)
	}

	var diff *store.SnapshotDiff
	if prevSnapshot != nil {
		prevMetrics, err := db.GetMetrics(prevSnapshot.ID)
		if err != nil {
			return fmt.Errorf("loading previous metrics: %w", err)
		}
		currMetrics, err := db.GetMetrics(current.ID)
		if err != nil {
			return fmt.Errorf("loading current metrics: %w", err)
		}
		diff = &store.SnapshotDiff{
			Previous: prevSnapshot,
			Current:  current,
			Deltas:   computeDeltas(prevMetrics, currMetrics),
		}
	}

	if flagJSON {
		result := map[string]any{"snapshot": current}
		if diff != nil {
			result["diff"] = diff
		}
		return writeJSON(w, result)
	}

	renderTrackOutput(w, current, diff)
	return nil
}

// recordSnapshot stores the summary metrics and the default views of the
// workspace dataset.
func recordSnapshot(db *store.DB, ws *workspace.Workspace, views config.Views) (*store.Snapshot, error) {
	ov, err := ws.Overview()
	if err != nil {
		return nil, err
	}

	sel := analyzer.Selection{Top: views.Top, Ascending: views.Ascending, Mode: analyzer.FilterMode(views.FilterMode)}
	actionsParams := workspace.ActionsParams{Kind: analyzer.ActionKind(views.Kind), Normalize: views.Normalize, Selection: sel}
	actions, err := ws.TopActions(actionsParams)
	if err != nil {
		return nil, err
	}
	windowsParams := workspace.WindowsParams{Normalize: views.Normalize, Selection: sel}
	windows, err := ws.TopWindows(windowsParams)
	if err != nil {
		return nil, err
	}
	focusParams := workspace.FocusParams{Scale: analyzer.Scale(views.Scale), Selection: sel}
	focus, err := ws.FocusTime(focusParams)
	if err != nil {
		return nil, err
	}

	snapshot, err := db.CreateSnapshot(ov.Fingerprint, ov.Source, appVersion)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}

	for _, m := range buildMetrics(ov, focus) {
		if err := db.InsertMetric(snapshot.ID, m.Name, m.Value); err != nil {
			return nil, fmt.Errorf("inserting metric %s: %w", m.Name, err)
		}
	}

	results := []struct {
		view   string
		params any
		value  any
	}{
		{"actions", actionsParams, actions},
		{"windows", windowsParams, windows},
		{"focus", focusParams, focus},
	}
	for _, r := range results {
		params, err := json.Marshal(r.params)
		if err != nil {
			return nil, fmt.Errorf("encoding %s params: %w", r.view, err)
		}
		if err := db.PutResult(snapshot.ID, r.view, string(params), r.value); err != nil {
			return nil, fmt.Errorf("storing %s result: %w", r.view, err)
		}
	}
	return snapshot, nil
}

// buildMetrics flattens the overview into named metrics, in display order.
func buildMetrics(ov workspace.Overview, focus workspace.FocusView) []store.Metric {
	var focusTotal float64
	for _, row := range focus.Totals.Rows {
		focusTotal += row.Value
	}
	return []store.Metric{
		{Name: "users", Value: float64(ov.Stats.Users)},
		{Name: "sessions", Value: float64(ov.Stats.Sessions)},
		{Name: "median_sessions_per_user", Value: ov.Stats.MedianSessionsPerUser},
		{Name: "median_session_seconds", Value: ov.SessionDurations.Median},
		{Name: "max_session_seconds", Value: ov.SessionDurations.Max},
		{Name: "median_user_seconds", Value: ov.UserDurations.Median},
		{Name: "top_focus_seconds", Value: focusTotal},
	}
}

// metricDirection maps metric names to whether higher values are better.
var metricDirection = map[string]bool{
	"users":                    true,
	"sessions":                 true,
	"median_sessions_per_user": true,
	"median_session_seconds":   true,
	"max_session_seconds":      true,
	"median_user_seconds":      true,
	"top_focus_seconds":        true,
}

// computeDeltas compares two sets of metrics and returns MetricDelta entries.
func computeDeltas(prev, curr []store.Metric) []store.MetricDelta {
	prevMap := make(map[string]float64, len(prev))
	for _, m := range prev {
		prevMap[m.Name] = m.Value
	}

	deltas := make([]store.MetricDelta, 0, len(curr))
	for _, m := range curr {
		prevVal := prevMap[m.Name]
		delta := m.Value - prevVal

		direction := "unchanged"
		switch {
		case delta > 0:
			direction = "up"
		case delta < 0:
			direction = "down"
		}

		deltas = append(deltas, store.MetricDelta{
			Name:      m.Name,
			Previous:  prevVal,
			Current:   m.Value,
			Delta:     delta,
			Direction: direction,
		})
	}
	return deltas
}

func renderTrackOutput(w io.Writer, current *store.Snapshot, diff *store.SnapshotDiff) {
	fmt.Fprintln(w, output.Section("Track: Snapshot Comparison"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " Snapshot #%d taken at %s\n\n", current.ID, current.TakenAt.Format("2006-01-02 15:04:05"))

	if diff == nil {
		fmt.Fprintln(w, " First snapshot recorded. Run 'koalaviz track' again on a newer export to see trends.")
		return
	}

	fmt.Fprintf(w, " Comparing against snapshot #%d (%s)\n", diff.Previous.ID, diff.Previous.TakenAt.Format("2006-01-02 15:04:05"))
	if diff.Previous.Fingerprint == current.Fingerprint {
		fmt.Fprintln(w, output.StyleMuted.Render(" Both snapshots were taken from identical data."))
	}
	fmt.Fprintln(w)

	tbl := output.NewTable("Metric", "Previous", "Current", "Delta", "Trend").AlignRight(1, 2, 3)
	for _, d := range diff.Deltas {
		higherIsBetter, known := metricDirection[d.Name]
		if !known {
			higherIsBetter = true
		}
		tbl.AddRow(
			d.Name,
			output.FormatNumber(d.Previous),
			output.FormatNumber(d.Current),
			fmt.Sprintf("%+.2f", d.Delta),
			output.TrendArrow(d.Delta, higherIsBetter),
		)
	}
	tbl.Fprint(w)
}

// historyEntry pairs a snapshot with its metrics.
type historyEntry struct {
	Snapshot store.Snapshot `json:"snapshot"`
	Metrics  []store.Metric `json:"metrics"`
}

// loadHistory returns the n most recent snapshots in chronological order.
func loadHistory(db *store.DB, n int) ([]historyEntry, error) {
	snapshots, err := db.ListSnapshots(n)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}

	entries := make([]historyEntry, 0, len(snapshots))
	for i := len(snapshots) - 1; i >= 0; i-- {
		s := snapshots[i]
		metrics, err := db.GetMetrics(s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading metrics for snapshot #%d: %w", s.ID, err)
		}
		entries = append(entries, historyEntry{Snapshot: s, Metrics: metrics})
	}
	return entries, nil
}

// renderHistory shows a multi-snapshot timeline table.
func renderHistory(w io.Writer, db *store.DB, n int) error {
	entries, err := loadHistory(db, n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, " No snapshots found. Run 'koalaviz track' to create one.")
		return nil
	}

	fmt.Fprintln(w, output.Section("Track: Metric History"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " Showing %d most recent snapshots\n\n", len(entries))

	headers := []string{"Metric"}
	for _, e := range entries {
		headers = append(headers, fmt.Sprintf("#%d %s", e.Snapshot.ID, e.Snapshot.TakenAt.Format("Jan 02")))
	}
	headers = append(headers, "Trend")
	tbl := output.NewTable(headers...)

	var names []string
	values := make([]map[string]float64, len(entries))
	for i, e := range entries {
		values[i] = make(map[string]float64, len(e.Metrics))
		for _, m := range e.Metrics {
			if i == len(entries)-1 {
				names = append(names, m.Name)
			}
			values[i][m.Name] = m.Value
		}
	}

	for _, name := range names {
		row := []string{name}
		for i := range entries {
			row = append(row, output.FormatNumber(values[i][name]))
		}

		// Trend from first to last.
		trend := ""
		if len(entries) >= 2 {
			higherIsBetter, known := metricDirection[name]
			if !known {
				higherIsBetter = true
			}
			trend = output.TrendArrow(values[len(entries)-1][name]-values[0][name], higherIsBetter)
		}
		tbl.AddRow(append(row, trend)...)
	}

	tbl.Fprint(w)
	return nil
}

// outputHistoryJSON writes the history data as JSON.
func outputHistoryJSON(w io.Writer, db *store.DB, n int) error {
	entries, err := loadHistory(db, n)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"history": entries})
}

// showResult prints a view stored in a snapshot.
func showResult(w io.Writer, db *store.DB, id int64, view string, width int) error {
	snapshot, err := db.GetSnapshot(id)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	if snapshot == nil {
		return fmt.Errorf("snapshot #%d does not exist", id)
	}

	var (
		ranking analyzer.Ranking
		focus   workspace.FocusView
		target  any
	)
	switch view {
	case "actions", "windows":
		target = &ranking
	case "focus":
		target = &focus
	default:
		return &analyzer.InvalidParameterError{Name: "view", Value: view, Allowed: []string{"actions", "windows", "focus"}}
	}

	params, found, err := db.GetResult(id, view, target)
	if err != nil {
		return err
	}
	if !found {
		stored, err := db.ListResults(id)
		if err != nil {
			return err
		}
		names := make([]string, len(stored))
		for i, r := range stored {
			names[i] = r.View
		}
		return fmt.Errorf("snapshot #%d has no %s view (stored: %s)", id, view, strings.Join(names, ", "))
	}

	if flagJSON {
		return writeJSON(w, map[string]any{"snapshot": snapshot, "params": params, "view": target})
	}

	fmt.Fprintf(w, " Snapshot #%d of %s (%s)\n", snapshot.ID, snapshot.Source, snapshot.TakenAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, output.StyleMuted.Render(" "+params))
	switch view {
	case "focus":
		renderFocus(w, focus, width)
	case "actions":
		fmt.Fprintln(w, output.Section("Top Actions"))
		fmt.Fprintln(w)
		renderRanking(w, ranking, "Action", width)
	default:
		fmt.Fprintln(w, output.Section("Top Windows"))
		fmt.Fprintln(w)
		renderRanking(w, ranking, "Window", width)
	}
	return nil
}

// deleteSnapshot removes a snapshot together with its metrics and views.
func deleteSnapshot(w io.Writer, db *store.DB, id int64) error {
	snapshot, err := db.GetSnapshot(id)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	if snapshot == nil {
		return fmt.Errorf("snapshot #%d does not exist", id)
	}
	if err := db.DeleteSnapshot(id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if flagJSON {
		return writeJSON(w, map[string]any{"deleted": snapshot})
	}
	fmt.Fprintf(w, " Deleted snapshot #%d (%s)\n", snapshot.ID, snapshot.TakenAt.Format("2006-01-02 15:04:05"))
	return nil
}
