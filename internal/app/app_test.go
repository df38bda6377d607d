package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/config"
	"github.com/blackwell-systems/koalaviz/internal/dataset/datasettest"
	"github.com/blackwell-systems/koalaviz/internal/store"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

// resetFlags restores every flag to its default so commands can run more
// than once in a test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// setupHome isolates the config directory and snapshot database.
func setupHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	return datasettest.WriteDir(t, datasettest.Files())
}

func TestCommandsRegistered(t *testing.T) {
	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Use] = true
	}
	for _, name := range []string{"stats", "actions", "windows", "focus", "dashboard", "track"} {
		assert.True(t, registered[name], "%s subcommand not registered on rootCmd", name)
	}
}

func TestRoot_ListsSubcommands(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "dashboard")
	assert.Contains(t, out, "track")
}

func TestStats_NoDataset(t *testing.T) {
	setupHome(t)

	_, err := runCLI(t, "stats")
	assert.ErrorIs(t, err, errNoData)
}

func TestStats_MissingSource(t *testing.T) {
	setupHome(t)

	_, err := runCLI(t, "stats", "--data", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading dataset")
	assert.Contains(t, err.Error(), "does not exist")
}

func TestStats_JSON(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "stats", "--data", fixtureDir(t), "--json")
	require.NoError(t, err)

	var ov workspace.Overview
	require.NoError(t, json.Unmarshal([]byte(out), &ov))
	assert.Equal(t, 3, ov.Stats.Users)
	assert.Equal(t, 4, ov.Stats.Sessions)
	assert.Equal(t, analyzer.PerSession, ov.SessionDurations.Per)
	assert.Equal(t, analyzer.PerUser, ov.UserDurations.Per)
	assert.NotEmpty(t, ov.Tables)
}

func TestStats_Text(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "stats", "--data", fixtureDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset")
	assert.Contains(t, out, "researches")
	assert.Contains(t, out, "Median sessions/user")
}

func TestActions_JSON(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "actions", "--data", fixtureDir(t), "--kind", "all", "--normalize=false", "--json")
	require.NoError(t, err)

	var got actionsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, analyzer.KindAll, got.Kind)
	assert.False(t, got.Normalized)
	assert.Equal(t, []analyzer.LabelCount{
		{Label: "Paste", Value: 2},
		{Label: "example.EditorCopy", Value: 2},
		{Label: "Run.Debug", Value: 1},
	}, got.Rows)
}

func TestActions_SelectionFlags(t *testing.T) {
	setupHome(t)
	dir := fixtureDir(t)

	out, err := runCLI(t, "actions", "--data", dir, "--kind", "all", "--normalize=false",
		"--labels", "Paste", "--top", "1", "--json")
	require.NoError(t, err)

	var got actionsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []analyzer.LabelCount{{Label: "example.EditorCopy", Value: 2}}, got.Rows)

	// Flags from the previous run must not leak into this one.
	out, err = runCLI(t, "actions", "--data", dir, "--kind", "all", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Rows, 3)
	assert.True(t, got.Normalized)
}

func TestActions_Text(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "actions", "--data", fixtureDir(t), "--kind", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Top Actions (all)")
	assert.Contains(t, out, "Paste")
	assert.Contains(t, out, "users in total")
}

func TestActions_InvalidKind(t *testing.T) {
	setupHome(t)

	_, err := runCLI(t, "actions", "--data", fixtureDir(t), "--kind", "mouse")

	var invalid *analyzer.InvalidParameterError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "kind", invalid.Name)
	assert.Equal(t, "mouse", invalid.Value)
}

func TestActions_InvalidTop(t *testing.T) {
	setupHome(t)

	_, err := runCLI(t, "actions", "--data", fixtureDir(t), "--top", "-1")

	var invalid *analyzer.InvalidParameterError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "top", invalid.Name)
}

func TestActions_ConfigDefaults(t *testing.T) {
	setupHome(t)
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "data_path: " + fixtureDir(t) + "\nviews:\n  top: 1\n  kind: all\n  normalize: false\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))

	out, err := runCLI(t, "actions", "--config", cfgFile, "--json")
	require.NoError(t, err)
	var got actionsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []analyzer.LabelCount{{Label: "Paste", Value: 2}}, got.Rows)

	// An explicit flag overrides the configured value.
	out, err = runCLI(t, "actions", "--config", cfgFile, "--top", "2", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Rows, 2)
}

func TestWindows_JSON(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "windows", "--data", fixtureDir(t), "--json")
	require.NoError(t, err)

	var got analyzer.Ranking
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Normalized)
	assert.Equal(t, []string{"Project", "Terminal", "Git"}, got.Labels())
}

func TestFocus_Text(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "focus", "--data", fixtureDir(t), "--scale", "minutes")
	require.NoError(t, err)
	assert.Contains(t, out, "Window Focus Time (minutes)")
	assert.Contains(t, out, "Terminal")
	assert.Contains(t, out, "├")
}

func TestFocus_InvalidScale(t *testing.T) {
	setupHome(t)

	_, err := runCLI(t, "focus", "--data", fixtureDir(t), "--scale", "days")

	var invalid *analyzer.InvalidParameterError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "scale", invalid.Name)
}

func TestTrack_SnapshotsAndCompares(t *testing.T) {
	setupHome(t)
	dir := fixtureDir(t)

	out, err := runCLI(t, "track", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "First snapshot recorded")

	out, err = runCLI(t, "track", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Comparing against snapshot #1")
	assert.Contains(t, out, "identical data")
	assert.Contains(t, out, "median_session_seconds")

	out, err = runCLI(t, "track", "--history", "5", "--json")
	require.NoError(t, err)
	var history struct {
		History []historyEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history.History, 2)
	assert.Equal(t, int64(1), history.History[0].Snapshot.ID)
	assert.Equal(t, int64(2), history.History[1].Snapshot.ID)
	assert.Len(t, history.History[1].Metrics, len(metricDirection))
}

func TestTrack_JSONDiff(t *testing.T) {
	setupHome(t)
	dir := fixtureDir(t)

	_, err := runCLI(t, "track", "--data", dir)
	require.NoError(t, err)
	out, err := runCLI(t, "track", "--data", dir, "--json")
	require.NoError(t, err)

	var result struct {
		Snapshot store.Snapshot     `json:"snapshot"`
		Diff     store.SnapshotDiff `json:"diff"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, int64(2), result.Snapshot.ID)
	require.NotEmpty(t, result.Diff.Deltas)
	for _, d := range result.Diff.Deltas {
		assert.Equal(t, "unchanged", d.Direction, d.Name)
	}
}

func TestTrack_ShowStoredView(t *testing.T) {
	setupHome(t)

	_, err := runCLI(t, "track", "--data", fixtureDir(t))
	require.NoError(t, err)

	out, err := runCLI(t, "track", "--show", "1", "--view", "windows")
	require.NoError(t, err)
	assert.Contains(t, out, "Top Windows")
	assert.Contains(t, out, "Terminal")

	out, err = runCLI(t, "track", "--show", "1", "--view", "focus")
	require.NoError(t, err)
	assert.Contains(t, out, "Window Focus Time")

	_, err = runCLI(t, "track", "--show", "1", "--view", "cost")
	var invalid *analyzer.InvalidParameterError
	assert.True(t, errors.As(err, &invalid))

	_, err = runCLI(t, "track", "--show", "9")
	assert.Error(t, err)
}

func TestTrack_Delete(t *testing.T) {
	setupHome(t)
	dir := fixtureDir(t)

	for range 2 {
		_, err := runCLI(t, "track", "--data", dir)
		require.NoError(t, err)
	}

	out, err := runCLI(t, "track", "--delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted snapshot #1")

	_, err = runCLI(t, "track", "--show", "1")
	assert.Error(t, err)
	_, err = runCLI(t, "track", "--delete", "1")
	assert.Error(t, err)

	out, err = runCLI(t, "track", "--history", "5", "--json")
	require.NoError(t, err)
	var history struct {
		History []historyEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history.History, 1)
	assert.Equal(t, int64(2), history.History[0].Snapshot.ID)
}

func TestTrack_HistoryEmpty(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "track", "--history", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots found")
}

func TestTrack_HistoryDisabled(t *testing.T) {
	setupHome(t)
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("history:\n  enabled: false\n"), 0o644))

	_, err := runCLI(t, "track", "--config", cfgFile, "--data", fixtureDir(t))
	assert.ErrorIs(t, err, errHistoryDisabled)
}

func TestComputeDeltas(t *testing.T) {
	prev := []store.Metric{{Name: "users", Value: 10}, {Name: "sessions", Value: 20}}
	curr := []store.Metric{{Name: "users", Value: 12}, {Name: "sessions", Value: 15}, {Name: "new", Value: 1}}

	deltas := computeDeltas(prev, curr)

	require.Len(t, deltas, 3)
	assert.Equal(t, store.MetricDelta{Name: "users", Previous: 10, Current: 12, Delta: 2, Direction: "up"}, deltas[0])
	assert.Equal(t, store.MetricDelta{Name: "sessions", Previous: 20, Current: 15, Delta: -5, Direction: "down"}, deltas[1])
	assert.Equal(t, "up", deltas[2].Direction)
}

func TestDashboardSettings(t *testing.T) {
	s, err := dashboardSettings(config.DefaultViews)
	require.NoError(t, err)
	assert.Equal(t, analyzer.KindShortcut, s.Kind)
	assert.Equal(t, analyzer.ScaleSeconds, s.Scale)
	assert.Equal(t, analyzer.FilterExclude, s.Selection.Mode)
	assert.Equal(t, 10, s.Selection.Top)
	assert.True(t, s.Normalize)

	bad := config.DefaultViews
	bad.Scale = "weeks"
	_, err = dashboardSettings(bad)
	var invalid *analyzer.InvalidParameterError
	assert.True(t, errors.As(err, &invalid))
}
