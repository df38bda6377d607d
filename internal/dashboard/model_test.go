package dashboard

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/dataset/datasettest"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

func defaultSettings() Settings {
	return Settings{
		Kind:      analyzer.KindAll,
		Normalize: false,
		Scale:     analyzer.ScaleSeconds,
		Selection: analyzer.Selection{Top: 10, Mode: analyzer.FilterExclude},
	}
}

func newModel(t *testing.T, open bool) (*Model, *workspace.Workspace) {
	t.Helper()
	ws, err := workspace.New(workspace.Options{CacheSize: 32})
	require.NoError(t, err)
	if open {
		_, err := ws.Open(context.Background(), datasettest.WriteDir(t, datasettest.Files()))
		require.NoError(t, err)
	}
	m := NewModel(context.Background(), ws, defaultSettings())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, ws
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func content(m *Model, tab int) string {
	return m.viewports[tab].View()
}

func TestModel_TabNavigation(t *testing.T) {
	m, _ := newModel(t, true)

	press(m, "right")
	assert.Equal(t, tabActions, m.activeTab)
	press(m, "left", "left")
	assert.Equal(t, tabFocus, m.activeTab)
	press(m, "right")
	assert.Equal(t, tabOverview, m.activeTab)
}

func TestModel_ParameterKeys(t *testing.T) {
	m, _ := newModel(t, true)
	press(m, "right")

	press(m, "t")
	assert.Equal(t, analyzer.KindShortcut, m.Settings().Kind)
	press(m, "t", "t")
	assert.Equal(t, analyzer.KindAll, m.Settings().Kind)

	press(m, "n")
	assert.True(t, m.Settings().Normalize)

	press(m, "a")
	assert.True(t, m.Selection(tabActions).Ascending)

	press(m, "+", "+", "-")
	assert.Equal(t, 11, m.Selection(tabActions).Top)

	press(m, "s")
	assert.Equal(t, analyzer.ScaleMinutes, m.Settings().Scale)

	press(m, "m")
	assert.Equal(t, analyzer.FilterInclude, m.Selection(tabActions).Mode)
	press(m, "m")
	assert.Equal(t, analyzer.FilterExclude, m.Selection(tabActions).Mode)
}

func TestModel_ScrollKeysReachViewport(t *testing.T) {
	m, _ := newModel(t, true)
	press(m, "right")
	m.viewports[tabActions].Height = 2
	m.viewports[tabActions].SetYOffset(0)

	press(m, "j")
	require.Equal(t, 1, m.viewports[tabActions].YOffset)
	press(m, "k")
	assert.Equal(t, 0, m.viewports[tabActions].YOffset)
	assert.Equal(t, analyzer.KindAll, m.Settings().Kind)
}

func TestModel_SelectionPerTab(t *testing.T) {
	m, ws := newModel(t, true)
	press(m, "right")

	press(m, "m", "/", "Paste", "enter", "a", "-")
	actions := m.Selection(tabActions)
	assert.Equal(t, analyzer.FilterInclude, actions.Mode)
	assert.Equal(t, []string{"Paste"}, actions.Labels)
	assert.Equal(t, defaultSettings().Selection, m.Selection(tabWindows))
	assert.Equal(t, defaultSettings().Selection, m.Selection(tabFocus))

	windows, err := ws.TopWindows(workspace.WindowsParams{Selection: m.Selection(tabWindows)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Project", "Terminal", "Git"}, windows.Labels())
	assert.Contains(t, content(m, tabWindows), "Terminal")
	assert.NotContains(t, content(m, tabActions), "Run.Debug")

	press(m, "left")
	press(m, "m", "a", "/")
	assert.Equal(t, inputNone, m.mode)
	assert.Equal(t, defaultSettings().Selection, m.Selection(tabWindows))
}

func TestModel_IncludeWithoutLabelsShowsAll(t *testing.T) {
	m, _ := newModel(t, true)
	press(m, "right", "m")

	assert.Equal(t, analyzer.FilterInclude, m.Selection(tabActions).Mode)
	assert.Contains(t, content(m, tabActions), "Paste")
	assert.Contains(t, content(m, tabActions), "Run.Debug")
}

func TestModel_TopNeverBelowOne(t *testing.T) {
	m, _ := newModel(t, true)
	press(m, "right")
	for range 20 {
		press(m, "-")
	}
	assert.Equal(t, 1, m.Selection(tabActions).Top)
	assert.Equal(t, 10, m.Selection(tabWindows).Top)
	assert.Contains(t, content(m, tabActions), "Paste")
	assert.NotContains(t, content(m, tabActions), "Run.Debug")
}

func TestModel_PagesRendered(t *testing.T) {
	m, _ := newModel(t, true)

	assert.Contains(t, content(m, tabOverview), "Sessions")
	assert.Contains(t, content(m, tabActions), "Paste")
	assert.Contains(t, content(m, tabActions), "Run.Debug")
	assert.Contains(t, content(m, tabWindows), "Terminal")
	assert.Contains(t, content(m, tabFocus), "Terminal")
	assert.Empty(t, m.errMsg())
}

func TestModel_LabelsInput(t *testing.T) {
	m, _ := newModel(t, true)
	press(m, "right")

	press(m, "/")
	require.Equal(t, inputLabels, m.mode)
	press(m, "Paste, Run.Debug", "enter")

	assert.Equal(t, inputNone, m.mode)
	assert.Equal(t, []string{"Paste", "Run.Debug"}, m.Selection(tabActions).Labels)
	assert.NotContains(t, content(m, tabActions), "Run.Debug")
	assert.Contains(t, content(m, tabActions), "example.EditorCopy")
}

func TestModel_InputEscCancels(t *testing.T) {
	m, _ := newModel(t, true)
	press(m, "right")

	press(m, "/", "Paste", "esc")

	assert.Equal(t, inputNone, m.mode)
	assert.Empty(t, m.Selection(tabActions).Labels)
}

func TestModel_InputSwallowsKeys(t *testing.T) {
	m, _ := newModel(t, true)
	press(m, "right")

	press(m, "/", "q", "t")

	assert.Equal(t, inputLabels, m.mode)
	assert.Equal(t, "qt", m.input.Value())
	assert.Equal(t, analyzer.KindAll, m.Settings().Kind)
}

func TestModel_NoDataset(t *testing.T) {
	m, _ := newModel(t, false)

	for tab := range m.tabs {
		assert.Contains(t, content(m, tab), "No dataset loaded")
	}
	assert.Empty(t, m.errMsg())

	// Reload without a dataset is a no-op.
	assert.Nil(t, press(m, "r"))
}

func TestModel_OpenDataset(t *testing.T) {
	m, ws := newModel(t, false)
	dir := datasettest.WriteDir(t, datasettest.Files())

	press(m, "o")
	require.Equal(t, inputOpen, m.mode)
	m.input.SetValue(dir)
	cmd := press(m, "enter")
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	m.Update(cmd())

	assert.False(t, m.loading)
	require.NotNil(t, ws.Bundle())
	assert.Contains(t, m.status, dir)
	assert.Contains(t, content(m, tabActions), "Paste")
}

func TestModel_OpenFailureKeepsDataset(t *testing.T) {
	m, ws := newModel(t, true)
	before := ws.Bundle()

	press(m, "o")
	m.input.SetValue(filepath.Join(t.TempDir(), "missing"))
	cmd := press(m, "enter")
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Same(t, before, ws.Bundle())
	assert.NotEmpty(t, m.errMsg())
	assert.Contains(t, content(m, tabActions), "Paste")
	assert.Contains(t, m.errMsg(), "invalid data source")
	assert.Contains(t, m.View(), "invalid data source")
}

func TestModel_Reload(t *testing.T) {
	m, ws := newModel(t, true)
	before := ws.Bundle()

	cmd := press(m, "r")
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.NotSame(t, before, ws.Bundle())
	assert.Equal(t, before.Fingerprint, ws.Bundle().Fingerprint)
	assert.Empty(t, m.errMsg())
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t, true)

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestModel_ViewFitsWindow(t *testing.T) {
	m, _ := newModel(t, true)

	lines := strings.Split(m.View(), "\n")
	assert.Len(t, lines, 40)
}

func TestCycle(t *testing.T) {
	assert.Equal(t, analyzer.ScaleHours, cycle(analyzer.Scales, analyzer.ScaleMinutes))
	assert.Equal(t, analyzer.ScaleSeconds, cycle(analyzer.Scales, analyzer.ScaleHours))
	assert.Equal(t, analyzer.ScaleSeconds, cycle(analyzer.Scales, analyzer.Scale("days")))
}
