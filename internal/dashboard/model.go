// Package dashboard provides the Bubble Tea dashboard: one tab per page of
// the workspace, with key bindings that change the view parameters.
package dashboard

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

const (
	tabOverview = iota
	tabActions
	tabWindows
	tabFocus
)

// Settings are the view parameters shown by the dashboard. Selection seeds
// the selection of each ranking tab; the tabs then change independently.
type Settings struct {
	Kind      analyzer.ActionKind
	Normalize bool
	Scale     analyzer.Scale
	Selection analyzer.Selection
}

type inputMode int

const (
	inputNone inputMode = iota
	inputLabels
	inputOpen
)

// loadedMsg reports the end of an open or reload.
type loadedMsg struct {
	source string
	err    error
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	ctx        context.Context
	ws         *workspace.Workspace
	settings   Settings
	selections []analyzer.Selection

	tabs      []string
	activeTab int
	viewports []viewport.Model

	width  int
	height int

	mode  inputMode
	input textinput.Model

	loading bool
	status  string
	loadErr string
	viewErr string
}

// NewModel constructs a dashboard over ws. The workspace may be empty; the
// user can then open a dataset with o.
func NewModel(ctx context.Context, ws *workspace.Workspace, s Settings) *Model {
	if s.Selection.Mode == "" {
		s.Selection.Mode = analyzer.FilterExclude
	}
	m := &Model{
		ctx:      ctx,
		ws:       ws,
		settings: s,
		tabs:     []string{"Overview", "Top Actions", "Top Windows", "Focus Time"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	m.selections = make([]analyzer.Selection, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
		m.selections[i] = s.Selection
		m.selections[i].Labels = append([]string(nil), s.Selection.Labels...)
	}
	m.input = textinput.New()
	m.input.CharLimit = 0
	m.input.Cursor.SetMode(cursor.CursorBlink)
	m.renderTabContents()
	return m
}

// Settings returns the current view parameters.
func (m *Model) Settings() Settings {
	return m.settings
}

// Selection returns the selection of the given tab.
func (m *Model) Selection(tab int) analyzer.Selection {
	return m.selections[tab]
}

// activeSelection is the selection the keys change, or nil on the overview.
func (m *Model) activeSelection() *analyzer.Selection {
	if m.activeTab == tabOverview {
		return nil
	}
	return &m.selections[m.activeTab]
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			m.status = ""
			m.updateLayout()
			return m, nil
		}
		m.loadErr = ""
		m.status = "Opened " + msg.source
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &m.settings
	sel := m.activeSelection()
	if sel == nil {
		// Ranking keys have no effect on the overview.
		sel = &analyzer.Selection{}
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "t":
		s.Kind = cycle(analyzer.ActionKinds, s.Kind)
	case "n":
		s.Normalize = !s.Normalize
	case "a":
		sel.Ascending = !sel.Ascending
	case "+", "=":
		// Top 0 shows every row and is left alone.
		if sel.Top > 0 {
			sel.Top++
		}
	case "-":
		if sel.Top > 1 {
			sel.Top--
		}
	case "s":
		s.Scale = cycle(analyzer.Scales, s.Scale)
	case "m":
		if sel.Mode == analyzer.FilterInclude {
			sel.Mode = analyzer.FilterExclude
		} else {
			sel.Mode = analyzer.FilterInclude
		}
	case "/":
		if m.activeTab == tabOverview {
			return m, nil
		}
		return m, m.startInput(inputLabels, "Labels: ", strings.Join(sel.Labels, ","))
	case "o":
		source := ""
		if b := m.ws.Bundle(); b != nil {
			source = b.Source
		}
		return m, m.startInput(inputOpen, "Open: ", source)
	case "r":
		if m.ws.Bundle() == nil {
			return m, nil
		}
		m.loading = true
		return m, m.reloadCmd()
	case "g", "home":
		m.viewports[m.activeTab].GotoTop()
		return m, nil
	case "G", "end":
		m.viewports[m.activeTab].GotoBottom()
		return m, nil
	default:
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	m.renderTabContents()
	return m, nil
}

func (m *Model) startInput(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		mode := m.mode
		value := strings.TrimSpace(m.input.Value())
		m.mode = inputNone
		m.input.Blur()
		switch mode {
		case inputLabels:
			if sel := m.activeSelection(); sel != nil {
				sel.Labels = analyzer.ParseLabels(value)
			}
			m.renderTabContents()
			return m, nil
		case inputOpen:
			if value == "" {
				return m, nil
			}
			m.loading = true
			return m, m.openCmd(value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openCmd(ref string) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		b, err := ws.Open(ctx, ref)
		if err != nil {
			return loadedMsg{source: ref, err: err}
		}
		return loadedMsg{source: b.Source}
	}
}

func (m *Model) reloadCmd() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		b, err := ws.Reload(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{source: b.Source}
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
}

// cycle returns the value after cur in values, wrapping around.
func cycle[T comparable](values []T, cur T) T {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(lipgloss.Height(activeNavStyle.Render("X")), 1) + 1
	footerHeight = 1
	if m.mode == inputNone && m.errMsg() != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.input.Width = max(10, m.width-lipgloss.Width(m.input.Prompt)-2)
}

// errMsg is the error shown in the footer, if any.
func (m *Model) errMsg() string {
	if m.viewErr != "" {
		return m.viewErr
	}
	return m.loadErr
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}
