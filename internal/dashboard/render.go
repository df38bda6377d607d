package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/output"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(output.ColorPrimary)
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(output.ColorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(output.ColorError)
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

const (
	noDatasetText = "No dataset loaded. Press o to open a directory, zip archive or s3:// URI."
	failedText    = "Failed to compute view."
)

// renderTabContents recomputes every page from the workspace. A page whose
// view fails shows no partial result and its error goes to the footer.
func (m *Model) renderTabContents() {
	m.viewErr = ""
	width := m.width
	if width <= 0 {
		width = 80
	}
	s := m.settings

	pages := []func() (string, error){
		tabOverview: func() (string, error) {
			ov, err := m.ws.Overview()
			if err != nil {
				return "", err
			}
			return renderOverview(ov, width), nil
		},
		tabActions: func() (string, error) {
			r, err := m.ws.TopActions(workspace.ActionsParams{Kind: s.Kind, Normalize: s.Normalize, Selection: m.selections[tabActions]})
			if err != nil {
				return "", err
			}
			return renderRanking(r, "Action", width), nil
		},
		tabWindows: func() (string, error) {
			r, err := m.ws.TopWindows(workspace.WindowsParams{Normalize: s.Normalize, Selection: m.selections[tabWindows]})
			if err != nil {
				return "", err
			}
			return renderRanking(r, "Window", width), nil
		},
		tabFocus: func() (string, error) {
			v, err := m.ws.FocusTime(workspace.FocusParams{Scale: s.Scale, Selection: m.selections[tabFocus]})
			if err != nil {
				return "", err
			}
			return renderFocus(v, width), nil
		},
	}

	for i, page := range pages {
		content, err := page()
		switch {
		case errors.Is(err, workspace.ErrNoDataset):
			content = noDatasetText
		case err != nil:
			content = failedText
			if m.viewErr == "" {
				m.viewErr = err.Error()
			}
		}
		m.viewports[i].SetContent(content)
	}
	m.updateLayout()
}

func renderOverview(ov workspace.Overview, width int) string {
	cards := []string{
		metricCard("Users", output.FormatCount(ov.Stats.Users)),
		metricCard("Sessions", output.FormatCount(ov.Stats.Sessions)),
		metricCard("Sessions/user", output.FormatNumber(ov.Stats.MedianSessionsPerUser)),
		metricCard("Median session", durationCell(ov.SessionDurations, ov.SessionDurations.Median)),
		metricCard("Median user time", durationCell(ov.UserDurations, ov.UserDurations.Median)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	var b strings.Builder
	b.WriteString(summary)
	b.WriteString("\n\n")
	b.WriteString(output.MetricLine("Source", ov.Source) + "\n")
	b.WriteString(output.MetricLine("Fingerprint", ov.Fingerprint) + "\n\n")

	tables := output.NewTable("Table", "Rows").AlignRight(1)
	for _, t := range ov.Tables {
		tables.AddRow(t.Name, output.FormatCount(t.Rows))
	}
	b.WriteString(tables.Render())
	b.WriteString("\n")

	durations := output.NewTable("Per", "Count", "Min", "Median", "Max").AlignRight(1, 2, 3, 4)
	for _, d := range []analyzer.DurationSummary{ov.SessionDurations, ov.UserDurations} {
		durations.AddRow(string(d.Per), output.FormatCount(d.Groups),
			durationCell(d, d.Min), durationCell(d, d.Median), durationCell(d, d.Max))
	}
	b.WriteString(durations.Render())
	return strings.TrimRight(b.String(), "\n")
}

func durationCell(d analyzer.DurationSummary, seconds float64) string {
	if d.Groups == 0 {
		return "n/a"
	}
	return output.FormatDuration(seconds)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderRanking(r analyzer.Ranking, labelHeader string, width int) string {
	if len(r.Rows) == 0 {
		return "No rows match the current selection."
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
	return output.BarChart(bars, width, format) + "\n" + tbl.Render() +
		fmt.Sprintf("\n %d users in total", r.Users)
}

func renderFocus(v workspace.FocusView, width int) string {
	if len(v.Boxes) == 0 {
		return "No focus events match the current selection."
	}
	boxes := make([]output.Box, len(v.Boxes))
	tbl := output.NewTable("Window", "Total", "Users", "Median", "Max").AlignRight(1, 2, 3, 4)
	for i, b := range v.Boxes {
		boxes[i] = output.Box{Label: b.Window, Min: b.Min, Q1: b.Q1, Median: b.Median, Q3: b.Q3, Max: b.Max}
		tbl.AddRow(b.Window, output.FormatDuration(v.Totals.Rows[i].Value), output.FormatCount(b.Count),
			output.FormatNumber(b.Median), output.FormatNumber(b.Max))
	}
	return fmt.Sprintf("Distribution per user (%s)\n\n", v.Scale) +
		output.BoxPlot(boxes, width, output.FormatNumber) + "\n" + strings.TrimRight(tbl.Render(), "\n")
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderSettingsSummary(), m.width)
}

func (m *Model) renderSettingsSummary() string {
	s := m.settings
	sel := m.selections[m.activeTab]
	order := "desc"
	if sel.Ascending {
		order = "asc"
	}
	top := "all"
	if sel.Top > 0 {
		top = fmt.Sprint(sel.Top)
	}
	normalize := "off"
	if s.Normalize {
		normalize = "on"
	}
	filter := string(sel.Mode)
	if len(sel.Labels) > 0 {
		filter += "[" + strings.Join(sel.Labels, ",") + "]"
	}

	var summary string
	switch m.activeTab {
	case tabOverview:
		source := "none"
		if b := m.ws.Bundle(); b != nil {
			source = b.Source
		}
		summary = "Dataset: " + source
	case tabActions:
		summary = fmt.Sprintf("kind=%s  normalize=%s  top=%s  order=%s  filter=%s", s.Kind, normalize, top, order, filter)
	case tabWindows:
		summary = fmt.Sprintf("normalize=%s  top=%s  order=%s  filter=%s", normalize, top, order, filter)
	case tabFocus:
		summary = fmt.Sprintf("scale=%s  top=%s  order=%s  filter=%s", s.Scale, top, order, filter)
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if m.mode != inputNone {
		lines := []string{"Filter labels, comma separated (enter to apply, esc to cancel)"}
		if m.mode == inputOpen {
			lines[0] = "Open a directory, zip archive or s3:// URI (enter to open, esc to cancel)"
		}
		lines = append(lines, m.input.View())
		return strings.Join(lines, "\n")
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderHelp() string {
	if m.mode != inputNone {
		return headerStyle.Render("enter: apply  esc: cancel  quit: ctrl+c")
	}
	if m.loading {
		return headerStyle.Render("Loading…")
	}
	var help string
	switch m.activeTab {
	case tabActions:
		help = "Nav: left/right  Kind: t  Normalize: n  Top: +/-  Order: a  Filter: m /  "
	case tabWindows:
		help = "Nav: left/right  Normalize: n  Top: +/-  Order: a  Filter: m /  "
	case tabFocus:
		help = "Nav: left/right  Scale: s  Top: +/-  Order: a  Filter: m /  "
	default:
		help = "Nav: left/right  Scroll: up/down  "
	}
	help += "Open: o  Reload: r  Quit: q"
	if m.status != "" {
		help = m.status + "  " + help
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if msg := m.errMsg(); msg != "" && m.mode == inputNone {
		return m.renderHelp() + "\n" + errorStyle.Render(truncateLine(msg, m.width))
	}
	return m.renderHelp()
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
