package output

import (
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	terminalWidthBackup = 80
	maxLabelWidth       = 32
	minChartWidth       = 10
)

// TerminalWidth returns the width of stdout, or 80 when it is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// BarChart renders horizontal bars scaled to the largest value, one line per
// bar, fitted into width cells. Values are printed with format.
func BarChart(bars []Bar, width int, format func(float64) string) string {
	if len(bars) == 0 {
		return ""
	}
	if format == nil {
		format = FormatNumber
	}

	labelWidth, valueWidth := 0, 0
	peak := 0.0
	values := make([]string, len(bars))
	for i, b := range bars {
		labelWidth = max(labelWidth, visualLen(b.Label))
		values[i] = format(b.Value)
		valueWidth = max(valueWidth, visualLen(values[i]))
		peak = math.Max(peak, b.Value)
	}
	labelWidth = min(labelWidth, maxLabelWidth)

	barWidth := max(width-labelWidth-valueWidth-4, minChartWidth)

	var sb strings.Builder
	for i, b := range bars {
		n := 0
		if peak > 0 && b.Value > 0 {
			n = max(int(math.Round(b.Value/peak*float64(barWidth))), 1)
		}
		sb.WriteString(" ")
		sb.WriteString(pad(truncate(b.Label, labelWidth), labelWidth))
		sb.WriteString(" ")
		sb.WriteString(StyleBar.Render(strings.Repeat("█", n)))
		sb.WriteString(strings.Repeat(" ", barWidth-n))
		sb.WriteString(" ")
		sb.WriteString(padLeft(values[i], valueWidth))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Box is the five-number summary of one box plot row.
type Box struct {
	Label                    string
	Min, Q1, Median, Q3, Max float64
}

// BoxPlot renders one row per box over a shared horizontal axis:
//
//	Terminal  ├──[══│═══]────┤
//
// The axis spans the smallest minimum to the largest maximum and its end
// values are printed with format below the rows.
func BoxPlot(boxes []Box, width int, format func(float64) string) string {
	if len(boxes) == 0 {
		return ""
	}
	if format == nil {
		format = FormatNumber
	}

	labelWidth := 0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range boxes {
		labelWidth = max(labelWidth, visualLen(b.Label))
		lo = math.Min(lo, b.Min)
		hi = math.Max(hi, b.Max)
	}
	labelWidth = min(labelWidth, maxLabelWidth)
	plotWidth := max(width-labelWidth-3, minChartWidth)

	var sb strings.Builder
	for _, b := range boxes {
		sb.WriteString(" ")
		sb.WriteString(pad(truncate(b.Label, labelWidth), labelWidth))
		sb.WriteString(" ")
		sb.WriteString(StyleBar.Render(boxRow(b, lo, hi, plotWidth)))
		sb.WriteString("\n")
	}

	left, right := format(lo), format(hi)
	gap := max(plotWidth-visualLen(left)-visualLen(right), 1)
	sb.WriteString(" ")
	sb.WriteString(strings.Repeat(" ", labelWidth+1))
	sb.WriteString(StyleMuted.Render(left + strings.Repeat(" ", gap) + right))
	sb.WriteString("\n")
	return sb.String()
}

func boxRow(b Box, lo, hi float64, width int) string {
	cells := []rune(strings.Repeat(" ", width))
	pos := func(v float64) int {
		if hi <= lo {
			return 0
		}
		return int(math.Round((v - lo) / (hi - lo) * float64(width-1)))
	}

	minPos, q1, med, q3, maxPos := pos(b.Min), pos(b.Q1), pos(b.Median), pos(b.Q3), pos(b.Max)
	for i := minPos; i <= maxPos; i++ {
		cells[i] = '─'
	}
	for i := q1; i <= q3; i++ {
		cells[i] = '═'
	}
	cells[minPos] = '├'
	cells[maxPos] = '┤'
	cells[q1] = '['
	cells[q3] = ']'
	cells[med] = '│'
	return strings.TrimRight(string(cells), " ")
}
