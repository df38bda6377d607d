// Package output provides styled terminal rendering helpers for koalaviz.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorSuccess is used for improvements between snapshots.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for regressions and errors.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for caution indicators.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text, axes and borders.
	ColorMuted = lipgloss.Color("#888888")

	// ColorBar is used for chart bars and boxes.
	ColorBar = lipgloss.Color("#4db6ac")
)

// Styles provides reusable lipgloss styles.
var (
	// StyleHeader is used for section headers.
	StyleHeader lipgloss.Style

	// StyleSuccess is used for positive values.
	StyleSuccess lipgloss.Style

	// StyleError is used for negative values.
	StyleError lipgloss.Style

	// StyleWarning is used for cautionary values.
	StyleWarning lipgloss.Style

	// StyleMuted is used for de-emphasized text.
	StyleMuted lipgloss.Style

	// StyleBold is used for emphasized text.
	StyleBold lipgloss.Style

	// StyleBar is used for chart marks.
	StyleBar lipgloss.Style

	// StyleLabel is used for metric labels.
	StyleLabel lipgloss.Style

	// StyleValue is used for metric values.
	StyleValue lipgloss.Style
)

func init() {
	applyStyles(false)
}

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally.
// When disabled, all package-level styles are reassigned to unstyled renderers.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// AutoColor disables color when NO_COLOR is set or f is not a terminal.
func AutoColor(f *os.File) {
	if os.Getenv("NO_COLOR") != "" {
		SetNoColor(true)
		return
	}
	fd := f.Fd()
	SetNoColor(!isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd))
}

func applyStyles(plain bool) {
	if plain {
		p := lipgloss.NewStyle()
		StyleHeader = p
		StyleSuccess = p
		StyleError = p
		StyleWarning = p
		StyleMuted = p
		StyleBold = p
		StyleBar = p
		StyleLabel = p.Width(24)
		StyleValue = p.Width(12)
		return
	}

	StyleHeader = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	StyleSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess)
	StyleError = lipgloss.NewStyle().
		Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().
		Foreground(ColorWarning)
	StyleMuted = lipgloss.NewStyle().
		Foreground(ColorMuted)
	StyleBold = lipgloss.NewStyle().
		Bold(true)
	StyleBar = lipgloss.NewStyle().
		Foreground(ColorBar)
	StyleLabel = lipgloss.NewStyle().
		Width(24)
	StyleValue = lipgloss.NewStyle().
		Bold(true).
		Width(12)
}
