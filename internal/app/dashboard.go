package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/config"
	"github.com/blackwell-systems/koalaviz/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive terminal dashboard",
	Long: `Open the interactive dashboard with one tab per page: Overview, Top Actions,
Top Windows and Focus Time. The dataset named by --data or data_path is
opened first; without one, press o to open a dataset from the dashboard.

Keys: left/right tabs, t kind, n normalize, s scale, o open, r reload, q quit.
Each ranking tab keeps its own a ascending, +/- top, m filter mode and
/ filter labels.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := dashboardSettings(cfg.Views)
	if err != nil {
		return err
	}

	ws, err := newWorkspace(cfg)
	if err != nil {
		return err
	}
	if ref := dataRef(cfg); ref != "" {
		if _, err := ws.Open(cmd.Context(), ref); err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}
	}

	model := dashboard.NewModel(cmd.Context(), ws, settings)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// dashboardSettings validates the configured view defaults.
func dashboardSettings(views config.Views) (dashboard.Settings, error) {
	kind, err := analyzer.ParseActionKind(views.Kind)
	if err != nil {
		return dashboard.Settings{}, err
	}
	scale, err := analyzer.ParseScale(views.Scale)
	if err != nil {
		return dashboard.Settings{}, err
	}
	mode, err := analyzer.ParseFilterMode(views.FilterMode)
	if err != nil {
		return dashboard.Settings{}, err
	}
	sel := analyzer.Selection{Top: views.Top, Ascending: views.Ascending, Mode: mode}
	if err := sel.Validate(); err != nil {
		return dashboard.Settings{}, err
	}
	return dashboard.Settings{Kind: kind, Normalize: views.Normalize, Scale: scale, Selection: sel}, nil
}
