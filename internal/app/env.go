package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/config"
	"github.com/blackwell-systems/koalaviz/internal/dataset"
	"github.com/blackwell-systems/koalaviz/internal/output"
	"github.com/blackwell-systems/koalaviz/internal/workspace"
)

// errNoData is returned when neither --data nor data_path names a dataset.
var errNoData = errors.New("no dataset: pass --data or set data_path in the config file")

// setupLogging installs the process-wide slog handler. Diagnostics go to
// stderr so that --json output on stdout stays parseable.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig reads the configuration and applies its output preferences.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	switch {
	case flagNoColor || !cfg.Output.Color:
		output.SetNoColor(true)
	default:
		output.AutoColor(os.Stdout)
	}
	return cfg, nil
}

// newWorkspace creates a workspace configured from cfg without opening a
// dataset.
func newWorkspace(cfg *config.Config) (*workspace.Workspace, error) {
	return workspace.New(workspace.Options{
		CacheSize: cfg.Cache.MaxEntries,
		Load: dataset.Options{
			S3Config: dataset.S3Config{
				Region:       cfg.S3.Region,
				Endpoint:     cfg.S3.Endpoint,
				UsePathStyle: cfg.S3.UsePathStyle,
			},
		},
	})
}

// dataRef returns the dataset named on the command line or in the config.
func dataRef(cfg *config.Config) string {
	if flagData != "" {
		return flagData
	}
	return cfg.DataPath
}

// openWorkspace loads the config and opens the configured dataset.
func openWorkspace(ctx context.Context) (*config.Config, *workspace.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	ref := dataRef(cfg)
	if ref == "" {
		return nil, nil, errNoData
	}

	ws, err := newWorkspace(cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ws.Open(ctx, ref); err != nil {
		return nil, nil, fmt.Errorf("loading dataset: %w", err)
	}
	return cfg, ws, nil
}

// selectionFlags are the display parameters shared by the ranking commands.
type selectionFlags struct {
	top       int
	ascending bool
	mode      string
	labels    string
}

func (f *selectionFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.top, "top", config.DefaultViews.Top, "Number of rows to show (0 = all)")
	fs.BoolVar(&f.ascending, "ascending", config.DefaultViews.Ascending, "Sort from the smallest value")
	fs.StringVar(&f.mode, "filter-mode", config.DefaultViews.FilterMode, "How --labels applies: exclude or include")
	fs.StringVar(&f.labels, "labels", "", "Comma-separated labels to exclude or include")
}

// selection resolves the flags against the configured defaults: a flag the
// user did not set takes its value from the config file.
func (f *selectionFlags) selection(fs *pflag.FlagSet, views config.Views) (analyzer.Selection, error) {
	sel := analyzer.Selection{
		Top:       views.Top,
		Ascending: views.Ascending,
		Labels:    analyzer.ParseLabels(f.labels),
	}
	if fs.Changed("top") {
		sel.Top = f.top
	}
	if fs.Changed("ascending") {
		sel.Ascending = f.ascending
	}

	mode := views.FilterMode
	if fs.Changed("filter-mode") {
		mode = f.mode
	}
	m, err := analyzer.ParseFilterMode(mode)
	if err != nil {
		return analyzer.Selection{}, err
	}
	sel.Mode = m

	return sel, sel.Validate()
}

// stringFlag returns the flag value when set, else the configured value.
func stringFlag(fs *pflag.FlagSet, name, value, configured string) string {
	if fs.Changed(name) {
		return value
	}
	return configured
}

// boolFlag returns the flag value when set, else the configured value.
func boolFlag(fs *pflag.FlagSet, name string, value, configured bool) bool {
	if fs.Changed(name) {
		return value
	}
	return configured
}

// chartWidth returns the configured output width or the terminal width.
func chartWidth(cfg *config.Config) int {
	if cfg.Output.Width > 0 {
		return cfg.Output.Width
	}
	return output.TerminalWidth()
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
