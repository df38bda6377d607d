package workspace

import (
	"strconv"
	"time"

	"github.com/blackwell-systems/koalaviz/internal/analyzer"
	"github.com/blackwell-systems/koalaviz/internal/dataset"
)

// TableInfo describes one loaded table.
type TableInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Overview is the data-input page: where the dataset came from, what it
// contains and how long its sessions lasted.
type Overview struct {
	Source      string             `json:"source"`
	Kind        dataset.SourceKind `json:"kind"`
	Fingerprint string             `json:"fingerprint"`
	LoadID      string             `json:"load_id"`
	LoadedAt    time.Time          `json:"loaded_at"`
	Tables      []TableInfo        `json:"tables"`

	Stats            analyzer.ResearchStats   `json:"stats"`
	SessionDurations analyzer.DurationSummary `json:"session_durations"`
	UserDurations    analyzer.DurationSummary `json:"user_durations"`
}

// ActionsParams selects the Top Actions view.
type ActionsParams struct {
	Kind      analyzer.ActionKind `json:"kind"`
	Normalize bool                `json:"normalize"`
	analyzer.Selection
}

// WindowsParams selects the Top Windows view.
type WindowsParams struct {
	Normalize bool `json:"normalize"`
	analyzer.Selection
}

// FocusParams selects the Window Focus Time view.
type FocusParams struct {
	Scale analyzer.Scale `json:"scale"`
	analyzer.Selection
}

// FocusView is the Window Focus Time page: the selected windows ranked by
// total focused seconds and the per-user distribution of each.
type FocusView struct {
	Scale  analyzer.Scale      `json:"scale"`
	Totals analyzer.Ranking    `json:"totals"`
	Boxes  []analyzer.BoxStats `json:"boxes"`
}

// Overview returns the summary of the current dataset.
func (w *Workspace) Overview() (Overview, error) {
	b, err := w.current()
	if err != nil {
		return Overview{}, err
	}

	return memo(w, b, "overview", nil, func() (Overview, error) {
		var err error
		ov := Overview{
			Source:      b.Source,
			Kind:        b.Kind,
			Fingerprint: b.Fingerprint,
			LoadID:      b.LoadID,
			LoadedAt:    b.LoadedAt,
			Stats:       analyzer.BasicStats(b),
		}
		for _, name := range b.Tables() {
			ov.Tables = append(ov.Tables, TableInfo{Name: name, Rows: b.RowCount(name)})
		}

		if ov.SessionDurations, err = analyzer.DurationStats(b, analyzer.PerSession); err != nil {
			return Overview{}, err
		}
		if ov.UserDurations, err = analyzer.DurationStats(b, analyzer.PerUser); err != nil {
			return Overview{}, err
		}
		return ov, nil
	})
}

// TopActions returns the actions triggered by the most users.
func (w *Workspace) TopActions(p ActionsParams) (analyzer.Ranking, error) {
	kind, err := analyzer.ParseActionKind(string(p.Kind))
	if err != nil {
		return analyzer.Ranking{}, err
	}
	p.Kind = kind
	if err := p.Selection.Validate(); err != nil {
		return analyzer.Ranking{}, err
	}
	b, err := w.current()
	if err != nil {
		return analyzer.Ranking{}, err
	}

	counts, err := memo(w, b, "actions", []string{string(p.Kind), strconv.FormatBool(p.Normalize)}, func() (analyzer.Ranking, error) {
		rows, err := analyzer.UserActions(b, p.Kind)
		if err != nil {
			return analyzer.Ranking{}, err
		}
		return analyzer.CountUsers(rows, p.Normalize), nil
	})
	if err != nil {
		return analyzer.Ranking{}, err
	}
	return p.Selection.Apply(counts), nil
}

// TopWindows returns the windows used by the most users.
func (w *Workspace) TopWindows(p WindowsParams) (analyzer.Ranking, error) {
	if err := p.Selection.Validate(); err != nil {
		return analyzer.Ranking{}, err
	}
	b, err := w.current()
	if err != nil {
		return analyzer.Ranking{}, err
	}

	counts, err := memo(w, b, "windows", []string{strconv.FormatBool(p.Normalize)}, func() (analyzer.Ranking, error) {
		return analyzer.CountUsers(analyzer.UserWindows(b), p.Normalize), nil
	})
	if err != nil {
		return analyzer.Ranking{}, err
	}
	return p.Selection.Apply(counts), nil
}

// FocusDurations returns the per-user focus time of every window.
func (w *Workspace) FocusDurations() ([]analyzer.WindowDuration, error) {
	b, err := w.current()
	if err != nil {
		return nil, err
	}
	return memo(w, b, "focus", nil, func() ([]analyzer.WindowDuration, error) {
		return analyzer.FocusDurations(b), nil
	})
}

// FocusTime returns the windows with the most total focus time and their
// per-user distributions in the requested scale.
func (w *Workspace) FocusTime(p FocusParams) (FocusView, error) {
	scale, err := analyzer.ParseScale(string(p.Scale))
	if err != nil {
		return FocusView{}, err
	}
	p.Scale = scale
	if err := p.Selection.Validate(); err != nil {
		return FocusView{}, err
	}

	durations, err := w.FocusDurations()
	if err != nil {
		return FocusView{}, err
	}

	totals := p.Selection.Apply(analyzer.FocusTotals(durations))
	return FocusView{
		Scale:  p.Scale,
		Totals: totals,
		Boxes:  analyzer.FocusDistribution(durations, totals.Labels(), p.Scale),
	}, nil
}
