// Package analyzer derives the dashboard views from a loaded dataset: top
// actions, top windows, window focus time and research summary statistics.
//
// Every function is pure: it reads the bundle and returns new values. Rows
// belonging to SentinelUser are excluded everywhere.
package analyzer

// SentinelUser is the test account excluded from all analyses.
const SentinelUser int64 = 20

// UserLabel pairs a user with a label (an action or a window) the user
// produced. Multiple rows may repeat the same pair.
type UserLabel struct {
	User  int64  `json:"user"`
	Label string `json:"label"`
}

// LabelCount is one row of a ranking.
type LabelCount struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Ranking is a label-to-value table ordered for display.
type Ranking struct {
	Rows []LabelCount `json:"rows"`

	// Users is the number of distinct users behind the ranking. It is the
	// normalization denominator and is fixed before any filtering.
	Users int `json:"users"`

	// Normalized reports whether values are percentages of Users.
	Normalized bool `json:"normalized"`
}

// Labels returns the labels of the ranking in row order.
func (r Ranking) Labels() []string {
	labels := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		labels[i] = row.Label
	}
	return labels
}

// WindowDuration is the total focused time of one user on one window.
type WindowDuration struct {
	User    int64   `json:"user"`
	Window  string  `json:"window"`
	Seconds float64 `json:"seconds"`
}

// BoxStats summarizes the per-user focus times of one window.
type BoxStats struct {
	Window string  `json:"window"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Total  float64 `json:"total"`
}

// ResearchStats holds the basic counts of a dataset.
type ResearchStats struct {
	Users                 int     `json:"users"`
	Sessions              int     `json:"sessions"`
	MedianSessionsPerUser float64 `json:"median_sessions_per_user"`
}

// DurationSummary describes how long sessions (or whole researches per
// user) lasted, in seconds.
type DurationSummary struct {
	Per    Per     `json:"per"`
	Groups int     `json:"groups"`
	Min    float64 `json:"min_seconds"`
	Median float64 `json:"median_seconds"`
	Max    float64 `json:"max_seconds"`
}
