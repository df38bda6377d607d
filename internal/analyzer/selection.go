package analyzer

import (
	"strconv"
	"strings"
)

// Selection holds the display parameters shared by the ranking views.
type Selection struct {
	// Top caps the number of rows; 0 keeps all of them.
	Top int `json:"top"`

	// Ascending orders rows from the smallest value.
	Ascending bool `json:"ascending"`

	// Mode decides whether Labels are removed or the only ones kept. The
	// zero value behaves as FilterExclude. An empty Labels keeps every row
	// in either mode.
	Mode   FilterMode `json:"mode"`
	Labels []string   `json:"labels,omitempty"`
}

// Apply orders the ranking, filters its labels and cuts it to Top rows. The
// input is not modified and Users is preserved, so normalized values keep
// their meaning after filtering.
func (s Selection) Apply(r Ranking) Ranking {
	rows := make([]LabelCount, len(r.Rows))
	copy(rows, r.Rows)
	sortRows(rows, s.Ascending)

	if len(s.Labels) > 0 {
		selected := make(map[string]bool, len(s.Labels))
		for _, label := range s.Labels {
			selected[label] = true
		}
		keep := s.Mode == FilterInclude
		filtered := rows[:0]
		for _, row := range rows {
			if selected[row.Label] == keep {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	if s.Top > 0 && len(rows) > s.Top {
		rows = rows[:s.Top]
	}
	return Ranking{Rows: rows, Users: r.Users, Normalized: r.Normalized}
}

// Validate rejects selections the views cannot apply.
func (s Selection) Validate() error {
	if s.Top < 0 {
		return &InvalidParameterError{Name: "top", Value: strconv.Itoa(s.Top), Allowed: []string{"0 (all)", "a positive count"}}
	}
	if s.Mode == "" {
		return nil
	}
	_, err := ParseFilterMode(string(s.Mode))
	return err
}

// ParseLabels splits a comma-separated label list, dropping blanks.
func ParseLabels(s string) []string {
	var labels []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}
