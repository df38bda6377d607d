package analyzer

import "github.com/blackwell-systems/koalaviz/internal/dataset"

// UserWindows returns one row per tool-window event of a non-sentinel user
// that names a window. Count the rows with CountUsers.
func UserWindows(b *dataset.Bundle) []UserLabel {
	users := indexUsers(b)

	var rows []UserLabel
	for _, ev := range b.ToolWindows {
		if ev.ActiveWindow == "" {
			continue
		}
		user, ok := users.lookup(ev.ResearchID)
		if !ok {
			continue
		}
		rows = append(rows, UserLabel{User: user, Label: ev.ActiveWindow})
	}
	return rows
}
