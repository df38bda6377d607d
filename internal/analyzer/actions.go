package analyzer

import (
	"fmt"
	"sort"

	"github.com/blackwell-systems/koalaviz/internal/dataset"
)

// userIndex maps research ids to users, skipping the sentinel user.
type userIndex map[int64]int64

func indexUsers(b *dataset.Bundle) userIndex {
	idx := make(userIndex, len(b.Researches))
	for _, r := range b.Researches {
		idx[r.ID] = r.User
	}
	return idx
}

// lookup returns the user of a research. ok is false for unknown researches
// and for the sentinel user.
func (idx userIndex) lookup(researchID int64) (user int64, ok bool) {
	user, ok = idx[researchID]
	if !ok || user == SentinelUser {
		return 0, false
	}
	return user, true
}

type actionKey struct {
	research int64
	action   int64
}

// UserActions returns one row per logged Action of a non-sentinel user,
// labelled with the normalized action name.
//
// An Action is shortcut-triggered when a Shortcut row of the same research
// carries the same action id. KindShortcut keeps only those rows,
// KindStandalone keeps the rest and KindAll keeps both.
func UserActions(b *dataset.Bundle, kind ActionKind) ([]UserLabel, error) {
	switch kind {
	case KindAll, KindShortcut, KindStandalone:
	default:
		return nil, &InvalidParameterError{Name: "kind", Value: string(kind), Allowed: names(ActionKinds)}
	}

	users := indexUsers(b)

	shortcuts := make(map[actionKey]bool)
	for _, ev := range b.Activity {
		if ev.Type != dataset.EventShortcut || !ev.HasActionID {
			continue
		}
		if _, ok := users.lookup(ev.ResearchID); !ok {
			continue
		}
		shortcuts[actionKey{ev.ResearchID, ev.ActionID}] = true
	}

	var rows []UserLabel
	for _, ev := range b.Activity {
		if ev.Type != dataset.EventAction {
			continue
		}
		user, ok := users.lookup(ev.ResearchID)
		if !ok {
			continue
		}

		triggered := ev.HasActionID && shortcuts[actionKey{ev.ResearchID, ev.ActionID}]
		if (kind == KindShortcut && !triggered) || (kind == KindStandalone && triggered) {
			continue
		}
		rows = append(rows, UserLabel{User: user, Label: NormalizeAction(ev.Info)})
	}
	return rows, nil
}

// CountUsers counts the distinct users per label; a user who produced a
// label many times contributes once. With normalize, each count becomes a
// percentage of the distinct users present in rows.
//
// Rows are ordered by value descending, ties broken by label.
func CountUsers(rows []UserLabel, normalize bool) Ranking {
	seen := make(map[UserLabel]bool, len(rows))
	users := make(map[int64]bool)
	counts := make(map[string]int)
	for _, row := range rows {
		users[row.User] = true
		if seen[row] {
			continue
		}
		seen[row] = true
		counts[row.Label]++
	}

	ranking := Ranking{
		Rows:       make([]LabelCount, 0, len(counts)),
		Users:      len(users),
		Normalized: normalize,
	}
	for label, n := range counts {
		value := float64(n)
		if normalize {
			value = value / float64(ranking.Users) * 100
		}
		ranking.Rows = append(ranking.Rows, LabelCount{Label: label, Value: value})
	}
	sortRows(ranking.Rows, false)
	return ranking
}

// sortRows orders rows by value, ties broken by label ascending.
func sortRows(rows []LabelCount, ascending bool) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			if ascending {
				return rows[i].Value < rows[j].Value
			}
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Label < rows[j].Label
	})
}

// String renders a compact description, used in log lines.
func (r Ranking) String() string {
	return fmt.Sprintf("%d labels over %d users", len(r.Rows), r.Users)
}
