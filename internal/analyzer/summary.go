package analyzer

import (
	"sort"
	"time"

	"github.com/blackwell-systems/koalaviz/internal/dataset"
)

// BasicStats counts the users and sessions of the dataset and the median
// number of sessions per user.
func BasicStats(b *dataset.Bundle) ResearchStats {
	perUser := make(map[int64]int)
	sessions := make(map[int64]bool)
	for _, r := range b.Researches {
		if r.User == SentinelUser {
			continue
		}
		perUser[r.User]++
		sessions[r.ID] = true
	}

	counts := make([]float64, 0, len(perUser))
	for _, n := range perUser {
		counts = append(counts, float64(n))
	}
	sort.Float64s(counts)

	return ResearchStats{
		Users:                 len(perUser),
		Sessions:              len(sessions),
		MedianSessionsPerUser: quantile(counts, 0.5),
	}
}

type span struct {
	first, last time.Time
}

func (s *span) add(t time.Time) {
	if s.first.IsZero() || t.Before(s.first) {
		s.first = t
	}
	if s.last.IsZero() || t.After(s.last) {
		s.last = t
	}
}

// DurationStats measures the time between the first and the last logged
// event of each session (per == PerSession) or of each user across all of
// their sessions (per == PerUser), over every event log in the bundle.
//
// Events of unknown researches have no user: they form their own sessions
// but never count towards a user. Events without a date are ignored.
func DurationStats(b *dataset.Bundle, per Per) (DurationSummary, error) {
	if per != PerUser && per != PerSession {
		return DurationSummary{}, &InvalidParameterError{Name: "per", Value: string(per), Allowed: names(Pers)}
	}

	owners := make(map[int64]int64, len(b.Researches))
	for _, r := range b.Researches {
		owners[r.ID] = r.User
	}

	spans := make(map[int64]*span)
	observe := func(research int64, date time.Time) {
		if date.IsZero() {
			return
		}
		user, known := owners[research]
		if known && user == SentinelUser {
			return
		}
		key := research
		if per == PerUser {
			if !known {
				return
			}
			key = user
		}
		s, ok := spans[key]
		if !ok {
			s = &span{}
			spans[key] = s
		}
		s.add(date)
	}

	for _, ev := range b.Activity {
		observe(ev.ResearchID, ev.Date)
	}
	for _, ev := range b.ToolWindows {
		observe(ev.ResearchID, ev.Date)
	}
	for _, log := range [][]dataset.TimestampedEvent{b.Documents, b.FileEditors, b.Surveys} {
		for _, ev := range log {
			observe(ev.ResearchID, ev.Date)
		}
	}

	durations := make([]float64, 0, len(spans))
	for _, s := range spans {
		durations = append(durations, s.last.Sub(s.first).Seconds())
	}
	sort.Float64s(durations)

	summary := DurationSummary{Per: per, Groups: len(durations)}
	if len(durations) > 0 {
		summary.Min = durations[0]
		summary.Median = quantile(durations, 0.5)
		summary.Max = durations[len(durations)-1]
	}
	return summary, nil
}
