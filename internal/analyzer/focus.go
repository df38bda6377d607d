package analyzer

import (
	"math"
	"sort"

	"github.com/blackwell-systems/koalaviz/internal/dataset"
)

// FocusedAction is the tool-window action that marks a window gaining focus.
const FocusedAction = "FOCUSED"

// FocusDurations measures how long each user kept each window focused.
//
// Within a research, FOCUSED events are ordered by date (events with equal
// dates keep their file order) and consecutive events on the same window are
// collapsed into the first one. Each retained event lasts until the next
// retained event; the last event of a research has no duration. Durations
// are summed per user and window.
//
// The result is ordered by window, then user.
func FocusDurations(b *dataset.Bundle) []WindowDuration {
	users := indexUsers(b)

	var order []int64
	sessions := make(map[int64][]dataset.ToolWindowEvent)
	for _, ev := range b.ToolWindows {
		if ev.Action != FocusedAction || ev.ActiveWindow == "" || ev.Date.IsZero() {
			continue
		}
		if _, ok := users.lookup(ev.ResearchID); !ok {
			continue
		}
		if _, ok := sessions[ev.ResearchID]; !ok {
			order = append(order, ev.ResearchID)
		}
		sessions[ev.ResearchID] = append(sessions[ev.ResearchID], ev)
	}

	type userWindow struct {
		user   int64
		window string
	}
	totals := make(map[userWindow]float64)
	for _, research := range order {
		events := sessions[research]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Date.Before(events[j].Date)
		})

		var kept []dataset.ToolWindowEvent
		for _, ev := range events {
			if len(kept) > 0 && kept[len(kept)-1].ActiveWindow == ev.ActiveWindow {
				continue
			}
			kept = append(kept, ev)
		}

		user := users[research]
		for i := 0; i+1 < len(kept); i++ {
			key := userWindow{user: user, window: kept[i].ActiveWindow}
			totals[key] += kept[i+1].Date.Sub(kept[i].Date).Seconds()
		}
	}

	out := make([]WindowDuration, 0, len(totals))
	for key, seconds := range totals {
		out = append(out, WindowDuration{User: key.user, Window: key.window, Seconds: seconds})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Window != out[j].Window {
			return out[i].Window < out[j].Window
		}
		return out[i].User < out[j].User
	})
	return out
}

// FocusTotals sums the focused seconds of every user per window. The result
// is ordered like CountUsers and never normalized.
func FocusTotals(durations []WindowDuration) Ranking {
	users := make(map[int64]bool)
	sums := make(map[string]float64)
	for _, d := range durations {
		users[d.User] = true
		sums[d.Window] += d.Seconds
	}

	ranking := Ranking{Rows: make([]LabelCount, 0, len(sums)), Users: len(users)}
	for window, total := range sums {
		ranking.Rows = append(ranking.Rows, LabelCount{Label: window, Value: total})
	}
	sortRows(ranking.Rows, false)
	return ranking
}

// FocusDistribution summarizes the per-user focus time of each listed
// window, expressed in scale. Windows without any duration yield a zero
// BoxStats with Count 0. The output follows the order of windows.
func FocusDistribution(durations []WindowDuration, windows []string, scale Scale) []BoxStats {
	values := make(map[string][]float64, len(windows))
	for _, d := range durations {
		values[d.Window] = append(values[d.Window], scale.Convert(d.Seconds))
	}

	out := make([]BoxStats, 0, len(windows))
	for _, window := range windows {
		vs := values[window]
		stats := BoxStats{Window: window, Count: len(vs)}
		if len(vs) > 0 {
			sort.Float64s(vs)
			stats.Min = vs[0]
			stats.Q1 = quantile(vs, 0.25)
			stats.Median = quantile(vs, 0.5)
			stats.Q3 = quantile(vs, 0.75)
			stats.Max = vs[len(vs)-1]
			for _, v := range vs {
				stats.Total += v
			}
		}
		out = append(out, stats)
	}
	return out
}

// quantile returns the p-quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
