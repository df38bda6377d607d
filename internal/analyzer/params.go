package analyzer

import (
	"fmt"
	"strings"
)

// InvalidParameterError reports a view parameter outside its allowed set.
type InvalidParameterError struct {
	Name    string
	Value   string
	Allowed []string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid value for %s: %q (expected one of: %s)",
		e.Name, e.Value, strings.Join(e.Allowed, ", "))
}

// ActionKind selects which actions Top Actions counts.
type ActionKind string

const (
	KindAll        ActionKind = "all"
	KindShortcut   ActionKind = "shortcut"
	KindStandalone ActionKind = "standalone"
)

// ActionKinds lists the kinds in display order.
var ActionKinds = []ActionKind{KindAll, KindShortcut, KindStandalone}

// ParseActionKind resolves a kind name, case-insensitively.
func ParseActionKind(s string) (ActionKind, error) {
	for _, k := range ActionKinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", &InvalidParameterError{Name: "kind", Value: s, Allowed: names(ActionKinds)}
}

// Scale is the time unit of focus-time distributions.
type Scale string

const (
	ScaleSeconds Scale = "seconds"
	ScaleMinutes Scale = "minutes"
	ScaleHours   Scale = "hours"
)

// Scales lists the scales in display order.
var Scales = []Scale{ScaleSeconds, ScaleMinutes, ScaleHours}

// ParseScale resolves a scale name, case-insensitively.
func ParseScale(s string) (Scale, error) {
	for _, sc := range Scales {
		if strings.EqualFold(s, string(sc)) {
			return sc, nil
		}
	}
	return "", &InvalidParameterError{Name: "scale", Value: s, Allowed: names(Scales)}
}

// Convert expresses seconds in the scale's unit.
func (s Scale) Convert(seconds float64) float64 {
	switch s {
	case ScaleMinutes:
		return seconds / 60
	case ScaleHours:
		return seconds / 3600
	default:
		return seconds
	}
}

// Per selects the grouping of duration statistics.
type Per string

const (
	PerUser    Per = "user"
	PerSession Per = "session"
)

// Pers lists the groupings in display order.
var Pers = []Per{PerSession, PerUser}

// ParsePer resolves a grouping name, case-insensitively.
func ParsePer(s string) (Per, error) {
	for _, p := range Pers {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", &InvalidParameterError{Name: "per", Value: s, Allowed: names(Pers)}
}

// FilterMode decides whether selected labels are removed or kept.
type FilterMode string

const (
	FilterExclude FilterMode = "exclude"
	FilterInclude FilterMode = "include"
)

// FilterModes lists the modes in display order.
var FilterModes = []FilterMode{FilterExclude, FilterInclude}

// ParseFilterMode resolves a filter mode name, case-insensitively.
func ParseFilterMode(s string) (FilterMode, error) {
	for _, m := range FilterModes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", &InvalidParameterError{Name: "filter mode", Value: s, Allowed: names(FilterModes)}
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
