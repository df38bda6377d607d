package analyzer

import (
	"regexp"
	"strings"
)

// wordClass matches letters and digits of any script.
const wordClass = `[\p{L}\p{N}_]`

var (
	// $<name>
	reBareMember = regexp.MustCompile(`^\$(` + wordClass + `+)$`)

	// <path>.<name_1>$<name_2>, optionally followed by $<suffix>
	reNestedMember = regexp.MustCompile(`^(?:` + wordClass + `+\.)+(` + wordClass + `+)\$([a-zA-Z]+)(?:\$` + wordClass + `+)?$`)

	// <path>.<name>$<digits>
	reAnonymousMember = regexp.MustCompile(`^(?:` + wordClass + `+\.)+(` + wordClass + `+)\$(\p{Nd}+)$`)
)

// NormalizeAction maps a raw action identifier to a stable label:
//
//	$Paste                       -> Paste
//	com.example.Bar$Baz          -> Bar.Baz
//	com.example.Bar$Baz$2        -> Bar.Baz
//	com.example.Bar$3            -> Bar
//	com.example.Bar              -> example.Bar
//	simple                       -> simple
//
// The rules are re-applied until the label stops changing, which keeps the
// function idempotent for identifiers whose package segments are not plain
// words. Every rule shortens its input or returns it unchanged, so the loop
// terminates.
func NormalizeAction(raw string) string {
	for {
		next := normalizeOnce(raw)
		if next == raw {
			return next
		}
		raw = next
	}
}

func normalizeOnce(value string) string {
	if m := reBareMember.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	if m := reNestedMember.FindStringSubmatch(value); m != nil {
		return m[1] + "." + m[2]
	}
	if m := reAnonymousMember.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	if parts := strings.Split(value, "."); len(parts) > 1 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return value
}
