package filter

import (
	"fmt"
	"strings"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

// CertaintyLabel names a certainty tier for display.
func CertaintyLabel(c timeline.Certainty) string {
	switch c {
	case timeline.CertaintyFact:
		return "Fact"
	case timeline.CertaintyAssumed:
		return "Assumed"
	case timeline.CertaintyGuess:
		return "Guess"
	default:
		return "Unknown"
	}
}

// FormatLine renders one event as a plain-text summary line:
//
//	[62 CE] Paul: arrives in Rome (Rome) | Certainty: Fact | Refs: https://a, https://b
func FormatLine(e timeline.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s (%s) | Certainty: %s", e.DisplayYear, e.Person, e.EventText, locationKey(e.Location), CertaintyLabel(e.Certainty))
	if len(e.References) > 0 {
		b.WriteString(" | Refs: ")
		b.WriteString(strings.Join(e.References, ", "))
	}
	return b.String()
}

// FormatText renders events one per line, in the given order.
func FormatText(events []timeline.Event) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, FormatLine(e))
	}
	return strings.Join(lines, "\n")
}
