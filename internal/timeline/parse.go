package timeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearRE      = regexp.MustCompile(`-?\d+`)
	refPrefixRE = regexp.MustCompile(`^[-\s]+`)
)

// ParseOptions configures row normalization.
type ParseOptions struct {
	Fallback Fallback
}

// Parsed is a normalized row together with how its location was resolved.
type Parsed struct {
	Event    Event
	Location Resolution
}

// ParseRow normalizes one raw record. The second return is false when the
// row has no person and must be dropped; every other field has a default.
// index is the record's position in the input and becomes part of the ID.
// EndYear is left zero for DeriveIntervals.
func ParseRow(ctx context.Context, row Row, index int, table LocationTable, opts ParseOptions) (Parsed, bool) {
	person := row.Lookup(FieldPerson)
	if person == "" {
		return Parsed{}, false
	}

	location := row.Lookup(FieldLocation)
	dateStr := row.Lookup(FieldDate)
	reference := row.Lookup(FieldReference)

	category := row.Lookup(FieldCategory)
	if category == "" {
		category = DefaultCategory
	}

	res := Resolve(ctx, location, row.Lookup(FieldLatitude), row.Lookup(FieldLongitude), table, opts.Fallback)

	return Parsed{
		Event: Event{
			ID:          fmt.Sprintf("evt-%d", index),
			Person:      person,
			Location:    location,
			EventText:   row.Lookup(FieldEvent),
			Year:        ExtractYear(dateStr),
			DisplayYear: dateStr,
			Category:    category,
			Certainty:   ParseCertainty(row.Lookup(FieldCertainty)),
			Reference:   reference,
			References:  NormalizeReferences(reference),
			Lat:         res.Coord.Lat,
			Lon:         res.Coord.Lon,
		},
		Location: res,
	}, true
}

// ExtractYear returns the first signed integer found in s, or 0 when s has
// no digits or the number lies outside ±MaxYear. "ca. 62 CE" yields 62
// and "-50" yields -50.
func ExtractYear(s string) int {
	m := yearRE.FindString(s)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil || y > MaxYear || y < -MaxYear {
		return 0
	}
	return y
}

// ParseCertainty parses a certainty tier, returning DefaultCertainty for
// anything that is not an integer in 1..4.
func ParseCertainty(s string) Certainty {
	n, err := strconv.Atoi(leadingInt(strings.TrimSpace(s)))
	if err != nil {
		return DefaultCertainty
	}
	c := Certainty(n)
	if !c.Valid() {
		return DefaultCertainty
	}
	return c
}

// leadingInt keeps an optional sign and the digits that follow it, so "3 "
// and "2 (likely)" parse the way a lenient integer reader would.
func leadingInt(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// NormalizeReferences splits a semicolon-separated reference field into
// cleaned URLs. Pieces are trimmed, stripped of a leading dash/space run and
// dropped when empty. A piece containing a dot but no http(s) scheme gets
// "https://" prepended. Order is kept and duplicates are not removed.
func NormalizeReferences(field string) []string {
	refs := []string{}
	if strings.TrimSpace(field) == "" {
		return refs
	}
	for _, piece := range strings.Split(field, ";") {
		clean := refPrefixRE.ReplaceAllString(strings.TrimSpace(piece), "")
		if clean == "" {
			continue
		}
		if strings.Contains(clean, ".") && !hasScheme(clean) {
			clean = "https://" + clean
		}
		refs = append(refs, clean)
	}
	return refs
}

func hasScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
