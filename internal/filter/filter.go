// Package filter selects the visible subset of a loaded timeline and
// derives the facet values used to drive filter controls.
package filter

import (
	"sort"
	"strings"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

// UnknownLocation is shown for events without a location.
const UnknownLocation = "Unknown Location"

// Set is a facet selection. A nil Set matches everything; a non-nil empty
// Set matches nothing.
type Set map[string]struct{}

// NewSet builds a Set from values, ignoring blanks.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

func (s Set) match(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// YearRange is an inclusive span of years.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Criteria describes which events are visible. Year selects events active
// in a single year; Range selects events overlapping a span. When both are
// set, Year wins.
type Criteria struct {
	Year        *int
	Range       *YearRange
	Categories  Set
	Locations   Set
	People      Set
	PersonQuery string
}

// ActiveAt reports whether e is in effect during year: it started at or
// before year and ends after it.
func ActiveAt(e timeline.Event, year int) bool {
	return e.Year <= year && e.EndYear > year
}

// Overlaps reports whether e's interval [Year, EndYear) intersects the
// inclusive range r.
func Overlaps(e timeline.Event, r YearRange) bool {
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	return e.Year <= r.End && e.EndYear > r.Start
}

// Match reports whether e passes every predicate in c.
func (c Criteria) Match(e timeline.Event) bool {
	switch {
	case c.Year != nil:
		if !ActiveAt(e, *c.Year) {
			return false
		}
	case c.Range != nil:
		if !Overlaps(e, *c.Range) {
			return false
		}
	}
	if !c.Categories.match(e.Category) {
		return false
	}
	if !c.Locations.match(locationKey(e.Location)) {
		return false
	}
	if !c.People.match(e.Person) {
		return false
	}
	if q := strings.TrimSpace(c.PersonQuery); q != "" && !containsFold(e.Person, q) {
		return false
	}
	return true
}

// Apply returns the events matching c in their original order.
func Apply(events []timeline.Event, c Criteria) []timeline.Event {
	out := make([]timeline.Event, 0, len(events))
	for _, e := range events {
		if c.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Facets holds the distinct values available for each filter control.
type Facets struct {
	Categories []string `json:"categories"`
	Locations  []string `json:"locations"`
	People     []string `json:"people"`
}

// BuildFacets collects sorted distinct categories, locations and people.
// An empty location is reported as UnknownLocation.
func BuildFacets(events []timeline.Event) Facets {
	cats, locs, people := NewSet(), NewSet(), NewSet()
	for _, e := range events {
		cats[e.Category] = struct{}{}
		locs[locationKey(e.Location)] = struct{}{}
		people[e.Person] = struct{}{}
	}
	return Facets{
		Categories: sortedKeys(cats),
		Locations:  sortedKeys(locs),
		People:     sortedKeys(people),
	}
}

// SearchPeople returns the names containing q, case-insensitively.
func SearchPeople(people []string, q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return people
	}
	var out []string
	for _, p := range people {
		if containsFold(p, q) {
			out = append(out, p)
		}
	}
	return out
}

// YearBounds returns the smallest start year and largest start year padded
// by pad on both sides. ok is false for an empty collection.
func YearBounds(events []timeline.Event, pad int) (min, max int, ok bool) {
	if len(events) == 0 {
		return 0, 0, false
	}
	min, max = events[0].Year, events[0].Year
	for _, e := range events[1:] {
		if e.Year < min {
			min = e.Year
		}
		if e.Year > max {
			max = e.Year
		}
	}
	return min - pad, max + pad, true
}

func locationKey(loc string) string {
	if loc == "" {
		return UnknownLocation
	}
	return loc
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortedKeys(s Set) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
