package timeline

import "sort"

// PersonGroup is one person's events in chronological order.
type PersonGroup struct {
	Person string
	Events []Event
}

// GroupByPerson partitions events by person. Groups come back in order of
// each person's first appearance and every group is stably sorted by year,
// so equal years keep their input order.
func GroupByPerson(events []Event) []PersonGroup {
	index := make(map[string]int)
	var groups []PersonGroup
	for _, e := range events {
		i, ok := index[e.Person]
		if !ok {
			i = len(groups)
			index[e.Person] = i
			groups = append(groups, PersonGroup{Person: e.Person})
		}
		groups[i].Events = append(groups[i].Events, e)
	}
	for _, g := range groups {
		sort.SliceStable(g.Events, func(a, b int) bool {
			return g.Events[a].Year < g.Events[b].Year
		})
	}
	return groups
}

// DeriveIntervals assigns EndYear to every event: the year of the same
// person's next event, or Year+span for the person's last event. When the
// next event shares the year, EndYear is Year+1 so that EndYear > Year
// always holds. A span below 1 is replaced by DefaultSpan and a span above
// MaxYear is clamped to it.
//
// The result is grouped by person (first-appearance order) and then
// concatenated. The input slice is not modified.
func DeriveIntervals(events []Event, span int) []Event {
	if span < 1 {
		span = DefaultSpan
	}
	span = min(span, MaxYear)
	out := make([]Event, 0, len(events))
	for _, g := range GroupByPerson(events) {
		n := len(g.Events)
		for i := range g.Events {
			e := g.Events[i]
			switch {
			case i == n-1:
				e.EndYear = e.Year + span
			case g.Events[i+1].Year > e.Year:
				e.EndYear = g.Events[i+1].Year
			default:
				e.EndYear = e.Year + 1
			}
			out = append(out, e)
		}
	}
	return out
}
