package cluster

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

// Mode selects how multi-member groups are drawn.
type Mode string

const (
	// ModeBubble collapses a group of more than one event into a single
	// count marker at the anchor.
	ModeBubble Mode = "bubble"
	// ModeSpread draws every member on an orbit around the anchor.
	ModeSpread Mode = "spread"
)

// ParseMode maps a user-supplied mode name to a Mode. Empty means bubble.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBubble:
		return ModeBubble, nil
	case ModeSpread:
		return ModeSpread, nil
	default:
		return "", fmt.Errorf("unknown cluster mode %q (want bubble or spread)", s)
	}
}

// Position is a display coordinate for one group member.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Orbit computes display positions for the members of g. Member i sits on
// a circle of radius pixels around the anchor at angle i/count*2π, mapped
// back to geographic coordinates through proj. A single-member group stays
// on its anchor. Positions depend on zoom and must be recomputed with the
// current projector whenever it changes.
func Orbit(g Group, proj Projector, radius float64) []Position {
	count := len(g.Events)
	out := make([]Position, count)
	if count == 0 {
		return out
	}
	if count == 1 {
		out[0] = Position{Lat: g.CenterLat, Lon: g.CenterLon}
		return out
	}
	if radius <= 0 {
		radius = DefaultOrbitRadius
	}
	center := proj.Project(g.CenterLat, g.CenterLon)
	for i := range g.Events {
		angle := float64(i) / float64(count) * 2 * math.Pi
		p := orb.Point{
			center.X() + radius*math.Cos(angle),
			center.Y() + radius*math.Sin(angle),
		}
		lat, lon := proj.Unproject(p)
		out[i] = Position{Lat: lat, Lon: lon}
	}
	return out
}

// Marker is one renderable map marker.
type Marker struct {
	Lat    float64          `json:"lat"`
	Lon    float64          `json:"lon"`
	Label  string           `json:"label"`
	Count  int              `json:"count"`
	Group  int              `json:"group"`
	Events []timeline.Event `json:"events"`
}

// Layout turns groups into markers. In ModeBubble a group with more than
// one member becomes a single count marker; in ModeSpread every member gets
// its own marker on the group's orbit. Single-member groups render the same
// in both modes.
func Layout(groups []Group, proj Projector, mode Mode, orbitRadius float64) []Marker {
	markers := make([]Marker, 0, len(groups))
	for gi, g := range groups {
		if mode != ModeSpread && g.Count() > 1 {
			markers = append(markers, Marker{
				Lat:    g.CenterLat,
				Lon:    g.CenterLon,
				Label:  fmt.Sprintf("%d People Here", g.Count()),
				Count:  g.Count(),
				Group:  gi,
				Events: g.Events,
			})
			continue
		}
		for i, pos := range Orbit(g, proj, orbitRadius) {
			markers = append(markers, Marker{
				Lat:    pos.Lat,
				Lon:    pos.Lon,
				Label:  g.Events[i].Person,
				Count:  1,
				Group:  gi,
				Events: []timeline.Event{g.Events[i]},
			})
		}
	}
	return markers
}
