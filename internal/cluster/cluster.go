// Package cluster groups visible timeline events by screen-space proximity.
//
// Clustering is greedy and order-sensitive: each event joins the first
// existing group whose anchor lies within the merge radius, otherwise it
// anchors a new group. Anchors never move as members join. The rendering
// surface supplies the projection, so the engine is agnostic to zoom and
// map projection.
package cluster

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

const (
	// DefaultRadius is the pixel distance under which markers merge.
	DefaultRadius = 50.0
	// DefaultOrbitRadius is the pixel radius members fan out on.
	DefaultOrbitRadius = 45.0
)

// Projector converts between geographic coordinates and pixel space for
// the current viewport.
type Projector interface {
	Project(lat, lon float64) orb.Point
	Unproject(p orb.Point) (lat, lon float64)
}

// Group is a cluster anchored on the first event assigned to it.
type Group struct {
	CenterLat float64          `json:"center_lat"`
	CenterLon float64          `json:"center_lon"`
	Center    orb.Point        `json:"center_px"`
	Events    []timeline.Event `json:"events"`
}

// Count returns the number of member events.
func (g Group) Count() int {
	return len(g.Events)
}

// Cluster groups events whose projected positions fall strictly within
// radius pixels of an existing group's anchor. Groups are searched in
// creation order and the first match wins. A non-positive radius means
// DefaultRadius. Events are copied into groups, never modified.
func Cluster(events []timeline.Event, proj Projector, radius float64) []Group {
	if radius <= 0 {
		radius = DefaultRadius
	}
	acc := accumulator{radius: radius}
	for _, e := range events {
		acc = acc.add(e, proj.Project(e.Lat, e.Lon))
	}
	return acc.groups
}

type accumulator struct {
	radius float64
	groups []Group
}

func (a accumulator) add(e timeline.Event, p orb.Point) accumulator {
	for i := range a.groups {
		if planar.Distance(a.groups[i].Center, p) < a.radius {
			a.groups[i].Events = append(a.groups[i].Events, e)
			return a
		}
	}
	a.groups = append(a.groups, Group{
		CenterLat: e.Lat,
		CenterLon: e.Lon,
		Center:    p,
		Events:    []timeline.Event{e},
	})
	return a
}
