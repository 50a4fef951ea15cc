package cluster

import "github.com/hurttlocker/chronomap/internal/timeline"

// DefaultZoom is the initial zoom of the timeline map.
const DefaultZoom = 6.0

// ViewOptions describes one rendering of the map.
type ViewOptions struct {
	Zoom        float64
	Radius      float64
	OrbitRadius float64
	Mode        Mode
}

// View is the clustered layout of a set of events at one zoom level.
type View struct {
	Zoom    float64  `json:"zoom"`
	Mode    Mode     `json:"mode"`
	Groups  []Group  `json:"groups"`
	Markers []Marker `json:"markers"`
}

// Render clusters events under a Web Mercator projection at opts.Zoom and
// lays out the resulting markers. Zero options take their defaults.
func Render(events []timeline.Event, opts ViewOptions) View {
	if opts.Zoom == 0 {
		opts.Zoom = DefaultZoom
	}
	if opts.OrbitRadius <= 0 {
		opts.OrbitRadius = DefaultOrbitRadius
	}
	if opts.Mode == "" {
		opts.Mode = ModeBubble
	}
	proj := NewMercator(opts.Zoom)
	groups := Cluster(events, proj, opts.Radius)
	return View{
		Zoom:    opts.Zoom,
		Mode:    opts.Mode,
		Groups:  groups,
		Markers: Layout(groups, proj, opts.Mode, opts.OrbitRadius),
	}
}
