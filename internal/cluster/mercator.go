package cluster

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	// DefaultTileSize matches the 256px tiles of common slippy maps.
	DefaultTileSize = 256
	maxMercatorLat  = 85.05112878
	earthHalfCirc   = 20037508.342789244
)

// Mercator projects WGS84 coordinates into spherical Mercator pixel space
// at a fixed zoom level, the same space slippy-map layer points live in up
// to a translation.
type Mercator struct {
	Zoom     float64
	TileSize float64
}

// NewMercator returns a projector for zoom using DefaultTileSize.
func NewMercator(zoom float64) Mercator {
	return Mercator{Zoom: zoom, TileSize: DefaultTileSize}
}

func (m Mercator) worldSize() float64 {
	size := m.TileSize
	if size <= 0 {
		size = DefaultTileSize
	}
	return size * math.Pow(2, m.Zoom)
}

// Project implements Projector.
func (m Mercator) Project(lat, lon float64) orb.Point {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	meters := project.Point(orb.Point{lon, lat}, project.WGS84.ToMercator)
	scale := m.worldSize() / (2 * earthHalfCirc)
	return orb.Point{
		(meters.X() + earthHalfCirc) * scale,
		(earthHalfCirc - meters.Y()) * scale,
	}
}

// Unproject implements Projector.
func (m Mercator) Unproject(p orb.Point) (lat, lon float64) {
	scale := m.worldSize() / (2 * earthHalfCirc)
	meters := orb.Point{
		p.X()/scale - earthHalfCirc,
		earthHalfCirc - p.Y()/scale,
	}
	ll := project.Point(meters, project.Mercator.ToWGS84)
	return ll.Lat(), ll.Lon()
}
