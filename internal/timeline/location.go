package timeline

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// Coord is a geographic coordinate in decimal degrees.
type Coord struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Place is one entry of a location table source.
type Place struct {
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}

// LocationTable maps place names to coordinates. It is built once per run
// and treated as read-only afterwards.
type LocationTable map[string]Coord

// NewLocationTable indexes places by trimmed name. Later duplicates win.
func NewLocationTable(places []Place) LocationTable {
	table := make(LocationTable, len(places))
	for _, p := range places {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		table[name] = Coord{Lat: p.Lat, Lon: p.Lon}
	}
	return table
}

// Fallback is the "home" location used when a place cannot be resolved.
// If the table carries an entry named Name, that entry wins over Coord.
type Fallback struct {
	Name  string
	Coord Coord
}

// DefaultFallback is Jerusalem.
var DefaultFallback = Fallback{
	Name:  "Jerusalem",
	Coord: Coord{Lat: 31.7683, Lon: 35.2137},
}

// CoordSource records how a coordinate was obtained.
type CoordSource string

const (
	SourceExplicit CoordSource = "explicit"
	SourceTable    CoordSource = "table"
	SourceFallback CoordSource = "fallback"
)

// Resolution is the outcome of resolving one location.
type Resolution struct {
	Coord  Coord
	Source CoordSource
}

// Resolve maps a place name to coordinates. Explicit lat/lon strings win
// when both parse as numbers; otherwise the trimmed name is looked up in
// table; otherwise the fallback is returned and a diagnostic is logged.
// Resolve never fails.
func Resolve(ctx context.Context, name, rawLat, rawLon string, table LocationTable, fallback Fallback) Resolution {
	if c, ok := explicitCoord(rawLat, rawLon); ok {
		return Resolution{Coord: c, Source: SourceExplicit}
	}

	name = strings.TrimSpace(name)
	if c, ok := table[name]; ok {
		return Resolution{Coord: c, Source: SourceTable}
	}

	klog.FromContext(ctx).Info("location not found, using fallback", "location", name, "fallback", fallback.Name)
	return Resolution{Coord: fallback.resolve(table), Source: SourceFallback}
}

func (f Fallback) resolve(table LocationTable) Coord {
	if f.Name != "" {
		if c, ok := table[f.Name]; ok {
			return c
		}
	}
	return f.Coord
}

func explicitCoord(rawLat, rawLon string) (Coord, bool) {
	lat, err := strconv.ParseFloat(leadingFloat(rawLat), 64)
	if err != nil {
		return Coord{}, false
	}
	lon, err := strconv.ParseFloat(leadingFloat(rawLon), 64)
	if err != nil {
		return Coord{}, false
	}
	if !finite(lat) || !finite(lon) {
		return Coord{}, false
	}
	return Coord{Lat: lat, Lon: lon}, true
}

var leadingFloatRE = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingFloat keeps the numeric prefix of a cell, so "31.5abc" reads as
// 31.5 the way a lenient float reader would.
func leadingFloat(s string) string {
	return leadingFloatRE.FindString(strings.TrimSpace(s))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
