package cluster

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

// EventsGeoJSON renders events as point features carrying their timeline
// attributes as properties.
func EventsGeoJSON(events []timeline.Event) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range events {
		f := geojson.NewFeature(orb.Point{e.Lon, e.Lat})
		f.ID = e.ID
		f.Properties = eventProperties(e)
		fc.Append(f)
	}
	return fc
}

// MarkersGeoJSON renders laid-out markers as point features. Each feature
// lists the IDs and people of the events it stands for.
func MarkersGeoJSON(markers []Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Lon, m.Lat})
		ids := make([]string, 0, len(m.Events))
		people := make([]string, 0, len(m.Events))
		for _, e := range m.Events {
			ids = append(ids, e.ID)
			people = append(people, e.Person)
		}
		f.Properties = geojson.Properties{
			"label":     m.Label,
			"count":     m.Count,
			"group":     m.Group,
			"event_ids": ids,
			"people":    people,
		}
		fc.Append(f)
	}
	return fc
}

func eventProperties(e timeline.Event) geojson.Properties {
	return geojson.Properties{
		"person":       e.Person,
		"location":     e.Location,
		"event":        e.EventText,
		"year":         e.Year,
		"end_year":     e.EndYear,
		"display_year": e.DisplayYear,
		"category":     e.Category,
		"certainty":    int(e.Certainty),
		"references":   e.References,
	}
}
