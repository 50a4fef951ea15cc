package ingest

import "time"

// Stats summarizes a dataset for status surfaces.
type Stats struct {
	LoadID        string    `json:"load_id"`
	Source        string    `json:"source"`
	LoadedAt      time.Time `json:"loaded_at"`
	Locations     int       `json:"locations"`
	RowsRead      int       `json:"rows_read"`
	RowsDropped   int       `json:"rows_dropped"`
	FallbackCount int       `json:"fallback_count"`
	Events        int       `json:"events"`
	People        int       `json:"people"`
	Diagnostics   int       `json:"diagnostics"`
}

// Stats summarizes d.
func (d *Dataset) Stats() Stats {
	people := make(map[string]struct{})
	for _, e := range d.Events {
		people[e.Person] = struct{}{}
	}
	return Stats{
		LoadID:        d.LoadID,
		Source:        d.Source,
		LoadedAt:      d.LoadedAt,
		Locations:     d.Locations,
		RowsRead:      d.RowsRead,
		RowsDropped:   d.RowsDropped,
		FallbackCount: d.FallbackCount,
		Events:        len(d.Events),
		People:        len(people),
		Diagnostics:   len(d.Diagnostics),
	}
}
