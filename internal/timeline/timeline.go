// Package timeline turns raw tabular event records into normalized,
// geocoded events with derived per-person intervals.
//
// The pipeline is a pure batch transform: ParseRow normalizes one record,
// DeriveIntervals assigns end years per person, and Process runs both over a
// whole dataset. Field-level problems are absorbed by documented defaults;
// only a missing person drops a row.
package timeline

// Row is one raw tabular record keyed by column header.
type Row map[string]string

// Certainty is the confidence tier attached to an event.
type Certainty int

const (
	CertaintyFact    Certainty = 1
	CertaintyAssumed Certainty = 2
	CertaintyGuess   Certainty = 3
	CertaintyUnknown Certainty = 4
)

// DefaultCertainty is applied when the column is missing or out of range.
const DefaultCertainty = CertaintyAssumed

// DefaultCategory labels events without a category.
const DefaultCategory = "Uncategorized"

// DefaultSpan is the number of years a person's final event lasts.
const DefaultSpan = 5

// MaxYear bounds the magnitude of a parsed year. Larger numbers are treated
// as undated.
const MaxYear = 1_000_000

// Valid reports whether c is one of the four known tiers.
func (c Certainty) Valid() bool {
	return c >= CertaintyFact && c <= CertaintyUnknown
}

// Event is one normalized timeline record for a person.
type Event struct {
	ID          string    `json:"id"`
	Person      string    `json:"person"`
	Location    string    `json:"location"`
	EventText   string    `json:"event"`
	Year        int       `json:"year"`
	DisplayYear string    `json:"display_year"`
	EndYear     int       `json:"end_year"`
	Category    string    `json:"category"`
	Certainty   Certainty `json:"certainty"`
	Reference   string    `json:"reference,omitempty"`
	References  []string  `json:"references"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
}
