package timeline

import "strings"

// Field is a logical event field that may arrive under several column names.
type Field string

const (
	FieldPerson    Field = "person"
	FieldLocation  Field = "location"
	FieldDate      Field = "date"
	FieldEvent     Field = "event"
	FieldCategory  Field = "category"
	FieldCertainty Field = "certainty"
	FieldReference Field = "reference"
	FieldLatitude  Field = "latitude"
	FieldLongitude Field = "longitude"
)

// Aliases lists the accepted column names per field, in priority order.
var Aliases = map[Field][]string{
	FieldPerson:    {"Person"},
	FieldLocation:  {"Location"},
	FieldDate:      {"Date", "Year"},
	FieldEvent:     {"Event", "Activity/Event"},
	FieldCategory:  {"Category"},
	FieldCertainty: {"Certainty"},
	FieldReference: {"Reference"},
	FieldLatitude:  {"Latitude"},
	FieldLongitude: {"Longitude"},
}

// Lookup returns the first non-empty value among the field's aliases.
// Values are trimmed; a whitespace-only cell counts as empty.
func (r Row) Lookup(f Field) string {
	for _, name := range Aliases[f] {
		if v := strings.TrimSpace(r[name]); v != "" {
			return v
		}
	}
	return ""
}
