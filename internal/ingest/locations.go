package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

// LocationDecoder parses one location-table format.
type LocationDecoder interface {
	// CanHandle returns true if this decoder supports the given path or URL.
	CanHandle(name string) bool

	// Decode parses the payload into places.
	Decode(data []byte) ([]timeline.Place, error)
}

// JSONLocations decodes a JSON array of {name, lat, lon} objects.
type JSONLocations struct{}

// CanHandle returns true for .json names.
func (JSONLocations) CanHandle(name string) bool {
	return extOf(name) == ".json"
}

// Decode implements LocationDecoder.
func (JSONLocations) Decode(data []byte) ([]timeline.Place, error) {
	var places []timeline.Place
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("invalid JSON location table: %w", err)
	}
	return places, nil
}

// YAMLLocations decodes a YAML sequence of {name, lat, lon} mappings.
type YAMLLocations struct{}

// CanHandle returns true for .yaml and .yml names.
func (YAMLLocations) CanHandle(name string) bool {
	ext := extOf(name)
	return ext == ".yaml" || ext == ".yml"
}

// Decode implements LocationDecoder.
func (YAMLLocations) Decode(data []byte) ([]timeline.Place, error) {
	var places []timeline.Place
	if err := yaml.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("invalid YAML location table: %w", err)
	}
	return places, nil
}

var locationDecoders = []LocationDecoder{JSONLocations{}, YAMLLocations{}}

// DecodeLocations builds a location table from a payload. The decoder is
// chosen by the extension of name; unknown extensions are tried as JSON
// first and YAML second.
func DecodeLocations(name string, data []byte) (timeline.LocationTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("location table %s: %w", name, ErrEmptySource)
	}
	for _, d := range locationDecoders {
		if d.CanHandle(name) {
			places, err := d.Decode(data)
			if err != nil {
				return nil, fmt.Errorf("location table %s: %w", name, err)
			}
			return timeline.NewLocationTable(places), nil
		}
	}

	places, err := JSONLocations{}.Decode(data)
	if err != nil {
		places, err = YAMLLocations{}.Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("location table %s: %w", name, err)
	}
	return timeline.NewLocationTable(places), nil
}

// extOf returns the lower-cased extension of a path or URL, ignoring any
// query string.
func extOf(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(path.Ext(name))
}
