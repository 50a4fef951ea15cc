// Package ingest acquires timeline datasets.
//
// It reads CSV event records and location tables from local files or
// remote URLs, decodes them into the types the timeline pipeline consumes,
// and runs the pipeline once per load. Acquisition is the only blocking
// step; everything after it is a pure transform.
package ingest

import "errors"

var (
	// ErrEmptySource is returned when a source yields no usable content.
	ErrEmptySource = errors.New("empty source")
	// ErrInvalidSource is returned when a source location cannot be used.
	ErrInvalidSource = errors.New("invalid source")
)
