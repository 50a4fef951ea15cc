package timeline

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
)

// ProcessOptions configures a pipeline run.
type ProcessOptions struct {
	Fallback Fallback
	Span     int
}

// DefaultProcessOptions returns the options used when none are configured.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{Fallback: DefaultFallback, Span: DefaultSpan}
}

// Diagnostic is a non-fatal note about one input row.
type Diagnostic struct {
	Row     int    `json:"row"`
	Person  string `json:"person,omitempty"`
	Message string `json:"message"`
}

// Result is the output of one pipeline run.
type Result struct {
	Events        []Event      `json:"events"`
	RowsRead      int          `json:"rows_read"`
	RowsDropped   int          `json:"rows_dropped"`
	FallbackCount int          `json:"fallback_count"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
}

// Process normalizes every row, drops rows without a person and derives
// intervals for the survivors. Row-level problems never surface as errors.
// A zero Fallback means DefaultFallback.
func Process(ctx context.Context, rows []Row, table LocationTable, opts ProcessOptions) Result {
	log := klog.FromContext(ctx)
	if opts.Fallback == (Fallback{}) {
		opts.Fallback = DefaultFallback
	}

	result := Result{RowsRead: len(rows)}
	parsed := make([]Event, 0, len(rows))
	for i, row := range rows {
		p, ok := ParseRow(ctx, row, i, table, ParseOptions{Fallback: opts.Fallback})
		if !ok {
			result.RowsDropped++
			log.V(1).Info("dropping row without person", "row", i)
			continue
		}
		if p.Location.Source == SourceFallback {
			result.FallbackCount++
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Row:     i,
				Person:  p.Event.Person,
				Message: fmt.Sprintf("location %q not found, using fallback %q", p.Event.Location, opts.Fallback.Name),
			})
		}
		parsed = append(parsed, p.Event)
	}

	result.Events = DeriveIntervals(parsed, opts.Span)
	log.V(1).Info("processed timeline", "rows", result.RowsRead, "events", len(result.Events), "dropped", result.RowsDropped, "fallbacks", result.FallbackCount)
	return result
}
