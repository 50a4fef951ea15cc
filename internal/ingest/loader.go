package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/hurttlocker/chronomap/internal/timeline"
)

// LoadOptions configures a dataset load.
type LoadOptions struct {
	Data      string // CSV path or URL
	Locations string // location table path or URL; optional
	Process   timeline.ProcessOptions

	// RequireLocations turns a missing or unreadable location table into an
	// error instead of an empty table.
	RequireLocations bool

	Client *resty.Client
}

// Dataset is one completed load.
type Dataset struct {
	LoadID    string                 `json:"load_id"`
	Source    string                 `json:"source"`
	Locations int                    `json:"locations"`
	LoadedAt  time.Time              `json:"loaded_at"`
	Table     timeline.LocationTable `json:"-"`
	timeline.Result
}

// Load fetches the location table and the CSV rows, then runs the pipeline.
// The table is fetched first; when it is absent or unreadable the load
// continues with an empty table (every location then falls back) unless
// RequireLocations is set.
func Load(ctx context.Context, opts LoadOptions) (*Dataset, error) {
	table, err := LoadTable(ctx, opts)
	if err != nil {
		return nil, err
	}

	data, err := Source{Location: opts.Data, Client: opts.Client}.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	return Build(ctx, opts.Data, data, table, opts.Process)
}

// LoadTable fetches and decodes the location table named by opts.
func LoadTable(ctx context.Context, opts LoadOptions) (timeline.LocationTable, error) {
	log := klog.FromContext(ctx)

	if opts.Locations == "" {
		if opts.RequireLocations {
			return nil, fmt.Errorf("loading locations: %w", ErrInvalidSource)
		}
		return timeline.LocationTable{}, nil
	}

	data, err := Source{Location: opts.Locations, Client: opts.Client}.Open(ctx)
	if err == nil {
		var table timeline.LocationTable
		table, err = DecodeLocations(opts.Locations, data)
		if err == nil {
			return table, nil
		}
	}
	if opts.RequireLocations {
		return nil, fmt.Errorf("loading locations: %w", err)
	}
	log.Error(err, "location table unavailable, continuing without it", "locations", opts.Locations)
	return timeline.LocationTable{}, nil
}

// Build runs the pipeline over an in-memory CSV payload, such as an upload.
func Build(ctx context.Context, source string, csvData []byte, table timeline.LocationTable, popts timeline.ProcessOptions) (*Dataset, error) {
	rows, err := ParseRows(csvData)
	if err != nil {
		return nil, fmt.Errorf("loading events from %s: %w", source, err)
	}

	result := timeline.Process(ctx, rows, table, popts)
	ds := &Dataset{
		LoadID:    uuid.NewString(),
		Source:    source,
		Locations: len(table),
		LoadedAt:  time.Now().UTC(),
		Table:     table,
		Result:    result,
	}
	klog.FromContext(ctx).Info("dataset loaded", "loadID", ds.LoadID, "source", source, "events", len(result.Events), "dropped", result.RowsDropped, "fallbacks", result.FallbackCount)
	return ds, nil
}
