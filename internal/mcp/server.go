// Package mcp provides a Model Context Protocol server for Chronomap.
//
// It exposes the loaded timeline (filtered events, clustered map markers,
// facets and plain-text export) as MCP tools, and a dataset summary as an
// MCP resource. Served over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/chronomap/internal/cluster"
	"github.com/hurttlocker/chronomap/internal/filter"
	"github.com/hurttlocker/chronomap/internal/ingest"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	yearPad           = 5
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Holder  *ingest.Holder
	Version string // version string for MCP server info
	// View supplies clustering defaults for timeline_clusters.
	View cluster.ViewOptions
}

// NewServer creates a configured MCP server with all Chronomap tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Chronomap",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerEventsTool(s, cfg.Holder)
	registerClustersTool(s, cfg.Holder, cfg.View)
	registerFacetsTool(s, cfg.Holder)
	registerExportTool(s, cfg.Holder)
	registerReloadTool(s, cfg.Holder)

	registerSummaryResource(s, cfg.Holder)

	return s
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func ServeStdio(cfg ServerConfig) error {
	return server.ServeStdio(NewServer(cfg))
}

// --- Tools ---

// filterOptions are shared by every tool that selects events.
func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("year",
			mcp.Description("Show events active in this year (started at or before it and not yet ended). Takes precedence over from/to."),
		),
		mcp.WithNumber("from",
			mcp.Description("Range start year (inclusive). Requires 'to'."),
		),
		mcp.WithNumber("to",
			mcp.Description("Range end year (inclusive). Requires 'from'."),
		),
		mcp.WithArray("categories",
			mcp.Description("Only these categories. Omit for all; an empty list selects nothing."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("locations",
			mcp.Description("Only these location names ('Unknown Location' for events without one)."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("people",
			mcp.Description("Only these people."),
			mcp.WithStringItems(),
		),
		mcp.WithString("person_query",
			mcp.Description("Case-insensitive substring a person's name must contain."),
		),
	}
}

// optionalNumber reads a numeric argument. Absent or null arguments report
// ok=false; present arguments that are not numbers are an error.
func optionalNumber(req mcp.CallToolRequest, key string) (v float64, ok bool, err error) {
	raw, present := req.GetArguments()[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	v, err = req.RequireFloat(key)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %v: must be a number", key, raw)
	}
	return v, true, nil
}

func criteriaFromRequest(req mcp.CallToolRequest) (filter.Criteria, error) {
	var c filter.Criteria

	year, ok, err := optionalNumber(req, "year")
	if err != nil {
		return c, err
	}
	if ok {
		y := int(year)
		c.Year = &y
	}

	from, hasFrom, err := optionalNumber(req, "from")
	if err != nil {
		return c, err
	}
	to, hasTo, err := optionalNumber(req, "to")
	if err != nil {
		return c, err
	}
	switch {
	case hasFrom && hasTo:
		c.Range = &filter.YearRange{Start: int(from), End: int(to)}
	case hasFrom || hasTo:
		return c, fmt.Errorf("from and to must be given together")
	}

	if v := req.GetStringSlice("categories", nil); v != nil {
		c.Categories = filter.NewSet(v...)
	}
	if v := req.GetStringSlice("locations", nil); v != nil {
		c.Locations = filter.NewSet(v...)
	}
	if v := req.GetStringSlice("people", nil); v != nil {
		c.People = filter.NewSet(v...)
	}
	c.PersonQuery = req.GetString("person_query", "")
	return c, nil
}

func registerEventsTool(s *server.MCPServer, h *ingest.Holder) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List timeline events matching the given filters, in timeline order (grouped by person, then by year). Each event carries its derived end year and resolved coordinates."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events (default: 100, max: 1000)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json or geojson (default: json)"),
			mcp.Enum("json", "geojson"),
		),
	}
	tool := mcp.NewTool("timeline_events", append(opts, filterOptions()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := h.Current()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit, err := criteriaFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		visible := filter.Apply(ds.Events, crit)

		if req.GetString("format", "json") == "geojson" {
			data, err := cluster.EventsGeoJSON(visible).MarshalJSON()
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("encoding geojson: %v", err)), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		}

		limit := defaultEventLimit
		v, ok, err := optionalNumber(req, "limit")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok && v > 0 {
			limit = min(int(v), maxEventLimit)
		}
		page := visible
		if len(page) > limit {
			page = page[:limit]
		}

		payload := map[string]interface{}{
			"load_id": ds.LoadID,
			"total":   len(visible),
			"events":  page,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerClustersTool(s *server.MCPServer, h *ingest.Holder, defaults cluster.ViewOptions) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Cluster the matching events into map markers the way the timeline map draws them at a zoom level. Events closer than the radius in screen pixels merge into one group."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("zoom",
			mcp.Description("Map zoom level (default: 6)"),
		),
		mcp.WithNumber("radius",
			mcp.Description("Merge radius in pixels (default: 50)"),
		),
		mcp.WithString("mode",
			mcp.Description("bubble collapses each group into a count marker; spread fans members out on a circle (default: bubble)"),
			mcp.Enum("bubble", "spread"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json or geojson (default: json)"),
			mcp.Enum("json", "geojson"),
		),
	}
	tool := mcp.NewTool("timeline_clusters", append(opts, filterOptions()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := h.Current()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit, err := criteriaFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		view := defaults
		zoom, ok, err := optionalNumber(req, "zoom")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			if zoom < 1 || zoom > 22 {
				return mcp.NewToolResultError("zoom must be between 1 and 22"), nil
			}
			view.Zoom = zoom
		}
		radius, ok, err := optionalNumber(req, "radius")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			if radius <= 0 {
				return mcp.NewToolResultError("radius must be positive"), nil
			}
			view.Radius = radius
		}
		if raw := req.GetString("mode", ""); raw != "" {
			mode, err := cluster.ParseMode(raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid mode: %v", err)), nil
			}
			view.Mode = mode
		}

		visible := filter.Apply(ds.Events, crit)
		rendered := cluster.Render(visible, view)

		if req.GetString("format", "json") == "geojson" {
			data, err := cluster.MarkersGeoJSON(rendered.Markers).MarshalJSON()
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("encoding geojson: %v", err)), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		}

		payload := map[string]interface{}{
			"load_id": ds.LoadID,
			"total":   len(visible),
			"zoom":    rendered.Zoom,
			"mode":    rendered.Mode,
			"groups":  len(rendered.Groups),
			"markers": rendered.Markers,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerFacetsTool(s *server.MCPServer, h *ingest.Holder) {
	tool := mcp.NewTool("timeline_facets",
		mcp.WithDescription("List the distinct categories, locations and people in the loaded timeline, plus the padded year range."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("person_query",
			mcp.Description("Only list people whose name contains this text (case-insensitive)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := h.Current()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		facets := filter.BuildFacets(ds.Events)
		if q := req.GetString("person_query", ""); q != "" {
			facets.People = filter.SearchPeople(facets.People, q)
		}
		minYear, maxYear, _ := filter.YearBounds(ds.Events, yearPad)

		payload := map[string]interface{}{
			"categories": facets.Categories,
			"locations":  facets.Locations,
			"people":     facets.People,
			"min_year":   minYear,
			"max_year":   maxYear,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerExportTool(s *server.MCPServer, h *ingest.Holder) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Render the matching events as plain-text lines: [year] Person: Event (Location) | Certainty: Label | Refs: ..."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	}
	tool := mcp.NewTool("timeline_export", append(opts, filterOptions()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := h.Current()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit, err := criteriaFromRequest(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		visible := filter.Apply(ds.Events, crit)
		if len(visible) == 0 {
			return mcp.NewToolResultText("No matching events."), nil
		}
		return mcp.NewToolResultText(filter.FormatText(visible)), nil
	})
}

func registerReloadTool(s *server.MCPServer, h *ingest.Holder) {
	tool := mcp.NewTool("timeline_reload",
		mcp.WithDescription("Reload the timeline CSV and location table from their configured sources. On failure the previous dataset stays in place."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ds, err := h.Reload(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reload failed: %v", err)), nil
		}
		data, _ := json.MarshalIndent(ds.Stats(), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
