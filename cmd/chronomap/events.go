package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hurttlocker/chronomap/internal/cluster"
	"github.com/hurttlocker/chronomap/internal/filter"
)

// filterFlags binds the event selection flags shared by events and clusters.
type filterFlags struct {
	year       int
	from, to   int
	categories []string
	locations  []string
	people     []string
	query      string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.year, "year", 0, "Only events active in this year")
	fs.IntVar(&f.from, "from", 0, "Range start year (requires --to)")
	fs.IntVar(&f.to, "to", 0, "Range end year (requires --from)")
	fs.StringArrayVar(&f.categories, "category", nil, "Only this category (repeatable)")
	fs.StringArrayVar(&f.locations, "location", nil, "Only this location (repeatable)")
	fs.StringArrayVar(&f.people, "person", nil, "Only this person (repeatable)")
	fs.StringVarP(&f.query, "query", "q", "", "Person name contains this text")
}

// criteria builds filter criteria, treating unset flags as "no constraint".
func (f *filterFlags) criteria(fs *pflag.FlagSet) (filter.Criteria, error) {
	var c filter.Criteria
	if fs.Changed("year") {
		y := f.year
		c.Year = &y
	}
	if fs.Changed("from") != fs.Changed("to") {
		return c, fmt.Errorf("--from and --to must be given together")
	}
	if fs.Changed("from") {
		c.Range = &filter.YearRange{Start: f.from, End: f.to}
	}
	if fs.Changed("category") {
		c.Categories = filter.NewSet(f.categories...)
	}
	if fs.Changed("location") {
		c.Locations = filter.NewSet(f.locations...)
	}
	if fs.Changed("person") {
		c.People = filter.NewSet(f.people...)
	}
	c.PersonQuery = f.query
	return c, nil
}

func newEventsCmd(g *globalFlags) *cobra.Command {
	var (
		ff     filterFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the events matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			crit, err := ff.criteria(cmd.Flags())
			if err != nil {
				return err
			}
			ds, _, err := g.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			visible := filter.Apply(ds.Events, crit)
			out := cmd.OutOrStdout()

			switch strings.ToLower(format) {
			case "text":
				if len(visible) > 0 {
					fmt.Fprintln(out, filter.FormatText(visible))
				}
				return nil
			case "json":
				return writeIndented(out, visible)
			case "geojson":
				return writeIndented(out, cluster.EventsGeoJSON(visible))
			default:
				return fmt.Errorf("unknown format %q (want text, json or geojson)", format)
			}
		},
	}
	ff.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or geojson")
	return cmd
}

func newClustersCmd(g *globalFlags) *cobra.Command {
	var (
		ff     filterFlags
		zoom   float64
		radius float64
		mode   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Cluster the matching events into map markers at a zoom level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			crit, err := ff.criteria(cmd.Flags())
			if err != nil {
				return err
			}
			m, err := cluster.ParseMode(mode)
			if err != nil {
				return err
			}
			ds, cfg, err := g.loadDataset(cmd.Context())
			if err != nil {
				return err
			}

			if zoom < 1 || zoom > 22 {
				return fmt.Errorf("--zoom must be between 1 and 22")
			}
			opts := viewDefaults(cfg)
			opts.Zoom = zoom
			opts.Mode = m
			if cmd.Flags().Changed("radius") {
				if radius <= 0 {
					return fmt.Errorf("--radius must be positive")
				}
				opts.Radius = radius
			}

			view := cluster.Render(filter.Apply(ds.Events, crit), opts)
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "text":
				printMarkers(out, view)
				return nil
			case "json":
				return writeIndented(out, view)
			case "geojson":
				return writeIndented(out, cluster.MarkersGeoJSON(view.Markers))
			default:
				return fmt.Errorf("unknown format %q (want text, json or geojson)", format)
			}
		},
	}
	ff.register(cmd.Flags())
	cmd.Flags().Float64Var(&zoom, "zoom", cluster.DefaultZoom, "Map zoom level")
	cmd.Flags().Float64Var(&radius, "radius", cluster.DefaultRadius, "Merge radius in pixels")
	cmd.Flags().StringVar(&mode, "mode", string(cluster.ModeBubble), "Marker mode: bubble or spread")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or geojson")
	return cmd
}

func printMarkers(w io.Writer, v cluster.View) {
	fmt.Fprintf(w, "%d groups, %d markers at zoom %g (%s)\n", len(v.Groups), len(v.Markers), v.Zoom, v.Mode)
	for _, m := range v.Markers {
		fmt.Fprintf(w, "  [%d] %-24s %9.4f %9.4f\n", m.Group, m.Label, m.Lat, m.Lon)
	}
}

func writeIndented(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
