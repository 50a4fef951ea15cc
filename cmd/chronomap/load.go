package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/chronomap/internal/cluster"
	"github.com/hurttlocker/chronomap/internal/config"
	"github.com/hurttlocker/chronomap/internal/filter"
	"github.com/hurttlocker/chronomap/internal/ingest"
	"github.com/hurttlocker/chronomap/internal/timeline"
)

const yearPad = 5

func (g *globalFlags) resolve() (config.ResolvedConfig, error) {
	return config.ResolveConfig(config.ResolveOptions{
		ConfigPath:   g.configPath,
		EnvFile:      g.envFile,
		CLIData:      g.data,
		CLILocations: g.locations,
	})
}

func processOptions(cfg config.ResolvedConfig) timeline.ProcessOptions {
	return timeline.ProcessOptions{
		Fallback: timeline.Fallback{
			Name: cfg.FallbackName.Value,
			Coord: timeline.Coord{
				Lat: cfg.FallbackLat.Float(config.DefaultFallbackLat),
				Lon: cfg.FallbackLon.Float(config.DefaultFallbackLon),
			},
		},
		Span: cfg.DefaultSpan.Int(config.DefaultSpan),
	}
}

func loadOptions(cfg config.ResolvedConfig) ingest.LoadOptions {
	return ingest.LoadOptions{
		Data:      cfg.Data.Value,
		Locations: cfg.Locations.Value,
		Process:   processOptions(cfg),
		Client:    ingest.NewHTTPClient(cfg.FetchTimeout.Duration(config.DefaultFetchTimeout)),
	}
}

func viewDefaults(cfg config.ResolvedConfig) cluster.ViewOptions {
	return cluster.ViewOptions{
		Zoom:        cluster.DefaultZoom,
		Radius:      cfg.ClusterRadius.Float(config.DefaultRadius),
		OrbitRadius: cfg.OrbitRadius.Float(config.DefaultOrbitRadius),
		Mode:        cluster.ModeBubble,
	}
}

// loadDataset resolves configuration and runs one load.
func (g *globalFlags) loadDataset(ctx context.Context) (*ingest.Dataset, config.ResolvedConfig, error) {
	cfg, err := g.resolve()
	if err != nil {
		return nil, cfg, err
	}
	ds, err := ingest.Load(ctx, loadOptions(cfg))
	if err != nil {
		return nil, cfg, err
	}
	return ds, cfg, nil
}

func newLoadCmd(g *globalFlags) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the timeline and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, _, err := g.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), ds, verbose)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "diagnostics", false, "List every row diagnostic")
	return cmd
}

func printSummary(w io.Writer, ds *ingest.Dataset, verbose bool) {
	st := ds.Stats()
	fmt.Fprintf(w, "Loaded %s (load %s)\n", st.Source, st.LoadID)
	fmt.Fprintf(w, "  Rows read:     %d\n", st.RowsRead)
	fmt.Fprintf(w, "  Rows dropped:  %d\n", st.RowsDropped)
	fmt.Fprintf(w, "  Events:        %d\n", st.Events)
	fmt.Fprintf(w, "  People:        %d\n", st.People)
	fmt.Fprintf(w, "  Locations:     %d known\n", st.Locations)
	fmt.Fprintf(w, "  Fallbacks:     %d\n", st.FallbackCount)
	if min, max, ok := filter.YearBounds(ds.Events, yearPad); ok {
		fmt.Fprintf(w, "  Year range:    %d to %d\n", min, max)
	}
	if verbose {
		for _, d := range ds.Diagnostics {
			fmt.Fprintf(w, "  row %d (%s): %s\n", d.Row, d.Person, d.Message)
		}
	}
}
