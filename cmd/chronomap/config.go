package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/chronomap/internal/config"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.resolve()
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), cfg)
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printConfig(w io.Writer, cfg config.ResolvedConfig) {
	fmt.Fprintf(w, "config file: %s\n", cfg.ConfigPath)
	fmt.Fprintf(w, "env file:    %s\n\n", cfg.EnvFile)
	rows := []struct {
		key string
		v   config.ResolvedValue
	}{
		{"data", cfg.Data},
		{"locations", cfg.Locations},
		{"fallback_location", cfg.FallbackName},
		{"fallback_lat", cfg.FallbackLat},
		{"fallback_lon", cfg.FallbackLon},
		{"default_span", cfg.DefaultSpan},
		{"cluster_radius", cfg.ClusterRadius},
		{"orbit_radius", cfg.OrbitRadius},
		{"listen", cfg.Listen},
		{"fetch_timeout", cfg.FetchTimeout},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-18s %-32s %s (%s)\n", r.key, r.v.Value, r.v.Source, r.v.From)
	}
}
