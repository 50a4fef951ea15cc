package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/hurttlocker/chronomap/internal/config"
	"github.com/hurttlocker/chronomap/internal/ingest"
	"github.com/hurttlocker/chronomap/internal/mcp"
	"github.com/hurttlocker/chronomap/internal/server"
)

// newHolder loads the dataset once and returns a holder that reloads from
// the same resolved sources.
func newHolder(ctx context.Context, cfg config.ResolvedConfig) (*ingest.Holder, error) {
	opts := loadOptions(cfg)
	h := ingest.NewHolder(func(ctx context.Context) (*ingest.Dataset, error) {
		return ingest.Load(ctx, opts)
	})
	if _, err := h.Reload(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timeline over a read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.ResolveConfig(config.ResolveOptions{
				ConfigPath:   g.configPath,
				EnvFile:      g.envFile,
				CLIData:      g.data,
				CLILocations: g.locations,
				CLIListen:    listen,
			})
			if err != nil {
				return err
			}
			h, err := newHolder(ctx, cfg)
			if err != nil {
				return err
			}
			klog.FromContext(ctx).Info("Starting API server", "listen", cfg.Listen.Value, "data", cfg.Data.Value)
			return server.Serve(ctx, server.Config{
				Holder: h,
				Listen: cfg.Listen.Value,
				View:   viewDefaults(cfg),
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default "+config.DefaultListen+")")
	return cmd
}

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the timeline to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.resolve()
			if err != nil {
				return err
			}
			h, err := newHolder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			// stdout carries the protocol; keep status on stderr.
			fmt.Fprintf(os.Stderr, "chronomap MCP server ready (%s)\n", cfg.Data.Value)
			return mcp.ServeStdio(mcp.ServerConfig{
				Holder:  h,
				Version: version,
				View:    viewDefaults(cfg),
			})
		},
	}
}
