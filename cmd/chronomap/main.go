package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

const version = "0.1.0-dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	data       string
	locations  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "chronomap",
		Short: "Turn a CSV of dated, located events into a clustered map timeline",
		Long: `chronomap loads a spreadsheet of people, places and years, resolves each
place to coordinates, derives how long every event lasts, and clusters the
events that are visible in a given year into map markers.

Configuration is read from ~/.chronomap/config.yaml, a .env file and
CHRONOMAP_* environment variables, in that order; flags override all three.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default ~/.chronomap/config.yaml)")
	pf.StringVar(&g.envFile, "env-file", "", "Dotenv file (default .env)")
	pf.StringVar(&g.data, "data", "", "Timeline CSV path or URL")
	pf.StringVar(&g.locations, "locations", "", "Location table path or URL (JSON or YAML)")

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	pf.AddGoFlagSet(klogFlags)

	root.AddCommand(
		newLoadCmd(g),
		newEventsCmd(g),
		newClustersCmd(g),
		newServeCmd(g),
		newMCPCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chronomap %s\n", version)
		},
	}
}
