// Command roadsim builds a synthetic grid city, drives random travel
// demand through the planner tick loop and reports congestion as it
// forms. With --listen it also serves the read-only overlay and
// Prometheus metrics.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/roadnet/simconfig"
)

var (
	flagConfig string
	flagTicks  int
	flagListen string
	flagSeed   int64
)

var rootCmd = &cobra.Command{
	Use:   "roadsim",
	Short: "Road network simulator: topology, congestion and batch pathfinding",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := simconfig.Load(flagConfig)
		if err != nil {
			return err
		}
		// Flags beat both file and environment.
		if cmd.Flags().Changed("ticks") {
			cfg.Sim.Ticks = flagTicks
		}
		if cmd.Flags().Changed("listen") {
			cfg.Sim.Listen = flagListen
		}
		if cmd.Flags().Changed("seed") {
			cfg.Sim.Seed = flagSeed
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runSim(ctx, cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to a roadsim YAML config")
	rootCmd.Flags().IntVar(&flagTicks, "ticks", 1000, "number of simulation ticks to run")
	rootCmd.Flags().StringVar(&flagListen, "listen", "", "address for the overlay/metrics server, empty disables it")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 1, "random seed for demand generation")
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("roadsim failed", "error", err)
		os.Exit(1)
	}
}
