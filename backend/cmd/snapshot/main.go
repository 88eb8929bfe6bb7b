package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/pkg/config"
	"garden-graph/backend/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := Options{}
	var outPath, env string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render a page's graph to SVG",
		Long: "snapshot loads a page from a running garden server, binds the graph the\n" +
			"way a browser would, lets the layout settle and writes the result as SVG.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(env); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()
			log := logger.Get()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.Graph = cfg.Graph
			if opts.Server == "" {
				opts.Server = cfg.Origin
			}

			out := cmd.OutOrStdout()
			if outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}

			res, err := Snapshot(cmd.Context(), opts, out, log)
			if err != nil {
				return err
			}
			log.Info("Snapshot written",
				zap.String("out", outPath),
				zap.Int("nodes", res.Nodes),
				zap.Int("links", res.Links),
				zap.Int("ticks", res.Ticks),
				zap.Bool("settled", res.Settled),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Server, "server", "", "Server origin (defaults to SITE_ORIGIN)")
	flags.StringVar(&opts.Path, "path", "/", "Page to load")
	flags.StringVar(&opts.Container, "container", constants.GraphContainerID, "Graph container id")
	flags.StringVarP(&outPath, "out", "o", "graph.svg", "Output file, - for stdout")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Give up after this long")
	flags.DurationVar(&opts.Frame, "frame", time.Millisecond, "Layout frame interval")
	flags.Float64Var(&opts.Width, "width", 0, "Viewport width (defaults to VIEWPORT_WIDTH)")
	flags.Float64Var(&opts.Height, "height", 0, "Viewport height (defaults to VIEWPORT_HEIGHT)")
	flags.StringVar(&env, "env", "development", "Logger environment")
	return cmd
}
