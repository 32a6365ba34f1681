package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weft-ui/weft/internal/config"
	"github.com/weft-ui/weft/pkg/live"
	"github.com/weft-ui/weft/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		cfgPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live server with the demo application",
		Long: `Start a WebSocket live server mounting the built-in demo
application (a counter and a keyed todo list) for every connection.

Configuration is read from weft.json in the working directory when
present; flags override it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if cfgPath != "" {
				cfg, err = config.LoadFile(cfgPath)
			} else {
				cfg, err = config.Load(".")
			}
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))
			slog.SetDefault(logger)

			liveCfg := live.DefaultConfig()
			liveCfg.Addr = cfg.Server.Addr
			liveCfg.ReadTimeout = cfg.ReadTimeout()
			liveCfg.WriteTimeout = cfg.WriteTimeout()
			liveCfg.PingInterval = cfg.PingInterval()
			liveCfg.EventQueueSize = cfg.Server.EventQueueSize
			liveCfg.FlushCap = cfg.Runtime.FlushCap
			liveCfg.AllowedOrigins = cfg.Server.AllowedOrigins

			opts := []live.ServerOption{live.WithServerLogger(logger)}
			if cfg.Telemetry.Metrics {
				opts = append(opts, live.WithMetrics(
					telemetry.New(telemetry.WithNamespace(cfg.Telemetry.Namespace))))
			}
			if cfg.Telemetry.Tracing {
				opts = append(opts, live.WithTracer(telemetry.NewTracer("")))
			}

			srv := live.NewServer(liveCfg, demoRoot, opts...)

			ctx, stop := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Run() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				return srv.Shutdown(context.Background())
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides weft.json)")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to weft.json")

	return cmd
}
