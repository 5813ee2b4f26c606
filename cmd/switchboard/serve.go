package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/lightswitch/switchboard/internal/config"
	"github.com/lightswitch/switchboard/internal/hardware"
	"github.com/lightswitch/switchboard/internal/health"
	"github.com/lightswitch/switchboard/internal/metrics"
	"github.com/lightswitch/switchboard/internal/state"
	"github.com/lightswitch/switchboard/internal/ws"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		driver     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the controller",
		Long: `Run the controller: seed the output vector from the hardware, then
serve observers on /ws and the HTTP API on /api.

Examples:
  switchboard serve
  switchboard serve --driver=gpio --port=8080
  switchboard serve --config=/etc/switchboard.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if driver != "" {
				cfg.Hardware.Driver = driver
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVar(&driver, "driver", "", "Hardware driver: gpio or memory (default from config)")

	return cmd
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, closePort, err := hardware.New(cfg.HardwareOptions())
	if err != nil {
		return fmt.Errorf("open hardware: %w", err)
	}
	defer func() {
		if err := closePort(); err != nil {
			log.Printf("close hardware: %v", err)
		}
	}()

	store, err := state.NewStore(ctx, port)
	if err != nil {
		return err
	}
	lines, _ := store.Snapshot()
	log.Printf("Driver %s seeded %s (#%s)", cfg.Hardware.Driver, lines, lines.Hex())

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	broadcaster := ws.NewBroadcaster(store, ws.Options{
		MaxConnections: cfg.Server.MaxConnections,
		SendBuffer:     cfg.WS.SendBuffer,
		WriteTimeout:   cfg.WS.WriteTimeout,
		PingInterval:   cfg.WS.PingInterval,
		ResyncInterval: cfg.WS.ResyncInterval,
		Metrics:        m,
	})
	defer broadcaster.Stop()
	if cfg.WS.ResyncInterval > 0 {
		log.Printf("Periodic resync every %v", cfg.WS.ResyncInterval)
	}

	reconciler := state.NewReconciler(store, broadcaster)
	server := ws.NewServer(cfg, store, reconciler, broadcaster, m, health.NewReporter(time.Now()))

	err = ws.ListenAndServe(ctx, cfg.Addr(), server.Handler())
	log.Println("Shutting down...")
	return err
}
