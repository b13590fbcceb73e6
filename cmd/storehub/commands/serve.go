/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/suparena/storehub"
	"github.com/suparena/storehub/config"
	"github.com/suparena/storehub/datastore/persist"
	"github.com/suparena/storehub/internal/logger"
	promrecorder "github.com/suparena/storehub/metrics/prometheus"
	"github.com/suparena/storehub/registry"
	"github.com/suparena/storehub/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the storehub HTTP API.

Examples:
  # Defaults: memory persistence on :8080
  storehub serve

  # Custom config file
  storehub serve --config /etc/storehub/storehub.yaml

  # Environment overrides
  STOREHUB_LOGGING_LEVEL=DEBUG STOREHUB_PERSISTENCE_BACKEND=file \
  STOREHUB_PERSISTENCE_FILE_DIR=/var/lib/storehub storehub serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter, err := persist.New(ctx, cfg.Persistence)
	if err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	if adapter != nil {
		defer func() {
			if err := adapter.Close(); err != nil {
				logger.Error("Persistence adapter close failed", logger.Err(err))
			}
		}()
	}
	logger.Info("Persistence configured", logger.Backend(cfg.Persistence.Backend))

	opts := []storehub.Option{
		storehub.WithCatalog(registry.Default()),
		storehub.WithAdapter(adapter),
		storehub.WithStoreSettings(storehub.StoreSettings{
			Autosave:         cfg.Store.Autosave,
			AutosaveInterval: cfg.Store.AutosaveInterval,
			ThrottledSaves:   cfg.Store.ThrottledSaves,
			Env:              cfg.Store.Env,
		}),
	}

	routerOpts := server.RouterOptions{MaxBodyBytes: cfg.Server.MaxBodyBytes}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, storehub.WithMetrics(promrecorder.New(reg)))
		routerOpts.Gatherer = reg
		routerOpts.MetricsPath = cfg.Metrics.Path
		logger.Info("Metrics enabled", "path", cfg.Metrics.Path)
	}

	hub := storehub.New(opts...)
	defer func() {
		// ctx is cancelled by now; closing saves through the adapter
		reports, err := hub.Shutdown(context.Background())
		if err != nil {
			logger.Error("Store shutdown finished with errors", logger.Err(err))
		}
		logger.Info("Store instances closed", logger.Count(len(reports)))
	}()

	for _, inst := range cfg.Preload {
		key := storehub.Key{Service: inst.Service, Path: inst.Path}
		if _, err := hub.Resolve(ctx, key); err != nil {
			return fmt.Errorf("failed to preload %s: %w", key, err)
		}
	}

	srv := server.New(hub, server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Router:       routerOpts,
	})
	logger.Info("Server is running. Press Ctrl+C to stop.",
		"initializers", registry.Default().Identities())
	return srv.Start(ctx, cfg.Server.ShutdownTimeout)
}
