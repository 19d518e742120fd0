// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/agora-social/agora/internal/app"
	"github.com/agora-social/agora/internal/config"
	"github.com/agora-social/agora/internal/logging"
	"github.com/agora-social/agora/internal/observability"
	"github.com/agora-social/agora/internal/store"
)

const (
	serviceName       = "agora"
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Agora API server",
		Long: `Start the HTTP API. The server connects to PostgreSQL (DATABASE_URL),
applies pending migrations unless --auto-migrate=false, and signs identity
tokens with AGORA_JWT_SECRET.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps runs the API server until a signal arrives, ctx is
// cancelled, or a server fails. If deps is nil, default implementations
// are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.DatabaseFactory == nil {
		deps.DatabaseFactory = defaultDatabaseFactory
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = defaultMigratorFactory
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}

	if err := cfg.Validate(true); err != nil {
		return err
	}

	logger := logging.SetDefault(serviceName, version, cfg.LogOptions())
	logger.Info("starting agora",
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	db, err := deps.DatabaseFactory(ctx, cfg.DatabaseURL, store.ConnectOptions{Attempts: cfg.DBConnectAttempts})
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		migrator, closeMigrator, migrateErr := openMigrator(deps.MigratorFactory, cfg.DatabaseURL)
		if migrateErr != nil {
			return migrateErr
		}
		schemaVersion, migrateErr := applyMigrations(migrator)
		closeMigrator()
		if migrateErr != nil {
			return migrateErr
		}
		logger.Info("database schema ready", "version", schemaVersion)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer := deps.ObservabilityServerFactory(cfg.MetricsAddr, db.Ping)
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("error stopping observability server", "error", stopErr)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	opts := app.OptionsFromConfig(cfg)
	opts.Metrics = metrics
	opts.Logger = logger
	agora, err := app.New(db, opts)
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTPAddr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           agora.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Printf("Agora API listening on %s\n", listener.Addr())
	logger.Info("api server ready", "addr", listener.Addr().String())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case serveErr := <-errChan:
		return oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openMigrator creates a migrator and returns a function that closes it.
func openMigrator(factory func(string) (Migrator, error), databaseURL string) (Migrator, func(), error) {
	migrator, err := factory(databaseURL)
	if err != nil {
		return nil, nil, oops.With("operation", "create migrator").Wrap(err)
	}
	closeFn := func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}
	return migrator, closeFn, nil
}

// applyMigrations brings the schema up to date and returns its version.
func applyMigrations(migrator Migrator) (uint, error) {
	if err := migrator.Up(); err != nil {
		return 0, oops.With("operation", "run migrations").Wrap(err)
	}
	schemaVersion, dirty, err := migrator.Version()
	if err != nil {
		return 0, oops.With("operation", "read schema version").Wrap(err)
	}
	if dirty {
		return schemaVersion, oops.Code("MIGRATION_DIRTY").
			With("version", schemaVersion).
			Errorf("schema version %d is dirty; fix it manually before starting", schemaVersion)
	}
	return schemaVersion, nil
}

// monitorServerErrors cancels ctx when errCh delivers an error. It exits when
// the channel closes or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
