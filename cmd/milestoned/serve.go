package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/milestone-tracker/internal/config"
	"github.com/chepyr/milestone-tracker/internal/db"
	"github.com/chepyr/milestone-tracker/internal/handlers"
	"github.com/chepyr/milestone-tracker/internal/logger"
	"github.com/chepyr/milestone-tracker/internal/service"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tasks and milestones tables",
	RunE:  runMigrate,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	migrateCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// setup loads configuration, builds the logger, and opens the store.
func setup() (*config.Config, *zap.Logger, *sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	dsn, err := cfg.Store.DSN()
	if err != nil {
		return nil, nil, nil, err
	}
	dbConn, err := db.Connect(cfg.Store.Driver, dsn)
	if err != nil {
		log.Error("failed to connect to store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return nil, nil, nil, fmt.Errorf("connect to store: %w", err)
	}
	return cfg, log, dbConn, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, dbConn, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer dbConn.Close()

	if err := db.Migrate(cmd.Context(), dbConn, cfg.Store.Driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema is up to date", zap.String("driver", cfg.Store.Driver))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, dbConn, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer dbConn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, dbConn, cfg.Store.Driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	hub := handlers.NewWSHub(log)
	handler := &handlers.Handler{
		Service:        service.New(db.NewSQLStore(dbConn, nil), hub, log),
		WSHub:          hub,
		RateLimiter:    handlers.NewRateLimiter(5, time.Second),
		Logger:         log,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	defer handler.RateLimiter.Stop()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return startServer(ctx, server, cfg.Server.ShutdownTimeout, log)
}

func startServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, log *zap.Logger) error {
	log.Info("starting server", zap.String("addr", server.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
