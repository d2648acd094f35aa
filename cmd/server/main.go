package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cities-server/internal/alliance"
	"cities-server/internal/city"
	"cities-server/internal/middleware"
	"cities-server/internal/power"
	"cities-server/internal/server"
	"cities-server/internal/shared/config"
	"cities-server/internal/shared/database"
	"cities-server/internal/shared/logger"

	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, config.GlobalConfig, database.Connect)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the server fails. Every resource it
// opens is released before it returns.
func run(ctx context.Context, cfg *config.Config, connect func() (*database.DB, error)) error {
	log := slog.With("component", "main")
	log.Info("Starting cities server",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
	)

	db, err := connect()
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(ctx); err != nil {
		log.Error("Failed to run migrations", "error", err)
		return err
	}

	appLogger := slog.Default()

	cityRepo := city.NewRepository(db, appLogger)
	allianceRepo := alliance.NewRepository(db, appLogger)
	cityService := city.NewService(
		db,
		cityRepo,
		allianceRepo,
		alliance.NewValidator(cityRepo, appLogger),
		alliance.NewService(allianceRepo, appLogger),
		power.NewCalculator(appLogger),
		appLogger,
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	go rateLimiter.Run(ctx)

	routes := server.NewRoutes(db, cityService, rateLimiter, cfg, appLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routes.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("Server failed", "error", err)
			return err
		}
	case <-ctx.Done():
		log.Info("Received shutdown signal, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server stopped")
	return nil
}
