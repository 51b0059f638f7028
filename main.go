package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/userexport/internal/api"
	"github.com/isdelr/userexport/internal/api/handlers"
	"github.com/isdelr/userexport/internal/auth"
	"github.com/isdelr/userexport/internal/config"
	"github.com/isdelr/userexport/internal/database"
	"github.com/isdelr/userexport/internal/export"
	"github.com/isdelr/userexport/internal/logger"
	"github.com/isdelr/userexport/internal/monitoring"
	"github.com/isdelr/userexport/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	catalog, err := export.NewCatalog(cfg.Catalog, database.KnownUserColumns)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid export catalog")
	}

	// Ensure the export directory exists
	if err := os.MkdirAll(cfg.ExportDir, 0700); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ExportDir).Msg("Failed to create export directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Exports read through a separate read-only handle
	replica, err := database.NewReadOnly(cfg.ReplicaPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ReplicaPath).Msg("Failed to open read-only database")
	}
	defer replica.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := export.NewMetrics(registry)

	// Set up services
	userService := services.NewUserService(db, cfg.GroupRights)
	eventService := services.NewEventService(db)
	recordReader := services.NewUserRecordReader(replica)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.SessionLifetime)
	guard := auth.NewGuard(userService, issuer)

	exportHandler := handlers.NewExportHandler(
		catalog,
		guard,
		recordReader,
		export.NewCSVExporter(cfg.ExportDir),
		eventService,
		metrics,
		cfg.ExportFilename,
	)

	// Sweep export files orphaned by a crash
	sweeper, err := monitoring.NewSweeper(cfg.ExportDir, cfg.SweepSchedule, cfg.SweepMaxAge)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up export sweeper")
	}
	sweeper.Start()

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		Issuer:         issuer,
		Guard:          guard,
		UserService:    userService,
		EventService:   eventService,
		Export:         exportHandler,
		Gatherer:       registry,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
