// Package main is the entry point for the handoff controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"handoff/internal/blob"
	"handoff/internal/config"
	"handoff/internal/controller"
	"handoff/internal/controller/handlers"
	"handoff/internal/handoff"
	"handoff/internal/logger"
	"handoff/internal/observability"
	"handoff/internal/store"
	"handoff/internal/store/memory"
	"handoff/internal/store/postgres"
)

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New()
	ctx := context.Background()

	// Setup the job store
	var jobs store.JobStore
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}

		if *migrateFlag {
			log.Println("Running database migrations...")
			if err := postgres.Migrate(pg.DB()); err != nil {
				log.Fatalf("Migration failed: %v", err)
			}
			log.Println("Migrations completed successfully")
		}
		jobs = pg
	case config.DriverMemory:
		log.Println("Using in-memory job store; descriptors do not survive restarts")
		jobs = memory.New()
	}
	defer jobs.Close()

	// Blob store
	blobs, err := blob.NewS3Store(ctx, cfg.Bucket, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to set up blob store: %v", err)
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "handoff-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	metrics, err := observability.NewHandoffMetrics()
	if err != nil {
		log.Printf("Failed to create metrics: %v", err)
	}

	// Pending-job depth, queried only when scraped.
	err = observability.RegisterPendingGauge(func(ctx context.Context) (int64, error) {
		return jobs.CountByStatus(ctx, store.JobStatusPending)
	})
	if err != nil {
		log.Printf("Failed to register pending gauge: %v", err)
	}

	// Services and handlers
	uploads := handoff.NewUploadURLService(blobs, cfg, slogger)
	prepare := handoff.NewPrepareService(jobs, blobs, cfg, slogger)
	fetch := handoff.NewFetchService(jobs, blobs, cfg, slogger)
	report := handoff.NewReportService(jobs, cfg, slogger)
	h := handlers.New(uploads, prepare, fetch, report, jobs, metrics)

	// Start Server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, h, slogger, cfg.RateLimit, cfg.RateLimitBurst, metricsHandler)

	go func() {
		log.Printf("Handoff Controller starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down controller...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
