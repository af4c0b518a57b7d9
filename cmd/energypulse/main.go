package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "energypulse/internal/api/http"
	"energypulse/internal/config"
	"energypulse/internal/ingest"
	"energypulse/internal/metrics"
	"energypulse/internal/pipeline"
	"energypulse/internal/quality"
	"energypulse/internal/scheduler"
	"energypulse/internal/store/sqlite"
)

func main() {
	once := flag.Bool("once", false, "run the pipeline once for -location and exit")
	location := flag.String("location", "", "location for -once (defaults to first configured)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration. Unknown locations and bad thresholds fail here,
	// before any store access.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	// Shared HTTP client for outbound weather API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := ingest.NewOpenMeteoClient(httpClient)
	simulator := ingest.NewSimulator(cfg.SimulatorSeed)
	qualityEngine := quality.NewEngine(cfg.Thresholds)
	metricsEngine := metrics.NewEngine()

	pipe := pipeline.New(st, fetcher, simulator, qualityEngine, metricsEngine, cfg.IngestSpan)

	if *once {
		target := *location
		if target == "" {
			target = cfg.Locations[0]
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := pipe.Run(ctx, target); err != nil {
			log.Fatalf("pipeline run failed: %v", err)
		}
		return
	}

	// Scheduler that periodically runs the pipeline per location.
	sched := scheduler.New(cfg.Locations, cfg.RunInterval, pipe)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "energypulse",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "energypulse",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, st, pipe)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
