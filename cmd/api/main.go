package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/estatemap/internal/adapters/http"
	natsadapter "github.com/samirrijal/estatemap/internal/adapters/nats"
	"github.com/samirrijal/estatemap/internal/adapters/postgres"
	"github.com/samirrijal/estatemap/internal/adapters/searchapi"
	"github.com/samirrijal/estatemap/internal/adapters/valkey"
	"github.com/samirrijal/estatemap/internal/core/ports"
	"github.com/samirrijal/estatemap/internal/core/usecases"
	"github.com/samirrijal/estatemap/internal/pkg/config"
	"github.com/samirrijal/estatemap/internal/pkg/logging"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
	"github.com/samirrijal/estatemap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("estatemap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(logging.FromEnv("estatemap-api", "json"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Valkey holds the record cache, so it is required.
	cache, err := valkey.New(ctx, valkey.Options{
		Addr:     cfg.Valkey.Addr,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
		Prefix:   cfg.Valkey.Prefix,
	})
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()
	records := valkey.NewRecordCache(cache)

	// NATS; selections still work without it, async reports do not.
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	searchClient := searchapi.New(searchapi.Config{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
		Timeout: cfg.Search.TimeoutDuration(),
	})

	// Repos
	regionRepo := postgres.NewRegionRepo(db)
	selectionRepo := postgres.NewSelectionRepo(db)

	// Use cases
	searchSvc := usecases.NewSearchService(searchClient, records)
	deps := &http.Dependencies{
		Viewport:    usecases.NewViewportService(regionRepo, cache),
		Search:      searchSvc,
		Analytics:   usecases.NewAnalyticsService(searchSvc),
		Evaluations: usecases.NewEvaluationService(selectionRepo, records, publisher),
		Reports:     usecases.NewReportService(selectionRepo, records, publisher),
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	// Pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    2 * 1024 * 1024, // drawn polygons can be large
		AppName:      "EstateMap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Location, Link, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
