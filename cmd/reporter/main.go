package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	enums "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/estatemap/internal/adapters/nats"
	"github.com/samirrijal/estatemap/internal/adapters/postgres"
	"github.com/samirrijal/estatemap/internal/adapters/valkey"
	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/ports"
	"github.com/samirrijal/estatemap/internal/core/usecases"
	"github.com/samirrijal/estatemap/internal/pkg/config"
	"github.com/samirrijal/estatemap/internal/pkg/logging"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
	"github.com/samirrijal/estatemap/internal/workflows"
)

// The reporter consumes report requests from NATS, runs one Temporal
// workflow per request and hosts the worker executing it.
func main() {
	cfg, err := config.Load("estatemap-reporter")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(logging.FromEnv("estatemap-reporter", "json"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 8)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

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

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	// Connect to Temporal
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer tc.Close()

	reports := usecases.NewReportService(
		postgres.NewSelectionRepo(db),
		valkey.NewRecordCache(cache),
		pub,
	)

	w := worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ReportWorkflow)
	w.RegisterActivity(&workflows.ReportActivities{Reports: reports})

	if err := startReports(ctx, sub, tc, cfg.Temporal.TaskQueue); err != nil {
		log.Fatalf("subscribe report requests: %v", err)
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

	metricsApp := metricsServer()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Reporter.MetricsPort)
		slog.Info("metrics listener starting", "addr", addr)
		if err := metricsApp.Listen(addr); err != nil {
			log.Fatalf("metrics listen: %v", err)
		}
	}()
	defer metricsApp.Shutdown()

	slog.Info("reporter worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// startReports turns every report request into a workflow run. A request
// redelivered after its run started is acknowledged without a second run.
func startReports(ctx context.Context, sub ports.EventSubscriber, tc client.Client, taskQueue string) error {
	return sub.SubscribeReportRequests(ctx, func(ctx context.Context, req domain.ReportRequest) error {
		input := workflows.ReportInput{
			SessionID:   req.SessionID,
			AreaType:    req.AreaType,
			RequestedAt: req.RequestedAt,
		}
		run, err := tc.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:                    input.WorkflowID(),
			TaskQueue:             taskQueue,
			WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		}, workflows.ReportWorkflow, input)
		if err != nil {
			var started *serviceerror.WorkflowExecutionAlreadyStarted
			if errors.As(err, &started) {
				// redelivery of a request that already has a run
				return nil
			}
			return err
		}
		slog.Info("report workflow started", "session_id", req.SessionID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
		return nil
	})
}

// metricsServer exposes the worker's Prometheus registry, where the async
// report counter and the database pool gauges live.
func metricsServer() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "EstateMap reporter"})
	app.Get("/metrics", metrics.Handler())
	return app
}
