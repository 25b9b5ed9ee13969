package http

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

var errNotConfigured = errors.New("not configured")

// dependencyCheck probes one backing service. Optional checks are reported
// but never make the api unready.
type dependencyCheck struct {
	name     string
	optional bool
	probe    func(ctx context.Context) error
}

type checkResult struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Optional  bool    `json:"optional,omitempty"`
}

func dependencyChecks(deps *Dependencies) []dependencyCheck {
	return []dependencyCheck{
		{name: "database", probe: func(ctx context.Context) error {
			if deps.DB == nil {
				return errNotConfigured
			}
			return deps.DB.Pool.Ping(ctx)
		}},
		{name: "cache", probe: func(ctx context.Context) error {
			if deps.Cache == nil {
				return errNotConfigured
			}
			return deps.Cache.Ping(ctx)
		}},
		// Only async reports and the event relay need the broker.
		{name: "nats", optional: true, probe: func(ctx context.Context) error {
			if deps.NATS == nil {
				return errNotConfigured
			}
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}},
	}
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// HealthHandler is the liveness probe.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := buildVersion()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

// ReadyHandler probes the database, the cache and the broker in parallel.
// The search API is not probed; its failures surface as 502 on search routes.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := dependencyChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]checkResult, len(checks))
		ready := true
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, chk := range checks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				err := chk.probe(ctx)
				res := checkResult{
					Status:    "ok",
					LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
					Optional:  chk.optional,
				}
				if err != nil {
					res.Status = err.Error()
				}

				mu.Lock()
				defer mu.Unlock()
				results[chk.name] = res
				if err != nil && !chk.optional {
					ready = false
				}
			}()
		}
		wg.Wait()

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": results})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
