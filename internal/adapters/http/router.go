package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/estatemap/internal/pkg/metrics"
	"github.com/samirrijal/estatemap/internal/pkg/telemetry"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())

	// Server span; must follow RequestIDLogMiddleware which replaces the user context
	app.Use(telemetry.Middleware())

	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	// Regions and map viewport
	v1.Get("/regions", with(ListRegionsHandler(deps)))
	v1.Post("/viewport/regions", with(RegionViewportHandler(deps)))
	v1.Post("/viewport/drawing", with(DrawingViewportHandler(deps)))
	v1.Post("/geometry/geojson", with(GeoJSONHandler()))

	// Filters and listing search
	v1.Post("/filters/apply", with(ApplyFiltersHandler()))
	v1.Post("/search", with(SearchHandler(deps)))
	v1.Post("/analytics/market", with(MarketHandler(deps)))

	// Evaluation sessions
	ev := v1.Group("/evaluations")
	ev.Post("/", with(CreateEvaluationHandler(deps)))
	ev.Get("/:id", with(GetEvaluationHandler(deps)))
	ev.Post("/:id/toggle", with(ToggleHandler(deps)))
	ev.Post("/:id/select", with(SelectHandler(deps)))
	ev.Post("/:id/deselect", with(DeselectHandler(deps)))
	ev.Post("/:id/select-within", with(SelectWithinHandler(deps)))
	ev.Delete("/:id/selection", with(ClearSelectionHandler(deps)))
	ev.Get("/:id/summary", with(SummaryHandler(deps)))
	ev.Get("/:id/distribution", with(DistributionHandler(deps)))
	ev.Get("/:id/report", with(ReportHandler(deps)))
	ev.Post("/:id/report", with(RequestReportHandler(deps)))

	app.Post("/graphql", with(GraphQLHandler(deps)))

	SetupDocs(app, APIDocPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
