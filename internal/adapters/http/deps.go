package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/estatemap/internal/adapters/postgres"
	"github.com/samirrijal/estatemap/internal/adapters/valkey"
	"github.com/samirrijal/estatemap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Viewport    *usecases.ViewportService
	Search      *usecases.SearchService
	Analytics   *usecases.AnalyticsService
	Evaluations *usecases.EvaluationService
	Reports     *usecases.ReportService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
