package ports

import (
	"context"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// RegionRepository persists neighborhood and city boundaries.
type RegionRepository interface {
	UpsertBatch(ctx context.Context, regions []domain.Region) error
	// GetByIDs returns regions of the given kind with their rings.
	GetByIDs(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error)
	// ListByKind returns regions without rings, optionally limited to a city.
	ListByKind(ctx context.Context, kind domain.RegionKind, cityID string) ([]domain.Region, error)
	// AllCities returns every city with its rings.
	AllCities(ctx context.Context) ([]domain.Region, error)
}

// SelectionRepository persists evaluation sessions.
type SelectionRepository interface {
	Create(ctx context.Context, sel *domain.Selection) error
	Get(ctx context.Context, sessionID string) (*domain.Selection, error)
	// Save stores sel if the stored version still equals sel.Version and
	// then bumps sel.Version. A stale version yields domain.ErrConflict.
	Save(ctx context.Context, sel *domain.Selection) error
}
