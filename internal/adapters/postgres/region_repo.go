package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

const upsertRegionSQL = `
	INSERT INTO regions (id, kind, name, city_id, rings, updated_at)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW())
	ON CONFLICT (kind, id) DO UPDATE
	SET name = EXCLUDED.name, city_id = EXCLUDED.city_id,
	    rings = EXCLUDED.rings, updated_at = NOW()
`

// RegionRepo implements ports.RegionRepository with pgx. Rings are stored as
// JSONB arrays of {lat,lng} points.
type RegionRepo struct {
	db *DB
}

// NewRegionRepo creates a new RegionRepo.
func NewRegionRepo(db *DB) *RegionRepo {
	return &RegionRepo{db: db}
}

// UpsertBatch inserts many regions using pgx.Batch.
func (r *RegionRepo) UpsertBatch(ctx context.Context, regions []domain.Region) error {
	batch := &pgx.Batch{}
	for _, region := range regions {
		rings, err := json.Marshal(region.Rings)
		if err != nil {
			return fmt.Errorf("encode rings of %s: %w", region.ID, err)
		}
		batch.Queue(upsertRegionSQL, region.ID, region.Kind, region.Name, region.CityID, rings)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range regions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByIDs returns regions of one kind with their rings, ordered by name.
// Unknown ids are ignored.
func (r *RegionRepo) GetByIDs(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, kind, name, COALESCE(city_id, ''), rings
		FROM regions WHERE kind = $1 AND id = ANY($2)
		ORDER BY name
	`, kind, ids)
	if err != nil {
		return nil, err
	}
	return scanRegions(rows, true)
}

// ListByKind returns regions of one kind without rings, optionally limited
// to a city.
func (r *RegionRepo) ListByKind(ctx context.Context, kind domain.RegionKind, cityID string) ([]domain.Region, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, kind, name, COALESCE(city_id, '')
		FROM regions
		WHERE kind = $1 AND ($2 = '' OR city_id = $2)
		ORDER BY name
	`, kind, cityID)
	if err != nil {
		return nil, err
	}
	return scanRegions(rows, false)
}

// AllCities returns every city with its rings.
func (r *RegionRepo) AllCities(ctx context.Context) ([]domain.Region, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, kind, name, COALESCE(city_id, ''), rings
		FROM regions WHERE kind = $1
		ORDER BY name
	`, domain.RegionCity)
	if err != nil {
		return nil, err
	}
	return scanRegions(rows, true)
}

func scanRegions(rows pgx.Rows, withRings bool) ([]domain.Region, error) {
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var reg domain.Region
		var err error
		if withRings {
			var rings []byte
			err = rows.Scan(&reg.ID, &reg.Kind, &reg.Name, &reg.CityID, &rings)
			if err == nil && len(rings) > 0 {
				err = json.Unmarshal(rings, &reg.Rings)
			}
		} else {
			err = rows.Scan(&reg.ID, &reg.Kind, &reg.Name, &reg.CityID)
		}
		if err != nil {
			return nil, err
		}
		regions = append(regions, reg)
	}
	return regions, rows.Err()
}
