package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// SelectionRepo implements ports.SelectionRepository with pgx.
type SelectionRepo struct {
	db *DB
}

// NewSelectionRepo creates a new SelectionRepo.
func NewSelectionRepo(db *DB) *SelectionRepo {
	return &SelectionRepo{db: db}
}

// Create inserts a new session.
func (r *SelectionRepo) Create(ctx context.Context, sel *domain.Selection) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO evaluation_sessions (session_id, record_ids, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sel.SessionID, nonNil(sel.IDs), sel.Version, sel.CreatedAt, sel.UpdatedAt)
	return err
}

// Get returns a session or domain.ErrNotFound.
func (r *SelectionRepo) Get(ctx context.Context, sessionID string) (*domain.Selection, error) {
	var sel domain.Selection
	err := r.db.Pool.QueryRow(ctx, `
		SELECT session_id, record_ids, version, created_at, updated_at
		FROM evaluation_sessions WHERE session_id = $1
	`, sessionID).Scan(&sel.SessionID, &sel.IDs, &sel.Version, &sel.CreatedAt, &sel.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sel.IDs = nonNil(sel.IDs)
	return &sel, nil
}

// Save overwrites the selected ids of a session read at sel.Version. When
// another writer got there first the row is left alone and ErrConflict is
// returned.
func (r *SelectionRepo) Save(ctx context.Context, sel *domain.Selection) error {
	var version int64
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE evaluation_sessions
		SET record_ids = $2, updated_at = $3, version = version + 1
		WHERE session_id = $1 AND version = $4
		RETURNING version
	`, sel.SessionID, nonNil(sel.IDs), sel.UpdatedAt, sel.Version).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM evaluation_sessions WHERE session_id = $1)`, sel.SessionID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrConflict
		}
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	sel.Version = version
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
