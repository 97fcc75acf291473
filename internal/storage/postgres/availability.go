package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/availability"
)

const (
	getOverrideSQL = `SELECT is_open, reason, expires_at FROM store_override WHERE id = 1`

	setOverrideSQL = `INSERT INTO store_override (id, is_open, reason, expires_at, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			is_open    = EXCLUDED.is_open,
			reason     = EXCLUDED.reason,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`

	clearOverrideSQL = `DELETE FROM store_override WHERE id = 1`
)

var _ availability.OverrideStore = (*OverrideRepository)(nil)

// OverrideRepository persists the single operator override row.
type OverrideRepository struct {
	db DBTX
}

// NewOverrideRepository returns an OverrideRepository that uses the given pool.
func NewOverrideRepository(pool *pgxpool.Pool) *OverrideRepository {
	return &OverrideRepository{db: pool}
}

// Get returns the current override, or (nil, nil) when none is set.
func (r *OverrideRepository) Get(ctx context.Context) (*availability.Override, error) {
	var o availability.Override
	err := r.db.QueryRow(ctx, getOverrideSQL).Scan(&o.IsOpen, &o.Reason, &o.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading store override: %w", err)
	}
	return &o, nil
}

// Set stores or replaces the override.
func (r *OverrideRepository) Set(ctx context.Context, o availability.Override) error {
	if _, err := r.db.Exec(ctx, setOverrideSQL, o.IsOpen, o.Reason, o.ExpiresAt); err != nil {
		return fmt.Errorf("storing store override: %w", err)
	}
	return nil
}

// Clear removes the override, restoring schedule-derived availability.
func (r *OverrideRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, clearOverrideSQL); err != nil {
		return fmt.Errorf("clearing store override: %w", err)
	}
	return nil
}
