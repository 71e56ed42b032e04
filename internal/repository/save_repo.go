package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/orbitfall/tradeempire/internal/domain"
)

// SaveRepository persists game snapshots, one per pilot.
type SaveRepository struct {
	db *sqlx.DB
}

// NewSaveRepository creates a new SaveRepository.
func NewSaveRepository(db *sqlx.DB) *SaveRepository {
	return &SaveRepository{db: db}
}

// Upsert writes a pilot's save, replacing any previous one.
func (r *SaveRepository) Upsert(ctx context.Context, s *domain.GameSave) error {
	query := `
		INSERT INTO game_saves (pilot_id, session_id, day, phase, net_worth, state, saved_at)
		VALUES (:pilot_id, :session_id, :day, :phase, :net_worth, :state, :saved_at)
		ON CONFLICT(pilot_id) DO UPDATE SET
			session_id = excluded.session_id,
			day        = excluded.day,
			phase      = excluded.phase,
			net_worth  = excluded.net_worth,
			state      = excluded.state,
			saved_at   = excluded.saved_at`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("save_repo.Upsert: %w", err)
	}
	return nil
}

// GetByPilot fetches a pilot's stored save.
func (r *SaveRepository) GetByPilot(ctx context.Context, pilotID uuid.UUID) (*domain.GameSave, error) {
	var s domain.GameSave
	err := r.db.GetContext(ctx, &s, `SELECT * FROM game_saves WHERE pilot_id = ?`, pilotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSaveNotFound
		}
		return nil, fmt.Errorf("save_repo.GetByPilot: %w", err)
	}
	return &s, nil
}

// Delete removes a pilot's save.
func (r *SaveRepository) Delete(ctx context.Context, pilotID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM game_saves WHERE pilot_id = ?`, pilotID); err != nil {
		return fmt.Errorf("save_repo.Delete: %w", err)
	}
	return nil
}

// List returns save metadata for the back-office dashboard, newest first.
// The state blob is omitted.
func (r *SaveRepository) List(ctx context.Context, limit, offset int) ([]*domain.GameSave, int, error) {
	var saves []*domain.GameSave
	var total int

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM game_saves`); err != nil {
		return nil, 0, fmt.Errorf("save_repo.List count: %w", err)
	}
	if err := r.db.SelectContext(ctx, &saves, `
		SELECT pilot_id, session_id, day, phase, net_worth, x'' AS state, saved_at
		FROM game_saves ORDER BY saved_at DESC LIMIT ? OFFSET ?`, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("save_repo.List select: %w", err)
	}
	return saves, total, nil
}
