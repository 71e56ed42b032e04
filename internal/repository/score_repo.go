package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/orbitfall/tradeempire/internal/domain"
)

// ScoreRepository persists the hall-of-fame leaderboard.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Insert books one finished run.
func (r *ScoreRepository) Insert(ctx context.Context, s *domain.HighScore) error {
	query := `
		INSERT INTO high_scores (id, pilot_id, name, net_worth, days, set_at)
		VALUES (:id, :pilot_id, :name, :net_worth, :days, :set_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("score_repo.Insert: %w", err)
	}
	return nil
}

// Top returns the highest net-worth runs.
func (r *ScoreRepository) Top(ctx context.Context, limit int) ([]*domain.HighScore, error) {
	var scores []*domain.HighScore
	err := r.db.SelectContext(ctx, &scores,
		`SELECT * FROM high_scores ORDER BY net_worth DESC, days ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("score_repo.Top: %w", err)
	}
	return scores, nil
}

// DeleteByID removes a leaderboard entry (back-office operation).
func (r *ScoreRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM high_scores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("score_repo.DeleteByID: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("score_repo.DeleteByID: no entry %s", id)
	}
	return nil
}
