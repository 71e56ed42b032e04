package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// ScoreService
// ──────────────────────────────────────────────────────────────────────────────

// ScoreStore persists leaderboard entries. Implemented by repository.ScoreRepo.
type ScoreStore interface {
	Insert(ctx context.Context, score *domain.HighScore) error
	Top(ctx context.Context, limit int) ([]*domain.HighScore, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// ScoreService manages the hall of fame. When the store is empty or
// unreachable the board is padded with the catalog's legendary traders so new
// installs always have someone to beat.
type ScoreService struct {
	cat   *domain.Catalog
	store ScoreStore
}

// NewScoreService constructs a ScoreService.
func NewScoreService(cat *domain.Catalog, store ScoreStore) *ScoreService {
	return &ScoreService{cat: cat, store: store}
}

// Submit books a finished run onto the leaderboard.
func (sc *ScoreService) Submit(ctx context.Context, pilotID *uuid.UUID, name string, netWorth int64, days int) error {
	score := &domain.HighScore{
		ID:       uuid.New(),
		PilotID:  pilotID,
		Name:     name,
		NetWorth: netWorth,
		Days:     days,
		SetAt:    time.Now(),
	}
	if err := sc.store.Insert(ctx, score); err != nil {
		return fmt.Errorf("score_service.Submit: %w", err)
	}
	return nil
}

// Top returns the best runs, padded with fallback legends when the board is
// short. Store failures degrade to a purely legendary board rather than an
// error — the leaderboard must never block the game.
func (sc *ScoreService) Top(ctx context.Context, limit int) []*domain.HighScore {
	if limit <= 0 {
		limit = 10
	}

	var scores []*domain.HighScore
	if sc.store != nil {
		if got, err := sc.store.Top(ctx, limit); err == nil {
			scores = got
		}
	}

	for i := 0; len(scores) < limit && i < len(sc.cat.FallbackLegends); i++ {
		scores = append(scores, &domain.HighScore{
			ID:       uuid.New(),
			Name:     sc.cat.FallbackLegends[i],
			NetWorth: int64(1000000 / (i + 1)),
			Days:     90,
			SetAt:    time.Time{},
		})
	}
	return scores
}

// Remove deletes a leaderboard entry. Back-office only.
func (sc *ScoreService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := sc.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("score_service.Remove: %w", err)
	}
	return nil
}
