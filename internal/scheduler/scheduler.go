// Package scheduler manages the two background goroutines that keep live
// game sessions healthy:
//  1. autosaveLoop – flushes every in-memory session to the database.
//  2. janitorLoop  – evicts sessions that have been idle past the TTL.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// Scheduler
// ──────────────────────────────────────────────────────────────────────────────

// Scheduler runs the session maintenance goroutines. Call Start(ctx) once from
// main(); cancel the context to shut it down gracefully.
type Scheduler struct {
	gameSvc *service.GameService
	cfg     *config.Config
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(gameSvc *service.GameService, cfg *config.Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		gameSvc: gameSvc,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start launches the background goroutines. It returns immediately; all loops
// run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.autosaveLoop(ctx)
	go s.janitorLoop(ctx)
	s.logger.Info("scheduler started",
		"autosave_interval", s.cfg.Session.AutosaveInterval,
		"idle_ttl", s.cfg.Session.IdleTTL)
}

// ──────────────────────────────────────────────────────────────────────────────
// autosaveLoop
// ──────────────────────────────────────────────────────────────────────────────

// autosaveLoop periodically persists every live session so that a crash loses
// at most one interval of play.
func (s *Scheduler) autosaveLoop(ctx context.Context) {
	defer s.recoverAndLog("autosaveLoop")

	ticker := time.NewTicker(s.cfg.Session.AutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("autosaveLoop: shutting down, flushing sessions")
			// Final flush with a fresh context: the parent is already cancelled.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			s.saveAll(flushCtx)
			cancel()
			return
		case <-ticker.C:
			s.saveAll(ctx)
		}
	}
}

// saveAll is the inner body of autosaveLoop, extracted so the defer/recover in
// the loop catches panics correctly.
func (s *Scheduler) saveAll(ctx context.Context) {
	saved, failed := s.gameSvc.AutosaveAll(ctx)
	if failed > 0 {
		s.logger.Warn("autosave incomplete", "saved", saved, "failed", failed)
	} else if saved > 0 {
		s.logger.Debug("autosave complete", "saved", saved)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// janitorLoop
// ──────────────────────────────────────────────────────────────────────────────

// janitorLoop evicts sessions idle past the configured TTL. Sessions holding a
// suspended jump are never evicted; the pilot still owes a decision.
func (s *Scheduler) janitorLoop(ctx context.Context) {
	defer s.recoverAndLog("janitorLoop")

	ticker := time.NewTicker(s.cfg.Session.IdleTTL / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("janitorLoop: shutting down")
			return
		case <-ticker.C:
			if evicted := s.gameSvc.EvictIdle(ctx, s.cfg.Session.IdleTTL); evicted > 0 {
				s.logger.Info("evicted idle sessions", "count", evicted)
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each goroutine to catch unexpected panics,
// log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
