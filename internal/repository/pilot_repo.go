package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/orbitfall/tradeempire/internal/domain"
)

// PilotRepository handles all database operations for pilot accounts.
type PilotRepository struct {
	db *sqlx.DB
}

// NewPilotRepository creates a new PilotRepository.
func NewPilotRepository(db *sqlx.DB) *PilotRepository {
	return &PilotRepository{db: db}
}

// Create inserts a new pilot row.
func (r *PilotRepository) Create(ctx context.Context, p *domain.Pilot) error {
	query := `
		INSERT INTO pilots (id, email, callsign, password_hash, role, is_active, created_at, updated_at)
		VALUES (:id, :email, :callsign, :password_hash, :role, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		// SQLite reports duplicates as "UNIQUE constraint failed: pilots.<col>"
		if isUniqueViolation(err, "pilots.email") {
			return domain.ErrEmailTaken
		}
		if isUniqueViolation(err, "pilots.callsign") {
			return domain.ErrCallsignTaken
		}
		return fmt.Errorf("pilot_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a pilot by primary key.
func (r *PilotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pilot, error) {
	var p domain.Pilot
	err := r.db.GetContext(ctx, &p, `SELECT * FROM pilots WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPilotNotFound
		}
		return nil, fmt.Errorf("pilot_repo.GetByID: %w", err)
	}
	return &p, nil
}

// GetByEmail fetches a pilot by email address (used for login).
func (r *PilotRepository) GetByEmail(ctx context.Context, email string) (*domain.Pilot, error) {
	var p domain.Pilot
	err := r.db.GetContext(ctx, &p, `SELECT * FROM pilots WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPilotNotFound
		}
		return nil, fmt.Errorf("pilot_repo.GetByEmail: %w", err)
	}
	return &p, nil
}

// GetByCallsign fetches a pilot by callsign.
func (r *PilotRepository) GetByCallsign(ctx context.Context, callsign string) (*domain.Pilot, error) {
	var p domain.Pilot
	err := r.db.GetContext(ctx, &p, `SELECT * FROM pilots WHERE callsign = ?`, callsign)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPilotNotFound
		}
		return nil, fmt.Errorf("pilot_repo.GetByCallsign: %w", err)
	}
	return &p, nil
}

// List returns a paginated list of all pilots.
// Returns (pilots, totalCount, error).
func (r *PilotRepository) List(ctx context.Context, limit, offset int) ([]*domain.Pilot, int, error) {
	var pilots []*domain.Pilot
	var total int

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pilots`); err != nil {
		return nil, 0, fmt.Errorf("pilot_repo.List count: %w", err)
	}
	if err := r.db.SelectContext(ctx, &pilots,
		`SELECT * FROM pilots ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("pilot_repo.List select: %w", err)
	}
	return pilots, total, nil
}

// UpdateRole changes a pilot's role (back-office operation).
func (r *PilotRepository) UpdateRole(ctx context.Context, pilotID uuid.UUID, role domain.PilotRole) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pilots SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC(), pilotID)
	if err != nil {
		return fmt.Errorf("pilot_repo.UpdateRole: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPilotNotFound
	}
	return nil
}

// SetActive activates or deactivates a pilot account.
func (r *PilotRepository) SetActive(ctx context.Context, pilotID uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pilots SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), pilotID)
	if err != nil {
		return fmt.Errorf("pilot_repo.SetActive: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPilotNotFound
	}
	return nil
}

// isUniqueViolation checks whether err is a SQLite unique constraint
// violation on the given column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
