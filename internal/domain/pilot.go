package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// PilotRole
// ──────────────────────────────────────────────────────────────────────────────

// PilotRole controls access levels in the back-office.
type PilotRole string

const (
	RolePilot    PilotRole = "pilot"    // standard player
	RoleAdmin    PilotRole = "admin"    // full back-office access
	RoleReadOnly PilotRole = "readonly" // read-only back-office access
)

// CanAccessBackoffice returns true for all non-player roles.
func (r PilotRole) CanAccessBackoffice() bool {
	return r != RolePilot
}

// IsAdmin returns true only for the full admin role.
func (r PilotRole) IsAdmin() bool {
	return r == RoleAdmin
}

// ──────────────────────────────────────────────────────────────────────────────
// Pilot
// ──────────────────────────────────────────────────────────────────────────────

// Pilot is the domain entity for registered player accounts. Each pilot holds
// at most one live game save at a time.
type Pilot struct {
	ID           uuid.UUID `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	Callsign     string    `json:"callsign"   db:"callsign"`
	PasswordHash string    `json:"-"          db:"password_hash"` // never serialised
	Role         PilotRole `json:"role"       db:"role"`
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PublicProfile returns a pilot view safe to expose via API (no password hash).
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Callsign  string    `json:"callsign"`
	Role      PilotRole `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublicProfile converts a Pilot to its public-safe representation.
func (p *Pilot) ToPublicProfile() PublicProfile {
	return PublicProfile{
		ID:        p.ID,
		Email:     p.Email,
		Callsign:  p.Callsign,
		Role:      p.Role,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// HighScore
// ──────────────────────────────────────────────────────────────────────────────

// HighScore is one leaderboard entry. Entries submitted while the score store
// is unreachable are served from the catalog's fallback legends instead.
type HighScore struct {
	ID       uuid.UUID `json:"id"       db:"id"`
	PilotID  *uuid.UUID `json:"pilot_id,omitempty" db:"pilot_id"` // NULL for fallback legends
	Name     string    `json:"name"     db:"name"`
	NetWorth int64     `json:"net_worth" db:"net_worth"`
	Days     int       `json:"days"     db:"days"`
	SetAt    time.Time `json:"set_at"   db:"set_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// GameSave
// ──────────────────────────────────────────────────────────────────────────────

// GameSave is the persisted snapshot row; the state itself is a JSON blob.
type GameSave struct {
	PilotID   uuid.UUID `json:"pilot_id"   db:"pilot_id"`
	SessionID uuid.UUID `json:"session_id" db:"session_id"`
	Day       int       `json:"day"        db:"day"`
	Phase     int       `json:"phase"      db:"phase"`
	NetWorth  int64     `json:"net_worth"  db:"net_worth"`
	State     []byte    `json:"-"          db:"state"` // JSON-encoded GameState
	SavedAt   time.Time `json:"saved_at"   db:"saved_at"`
}
