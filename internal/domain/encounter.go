package domain

// ──────────────────────────────────────────────────────────────────────────────
// Encounter archetypes
// ──────────────────────────────────────────────────────────────────────────────

// EncounterType identifies one of the eleven travel encounter archetypes.
type EncounterType string

const (
	EncounterPirate     EncounterType = "pirate"
	EncounterAccident   EncounterType = "accident"
	EncounterDerelict   EncounterType = "derelict"
	EncounterFuelBreach EncounterType = "fuel_breach"
	EncounterMutiny     EncounterType = "mutiny"
	EncounterCargoTax   EncounterType = "cargo_tax"
	EncounterStructural EncounterType = "structural"
	EncounterVisaAudit  EncounterType = "visa_audit"
	EncounterScamCustoms EncounterType = "scam_customs"
	EncounterGuildFee   EncounterType = "guild_fee"
	EncounterRustRats   EncounterType = "rust_rats"
)

// EncounterTypes is the uniform selection pool.
var EncounterTypes = []EncounterType{
	EncounterPirate,
	EncounterAccident,
	EncounterDerelict,
	EncounterFuelBreach,
	EncounterMutiny,
	EncounterCargoTax,
	EncounterStructural,
	EncounterVisaAudit,
	EncounterScamCustoms,
	EncounterGuildFee,
	EncounterRustRats,
}

// Decision is the player's one-shot choice for a pending encounter.
type Decision string

const (
	DecisionPay    Decision = "pay"
	DecisionFight  Decision = "fight"
	DecisionIgnore Decision = "ignore"
	DecisionCheck  Decision = "check"
	DecisionLeave  Decision = "leave"
)

// Encounter is a proposed travel event awaiting a single player decision.
type Encounter struct {
	Type         EncounterType `json:"type"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	DemandAmount int64         `json:"demand_amount,omitempty"` // settlement price, if any
	RiskDamage   int           `json:"-"`                       // hull damage on refusal
	Decisions    []Decision    `json:"decisions"`
}

// Allows reports whether the decision is in this encounter's decision set.
func (e *Encounter) Allows(d Decision) bool {
	for _, allowed := range e.Decisions {
		if allowed == d {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────────────────────────────────
// Suspended jump context
// ──────────────────────────────────────────────────────────────────────────────

// PendingJump is the first-class suspended context of a travel action that was
// interrupted by an encounter. It carries the partially-mutated state clone
// and the accumulated report; resolution applies the decision to this context
// and finalizes the jump. The engine never abandons a pending jump.
type PendingJump struct {
	State     *GameState   `json:"state"`
	Report    *DailyReport `json:"report"`
	DestIndex int          `json:"dest_index"`
	Mining    bool         `json:"mining"`
	Overload  bool         `json:"overload"`
	Insured   bool         `json:"insured"`
	Encounter *Encounter   `json:"encounter"`
}
