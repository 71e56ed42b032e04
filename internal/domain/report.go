package domain

import "fmt"

// DailyReport accumulates everything that happened during one day advance —
// the jump, the encounter outcome, the overnight tick — for presentation as a
// single morning briefing.
type DailyReport struct {
	Events           []string       `json:"events"`
	FlavorMessage    string         `json:"flavor_message,omitempty"`
	HullDamage       int            `json:"hull_damage"`
	LaserDamage      int            `json:"laser_damage"`
	FuelUsed         int            `json:"fuel_used"`
	LostItems        map[string]int `json:"lost_items"`
	GainedItems      map[string]int `json:"gained_items"`
	InsurancePremium int64          `json:"insurance_premium"`
	InsurancePayout  int64          `json:"insurance_payout"`
}

// NewDailyReport returns an empty report ready to accumulate events.
func NewDailyReport() *DailyReport {
	return &DailyReport{
		LostItems:   make(map[string]int),
		GainedItems: make(map[string]int),
	}
}

// Add appends one event line to the report.
func (r *DailyReport) Add(format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}

// Lost records cargo stripped or seized during the day.
func (r *DailyReport) Lost(commodity string, qty int) {
	if qty > 0 {
		r.LostItems[commodity] += qty
	}
}

// Gained records cargo salvaged, mined, or otherwise acquired.
func (r *DailyReport) Gained(commodity string, qty int) {
	if qty > 0 {
		r.GainedItems[commodity] += qty
	}
}
