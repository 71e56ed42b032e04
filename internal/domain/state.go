package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Cargo & warehouse
// ──────────────────────────────────────────────────────────────────────────────

// CargoItem is one commodity line held aboard the ship. The entry is removed
// when quantity reaches zero.
type CargoItem struct {
	Quantity    int   `json:"quantity"`
	AverageCost int64 `json:"average_cost"` // weighted mean acquisition price, floored
}

// WarehouseItem is a shipment stored at (or in transit to) a remote venue.
type WarehouseItem struct {
	Quantity         int   `json:"quantity"`
	OriginalAvgCost  int64 `json:"original_avg_cost"`
	ArrivalDay       int   `json:"arrival_day"`        // claimable from this day on
	ContractReserved bool  `json:"contract_reserved"`  // staged for contract settlement
}

// Arrived reports whether the shipment is claimable on the given day.
func (w *WarehouseItem) Arrived(day int) bool {
	return day >= w.ArrivalDay
}

// ──────────────────────────────────────────────────────────────────────────────
// Stats, log, misc
// ──────────────────────────────────────────────────────────────────────────────

// Stats holds running records shown on the endgame screen.
type Stats struct {
	LargestSingleWin  int64 `json:"largest_single_win"`
	LargestSingleLoss int64 `json:"largest_single_loss"`
}

// MessageKind classifies log entries for presentation.
type MessageKind string

const (
	MsgInfo   MessageKind = "info"
	MsgProfit MessageKind = "profit"
	MsgLoss   MessageKind = "loss"
	MsgDanger MessageKind = "danger"
)

// LogMessage is one entry of the in-game comms log.
type LogMessage struct {
	Day  int         `json:"day"`
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// messageLogCap bounds the comms log to the most recent entries.
const messageLogCap = 50

// ──────────────────────────────────────────────────────────────────────────────
// GameState — the root aggregate
// ──────────────────────────────────────────────────────────────────────────────

// GameState is the single mutable aggregate of one play-through. It is owned
// exclusively by the engine; callers only ever see deep-copied snapshots.
type GameState struct {
	ID      uuid.UUID `json:"id"`
	PilotID uuid.UUID `json:"pilot_id"`

	Day        int   `json:"day"`
	Cash       int64 `json:"cash"` // may go negative (overdraft)
	VenueIndex int   `json:"venue_index"`
	Phase      int   `json:"phase"` // 1–4; 4 is open-ended overtime
	GameOver   bool  `json:"game_over"`
	EndReason  string `json:"end_reason,omitempty"`

	Cargo         map[string]*CargoItem         `json:"cargo"`
	Warehouse     map[int]map[string]*WarehouseItem `json:"warehouse"`
	CargoWeight   float64                       `json:"cargo_weight"` // cached tonnage
	CargoCapacity int                           `json:"cargo_capacity"`

	Markets []Market `json:"markets"` // indexed by venue

	ShipHealth  int             `json:"ship_health"`
	LaserHealth int             `json:"laser_health"`
	Equipment   map[string]bool `json:"equipment"` // owned equipment ids

	Loans       []*ActiveLoan     `json:"loans"`
	Investments []*BankInvestment `json:"investments"`
	LoanOffers  []*LoanOffer      `json:"loan_offers"`

	ActiveContracts    []*Contract `json:"active_contracts"`
	AvailableContracts []*Contract `json:"available_contracts"`

	LoanTakenToday  bool            `json:"loan_taken_today"`
	TradeBans       map[int]int     `json:"trade_bans"`        // venue → days remaining
	DailyTrades     map[string]int  `json:"daily_trades"`      // "venue_commodity" → count
	FabricatedToday map[string]bool `json:"fabricated_today"`  // recipe key → used
	WarrantLevel    int             `json:"warrant_level"`
	SectorPasses    map[int]bool    `json:"sector_passes"` // destination venue → pass held
	TutorialSeen    map[string]bool `json:"tutorial_seen"`

	Messages []LogMessage `json:"messages"`
	Stats    Stats        `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeKey builds the per-day transaction counter key for the repeat-trade tax.
func TradeKey(venueIdx int, commodity string) string {
	return fmt.Sprintf("%d_%s", venueIdx, commodity)
}

// Log appends a comms-log entry, trimming to the most recent entries.
func (g *GameState) Log(kind MessageKind, format string, args ...any) {
	g.Messages = append(g.Messages, LogMessage{
		Day:  g.Day,
		Kind: kind,
		Text: fmt.Sprintf(format, args...),
	})
	if len(g.Messages) > messageLogCap {
		g.Messages = g.Messages[len(g.Messages)-messageLogCap:]
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Equipment helpers
// ──────────────────────────────────────────────────────────────────────────────

// HasEquipment reports whether the given equipment id is installed.
func (g *GameState) HasEquipment(id string) bool {
	return g.Equipment[id]
}

// TierOf returns the highest installed tier of a category, 0 when none.
func (g *GameState) TierOf(cat *Catalog, category EquipmentCategory) int {
	best := 0
	for _, e := range cat.Equipment {
		if e.Category == category && g.Equipment[e.ID] && e.Tier > best {
			best = e.Tier
		}
	}
	return best
}

// LaserTier returns the installed mining-laser tier. Mining math treats an
// absent laser as tier 1 for cell-cost purposes, but HasLaser gates usage.
func (g *GameState) LaserTier(cat *Catalog) int {
	t := g.TierOf(cat, EquipLaser)
	if t == 0 {
		return 1
	}
	return t
}

// HasLaser reports whether any mining laser is installed.
func (g *GameState) HasLaser(cat *Catalog) bool {
	return g.TierOf(cat, EquipLaser) > 0
}

// ──────────────────────────────────────────────────────────────────────────────
// Cargo mutation — weighted average cost accounting
// ──────────────────────────────────────────────────────────────────────────────

// AddCargo merges qty units acquired at unitPrice into the hold, recomputing
// the weighted average cost (floored) and the cached cargo weight. Mined and
// fabricated goods enter at unitPrice 0.
func (g *GameState) AddCargo(commodity string, qty int, unitPrice int64, unitWeight float64) {
	if qty <= 0 {
		return
	}
	item := g.Cargo[commodity]
	if item == nil {
		item = &CargoItem{}
		g.Cargo[commodity] = item
	}
	oldQty := int64(item.Quantity)
	newQty := oldQty + int64(qty)
	item.AverageCost = (oldQty*item.AverageCost + int64(qty)*unitPrice) / newQty
	item.Quantity += qty
	g.CargoWeight += float64(qty) * unitWeight
}

// RemoveCargo deducts qty units of a commodity, deleting the line at zero and
// adjusting the cached weight. Callers must have validated the quantity.
func (g *GameState) RemoveCargo(commodity string, qty int, unitWeight float64) {
	item := g.Cargo[commodity]
	if item == nil {
		return
	}
	if qty > item.Quantity {
		qty = item.Quantity
	}
	item.Quantity -= qty
	g.CargoWeight -= float64(qty) * unitWeight
	if g.CargoWeight < 0 {
		g.CargoWeight = 0
	}
	if item.Quantity <= 0 {
		delete(g.Cargo, commodity)
	}
}

// CargoQty returns the held quantity of a commodity.
func (g *GameState) CargoQty(commodity string) int {
	if item := g.Cargo[commodity]; item != nil {
		return item.Quantity
	}
	return 0
}

// WarehouseAt returns (creating on demand) the warehouse map for a venue.
func (g *GameState) WarehouseAt(venueIdx int) map[string]*WarehouseItem {
	if g.Warehouse[venueIdx] == nil {
		g.Warehouse[venueIdx] = make(map[string]*WarehouseItem)
	}
	return g.Warehouse[venueIdx]
}

// ──────────────────────────────────────────────────────────────────────────────
// Valuation
// ──────────────────────────────────────────────────────────────────────────────

// CargoValue prices the hold at the given market's current prices.
func (g *GameState) CargoValue(market Market) int64 {
	var total int64
	for name, item := range g.Cargo {
		if mi, ok := market[name]; ok {
			total += int64(item.Quantity) * mi.Price
		}
	}
	return total
}

// TotalDebt sums the current debt across all active loans.
func (g *GameState) TotalDebt() int64 {
	var total int64
	for _, l := range g.Loans {
		total += l.CurrentDebt
	}
	return total
}

// TotalInvested sums term-deposit principals (not maturity values).
func (g *GameState) TotalInvested() int64 {
	var total int64
	for _, inv := range g.Investments {
		total += inv.Amount
	}
	return total
}

// NetWorth is cash + cargo at current local prices + deposit principal −
// outstanding loan debt.
func (g *GameState) NetWorth() int64 {
	return g.Cash + g.CargoValue(g.Markets[g.VenueIndex]) + g.TotalInvested() - g.TotalDebt()
}

// ──────────────────────────────────────────────────────────────────────────────
// Deep copy
// ──────────────────────────────────────────────────────────────────────────────

// Clone returns a deep copy of the state. Snapshots handed to callers and the
// carried-forward state of a suspended jump are always clones.
func (g *GameState) Clone() *GameState {
	c := *g

	c.Cargo = make(map[string]*CargoItem, len(g.Cargo))
	for k, v := range g.Cargo {
		cv := *v
		c.Cargo[k] = &cv
	}

	c.Warehouse = make(map[int]map[string]*WarehouseItem, len(g.Warehouse))
	for venue, wm := range g.Warehouse {
		inner := make(map[string]*WarehouseItem, len(wm))
		for k, v := range wm {
			cv := *v
			inner[k] = &cv
		}
		c.Warehouse[venue] = inner
	}

	c.Markets = make([]Market, len(g.Markets))
	for i, m := range g.Markets {
		cm := make(Market, len(m))
		for k, v := range m {
			cv := *v
			cm[k] = &cv
		}
		c.Markets[i] = cm
	}

	c.Equipment = cloneBoolMap(g.Equipment)
	c.FabricatedToday = cloneBoolMap(g.FabricatedToday)
	c.SectorPasses = cloneIntBoolMap(g.SectorPasses)
	c.TutorialSeen = cloneBoolMap(g.TutorialSeen)

	c.TradeBans = make(map[int]int, len(g.TradeBans))
	for k, v := range g.TradeBans {
		c.TradeBans[k] = v
	}
	c.DailyTrades = make(map[string]int, len(g.DailyTrades))
	for k, v := range g.DailyTrades {
		c.DailyTrades[k] = v
	}

	c.Loans = make([]*ActiveLoan, len(g.Loans))
	for i, l := range g.Loans {
		cl := *l
		c.Loans[i] = &cl
	}
	c.Investments = make([]*BankInvestment, len(g.Investments))
	for i, inv := range g.Investments {
		ci := *inv
		c.Investments[i] = &ci
	}
	c.LoanOffers = make([]*LoanOffer, len(g.LoanOffers))
	for i, o := range g.LoanOffers {
		co := *o
		c.LoanOffers[i] = &co
	}

	c.ActiveContracts = cloneContracts(g.ActiveContracts)
	c.AvailableContracts = cloneContracts(g.AvailableContracts)

	c.Messages = make([]LogMessage, len(g.Messages))
	copy(c.Messages, g.Messages)

	return &c
}

func cloneBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneIntBoolMap(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneContracts(in []*Contract) []*Contract {
	out := make([]*Contract, len(in))
	for i, ct := range in {
		c := *ct
		out[i] = &c
	}
	return out
}
