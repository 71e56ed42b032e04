package service

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// TradeService
// ──────────────────────────────────────────────────────────────────────────────

// TradeService implements all station-side commerce: market trades, the repair
// dock, the equipment shop, fabrication lines, warrant clearing, and cargo-hold
// expansion. Every method mutates the passed state in place; the session layer
// owns locking and snapshotting.
type TradeService struct {
	cat    *domain.Catalog
	cfg    *config.Config
	rng    *rand.Rand
	market *MarketService
}

// NewTradeService constructs a TradeService.
func NewTradeService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand, market *MarketService) *TradeService {
	return &TradeService{cat: cat, cfg: cfg, rng: rng, market: market}
}

// TradeResult summarises an executed buy or sell.
type TradeResult struct {
	Commodity string `json:"commodity"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Gross     int64  `json:"gross"`
	Tax       int64  `json:"tax"`
	Net       int64  `json:"net"`
	Clamped   bool   `json:"clamped"` // quantity reduced to available stock
}

// ──────────────────────────────────────────────────────────────────────────────
// Buy / Sell
// ──────────────────────────────────────────────────────────────────────────────

// Buy purchases qty units at the current venue. Two situations demand an
// explicit confirmation round-trip: the request exceeding market stock (the
// order would be clamped) and the repeat-trade tax on a second same-day trade
// of the same book. Both are reported as sentinel errors until the caller
// retries with confirmed set.
func (ts *TradeService) Buy(gs *domain.GameState, commodity string, qty int, confirmed bool) (*TradeResult, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cm, ok := ts.cat.FindCommodity(commodity)
	if !ok {
		return nil, ts.cat.UnknownCommodityError(commodity)
	}
	if gs.TradeBans[gs.VenueIndex] > 0 {
		return nil, domain.ErrVenueBanned
	}

	item := gs.Markets[gs.VenueIndex][cm.Name]
	if item == nil || item.Quantity == 0 {
		return nil, domain.ErrMarketSoldOut
	}

	// ── 1. stock clamp ───────────────────────────────────────────────────────
	clamped := false
	if qty > item.Quantity {
		if !confirmed {
			return nil, domain.ErrStockConfirmRequired
		}
		qty = item.Quantity
		clamped = true
	}

	// ── 2. repeat-trade tax ──────────────────────────────────────────────────
	key := domain.TradeKey(gs.VenueIndex, cm.Name)
	gross := int64(qty) * item.Price
	var tax int64
	if gs.DailyTrades[key] >= 1 {
		if !confirmed {
			return nil, domain.ErrTaxConfirmRequired
		}
		tax = taxOn(gross, ts.cfg.Game.TradeTaxRate)
	}

	// ── 3. funds & capacity ──────────────────────────────────────────────────
	total := gross + tax
	if gs.Cash-total < ts.cfg.Game.OverdraftFloor {
		return nil, domain.ErrInsufficientFunds
	}
	if gs.CargoWeight+float64(qty)*cm.UnitWeight > float64(gs.CargoCapacity) {
		return nil, domain.ErrInsufficientCapacity
	}

	// ── 4. execute ───────────────────────────────────────────────────────────
	gs.Cash -= total
	gs.AddCargo(cm.Name, qty, item.Price, cm.UnitWeight)
	item.Quantity -= qty
	ts.market.RepriceByName(gs, gs.VenueIndex, cm.Name)
	gs.DailyTrades[key]++

	gs.Log(domain.MsgInfo, "Bought %d %s at %d cr", qty, cm.Name, item.Price)
	return &TradeResult{
		Commodity: cm.Name,
		Quantity:  qty,
		UnitPrice: item.Price,
		Gross:     gross,
		Tax:       tax,
		Net:       -total,
		Clamped:   clamped,
	}, nil
}

// Sell sells qty units from the hold at the current venue. The repeat-trade
// tax applies symmetrically; selling never needs a stock confirmation.
func (ts *TradeService) Sell(gs *domain.GameState, commodity string, qty int, confirmed bool) (*TradeResult, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cm, ok := ts.cat.FindCommodity(commodity)
	if !ok {
		return nil, ts.cat.UnknownCommodityError(commodity)
	}
	if gs.TradeBans[gs.VenueIndex] > 0 {
		return nil, domain.ErrVenueBanned
	}
	if gs.CargoQty(cm.Name) < qty {
		return nil, domain.ErrInsufficientCargo
	}

	item := gs.Markets[gs.VenueIndex][cm.Name]
	if item == nil {
		return nil, domain.ErrUnknownCommodity
	}

	key := domain.TradeKey(gs.VenueIndex, cm.Name)
	gross := int64(qty) * item.Price
	var tax int64
	if gs.DailyTrades[key] >= 1 {
		if !confirmed {
			return nil, domain.ErrTaxConfirmRequired
		}
		tax = taxOn(gross, ts.cfg.Game.TradeTaxRate)
	}
	net := gross - tax

	gs.Cash += net
	gs.RemoveCargo(cm.Name, qty, cm.UnitWeight)
	item.Quantity += qty
	ts.market.RepriceByName(gs, gs.VenueIndex, cm.Name)
	gs.DailyTrades[key]++

	if net > gs.Stats.LargestSingleWin {
		gs.Stats.LargestSingleWin = net
	}
	gs.Log(domain.MsgProfit, "Sold %d %s for %d cr", qty, cm.Name, net)
	return &TradeResult{
		Commodity: cm.Name,
		Quantity:  qty,
		UnitPrice: item.Price,
		Gross:     gross,
		Tax:       tax,
		Net:       net,
	}, nil
}

// taxOn computes the repeat-trade levy, rounded to whole credits.
func taxOn(gross int64, rate float64) int64 {
	g := decimal.NewFromInt(gross)
	return g.Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
}

// ──────────────────────────────────────────────────────────────────────────────
// Repair dock
// ──────────────────────────────────────────────────────────────────────────────

// RepairTarget selects which system the dock works on.
type RepairTarget string

const (
	RepairHull  RepairTarget = "hull"
	RepairLaser RepairTarget = "laser"
)

// Repair restores a system to its maximum in fixed increments, charging per
// increment started (a 7-point deficit bills a full increment). Hull can be
// reinforced past 100 up to the overbuild ceiling; the laser caps at 100.
func (ts *TradeService) Repair(gs *domain.GameState, target RepairTarget) (int64, error) {
	var missing int
	var perIncrement int64

	switch target {
	case RepairHull:
		missing = ts.cfg.Game.MaxRepairHealth - gs.ShipHealth
		perIncrement = ts.cfg.Game.HullRepairCost
	case RepairLaser:
		if !gs.HasLaser(ts.cat) {
			return 0, domain.ErrLaserRequired
		}
		missing = 100 - gs.LaserHealth
		perIncrement = ts.cfg.Game.LaserRepairCost
	default:
		return 0, domain.ErrInvalidDecision
	}

	if missing <= 0 {
		return 0, domain.ErrNothingToRepair
	}

	increments := int64(math.Ceil(float64(missing) / float64(ts.cfg.Game.RepairIncrement)))
	cost := increments * perIncrement
	if gs.Cash-cost < ts.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}

	gs.Cash -= cost
	switch target {
	case RepairHull:
		gs.ShipHealth = ts.cfg.Game.MaxRepairHealth
	case RepairLaser:
		gs.LaserHealth = 100
	}
	gs.Log(domain.MsgInfo, "Repaired %s for %d cr", target, cost)
	return cost, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Equipment shop
// ──────────────────────────────────────────────────────────────────────────────

// BuyEquipment installs a shop item. Defense gear (shields, cannons) scales
// its sticker price with the game phase; buying a mining laser also resets
// laser integrity to full.
func (ts *TradeService) BuyEquipment(gs *domain.GameState, id string) (int64, error) {
	item, ok := ts.cat.FindEquipment(id)
	if !ok {
		return 0, domain.ErrUnknownEquipment
	}
	if gs.HasEquipment(id) {
		return 0, domain.ErrEquipmentOwned
	}

	cost := item.Cost
	if item.IsDefense() {
		cost *= int64(gs.Phase)
	}
	if gs.Cash-cost < ts.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}

	gs.Cash -= cost
	gs.Equipment[id] = true
	if item.Category == domain.EquipLaser {
		gs.LaserHealth = 100
	}
	gs.Log(domain.MsgInfo, "Installed %s for %d cr", item.Name, cost)
	return cost, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fabrication
// ──────────────────────────────────────────────────────────────────────────────

// Fabricate runs a recipe for the given number of output units. Each recipe
// line may run once per day. Inputs are consumed from the hold; the output
// enters cargo at a zero average cost, the same as mined goods.
func (ts *TradeService) Fabricate(gs *domain.GameState, recipeKey string, units int) (int64, error) {
	if units <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	recipe, ok := ts.cat.FindRecipe(recipeKey)
	if !ok {
		return 0, domain.ErrUnknownRecipe
	}
	if gs.FabricatedToday[recipe.Key] {
		return 0, domain.ErrFabricationUsed
	}

	for _, in := range recipe.Inputs {
		if gs.CargoQty(in.Commodity) < in.Units*units {
			return 0, domain.ErrInsufficientResources
		}
	}

	fee := recipe.FeePerUnit * int64(units)
	if gs.Cash-fee < ts.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}

	outCm, ok := ts.cat.FindCommodity(recipe.Output)
	if !ok {
		return 0, domain.ErrUnknownCommodity
	}

	// Net weight change must still fit the hold.
	inWeight := 0.0
	for _, in := range recipe.Inputs {
		cm, _ := ts.cat.FindCommodity(in.Commodity)
		inWeight += float64(in.Units*units) * cm.UnitWeight
	}
	outWeight := float64(units) * outCm.UnitWeight
	if gs.CargoWeight-inWeight+outWeight > float64(gs.CargoCapacity) {
		return 0, domain.ErrInsufficientCapacity
	}

	gs.Cash -= fee
	for _, in := range recipe.Inputs {
		cm, _ := ts.cat.FindCommodity(in.Commodity)
		gs.RemoveCargo(in.Commodity, in.Units*units, cm.UnitWeight)
	}
	gs.AddCargo(outCm.Name, units, 0, outCm.UnitWeight)
	gs.FabricatedToday[recipe.Key] = true

	gs.Log(domain.MsgInfo, "Fabricated %d %s (fee %d cr)", units, outCm.Name, fee)
	return fee, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Warrants & hold expansion
// ──────────────────────────────────────────────────────────────────────────────

// ClearWarrant pays off every outstanding warrant level at the bounty office.
func (ts *TradeService) ClearWarrant(gs *domain.GameState) (int64, error) {
	if gs.WarrantLevel == 0 {
		return 0, domain.ErrNoWarrant
	}
	fee := int64(gs.WarrantLevel) * ts.cfg.Game.WarrantBountyFee
	if gs.Cash-fee < ts.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}
	gs.Cash -= fee
	gs.WarrantLevel = 0
	gs.Log(domain.MsgInfo, "Warrants cleared for %d cr", fee)
	return fee, nil
}

// ExpandCargo grows the hold by the requested tonnage, clipped to the phase
// ceiling, at a flat per-tonne price.
func (ts *TradeService) ExpandCargo(gs *domain.GameState, tonnes int) (int64, error) {
	if tonnes <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	maxCap := ts.cfg.MaxCargoFor(gs.Phase)
	if gs.CargoCapacity >= maxCap {
		return 0, domain.ErrCapacityMaxed
	}
	if gs.CargoCapacity+tonnes > maxCap {
		tonnes = maxCap - gs.CargoCapacity
	}

	cost := int64(tonnes) * ts.cfg.Game.CargoCostPerTonne
	if gs.Cash-cost < ts.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}

	gs.Cash -= cost
	gs.CargoCapacity += tonnes
	gs.Log(domain.MsgInfo, "Hold expanded by %dt to %dt", tonnes, gs.CargoCapacity)
	return cost, nil
}
