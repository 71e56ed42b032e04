package service

import (
	"math"
	"math/rand"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// ShippingService
// ──────────────────────────────────────────────────────────────────────────────

// ShippingTier selects the freight speed/price trade-off.
type ShippingTier string

const (
	TierExpress  ShippingTier = "express"  // 1 day
	TierStandard ShippingTier = "standard" // 2 days
	TierFreight  ShippingTier = "freight"  // 3 days
)

// ShippingService moves cargo between venues via third-party haulers and
// manages the remote warehouses: claiming arrived stock, forwarding, and
// contract reservation.
type ShippingService struct {
	cat *domain.Catalog
	cfg *config.Config
	rng *rand.Rand
}

// NewShippingService constructs a ShippingService.
func NewShippingService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand) *ShippingService {
	return &ShippingService{cat: cat, cfg: cfg, rng: rng}
}

// ResolveVenue maps a venue name from the wire to its index. A near-miss gets
// the closest real name attached to the rejection.
func (ss *ShippingService) ResolveVenue(name string) (int, error) {
	idx, ok := ss.cat.FindVenue(name)
	if !ok {
		return 0, ss.cat.UnknownVenueError(name)
	}
	return idx, nil
}

// tierTerms returns (rate per tonne, transit days) for a tier.
func (ss *ShippingService) tierTerms(tier ShippingTier) (int64, int, bool) {
	switch tier {
	case TierExpress:
		return ss.cfg.Game.ExpressRatePerTonne, 1, true
	case TierStandard:
		return ss.cfg.Game.StandardRatePerTonne, 2, true
	case TierFreight:
		return ss.cfg.Game.FreightRatePerTonne, 3, true
	default:
		return 0, 0, false
	}
}

// Quote returns the freight cost for shipping qty units of a commodity at the
// given tier, charged on total tonnage rounded up.
func (ss *ShippingService) Quote(commodity string, qty int, tier ShippingTier) (int64, int, error) {
	cm, ok := ss.cat.FindCommodity(commodity)
	if !ok {
		return 0, 0, ss.cat.UnknownCommodityError(commodity)
	}
	rate, days, ok := ss.tierTerms(tier)
	if !ok {
		return 0, 0, domain.ErrInvalidDecision
	}
	tonnes := int64(math.Ceil(float64(qty) * cm.UnitWeight))
	return tonnes * rate, days, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Shipping
// ──────────────────────────────────────────────────────────────────────────────

// Ship hands qty units from the hold to a hauler bound for the destination
// warehouse. Arrivals merge into any stock already there with a weighted
// original-cost average; the later arrival day wins. Setting reserve stages
// the shipment for contract auto-settlement.
func (ss *ShippingService) Ship(gs *domain.GameState, commodity string, qty, destIdx int, tier ShippingTier, reserve bool) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	if destIdx < 0 || destIdx >= len(ss.cat.Venues) {
		return 0, domain.ErrUnknownVenue
	}
	if destIdx == gs.VenueIndex {
		return 0, domain.ErrSameVenue
	}
	cm, ok := ss.cat.FindCommodity(commodity)
	if !ok {
		return 0, ss.cat.UnknownCommodityError(commodity)
	}
	if gs.CargoQty(cm.Name) < qty {
		return 0, domain.ErrInsufficientCargo
	}

	cost, days, err := ss.Quote(cm.Name, qty, tier)
	if err != nil {
		return 0, err
	}
	if gs.Cash-cost < ss.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}

	avgCost := int64(0)
	if item := gs.Cargo[cm.Name]; item != nil {
		avgCost = item.AverageCost
	}

	gs.Cash -= cost
	gs.RemoveCargo(cm.Name, qty, cm.UnitWeight)
	ss.deposit(gs, destIdx, cm.Name, qty, avgCost, gs.Day+days, reserve)

	gs.Log(domain.MsgInfo, "Shipped %d %s to %s (%s, %d cr, ETA day %d)",
		qty, cm.Name, ss.cat.Venues[destIdx].Name, tier, cost, gs.Day+days)
	return cost, nil
}

// deposit merges a shipment into a destination warehouse line.
func (ss *ShippingService) deposit(gs *domain.GameState, destIdx int, commodity string, qty int, avgCost int64, arrivalDay int, reserve bool) {
	wh := gs.WarehouseAt(destIdx)
	item := wh[commodity]
	if item == nil {
		wh[commodity] = &domain.WarehouseItem{
			Quantity:         qty,
			OriginalAvgCost:  avgCost,
			ArrivalDay:       arrivalDay,
			ContractReserved: reserve,
		}
		return
	}

	oldQty := int64(item.Quantity)
	newQty := oldQty + int64(qty)
	item.OriginalAvgCost = (oldQty*item.OriginalAvgCost + int64(qty)*avgCost) / newQty
	item.Quantity += qty
	if arrivalDay > item.ArrivalDay {
		item.ArrivalDay = arrivalDay
	}
	item.ContractReserved = item.ContractReserved || reserve
}

// ──────────────────────────────────────────────────────────────────────────────
// Warehouse operations (at the current venue)
// ──────────────────────────────────────────────────────────────────────────────

// Claim moves arrived warehouse stock at the current venue into the hold.
// Reserved stock belongs to a contract and cannot be claimed.
func (ss *ShippingService) Claim(gs *domain.GameState, commodity string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	cm, ok := ss.cat.FindCommodity(commodity)
	if !ok {
		return ss.cat.UnknownCommodityError(commodity)
	}

	wh := gs.WarehouseAt(gs.VenueIndex)
	item := wh[cm.Name]
	if item == nil {
		return domain.ErrShipmentNotFound
	}
	if !item.Arrived(gs.Day) {
		return domain.ErrShipmentNotArrived
	}
	if item.ContractReserved {
		return domain.ErrShipmentReserved
	}
	if item.Quantity < qty {
		return domain.ErrInsufficientCargo
	}
	if gs.CargoWeight+float64(qty)*cm.UnitWeight > float64(gs.CargoCapacity) {
		return domain.ErrInsufficientCapacity
	}

	item.Quantity -= qty
	if item.Quantity == 0 {
		delete(wh, cm.Name)
	}
	gs.AddCargo(cm.Name, qty, item.OriginalAvgCost, cm.UnitWeight)
	gs.Log(domain.MsgInfo, "Claimed %d %s from the warehouse", qty, cm.Name)
	return nil
}

// SellFromWarehouse liquidates arrived, unreserved stock at the current
// venue's market price without touching the hold. The repeat-trade tax applies
// through the same daily counter as direct trades.
func (ss *ShippingService) SellFromWarehouse(gs *domain.GameState, commodity string, qty int, confirmed bool) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	cm, ok := ss.cat.FindCommodity(commodity)
	if !ok {
		return 0, ss.cat.UnknownCommodityError(commodity)
	}
	if gs.TradeBans[gs.VenueIndex] > 0 {
		return 0, domain.ErrVenueBanned
	}

	wh := gs.WarehouseAt(gs.VenueIndex)
	item := wh[cm.Name]
	if item == nil {
		return 0, domain.ErrShipmentNotFound
	}
	if !item.Arrived(gs.Day) {
		return 0, domain.ErrShipmentNotArrived
	}
	if item.ContractReserved {
		return 0, domain.ErrShipmentReserved
	}
	if item.Quantity < qty {
		return 0, domain.ErrInsufficientCargo
	}

	mi := gs.Markets[gs.VenueIndex][cm.Name]
	if mi == nil {
		return 0, domain.ErrUnknownCommodity
	}

	key := domain.TradeKey(gs.VenueIndex, cm.Name)
	gross := int64(qty) * mi.Price
	var tax int64
	if gs.DailyTrades[key] >= 1 {
		if !confirmed {
			return 0, domain.ErrTaxConfirmRequired
		}
		tax = taxOn(gross, ss.cfg.Game.TradeTaxRate)
	}
	net := gross - tax

	item.Quantity -= qty
	if item.Quantity == 0 {
		delete(wh, cm.Name)
	}
	gs.Cash += net
	mi.Quantity += qty
	gs.DailyTrades[key]++

	if net > gs.Stats.LargestSingleWin {
		gs.Stats.LargestSingleWin = net
	}
	gs.Log(domain.MsgProfit, "Sold %d %s from the warehouse for %d cr", qty, cm.Name, net)
	return net, nil
}

// Forward re-ships arrived, unreserved stock from the current venue's
// warehouse to another venue without loading it aboard.
func (ss *ShippingService) Forward(gs *domain.GameState, commodity string, qty, destIdx int, tier ShippingTier) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	if destIdx < 0 || destIdx >= len(ss.cat.Venues) {
		return 0, domain.ErrUnknownVenue
	}
	if destIdx == gs.VenueIndex {
		return 0, domain.ErrSameVenue
	}
	cm, ok := ss.cat.FindCommodity(commodity)
	if !ok {
		return 0, ss.cat.UnknownCommodityError(commodity)
	}

	wh := gs.WarehouseAt(gs.VenueIndex)
	item := wh[cm.Name]
	if item == nil {
		return 0, domain.ErrShipmentNotFound
	}
	if !item.Arrived(gs.Day) {
		return 0, domain.ErrShipmentNotArrived
	}
	if item.ContractReserved {
		return 0, domain.ErrShipmentReserved
	}
	if item.Quantity < qty {
		return 0, domain.ErrInsufficientCargo
	}

	cost, days, err := ss.Quote(cm.Name, qty, tier)
	if err != nil {
		return 0, err
	}
	if gs.Cash-cost < ss.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}

	gs.Cash -= cost
	item.Quantity -= qty
	origCost := item.OriginalAvgCost
	if item.Quantity == 0 {
		delete(wh, cm.Name)
	}
	ss.deposit(gs, destIdx, cm.Name, qty, origCost, gs.Day+days, false)

	gs.Log(domain.MsgInfo, "Forwarded %d %s to %s (%d cr)", qty, cm.Name, ss.cat.Venues[destIdx].Name, cost)
	return cost, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Overnight processing
// ──────────────────────────────────────────────────────────────────────────────

// Tick runs the overnight warehouse sweep: in-transit shipments may hit
// customs delays, and arrived unreserved stock left too long gets seized.
func (ss *ShippingService) Tick(gs *domain.GameState, report *domain.DailyReport) {
	for venueIdx, wh := range gs.Warehouse {
		for name, item := range wh {
			if !item.Arrived(gs.Day) {
				// Customs may hold an in-transit shipment for an extra day.
				if ss.rng.Float64() < ss.cfg.Game.ShipmentDelayChance {
					item.ArrivalDay++
					report.Add("Customs delay: %s shipment to %s held one more day", name, ss.cat.Venues[venueIdx].Name)
				}
				continue
			}
			// Reserved stock waits for its contract; everything else has a
			// grace window before dock authorities seize it.
			if item.ContractReserved {
				continue
			}
			if gs.Day-item.ArrivalDay > ss.cfg.Game.SeizureGraceDays {
				report.Add("Dock authorities at %s seized %d %s left unclaimed", ss.cat.Venues[venueIdx].Name, item.Quantity, name)
				report.Lost(name, item.Quantity)
				gs.Log(domain.MsgLoss, "%d %s seized at %s", item.Quantity, name, ss.cat.Venues[venueIdx].Name)
				delete(wh, name)
			}
		}
		if len(wh) == 0 {
			delete(gs.Warehouse, venueIdx)
		}
	}
}
