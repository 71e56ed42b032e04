package service

import (
	"math"
	"math/rand"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// MarketService
// ──────────────────────────────────────────────────────────────────────────────

// MarketService owns market generation and the overnight price/stock evolution.
// All randomness flows through the injected source so simulations replay
// deterministically under a fixed seed.
type MarketService struct {
	cat *domain.Catalog
	cfg *config.Config
	rng *rand.Rand
}

// NewMarketService constructs a MarketService.
func NewMarketService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand) *MarketService {
	return &MarketService{cat: cat, cfg: cfg, rng: rng}
}

// ──────────────────────────────────────────────────────────────────────────────
// Generation
// ──────────────────────────────────────────────────────────────────────────────

// GenerateMarkets builds a fresh market for every venue at the given phase.
// Stock starts near the rarity-derived baseline with venue-to-venue jitter;
// the pilot's home venue (localIdx) opens on a tighter band than the remote
// ones, so the first morning's books are readable rather than chaotic.
func (ms *MarketService) GenerateMarkets(phase, localIdx int) []domain.Market {
	stockMult := domain.PhaseStockMultiplier(phase)

	markets := make([]domain.Market, len(ms.cat.Venues))
	for vi := range ms.cat.Venues {
		m := make(domain.Market, len(ms.cat.Commodities))
		for _, cm := range ms.cat.Commodities {
			std := domain.BaselineStock(cm.Rarity) * stockMult
			// Remote venues jitter to 50–150% of standard; the home venue
			// stays within −10%..+30%.
			var qty int
			if vi == localIdx {
				qty = int(float64(std) * (0.9 + ms.rng.Float64()*0.4))
			} else {
				qty = int(float64(std) * (0.5 + ms.rng.Float64()))
			}
			m[cm.Name] = &domain.MarketItem{
				Quantity:         qty,
				StandardQuantity: std,
			}
		}
		markets[vi] = m
	}

	// Price pass needs all markets in place (luxury pricing reads global stock).
	for _, m := range markets {
		for _, cm := range ms.cat.Commodities {
			ms.Reprice(markets, m, cm, phase, 1)
		}
	}
	return markets
}

// RescaleForPhase multiplies standard stock up to the new phase's depth and
// floods every market with fresh supply (the phase-advance glut).
func (ms *MarketService) RescaleForPhase(gs *domain.GameState, oldPhase, newPhase int) {
	oldMult := domain.PhaseStockMultiplier(oldPhase)
	newMult := domain.PhaseStockMultiplier(newPhase)
	glut := ms.cfg.Game.GlutFactor

	for _, m := range gs.Markets {
		for _, cm := range ms.cat.Commodities {
			item := m[cm.Name]
			if item == nil {
				continue
			}
			item.StandardQuantity = item.StandardQuantity / oldMult * newMult
			item.Quantity = int(float64(item.Quantity)*glut) + item.StandardQuantity/2
		}
	}
	for _, m := range gs.Markets {
		for _, cm := range ms.cat.Commodities {
			ms.Reprice(gs.Markets, m, cm, newPhase, gs.Day)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Overnight evolution
// ──────────────────────────────────────────────────────────────────────────────

// EvolveAll applies one night of stock drift and repricing to every market.
func (ms *MarketService) EvolveAll(gs *domain.GameState) {
	for _, m := range gs.Markets {
		for _, cm := range ms.cat.Commodities {
			item := m[cm.Name]
			if item == nil {
				continue
			}
			ms.evolveStock(item)
		}
	}
	for _, m := range gs.Markets {
		for _, cm := range ms.cat.Commodities {
			ms.Reprice(gs.Markets, m, cm, gs.Phase, gs.Day)
		}
	}
}

// evolveStock performs the nightly random walk on one book:
//   - quantity drifts by up to ±50%
//   - 20% of nights a fresh supply chunk lands
//   - a book empty for 3 straight days resets to half its baseline
func (ms *MarketService) evolveStock(item *domain.MarketItem) {
	drift := ms.rng.Float64() - 0.5 // −0.5 … +0.5
	item.Quantity += int(float64(item.Quantity) * drift)

	if ms.rng.Float64() < 0.20 {
		item.Quantity += ms.rng.Intn(item.StandardQuantity/2 + 1)
	}

	if item.Quantity <= 0 {
		item.Quantity = 0
		item.DepletionDays++
		if item.DepletionDays >= 3 {
			item.Quantity = item.StandardQuantity / 2
			item.DepletionDays = 0
		}
	} else {
		item.DepletionDays = 0
	}
}

// InjectGlobalSupply drops roughly 10% of each commodity's global standard
// stock into random venues, in chunks, simulating inbound freighter traffic.
func (ms *MarketService) InjectGlobalSupply(gs *domain.GameState) {
	for _, cm := range ms.cat.Commodities {
		globalStd := 0
		for _, m := range gs.Markets {
			if item := m[cm.Name]; item != nil {
				globalStd += item.StandardQuantity
			}
		}
		budget := globalStd / 10
		for budget > 0 {
			chunk := ms.rng.Intn(budget) + 1
			vi := ms.rng.Intn(len(gs.Markets))
			if item := gs.Markets[vi][cm.Name]; item != nil {
				item.Quantity += chunk
			}
			budget -= chunk
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Pricing
// ──────────────────────────────────────────────────────────────────────────────

// Reprice recomputes one book's price from its stock level. Most commodities
// follow the inverse-sqrt curve over phase-widened bounds; fuel gets an upward
// volatility kick, the luxury good prices log-uniform scaled by galaxy-wide
// scarcity, and staples ride exponentially inflating bounds.
func (ms *MarketService) Reprice(markets []domain.Market, m domain.Market, cm domain.Commodity, phase, day int) {
	item := m[cm.Name]
	if item == nil {
		return
	}

	rangeMin, rangeMax := ms.effectiveRange(cm, phase, day)

	switch cm.Name {
	case ms.cat.LuxuryName:
		item.Price = ms.luxuryPrice(markets, item, cm, rangeMin, rangeMax)
	case ms.cat.FuelName:
		// Refinery churn moves the fuel ceiling ±15% before the curve runs.
		hi := int64(math.Round(float64(rangeMax) * (0.85 + ms.rng.Float64()*0.30)))
		if hi <= rangeMin {
			hi = rangeMin + 1
		}
		item.Price = curveFor(item, rangeMin, hi)
	default:
		item.Price = curveFor(item, rangeMin, rangeMax)
	}
}

// RepriceByName is a convenience wrapper for trade-time repricing of a single
// book after its stock changed.
func (ms *MarketService) RepriceByName(gs *domain.GameState, venueIdx int, commodity string) {
	cm, ok := ms.cat.FindCommodity(commodity)
	if !ok {
		return
	}
	ms.Reprice(gs.Markets, gs.Markets[venueIdx], cm, gs.Phase, gs.Day)
}

// effectiveRange widens a commodity's legal bounds by the phase multiplier and
// applies the staple inflation drift (lower bound ×1.05/day, upper ×1.10/day).
func (ms *MarketService) effectiveRange(cm domain.Commodity, phase, day int) (int64, int64) {
	mult := domain.PhaseMultiplier(phase)
	lo := int64(math.Round(float64(cm.RangeMin) * mult))
	hi := int64(math.Round(float64(cm.RangeMax) * mult))

	if ms.cat.IsStaple(cm.Name) {
		d := float64(day)
		lo = int64(math.Round(float64(lo) * math.Pow(1.05, d)))
		hi = int64(math.Round(float64(hi) * math.Pow(1.10, d)))
	}
	if lo < 1 {
		lo = 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func curveFor(item *domain.MarketItem, rangeMin, rangeMax int64) int64 {
	if item.StandardQuantity <= 0 {
		return rangeMax
	}
	ratio := float64(item.Quantity) / float64(item.StandardQuantity)
	return domain.CurvePrice(ratio, rangeMin, rangeMax)
}

// luxuryPrice draws log-uniform from the legal range, then swings it by how
// this venue's stock compares to the galaxy average: a dry venue prices above
// a hoarding one. The swing is clamped to [0.75, 1.25] so one flooded market
// cannot crater the galaxy price.
func (ms *MarketService) luxuryPrice(markets []domain.Market, item *domain.MarketItem, cm domain.Commodity, rangeMin, rangeMax int64) int64 {
	logMin := math.Log(float64(rangeMin))
	logMax := math.Log(float64(rangeMax))
	base := math.Exp(logMin + ms.rng.Float64()*(logMax-logMin))

	avg := float64(domain.TotalStock(markets, cm.Name)) / float64(len(markets))
	swing := avg / float64(item.Quantity+1)
	if swing < 0.75 {
		swing = 0.75
	}
	if swing > 1.25 {
		swing = 1.25
	}

	return domain.ClampPrice(int64(math.Round(base*swing)), rangeMin, rangeMax)
}
