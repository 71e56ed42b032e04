package domain

import (
	"math"
)

// ──────────────────────────────────────────────────────────────────────────────
// Market state
// ──────────────────────────────────────────────────────────────────────────────

// MarketItem is one commodity's live state at one venue.
type MarketItem struct {
	Price            int64 `json:"price"`
	Quantity         int   `json:"quantity"`          // never negative
	StandardQuantity int   `json:"standard_quantity"` // baseline for the price curve
	DepletionDays    int   `json:"depletion_days"`    // consecutive days at zero stock
}

// Market maps commodity name → live state for one venue.
type Market map[string]*MarketItem

// TotalStock sums the given commodity's quantity across all venue markets.
func TotalStock(markets []Market, commodity string) int {
	total := 0
	for _, m := range markets {
		if item, ok := m[commodity]; ok {
			total += item.Quantity
		}
	}
	return total
}

// ──────────────────────────────────────────────────────────────────────────────
// Price curve
// ──────────────────────────────────────────────────────────────────────────────

// PhaseMultiplier widens the legal price range as the game phase rises:
// 1.0, 1.25, 1.5, 1.75 for phases 1–4.
func PhaseMultiplier(phase int) float64 {
	return 1 + 0.25*float64(phase-1)
}

// PhaseStockMultiplier scales market stock baselines per phase.
func PhaseStockMultiplier(phase int) int {
	switch phase {
	case 1:
		return 1
	case 2:
		return 5
	case 3:
		return 10
	default:
		return 20
	}
}

// CurvePrice derives a price from the inverse-sqrt supply curve
//
//	price = midpoint(min,max) / sqrt(quantity/baseline)
//
// clamped to [min, max]. A zero or negative effective ratio prices at max.
func CurvePrice(effectiveRatio float64, rangeMin, rangeMax int64) int64 {
	if effectiveRatio <= 0 {
		return rangeMax
	}
	mid := float64(rangeMin+rangeMax) / 2
	price := int64(math.Round(mid / math.Sqrt(effectiveRatio)))
	return ClampPrice(price, rangeMin, rangeMax)
}

// ClampPrice bounds a price to the commodity's legal range.
func ClampPrice(price, rangeMin, rangeMax int64) int64 {
	if price < rangeMin {
		return rangeMin
	}
	if price > rangeMax {
		return rangeMax
	}
	return price
}

// BaselineStock converts a commodity's rarity into its standard market stock:
// rare goods carry thin books, common goods deep ones.
func BaselineStock(rarity float64) int {
	return int(math.Floor(100 + 1000*(1-rarity)))
}
