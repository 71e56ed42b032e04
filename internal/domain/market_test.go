package domain_test

import (
	"testing"

	"github.com/orbitfall/tradeempire/internal/domain"
)

// TestCurvePrice exercises the inverse-sqrt supply curve over [10, 100]
// (midpoint 55).
func TestCurvePrice(t *testing.T) {
	cases := []struct {
		name  string
		ratio float64
		want  int64
	}{
		{"balanced book prices at midpoint", 1.0, 55},
		{"quadruple stock halves the price", 4.0, 28}, // round(27.5)
		{"scarce book clamps to ceiling", 0.25, 100},  // 110 clamped
		{"deep glut clamps to floor", 100.0, 10},      // 5.5 clamped
		{"empty book prices at ceiling", 0, 100},
	}
	for _, tc := range cases {
		if got := domain.CurvePrice(tc.ratio, 10, 100); got != tc.want {
			t.Errorf("%s: CurvePrice(%.2f) = %d, want %d", tc.name, tc.ratio, got, tc.want)
		}
	}
}

func TestClampPrice(t *testing.T) {
	if got := domain.ClampPrice(5, 10, 100); got != 10 {
		t.Errorf("below floor = %d, want 10", got)
	}
	if got := domain.ClampPrice(500, 10, 100); got != 100 {
		t.Errorf("above ceiling = %d, want 100", got)
	}
	if got := domain.ClampPrice(55, 10, 100); got != 55 {
		t.Errorf("in range = %d, want 55", got)
	}
}

func TestPhaseMultiplier(t *testing.T) {
	want := map[int]float64{1: 1.0, 2: 1.25, 3: 1.5, 4: 1.75}
	for phase, mult := range want {
		if got := domain.PhaseMultiplier(phase); got != mult {
			t.Errorf("PhaseMultiplier(%d) = %.2f, want %.2f", phase, got, mult)
		}
	}
}

func TestPhaseStockMultiplier(t *testing.T) {
	want := map[int]int{1: 1, 2: 5, 3: 10, 4: 20}
	for phase, mult := range want {
		if got := domain.PhaseStockMultiplier(phase); got != mult {
			t.Errorf("PhaseStockMultiplier(%d) = %d, want %d", phase, got, mult)
		}
	}
}

// TestBaselineStock: floor(100 + 1000×(1−rarity)).
func TestBaselineStock(t *testing.T) {
	cases := []struct {
		rarity float64
		want   int
	}{
		{0, 1100},
		{0.5, 600},
		{1, 100},
		{0.95, 150}, // floor(100 + 50.000...)
	}
	for _, tc := range cases {
		if got := domain.BaselineStock(tc.rarity); got != tc.want {
			t.Errorf("BaselineStock(%.2f) = %d, want %d", tc.rarity, got, tc.want)
		}
	}
}

func TestTotalStock(t *testing.T) {
	markets := []domain.Market{
		{"Raw Ore": &domain.MarketItem{Quantity: 40}},
		{"Raw Ore": &domain.MarketItem{Quantity: 60}},
		{}, // venue without a Raw Ore book
	}
	if got := domain.TotalStock(markets, "Raw Ore"); got != 100 {
		t.Errorf("TotalStock = %d, want 100", got)
	}
	if got := domain.TotalStock(markets, "Hydrazine"); got != 0 {
		t.Errorf("TotalStock of unlisted commodity = %d, want 0", got)
	}
}
