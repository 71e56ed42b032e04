package service_test

import (
	"math/rand"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
	"github.com/orbitfall/tradeempire/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// Shared fixtures
// ──────────────────────────────────────────────────────────────────────────────

// testCatalog builds a small three-venue universe covering every special
// commodity role the services touch.
func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		Commodities: []domain.Commodity{
			{Name: "Hydrazine", UnitWeight: 0.5, RangeMin: 10, RangeMax: 100, Rarity: 0.1},
			{Name: "Power Cells", UnitWeight: 0.2, RangeMin: 50, RangeMax: 400, Rarity: 0.3},
			{Name: "Synth Grain", UnitWeight: 2.0, RangeMin: 5, RangeMax: 40, Rarity: 0.0},
			{Name: "Gem Clusters", UnitWeight: 0.1, RangeMin: 5000, RangeMax: 90000, Rarity: 0.9},
			{Name: "Raw Ore", UnitWeight: 1.5, RangeMin: 20, RangeMax: 200, Rarity: 0.2},
			{Name: "Iridium Ore", UnitWeight: 1.0, RangeMin: 800, RangeMax: 6000, Rarity: 0.7},
			{Name: "Exotic Matter", UnitWeight: 0.05, RangeMin: 10000, RangeMax: 150000, Rarity: 0.95},
			{Name: "Hull Alloys", UnitWeight: 3.0, RangeMin: 100, RangeMax: 900, Rarity: 0.4},
		},
		Venues: []domain.Venue{
			{Name: "Ceres Bazaar"},
			{Name: "Tycho Station"},
			{Name: "Vesta Docks"},
		},
		Distances: [][]int{
			{0, 4, 6},
			{4, 0, 2},
			{6, 2, 0},
		},
		Equipment: []domain.EquipmentItem{
			{ID: "laser_mk1", Name: "Mining Laser I", Category: domain.EquipLaser, Tier: 1, Cost: 10000},
			{ID: "laser_mk2", Name: "Mining Laser II", Category: domain.EquipLaser, Tier: 2, Cost: 80000},
			{ID: "shield_mk1", Name: "Deflector I", Category: domain.EquipShield, Tier: 1, Cost: 15000},
			{ID: "cannon_mk1", Name: "Rail Cannon I", Category: domain.EquipCannon, Tier: 1, Cost: 25000},
		},
		Recipes: []domain.Recipe{
			{
				Key:        "alloy_press",
				Output:     "Hull Alloys",
				FeePerUnit: 10,
				Inputs:     []domain.RecipeInput{{Commodity: "Raw Ore", Units: 3}},
			},
		},
		LoanFirms: []domain.Firm{
			{Name: "Helios Credit", BaseRate: 5.0},
			{Name: "Outer Rim Mutual", BaseRate: 8.0},
		},
		ContractFirms:   []domain.Firm{{Name: "Lagrange Freight"}},
		FlavorMessages:  []string{"Fuel futures wobble on refinery gossip."},
		FallbackLegends: []string{"Dread Captain Vex"},
		FuelName:        "Hydrazine",
		PowerCellName:   "Power Cells",
		LuxuryName:      "Gem Clusters",
		StapleNames:     []string{"Synth Grain"},
		OreName:         "Raw Ore",
		RareOreName:     "Iridium Ore",
		ExoticName:      "Exotic Matter",
		SpoilageNames:   []string{"Exotic Matter"},
		ContrabandNames: []string{"Gem Clusters"},
		VerminTargets:   []string{"Synth Grain"},
	}
}

// testConfig returns a full tuning set with the production defaults the tests
// assert against. Callers mutate their copy freely.
func testConfig() *config.Config {
	return &config.Config{
		Game: config.GameConfig{
			StartingCash:         -5000,
			StarterLoanPrincipal: 30000,
			InitialCargoCapacity: 1000,
			BaseMaxCargo:         5000,
			CargoCostPerTonne:    75,
			StartingHull:         100,
			MaxRepairHealth:      150,

			OverdraftFloor:        -10000,
			TradeTaxRate:          0.05,
			OverdraftInterestRate: 0.15,

			MaxLoans:          3,
			LoanTermDays:      5,
			EarlyRepayFeeRate: 0.02,
			LoanOfferCount:    5,
			DepositRate1Day:   0.05,
			DepositRate2Day:   0.20,
			DepositRate3Day:   0.50,

			ContractLimitP1: 2,
			ContractLimitP2: 3,
			ContractLimitP3: 4,
			TradeBanDays:    3,

			ExpressRatePerTonne:  100,
			StandardRatePerTonne: 50,
			FreightRatePerTonne:  20,
			ShipmentDelayChance:  0.10,
			SeizureGraceDays:     3,

			EncounterBaseChance:   0.65,
			WarrantEncounterBonus: 0.15,
			SectorPassDiscount:    0.20,
			InsurancePremiumRate:  0.02,
			InsurancePayoutRate:   0.95,
			WarrantBountyFee:      25000,

			RepairIncrement: 10,
			HullRepairCost:  500,
			LaserRepairCost: 300,

			OverloadYieldMult: 2.0,
			OverloadRiskMult:  5,

			Phase1Goal:   250000,
			Phase2Goal:   2500000,
			Phase3Goal:   25000000,
			Phase1Days:   30,
			Phase2Days:   60,
			Phase3Days:   90,
			OvertimeDays: 120,
			GlutFactor:   2.0,
		},
	}
}

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// newTestState builds a docked, healthy, solvent phase-1 state with flat
// hand-built markets: every book priced at the commodity midpoint with 100
// units in stock against a baseline of 100.
func newTestState(cat *domain.Catalog) *domain.GameState {
	markets := make([]domain.Market, len(cat.Venues))
	for vi := range cat.Venues {
		m := make(domain.Market, len(cat.Commodities))
		for _, cm := range cat.Commodities {
			m[cm.Name] = &domain.MarketItem{
				Price:            (cm.RangeMin + cm.RangeMax) / 2,
				Quantity:         100,
				StandardQuantity: 100,
			}
		}
		markets[vi] = m
	}

	return &domain.GameState{
		Day:             1,
		Cash:            100000,
		VenueIndex:      0,
		Phase:           1,
		ShipHealth:      100,
		LaserHealth:     100,
		CargoCapacity:   1000,
		Markets:         markets,
		Cargo:           make(map[string]*domain.CargoItem),
		Warehouse:       make(map[int]map[string]*domain.WarehouseItem),
		Equipment:       make(map[string]bool),
		TradeBans:       make(map[int]int),
		DailyTrades:     make(map[string]int),
		FabricatedToday: make(map[string]bool),
		SectorPasses:    make(map[int]bool),
		TutorialSeen:    make(map[string]bool),
	}
}

// addCargo is a shorthand that resolves the unit weight from the catalog.
func addCargo(gs *domain.GameState, cat *domain.Catalog, name string, qty int, price int64) {
	cm, _ := cat.FindCommodity(name)
	gs.AddCargo(cm.Name, qty, price, cm.UnitWeight)
}

func newTradeService(cat *domain.Catalog, cfg *config.Config) *service.TradeService {
	rng := testRng()
	return service.NewTradeService(cat, cfg, rng, service.NewMarketService(cat, cfg, rng))
}
