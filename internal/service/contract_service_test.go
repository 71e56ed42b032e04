package service_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/domain"
	"github.com/orbitfall/tradeempire/internal/service"
)

func activeContract(qty, dest int, reward int64, days int) *domain.Contract {
	return &domain.Contract{
		ID:               uuid.New(),
		Firm:             "Lagrange Freight",
		Commodity:        "Raw Ore",
		Quantity:         qty,
		DestinationIndex: dest,
		Reward:           reward,
		Penalty:          reward / 2,
		DaysRemaining:    days,
		Status:           domain.ContractActive,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Board generation
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerateBoard(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := service.NewContractService(cat, cfg, testRng())
	gs := newTestState(cat)

	svc.GenerateBoard(gs)

	if len(gs.AvailableContracts) > cfg.Game.ContractLimitP1 {
		t.Fatalf("board size = %d, want at most %d", len(gs.AvailableContracts), cfg.Game.ContractLimitP1)
	}
	for i, ct := range gs.AvailableContracts {
		if ct.DestinationIndex == gs.VenueIndex {
			t.Errorf("contract %d targets the pilot's current venue", i)
		}
		if ct.Quantity < 5 || ct.Quantity > 24 {
			t.Errorf("contract %d quantity = %d, want within [5, 24]", i, ct.Quantity)
		}
		if ct.DaysRemaining < 1 || ct.DaysRemaining > 3 {
			t.Errorf("contract %d deadline = %d, want within [1, 3]", i, ct.DaysRemaining)
		}
		if ct.Reward <= 0 {
			t.Errorf("contract %d reward = %d, want positive", i, ct.Reward)
		}
		if ct.Penalty != ct.Reward/2 {
			t.Errorf("contract %d penalty = %d, want %d", i, ct.Penalty, ct.Reward/2)
		}
		// The margin floor is 1.5× the commodity ceiling at phase 1.
		cm, _ := cat.FindCommodity(ct.Commodity)
		floor := cm.RangeMax * int64(ct.Quantity) * 3 / 2
		if ct.Reward < floor {
			t.Errorf("contract %d reward = %d, want at least %d", i, ct.Reward, floor)
		}
	}
}

// TestGenerateBoardAgesAndKeepsOffers: refreshing the board is not a rebuild.
// Unexpired offers age one day and stay on the board under the same ID; offers
// down to their last day drop off.
func TestGenerateBoardAgesAndKeepsOffers(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := service.NewContractService(cat, cfg, testRng())
	gs := newTestState(cat)

	keeper := activeContract(10, 1, 5000, 3)
	expiring := activeContract(8, 2, 4000, 1)
	gs.AvailableContracts = []*domain.Contract{keeper, expiring}

	svc.GenerateBoard(gs)

	if len(gs.AvailableContracts) > cfg.Game.ContractLimitP1 {
		t.Fatalf("board size = %d, want at most %d", len(gs.AvailableContracts), cfg.Game.ContractLimitP1)
	}
	var kept *domain.Contract
	for _, ct := range gs.AvailableContracts {
		if ct.ID == expiring.ID {
			t.Error("offer on its last day should drop off the board")
		}
		if ct.ID == keeper.ID {
			kept = ct
		}
	}
	if kept == nil {
		t.Fatal("unexpired offer should survive the refresh")
	}
	if kept.DaysRemaining != 2 {
		t.Errorf("kept offer deadline = %d, want 2 (aged one day)", kept.DaysRemaining)
	}
}

// TestGenerateBoardScalesQuantityWithPhase: the base draw of 5–24 units gets a
// ×10 multiplier at phase 2, so every offer lands in [50, 240] in steps of 10.
func TestGenerateBoardScalesQuantityWithPhase(t *testing.T) {
	cat := testCatalog()
	svc := service.NewContractService(cat, testConfig(), testRng())
	gs := newTestState(cat)
	gs.Phase = 2

	// A refresh can come up empty when every draw collides with the pilot's
	// venue; retry until an offer lands.
	for i := 0; i < 5 && len(gs.AvailableContracts) == 0; i++ {
		svc.GenerateBoard(gs)
	}
	if len(gs.AvailableContracts) == 0 {
		t.Fatal("phase-2 board came up empty")
	}
	for i, ct := range gs.AvailableContracts {
		if ct.Quantity < 50 || ct.Quantity > 240 || ct.Quantity%10 != 0 {
			t.Errorf("contract %d quantity = %d, want a multiple of 10 within [50, 240]", i, ct.Quantity)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Accept
// ──────────────────────────────────────────────────────────────────────────────

func TestAcceptContractAndLimit(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := service.NewContractService(cat, cfg, testRng())
	gs := newTestState(cat)

	board := []*domain.Contract{
		activeContract(10, 1, 5000, 2),
		activeContract(8, 2, 4000, 2),
		activeContract(6, 1, 3000, 2),
	}
	gs.AvailableContracts = board

	for i := 0; i < cfg.Game.ContractLimitP1; i++ {
		if _, err := svc.Accept(gs, board[i].ID); err != nil {
			t.Fatalf("accept %d failed: %v", i, err)
		}
	}
	if _, err := svc.Accept(gs, board[2].ID); !errors.Is(err, domain.ErrContractLimit) {
		t.Errorf("over-limit accept err = %v, want ErrContractLimit", err)
	}
	if _, err := svc.Accept(gs, uuid.New()); !errors.Is(err, domain.ErrContractNotFound) {
		t.Errorf("unknown id err = %v, want ErrContractNotFound", err)
	}
	if len(gs.ActiveContracts) != 2 {
		t.Errorf("active contracts = %d, want 2", len(gs.ActiveContracts))
	}
	if len(gs.AvailableContracts) != 1 {
		t.Errorf("board remaining = %d, want 1", len(gs.AvailableContracts))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Settle
// ──────────────────────────────────────────────────────────────────────────────

func TestSettleContract(t *testing.T) {
	cat := testCatalog()
	svc := service.NewContractService(cat, testConfig(), testRng())
	gs := newTestState(cat)

	ct := activeContract(10, 1, 5000, 2)
	gs.ActiveContracts = []*domain.Contract{ct}
	gs.WarehouseAt(1)["Raw Ore"] = &domain.WarehouseItem{Quantity: 10, ArrivalDay: 1}

	cash0 := gs.Cash
	reward, err := svc.Settle(gs, ct.ID)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if reward != 5000 {
		t.Errorf("reward = %d, want 5000", reward)
	}
	if gs.Cash != cash0+5000 {
		t.Errorf("cash = %d, want %d", gs.Cash, cash0+5000)
	}
	if ct.Status != domain.ContractCompleted {
		t.Errorf("status = %s, want completed", ct.Status)
	}
	if _, ok := gs.Warehouse[1]["Raw Ore"]; ok {
		t.Error("exhausted warehouse line should be deleted")
	}

	// Retried settle requests are harmless rejections.
	if _, err := svc.Settle(gs, ct.ID); !errors.Is(err, domain.ErrContractNotActive) {
		t.Errorf("double settle err = %v, want ErrContractNotActive", err)
	}
	if gs.Cash != cash0+5000 {
		t.Errorf("double settle moved cash to %d", gs.Cash)
	}
}

func TestSettleRejections(t *testing.T) {
	cat := testCatalog()
	svc := service.NewContractService(cat, testConfig(), testRng())

	t.Run("no stock at destination", func(t *testing.T) {
		gs := newTestState(cat)
		ct := activeContract(10, 1, 5000, 2)
		gs.ActiveContracts = []*domain.Contract{ct}
		if _, err := svc.Settle(gs, ct.ID); !errors.Is(err, domain.ErrContractShortStock) {
			t.Errorf("err = %v, want ErrContractShortStock", err)
		}
	})
	t.Run("short stock", func(t *testing.T) {
		gs := newTestState(cat)
		ct := activeContract(10, 1, 5000, 2)
		gs.ActiveContracts = []*domain.Contract{ct}
		gs.WarehouseAt(1)["Raw Ore"] = &domain.WarehouseItem{Quantity: 4, ArrivalDay: 1}
		if _, err := svc.Settle(gs, ct.ID); !errors.Is(err, domain.ErrContractShortStock) {
			t.Errorf("err = %v, want ErrContractShortStock", err)
		}
	})
	t.Run("still in transit", func(t *testing.T) {
		gs := newTestState(cat)
		ct := activeContract(10, 1, 5000, 2)
		gs.ActiveContracts = []*domain.Contract{ct}
		gs.WarehouseAt(1)["Raw Ore"] = &domain.WarehouseItem{Quantity: 10, ArrivalDay: 3}
		if _, err := svc.Settle(gs, ct.ID); !errors.Is(err, domain.ErrShipmentNotArrived) {
			t.Errorf("err = %v, want ErrShipmentNotArrived", err)
		}
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Breach and pruning
// ──────────────────────────────────────────────────────────────────────────────

// TestTickBreachesExpiredContracts: an expired contract debits the penalty and
// bans the destination venue.
func TestTickBreachesExpiredContracts(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := service.NewContractService(cat, cfg, testRng())
	gs := newTestState(cat)

	ct := activeContract(10, 1, 5000, 1)
	gs.ActiveContracts = []*domain.Contract{ct}

	cash0 := gs.Cash
	report := domain.NewDailyReport()
	svc.Tick(gs, report)

	if ct.Status != domain.ContractFailed {
		t.Errorf("status = %s, want failed", ct.Status)
	}
	if gs.Cash != cash0-2500 {
		t.Errorf("cash = %d, want %d (penalty 2500)", gs.Cash, cash0-2500)
	}
	if gs.TradeBans[1] != cfg.Game.TradeBanDays {
		t.Errorf("trade ban = %d days, want %d", gs.TradeBans[1], cfg.Game.TradeBanDays)
	}
	if gs.Stats.LargestSingleLoss != 2500 {
		t.Errorf("largest single loss = %d, want 2500", gs.Stats.LargestSingleLoss)
	}
	if len(report.Events) == 0 {
		t.Error("breach should be reported in the morning briefing")
	}
}

func TestTickKeepsUnexpiredContracts(t *testing.T) {
	cat := testCatalog()
	svc := service.NewContractService(cat, testConfig(), testRng())
	gs := newTestState(cat)

	ct := activeContract(10, 1, 5000, 3)
	gs.ActiveContracts = []*domain.Contract{ct}
	svc.Tick(gs, domain.NewDailyReport())

	if ct.Status != domain.ContractActive {
		t.Errorf("status = %s, want active", ct.Status)
	}
	if ct.DaysRemaining != 2 {
		t.Errorf("days remaining = %d, want 2", ct.DaysRemaining)
	}
}

// TestTickWarnsDayBeforeDeadline: a contract reaching its final day puts a
// due-tomorrow notice in the morning briefing without breaching.
func TestTickWarnsDayBeforeDeadline(t *testing.T) {
	cat := testCatalog()
	svc := service.NewContractService(cat, testConfig(), testRng())
	gs := newTestState(cat)

	ct := activeContract(10, 1, 5000, 2)
	gs.ActiveContracts = []*domain.Contract{ct}

	report := domain.NewDailyReport()
	svc.Tick(gs, report)

	if ct.Status != domain.ContractActive {
		t.Errorf("status = %s, want active", ct.Status)
	}
	if ct.DaysRemaining != 1 {
		t.Errorf("days remaining = %d, want 1", ct.DaysRemaining)
	}
	warned := false
	for _, ev := range report.Events {
		if strings.Contains(ev, "due tomorrow") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("events = %q, want a due-tomorrow warning", report.Events)
	}
}

// TestPrune drops finished contracts after the three-day display window.
func TestPrune(t *testing.T) {
	cat := testCatalog()
	svc := service.NewContractService(cat, testConfig(), testRng())
	gs := newTestState(cat)
	gs.Day = 10

	fresh := activeContract(10, 1, 5000, 2)
	recent := activeContract(8, 2, 4000, 2)
	recent.Status = domain.ContractCompleted
	recent.DayCompleted = 8 // 2 days ago: still displayed
	stale := activeContract(6, 1, 3000, 2)
	stale.Status = domain.ContractFailed
	stale.DayCompleted = 7 // 3 days ago: dropped

	gs.ActiveContracts = []*domain.Contract{fresh, recent, stale}
	svc.Prune(gs)

	if len(gs.ActiveContracts) != 2 {
		t.Fatalf("contracts after prune = %d, want 2", len(gs.ActiveContracts))
	}
	for _, ct := range gs.ActiveContracts {
		if ct.ID == stale.ID {
			t.Error("stale finished contract should have been pruned")
		}
	}
}

// TestAutoSettle settles reserved arrived stock during the overnight sweep and
// leaves unreserved stock alone.
func TestAutoSettle(t *testing.T) {
	cat := testCatalog()
	svc := service.NewContractService(cat, testConfig(), testRng())
	gs := newTestState(cat)

	reserved := activeContract(10, 1, 5000, 2)
	unreserved := activeContract(5, 2, 2000, 2)
	gs.ActiveContracts = []*domain.Contract{reserved, unreserved}
	gs.WarehouseAt(1)["Raw Ore"] = &domain.WarehouseItem{Quantity: 10, ArrivalDay: 1, ContractReserved: true}
	gs.WarehouseAt(2)["Raw Ore"] = &domain.WarehouseItem{Quantity: 5, ArrivalDay: 1}

	cash0 := gs.Cash
	svc.AutoSettle(gs, domain.NewDailyReport())

	if reserved.Status != domain.ContractCompleted {
		t.Errorf("reserved contract status = %s, want completed", reserved.Status)
	}
	if unreserved.Status != domain.ContractActive {
		t.Errorf("unreserved contract status = %s, want active (manual settlement only)", unreserved.Status)
	}
	if gs.Cash != cash0+5000 {
		t.Errorf("cash = %d, want %d", gs.Cash, cash0+5000)
	}
}
