package service_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
	"github.com/orbitfall/tradeempire/internal/service"
)

// newGameService wires the full engine with no persistence and no sockets.
func newGameService(cat *domain.Catalog, cfg *config.Config) *service.GameService {
	return newGameServiceWith(cat, cfg, testRng(), nil)
}

func newGameServiceWith(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand, saves service.SaveStore) *service.GameService {
	market := service.NewMarketService(cat, cfg, rng)
	trade := service.NewTradeService(cat, cfg, rng, market)
	bank := service.NewBankService(cat, cfg, rng)
	contract := service.NewContractService(cat, cfg, rng)
	shipping := service.NewShippingService(cat, cfg, rng)
	day := service.NewDayService(cat, cfg, rng, market, bank, contract, shipping)
	travel := service.NewTravelService(cat, cfg, rng, day)
	return service.NewGameService(cat, cfg, rng, market, trade, bank, contract, shipping, travel, nil, saves)
}

// flakySaveStore satisfies service.SaveStore and starts failing writes once
// tripped.
type flakySaveStore struct {
	fail bool
}

func (f *flakySaveStore) Upsert(_ context.Context, _ *domain.GameSave) error {
	if f.fail {
		return errors.New("disk full")
	}
	return nil
}

func (f *flakySaveStore) GetByPilot(_ context.Context, _ uuid.UUID) (*domain.GameSave, error) {
	return nil, domain.ErrSaveNotFound
}

func (f *flakySaveStore) Delete(_ context.Context, _ uuid.UUID) error { return nil }

// ──────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────────────────────────────────

// TestNewGameStartsInDebt: a fresh charter opens at −5000 cr plus the forced
// 30 000 cr starter note, with boards already populated.
func TestNewGameStartsInDebt(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := newGameService(cat, cfg)

	pilot := uuid.New()
	gs, err := svc.NewGame(context.Background(), pilot)
	if err != nil {
		t.Fatalf("new game failed: %v", err)
	}

	if gs.Cash != 25000 {
		t.Errorf("opening cash = %d, want 25000 (−5000 + 30000 note)", gs.Cash)
	}
	if len(gs.Loans) != 1 || gs.Loans[0].CurrentDebt != 30000 {
		t.Fatalf("starter loan = %+v, want one note of 30000", gs.Loans)
	}
	if len(gs.LoanOffers) != cfg.Game.LoanOfferCount {
		t.Errorf("loan offers = %d, want %d", len(gs.LoanOffers), cfg.Game.LoanOfferCount)
	}
	if gs.CargoCapacity != cfg.Game.InitialCargoCapacity {
		t.Errorf("cargo capacity = %d, want %d", gs.CargoCapacity, cfg.Game.InitialCargoCapacity)
	}
	if len(gs.Markets) != len(cat.Venues) {
		t.Errorf("markets = %d, want %d", len(gs.Markets), len(cat.Venues))
	}

	sessionID, ok := svc.SessionForPilot(pilot)
	if !ok {
		t.Fatal("new game should register a live session")
	}

	// Returned states are snapshots: mutating one must not leak into the session.
	gs.Cash = 999999999
	snap, _, err := svc.Snapshot(sessionID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.Cash != 25000 {
		t.Errorf("session cash = %d after mutating a snapshot, want 25000", snap.Cash)
	}
}

func TestUnknownSessionIsRejected(t *testing.T) {
	svc := newGameService(testCatalog(), testConfig())
	if _, _, err := svc.Snapshot(uuid.New()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
	if _, _, err := svc.Buy(context.Background(), uuid.New(), "Raw Ore", 1, true); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Encounter gating
// ──────────────────────────────────────────────────────────────────────────────

// TestCommandsBlockedDuringEncounter forces an encounter on departure and
// checks that every other command is refused until the decision lands.
func TestCommandsBlockedDuringEncounter(t *testing.T) {
	ctx := context.Background()
	cat := testCatalog()
	cfg := testConfig()
	cfg.Game.EncounterBaseChance = 1.0
	svc := newGameService(cat, cfg)

	gs, err := svc.NewGame(ctx, uuid.New())
	if err != nil {
		t.Fatalf("new game failed: %v", err)
	}
	sessionID := gs.ID

	if _, _, err := svc.Buy(ctx, sessionID, "Hydrazine", 20, true); err != nil {
		t.Fatalf("fueling up failed: %v", err)
	}

	dest := (gs.VenueIndex + 1) % len(cat.Venues)
	_, enc, _, err := svc.Depart(ctx, sessionID, service.JumpRequest{DestIndex: dest})
	if err != nil {
		t.Fatalf("depart failed: %v", err)
	}
	if enc == nil {
		t.Fatal("expected a forced encounter")
	}

	if _, _, err := svc.Buy(ctx, sessionID, "Hydrazine", 1, true); !errors.Is(err, domain.ErrEncounterPending) {
		t.Errorf("buy during encounter err = %v, want ErrEncounterPending", err)
	}
	if _, _, err := svc.Wait(ctx, sessionID); !errors.Is(err, domain.ErrEncounterPending) {
		t.Errorf("wait during encounter err = %v, want ErrEncounterPending", err)
	}
	if _, _, _, err := svc.Depart(ctx, sessionID, service.JumpRequest{DestIndex: dest}); !errors.Is(err, domain.ErrEncounterPending) {
		t.Errorf("second depart err = %v, want ErrEncounterPending", err)
	}

	// The first offered decision is always survivable from full hull.
	report, snap, err := svc.ResolveEncounter(ctx, sessionID, enc.Decisions[0])
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if snap.GameOver {
		t.Fatalf("run ended unexpectedly: %s", snap.EndReason)
	}
	if snap.VenueIndex != dest {
		t.Errorf("venue after resolution = %d, want %d", snap.VenueIndex, dest)
	}
	if snap.Day != 2 {
		t.Errorf("day after resolution = %d, want 2", snap.Day)
	}
	if len(report.Events) == 0 {
		t.Error("resolution should produce a morning briefing")
	}

	if _, _, err := svc.ResolveEncounter(ctx, sessionID, enc.Decisions[0]); !errors.Is(err, domain.ErrNoEncounterPending) {
		t.Errorf("double resolve err = %v, want ErrNoEncounterPending", err)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrency
// ──────────────────────────────────────────────────────────────────────────────

// TestConcurrentCommands hammers two live sessions with parallel buy/sell
// pairs. Session locks serialise commands within a session, and the shared
// random stream must survive cross-session draws: every command succeeds and
// both holds net out to zero. Run with -race.
func TestConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	svc := newGameServiceWith(testCatalog(), testConfig(), service.NewLockedRand(42), nil)

	var sessions []uuid.UUID
	for i := 0; i < 2; i++ {
		gs, err := svc.NewGame(ctx, uuid.New())
		if err != nil {
			t.Fatalf("new game failed: %v", err)
		}
		sessions = append(sessions, gs.ID)
	}

	const workers = 20
	errs := make(chan error, workers*len(sessions)*2)
	var wg sync.WaitGroup
	for _, sessionID := range sessions {
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				if _, _, err := svc.Buy(ctx, id, "Raw Ore", 1, true); err != nil {
					errs <- err
					return
				}
				if _, _, err := svc.Sell(ctx, id, "Raw Ore", 1, true); err != nil {
					errs <- err
				}
			}(sessionID)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent command failed: %v", err)
	}

	for _, sessionID := range sessions {
		snap, _, err := svc.Snapshot(sessionID)
		if err != nil {
			t.Fatalf("snapshot failed: %v", err)
		}
		if got := snap.CargoQty("Raw Ore"); got != 0 {
			t.Errorf("hold nets to %d Raw Ore, want 0", got)
		}
	}
	if svc.SessionCount() != len(sessions) {
		t.Errorf("sessions = %d, want %d", svc.SessionCount(), len(sessions))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Persistence
// ──────────────────────────────────────────────────────────────────────────────

// TestDayAdvanceSurfacesSaveFailure: a failed overnight autosave must not block
// play, but the morning briefing has to say it happened.
func TestDayAdvanceSurfacesSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakySaveStore{}
	svc := newGameServiceWith(testCatalog(), testConfig(), testRng(), store)

	gs, err := svc.NewGame(ctx, uuid.New())
	if err != nil {
		t.Fatalf("new game failed: %v", err)
	}

	store.fail = true
	report, snap, err := svc.Wait(ctx, gs.ID)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if snap.Day != 2 {
		t.Errorf("day = %d, want 2 — a failed save must not block the tick", snap.Day)
	}

	warned := false
	for _, ev := range report.Events {
		if strings.Contains(ev, "Autosave failed") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("events = %q, want an autosave failure warning", report.Events)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Retirement
// ──────────────────────────────────────────────────────────────────────────────

func TestRetire(t *testing.T) {
	ctx := context.Background()
	svc := newGameService(testCatalog(), testConfig())

	gs, err := svc.NewGame(ctx, uuid.New())
	if err != nil {
		t.Fatalf("new game failed: %v", err)
	}

	snap, err := svc.Retire(ctx, gs.ID, "Vex")
	if err != nil {
		t.Fatalf("retire failed: %v", err)
	}
	if !snap.GameOver {
		t.Fatal("retired game should be over")
	}
	if snap.EndReason != "Voluntary Retirement" {
		t.Errorf("end reason = %q, want %q", snap.EndReason, "Voluntary Retirement")
	}
	if _, err := svc.Retire(ctx, gs.ID, "Vex"); !errors.Is(err, domain.ErrGameOver) {
		t.Errorf("double retire err = %v, want ErrGameOver", err)
	}
}
