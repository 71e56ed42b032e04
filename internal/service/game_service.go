package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Collaborator interfaces
// ──────────────────────────────────────────────────────────────────────────────

// SaveStore persists game snapshots. Implemented by repository.SaveRepo.
type SaveStore interface {
	Upsert(ctx context.Context, save *domain.GameSave) error
	GetByPilot(ctx context.Context, pilotID uuid.UUID) (*domain.GameSave, error)
	Delete(ctx context.Context, pilotID uuid.UUID) error
}

// Broadcaster pushes live updates to a pilot's open sockets. Implemented by
// ws.Hub; wired after construction to break the package cycle.
type Broadcaster interface {
	SendToPilot(pilotID uuid.UUID, messageType string, payload any)
}

// ──────────────────────────────────────────────────────────────────────────────
// Session
// ──────────────────────────────────────────────────────────────────────────────

// session is one live play-through. The mutex serialises every command so the
// engine processes a session's requests strictly one at a time; a suspended
// jump parks in pending and blocks all commands except its resolution.
type session struct {
	mu        sync.Mutex
	state     *domain.GameState
	pending   *domain.PendingJump
	lastTouch time.Time
}

// ──────────────────────────────────────────────────────────────────────────────
// GameService
// ──────────────────────────────────────────────────────────────────────────────

// GameService owns the live session registry and fronts every game command.
// Callers never touch a GameState directly: commands mutate under the session
// lock and all reads return deep-copied snapshots.
type GameService struct {
	cat    *domain.Catalog
	cfg    *config.Config
	rng    *rand.Rand
	market *MarketService
	trade  *TradeService
	bank   *BankService
	cons   *ContractService
	ship   *ShippingService
	travel *TravelService
	scores *ScoreService
	saves  SaveStore

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	broadcaster Broadcaster
}

// NewGameService constructs a GameService.
func NewGameService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand,
	market *MarketService, trade *TradeService, bank *BankService,
	cons *ContractService, ship *ShippingService, travel *TravelService,
	scores *ScoreService, saves SaveStore) *GameService {
	return &GameService{
		cat:      cat,
		cfg:      cfg,
		rng:      rng,
		market:   market,
		trade:    trade,
		bank:     bank,
		cons:     cons,
		ship:     ship,
		travel:   travel,
		scores:   scores,
		saves:    saves,
		sessions: make(map[uuid.UUID]*session),
	}
}

// SetBroadcaster wires the websocket hub after construction.
func (g *GameService) SetBroadcaster(b Broadcaster) {
	g.broadcaster = b
}

// ──────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────────────────────────────────

// NewGame starts a fresh play-through for a pilot: deep in the red, one forced
// starter loan, and a random home venue. Any previous live session for the
// pilot is dropped.
func (g *GameService) NewGame(ctx context.Context, pilotID uuid.UUID) (*domain.GameState, error) {
	now := time.Now()
	home := g.rng.Intn(len(g.cat.Venues))
	gs := &domain.GameState{
		ID:              uuid.New(),
		PilotID:         pilotID,
		Day:             1,
		Cash:            g.cfg.Game.StartingCash,
		VenueIndex:      home,
		Phase:           1,
		Cargo:           make(map[string]*domain.CargoItem),
		Warehouse:       make(map[int]map[string]*domain.WarehouseItem),
		CargoCapacity:   g.cfg.Game.InitialCargoCapacity,
		Markets:         g.market.GenerateMarkets(1, home),
		ShipHealth:      g.cfg.Game.StartingHull,
		LaserHealth:     0,
		Equipment:       make(map[string]bool),
		TradeBans:       make(map[int]int),
		DailyTrades:     make(map[string]int),
		FabricatedToday: make(map[string]bool),
		SectorPasses:    make(map[int]bool),
		TutorialSeen:    make(map[string]bool),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The dockmaster's parting gift: debt, and the credit line to dig out.
	firm := g.cat.LoanFirms[g.rng.Intn(len(g.cat.LoanFirms))]
	g.bank.OpenLoan(gs, firm.Name, g.cfg.Game.StarterLoanPrincipal, firm.BaseRate)
	gs.Log(domain.MsgInfo, "Chartered at %s with a %d cr note from %s",
		g.cat.Venues[gs.VenueIndex].Name, g.cfg.Game.StarterLoanPrincipal, firm.Name)

	g.bank.GenerateOffers(gs)
	g.cons.GenerateBoard(gs)

	g.dropSessionsFor(pilotID)
	g.mu.Lock()
	g.sessions[gs.ID] = &session{state: gs, lastTouch: now}
	g.mu.Unlock()

	if err := g.persist(ctx, gs); err != nil {
		return nil, fmt.Errorf("game_service.NewGame: initial save: %w", err)
	}
	return gs.Clone(), nil
}

// Load restores a pilot's saved game into a live session.
func (g *GameService) Load(ctx context.Context, pilotID uuid.UUID) (*domain.GameState, error) {
	save, err := g.saves.GetByPilot(ctx, pilotID)
	if err != nil {
		return nil, fmt.Errorf("game_service.Load: %w", err)
	}
	var gs domain.GameState
	if err := json.Unmarshal(save.State, &gs); err != nil {
		return nil, fmt.Errorf("game_service.Load: decode state: %w", err)
	}

	g.dropSessionsFor(pilotID)
	g.mu.Lock()
	g.sessions[gs.ID] = &session{state: &gs, lastTouch: time.Now()}
	g.mu.Unlock()
	return gs.Clone(), nil
}

// Save snapshots a live session to the store on demand.
func (g *GameService) Save(ctx context.Context, sessionID uuid.UUID) error {
	return g.withSession(sessionID, func(s *session) error {
		if err := g.persist(ctx, s.state); err != nil {
			return fmt.Errorf("game_service.Save: %w", err)
		}
		return nil
	})
}

// Retire ends the game voluntarily and books the final score.
func (g *GameService) Retire(ctx context.Context, sessionID uuid.UUID, callsign string) (*domain.GameState, error) {
	var snap *domain.GameState
	err := g.withSession(sessionID, func(s *session) error {
		if s.state.GameOver {
			return domain.ErrGameOver
		}
		if s.pending != nil {
			return domain.ErrEncounterPending
		}
		s.state.GameOver = true
		s.state.EndReason = "Voluntary Retirement"
		s.state.Log(domain.MsgInfo, "Retired with a net worth of %d cr", s.state.NetWorth())
		g.onGameOver(ctx, s.state, callsign)
		snap = s.state.Clone()
		return nil
	})
	return snap, err
}

// Snapshot returns a deep copy of the session state plus any open encounter.
func (g *GameService) Snapshot(sessionID uuid.UUID) (*domain.GameState, *domain.Encounter, error) {
	g.mu.RLock()
	s, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var enc *domain.Encounter
	if s.pending != nil {
		e := *s.pending.Encounter
		enc = &e
	}
	return s.state.Clone(), enc, nil
}

// SessionCount returns the number of live in-memory sessions.
func (g *GameService) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// SessionForPilot finds the pilot's live session id, if any.
func (g *GameService) SessionForPilot(pilotID uuid.UUID) (uuid.UUID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for id, s := range g.sessions {
		if s.state.PilotID == pilotID {
			return id, true
		}
	}
	return uuid.Nil, false
}

// ──────────────────────────────────────────────────────────────────────────────
// Station commands
// ──────────────────────────────────────────────────────────────────────────────

// Buy executes a market purchase in the pilot's session.
func (g *GameService) Buy(ctx context.Context, sessionID uuid.UUID, commodity string, qty int, confirmed bool) (*TradeResult, *domain.GameState, error) {
	var res *TradeResult
	snap, err := g.command(ctx, sessionID, func(gs *domain.GameState) error {
		var err error
		res, err = g.trade.Buy(gs, commodity, qty, confirmed)
		return err
	})
	return res, snap, err
}

// Sell executes a market sale in the pilot's session.
func (g *GameService) Sell(ctx context.Context, sessionID uuid.UUID, commodity string, qty int, confirmed bool) (*TradeResult, *domain.GameState, error) {
	var res *TradeResult
	snap, err := g.command(ctx, sessionID, func(gs *domain.GameState) error {
		var err error
		res, err = g.trade.Sell(gs, commodity, qty, confirmed)
		return err
	})
	return res, snap, err
}

// Repair runs the repair dock.
func (g *GameService) Repair(ctx context.Context, sessionID uuid.UUID, target RepairTarget) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.trade.Repair(gs, target)
		return err
	})
}

// BuyEquipment installs a shop item.
func (g *GameService) BuyEquipment(ctx context.Context, sessionID uuid.UUID, id string) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.trade.BuyEquipment(gs, id)
		return err
	})
}

// Fabricate runs a fabrication recipe.
func (g *GameService) Fabricate(ctx context.Context, sessionID uuid.UUID, recipe string, units int) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.trade.Fabricate(gs, recipe, units)
		return err
	})
}

// ClearWarrant pays the bounty office.
func (g *GameService) ClearWarrant(ctx context.Context, sessionID uuid.UUID) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.trade.ClearWarrant(gs)
		return err
	})
}

// ExpandCargo grows the hold.
func (g *GameService) ExpandCargo(ctx context.Context, sessionID uuid.UUID, tonnes int) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.trade.ExpandCargo(gs, tonnes)
		return err
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Bank, contract & shipping commands
// ──────────────────────────────────────────────────────────────────────────────

// DrawLoan accepts a loan offer.
func (g *GameService) DrawLoan(ctx context.Context, sessionID, offerID uuid.UUID) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.bank.DrawLoan(gs, offerID)
		return err
	})
}

// RepayLoan settles a loan.
func (g *GameService) RepayLoan(ctx context.Context, sessionID, loanID uuid.UUID) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.bank.RepayLoan(gs, loanID)
		return err
	})
}

// Deposit opens a term deposit.
func (g *GameService) Deposit(ctx context.Context, sessionID uuid.UUID, amount int64, termDays int) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.bank.Deposit(gs, amount, termDays)
		return err
	})
}

// AcceptContract takes a contract from the board.
func (g *GameService) AcceptContract(ctx context.Context, sessionID, contractID uuid.UUID) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.cons.Accept(gs, contractID)
		return err
	})
}

// SettleContract fulfils a contract from arrived warehouse stock.
func (g *GameService) SettleContract(ctx context.Context, sessionID, contractID uuid.UUID) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.cons.Settle(gs, contractID)
		return err
	})
}

// Ship books a freight shipment from the hold.
func (g *GameService) Ship(ctx context.Context, sessionID uuid.UUID, commodity string, qty, destIdx int, tier ShippingTier, reserve bool) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.ship.Ship(gs, commodity, qty, destIdx, tier, reserve)
		return err
	})
}

// ClaimShipment loads arrived warehouse stock aboard.
func (g *GameService) ClaimShipment(ctx context.Context, sessionID uuid.UUID, commodity string, qty int) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		return g.ship.Claim(gs, commodity, qty)
	})
}

// SellFromWarehouse liquidates arrived stock without loading it.
func (g *GameService) SellFromWarehouse(ctx context.Context, sessionID uuid.UUID, commodity string, qty int, confirmed bool) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.ship.SellFromWarehouse(gs, commodity, qty, confirmed)
		return err
	})
}

// ForwardShipment re-ships warehouse stock to another venue.
func (g *GameService) ForwardShipment(ctx context.Context, sessionID uuid.UUID, commodity string, qty, destIdx int, tier ShippingTier) (*domain.GameState, error) {
	return g.command(ctx, sessionID, func(gs *domain.GameState) error {
		_, err := g.ship.Forward(gs, commodity, qty, destIdx, tier)
		return err
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Travel
// ──────────────────────────────────────────────────────────────────────────────

// Depart initiates a jump. When an encounter fires, the returned snapshot
// reflects the pre-jump state and the encounter must be resolved next.
func (g *GameService) Depart(ctx context.Context, sessionID uuid.UUID, req JumpRequest) (*domain.DailyReport, *domain.Encounter, *domain.GameState, error) {
	var (
		report *domain.DailyReport
		enc    *domain.Encounter
		snap   *domain.GameState
	)
	err := g.withSession(sessionID, func(s *session) error {
		if s.pending != nil {
			return domain.ErrEncounterPending
		}
		if s.state.GameOver {
			return domain.ErrGameOver
		}

		newState, rep, pending, err := g.travel.Depart(s.state, req)
		if err != nil {
			return err
		}
		if pending != nil {
			s.pending = pending
			e := *pending.Encounter
			enc = &e
			snap = s.state.Clone()
			g.push(s.state.PilotID, "encounter_prompt", enc)
			return nil
		}

		s.state = newState
		report = rep
		snap = newState.Clone()
		g.afterDayAdvance(ctx, s, rep)
		return nil
	})
	return report, enc, snap, err
}

// ResolveEncounter applies the player's decision to the suspended jump.
func (g *GameService) ResolveEncounter(ctx context.Context, sessionID uuid.UUID, decision domain.Decision) (*domain.DailyReport, *domain.GameState, error) {
	var (
		report *domain.DailyReport
		snap   *domain.GameState
	)
	err := g.withSession(sessionID, func(s *session) error {
		if s.pending == nil {
			return domain.ErrNoEncounterPending
		}
		newState, rep, err := g.travel.Resolve(s.pending, decision)
		if err != nil {
			return err
		}
		s.pending = nil
		s.state = newState
		report = rep
		snap = newState.Clone()
		g.afterDayAdvance(ctx, s, rep)
		return nil
	})
	return report, snap, err
}

// Wait stays docked for a day.
func (g *GameService) Wait(ctx context.Context, sessionID uuid.UUID) (*domain.DailyReport, *domain.GameState, error) {
	var (
		report *domain.DailyReport
		snap   *domain.GameState
	)
	err := g.withSession(sessionID, func(s *session) error {
		if s.pending != nil {
			return domain.ErrEncounterPending
		}
		if s.state.GameOver {
			return domain.ErrGameOver
		}
		newState, rep, err := g.travel.Wait(s.state)
		if err != nil {
			return err
		}
		s.state = newState
		report = rep
		snap = newState.Clone()
		g.afterDayAdvance(ctx, s, rep)
		return nil
	})
	return report, snap, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Housekeeping (scheduler entry points)
// ──────────────────────────────────────────────────────────────────────────────

// AutosaveAll persists every live session. Called by the scheduler.
func (g *GameService) AutosaveAll(ctx context.Context) (saved, failed int) {
	g.mu.RLock()
	ids := make([]uuid.UUID, 0, len(g.sessions))
	for id := range g.sessions {
		ids = append(ids, id)
	}
	g.mu.RUnlock()

	for _, id := range ids {
		if err := g.Save(ctx, id); err != nil {
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

// EvictIdle saves and drops sessions untouched for longer than the TTL.
// Sessions with a pending encounter are kept: the suspended jump lives only
// in memory and must not be abandoned by the janitor.
func (g *GameService) EvictIdle(ctx context.Context, ttl time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	evicted := 0
	for id, s := range g.sessions {
		s.mu.Lock()
		idle := time.Since(s.lastTouch) > ttl
		hasPending := s.pending != nil
		if idle && !hasPending {
			_ = g.persist(ctx, s.state)
			delete(g.sessions, id)
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}

// ──────────────────────────────────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────────────────────────────────

func (g *GameService) withSession(sessionID uuid.UUID, fn func(*session) error) error {
	g.mu.RLock()
	s, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouch = time.Now()
	return fn(s)
}

// command runs a station-side mutation under the session lock, rejecting it
// while an encounter is pending or the game is over, and pushes the fresh
// snapshot to the pilot's sockets.
func (g *GameService) command(ctx context.Context, sessionID uuid.UUID, fn func(*domain.GameState) error) (*domain.GameState, error) {
	var snap *domain.GameState
	err := g.withSession(sessionID, func(s *session) error {
		if s.pending != nil {
			return domain.ErrEncounterPending
		}
		if s.state.GameOver {
			return domain.ErrGameOver
		}
		if err := fn(s.state); err != nil {
			return err
		}
		s.state.UpdatedAt = time.Now()
		snap = s.state.Clone()
		g.push(s.state.PilotID, "state_update", snap)
		return nil
	})
	return snap, err
}

// afterDayAdvance handles everything common to a completed day: persistence,
// the websocket morning briefing, and endgame bookkeeping. A failed autosave
// never blocks play, but the pilot gets told about it in the briefing.
func (g *GameService) afterDayAdvance(ctx context.Context, s *session, report *domain.DailyReport) {
	s.state.UpdatedAt = time.Now()
	if err := g.persist(ctx, s.state); err != nil {
		report.Add("Autosave failed — progress since the last successful save is at risk")
		s.state.Log(domain.MsgDanger, "Autosave failed: %v", err)
	}

	g.push(s.state.PilotID, "day_report", report)
	g.push(s.state.PilotID, "state_update", s.state.Clone())

	if s.state.GameOver {
		g.onGameOver(ctx, s.state, "")
	}
}

// onGameOver books the final score and announces the end.
func (g *GameService) onGameOver(ctx context.Context, gs *domain.GameState, callsign string) {
	if g.scores != nil {
		name := callsign
		if name == "" {
			name = gs.PilotID.String()[:8]
		}
		_ = g.scores.Submit(ctx, &gs.PilotID, name, gs.NetWorth(), gs.Day)
	}
	_ = g.persist(ctx, gs)
	g.push(gs.PilotID, "game_over", map[string]any{
		"reason":    gs.EndReason,
		"net_worth": gs.NetWorth(),
		"days":      gs.Day,
	})
}

func (g *GameService) persist(ctx context.Context, gs *domain.GameState) error {
	if g.saves == nil {
		return nil
	}
	blob, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	save := &domain.GameSave{
		PilotID:   gs.PilotID,
		SessionID: gs.ID,
		Day:       gs.Day,
		Phase:     gs.Phase,
		NetWorth:  gs.NetWorth(),
		State:     blob,
		SavedAt:   time.Now(),
	}
	if err := g.saves.Upsert(ctx, save); err != nil {
		return domain.ErrSaveFailed
	}
	return nil
}

func (g *GameService) dropSessionsFor(pilotID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, s := range g.sessions {
		if s.state.PilotID == pilotID {
			delete(g.sessions, id)
		}
	}
}

func (g *GameService) push(pilotID uuid.UUID, messageType string, payload any) {
	if g.broadcaster != nil {
		g.broadcaster.SendToPilot(pilotID, messageType, payload)
	}
}
