package service

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// ContractService
// ──────────────────────────────────────────────────────────────────────────────

// ContractService implements the delivery-contract board: daily generation,
// acceptance, settlement against arrived warehouse stock, and breach handling.
type ContractService struct {
	cat *domain.Catalog
	cfg *config.Config
	rng *rand.Rand
}

// NewContractService constructs a ContractService.
func NewContractService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand) *ContractService {
	return &ContractService{cat: cat, cfg: cfg, rng: rng}
}

// ──────────────────────────────────────────────────────────────────────────────
// Generation
// ──────────────────────────────────────────────────────────────────────────────

// GenerateBoard refreshes the day's contract board: unexpired offers age in
// place and survive, and the board tops up to the phase limit with fresh
// draws. Each empty slot gets up to three attempts; a draw is discarded when
// it lands on the pilot's current venue, a banned venue, or a commodity
// already covered by an active contract or another board offer.
func (cs *ContractService) GenerateBoard(gs *domain.GameState) {
	limit := cs.cfg.ContractLimitFor(gs.Phase)

	board := make([]*domain.Contract, 0, limit)
	for _, ct := range gs.AvailableContracts {
		ct.DaysRemaining--
		if ct.DaysRemaining > 0 {
			board = append(board, ct)
		}
	}

	for len(board) < limit {
		var drawn *domain.Contract
		for attempt := 0; attempt < 3 && drawn == nil; attempt++ {
			drawn = cs.draw(gs, board)
		}
		if drawn == nil {
			break
		}
		board = append(board, drawn)
	}
	gs.AvailableContracts = board
}

func (cs *ContractService) draw(gs *domain.GameState, board []*domain.Contract) *domain.Contract {
	dest := cs.rng.Intn(len(cs.cat.Venues))
	if dest == gs.VenueIndex || gs.TradeBans[dest] > 0 {
		return nil
	}

	cm := cs.cat.Commodities[cs.rng.Intn(len(cs.cat.Commodities))]
	for _, active := range gs.ActiveContracts {
		if active.IsActive() && active.Commodity == cm.Name {
			return nil
		}
	}
	for _, offered := range board {
		if offered.Commodity == cm.Name {
			return nil
		}
	}

	qty := (cs.rng.Intn(20) + 5) * contractQtyMult(gs.Phase)
	reward := cs.rewardFor(cm, qty, gs.Phase)

	return &domain.Contract{
		ID:               uuid.New(),
		Firm:             cs.cat.ContractFirms[cs.rng.Intn(len(cs.cat.ContractFirms))].Name,
		Commodity:        cm.Name,
		Quantity:         qty,
		DestinationIndex: dest,
		Reward:           reward,
		Penalty:          reward / 2,
		DaysRemaining:    cs.rng.Intn(3) + 1,
		Status:           domain.ContractActive,
	}
}

// contractQtyMult scales contract volumes with the economy's depth.
func contractQtyMult(phase int) int {
	switch phase {
	case 1:
		return 1
	case 2:
		return 10
	case 3:
		return 50
	default:
		return 100
	}
}

// rewardFor prices a contract generously above the commodity ceiling:
//
//	maxPrice × qty × (1.5 + rand×0.5) × (1 + 0.5×(phase−1))
func (cs *ContractService) rewardFor(cm domain.Commodity, qty, phase int) int64 {
	base := decimal.NewFromInt(cm.RangeMax).Mul(decimal.NewFromInt(int64(qty)))
	margin := decimal.NewFromFloat(1.5 + cs.rng.Float64()*0.5)
	phaseBoost := decimal.NewFromFloat(1 + 0.5*float64(phase-1))
	return base.Mul(margin).Mul(phaseBoost).Round(0).IntPart()
}

// ──────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────────────────────────────────

// Accept moves a board contract into the active set, subject to the phase
// concurrency limit.
func (cs *ContractService) Accept(gs *domain.GameState, contractID uuid.UUID) (*domain.Contract, error) {
	idx := -1
	for i, ct := range gs.AvailableContracts {
		if ct.ID == contractID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrContractNotFound
	}

	active := 0
	for _, ct := range gs.ActiveContracts {
		if ct.IsActive() {
			active++
		}
	}
	if active >= cs.cfg.ContractLimitFor(gs.Phase) {
		return nil, domain.ErrContractLimit
	}

	ct := gs.AvailableContracts[idx]
	gs.AvailableContracts = append(gs.AvailableContracts[:idx], gs.AvailableContracts[idx+1:]...)
	gs.ActiveContracts = append(gs.ActiveContracts, ct)
	gs.Log(domain.MsgInfo, "Accepted contract: %d %s to %s for %d cr",
		ct.Quantity, ct.Commodity, cs.cat.Venues[ct.DestinationIndex].Name, ct.Reward)
	return ct, nil
}

// Settle fulfils an active contract from arrived, unreserved warehouse stock
// at the destination. Settling a completed or failed contract is a no-op
// rejection, which makes retried settle requests harmless.
func (cs *ContractService) Settle(gs *domain.GameState, contractID uuid.UUID) (int64, error) {
	var ct *domain.Contract
	for _, c := range gs.ActiveContracts {
		if c.ID == contractID {
			ct = c
			break
		}
	}
	if ct == nil {
		return 0, domain.ErrContractNotFound
	}
	if !ct.IsActive() {
		return 0, domain.ErrContractNotActive
	}

	wh := gs.WarehouseAt(ct.DestinationIndex)
	item := wh[ct.Commodity]
	if item == nil {
		return 0, domain.ErrContractShortStock
	}
	if !item.Arrived(gs.Day) {
		return 0, domain.ErrShipmentNotArrived
	}
	if item.Quantity < ct.Quantity {
		return 0, domain.ErrContractShortStock
	}

	item.Quantity -= ct.Quantity
	if item.Quantity == 0 {
		delete(wh, ct.Commodity)
	}
	gs.Cash += ct.Reward
	ct.Status = domain.ContractCompleted
	ct.DayCompleted = gs.Day

	if ct.Reward > gs.Stats.LargestSingleWin {
		gs.Stats.LargestSingleWin = ct.Reward
	}
	gs.Log(domain.MsgProfit, "Contract fulfilled: %s paid %d cr", ct.Firm, ct.Reward)
	return ct.Reward, nil
}

// AutoSettle attempts settlement of every active contract whose reserved
// stock has arrived at its destination. Runs during the overnight tick.
func (cs *ContractService) AutoSettle(gs *domain.GameState, report *domain.DailyReport) {
	for _, ct := range gs.ActiveContracts {
		if !ct.IsActive() {
			continue
		}
		wh := gs.Warehouse[ct.DestinationIndex]
		if wh == nil {
			continue
		}
		item := wh[ct.Commodity]
		if item == nil || !item.ContractReserved || !item.Arrived(gs.Day) || item.Quantity < ct.Quantity {
			continue
		}
		if _, err := cs.Settle(gs, ct.ID); err == nil {
			report.Add("Contract with %s settled on arrival: +%d cr", ct.Firm, ct.Reward)
		}
	}
}

// Tick ages every active contract by one day and breaches those that expire:
// the penalty is debited (overdraft permitted) and the destination venue bans
// the pilot for a few days.
func (cs *ContractService) Tick(gs *domain.GameState, report *domain.DailyReport) {
	for _, ct := range gs.ActiveContracts {
		if !ct.IsActive() {
			continue
		}
		ct.DaysRemaining--
		if ct.DaysRemaining == 1 {
			report.Add("Contract with %s is due tomorrow: %d %s to %s",
				ct.Firm, ct.Quantity, ct.Commodity, cs.cat.Venues[ct.DestinationIndex].Name)
		}
		if ct.DaysRemaining > 0 {
			continue
		}

		ct.Status = domain.ContractFailed
		ct.DayCompleted = gs.Day
		gs.Cash -= ct.Penalty
		gs.TradeBans[ct.DestinationIndex] = cs.cfg.Game.TradeBanDays

		if ct.Penalty > gs.Stats.LargestSingleLoss {
			gs.Stats.LargestSingleLoss = ct.Penalty
		}
		gs.Log(domain.MsgLoss, "Contract breached: %s fined %d cr, banned from %s",
			ct.Firm, ct.Penalty, cs.cat.Venues[ct.DestinationIndex].Name)
		report.Add("Breached contract with %s: −%d cr and a %d-day ban at %s",
			ct.Firm, ct.Penalty, cs.cfg.Game.TradeBanDays, cs.cat.Venues[ct.DestinationIndex].Name)
	}
}

// Prune drops finished contracts that have lingered past their display window
// so the active list does not grow without bound.
func (cs *ContractService) Prune(gs *domain.GameState) {
	const displayDays = 3
	kept := gs.ActiveContracts[:0]
	for _, ct := range gs.ActiveContracts {
		if ct.IsActive() || gs.Day-ct.DayCompleted < displayDays {
			kept = append(kept, ct)
		}
	}
	gs.ActiveContracts = kept
}
