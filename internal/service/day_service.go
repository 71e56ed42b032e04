package service

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// DayService
// ──────────────────────────────────────────────────────────────────────────────

// DayService runs the overnight tick: the fixed sequence of ledger, market,
// and board updates between one trading day and the next. The sequence order
// is load-bearing — interest accrues before maturities debit, warehouses
// settle before contracts age, and markets evolve before new boards generate.
type DayService struct {
	cat      *domain.Catalog
	cfg      *config.Config
	rng      *rand.Rand
	market   *MarketService
	bank     *BankService
	contract *ContractService
	shipping *ShippingService
}

// NewDayService constructs a DayService.
func NewDayService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand,
	market *MarketService, bank *BankService, contract *ContractService, shipping *ShippingService) *DayService {
	return &DayService{
		cat:      cat,
		cfg:      cfg,
		rng:      rng,
		market:   market,
		bank:     bank,
		contract: contract,
		shipping: shipping,
	}
}

// Tick advances the state to the next morning.
func (ds *DayService) Tick(gs *domain.GameState, report *domain.DailyReport) {
	// ── 1. new day, fresh counters ───────────────────────────────────────────
	gs.Day++
	gs.DailyTrades = make(map[string]int)
	gs.FabricatedToday = make(map[string]bool)

	// ── 2. prune stale contract listings ─────────────────────────────────────
	ds.contract.Prune(gs)

	// ── 3. inbound freighter traffic ─────────────────────────────────────────
	ds.market.InjectGlobalSupply(gs)

	// ── 4. morning news ──────────────────────────────────────────────────────
	if len(ds.cat.FlavorMessages) > 0 {
		report.FlavorMessage = ds.cat.FlavorMessages[ds.rng.Intn(len(ds.cat.FlavorMessages))]
	}

	// ── 5. overdraft interest ────────────────────────────────────────────────
	if gs.Cash < 0 {
		interest := overdraftInterest(gs.Cash, ds.cfg.Game.OverdraftInterestRate)
		gs.Cash -= interest
		report.Add("Overdraft interest charged: −%d cr", interest)
		gs.Log(domain.MsgLoss, "Overdraft interest: −%d cr", interest)
	}

	// ── 6. spoilage & leakage ────────────────────────────────────────────────
	ds.applySpoilage(gs, report)

	// ── 7. loans: accrue, then mature ────────────────────────────────────────
	ds.tickLoans(gs, report)

	// ── 8. term deposits mature ──────────────────────────────────────────────
	ds.tickDeposits(gs, report)

	// ── 9. warehouses: delays, seizures, then contract auto-settlement ───────
	ds.shipping.Tick(gs, report)
	ds.contract.AutoSettle(gs, report)

	// ── 10. trade bans count down ────────────────────────────────────────────
	for venue, days := range gs.TradeBans {
		if days <= 1 {
			delete(gs.TradeBans, venue)
			report.Add("Trade ban at %s has been lifted", ds.cat.Venues[venue].Name)
		} else {
			gs.TradeBans[venue] = days - 1
		}
	}

	// ── 11. contracts age and breach ─────────────────────────────────────────
	ds.contract.Tick(gs, report)

	// ── 12. markets drift overnight ──────────────────────────────────────────
	ds.market.EvolveAll(gs)

	// ── 13. fresh boards ─────────────────────────────────────────────────────
	ds.bank.GenerateOffers(gs)
	ds.contract.GenerateBoard(gs)
	gs.LoanTakenToday = false

	// ── 14. phase ladder & endgame ───────────────────────────────────────────
	ds.checkProgression(gs, report)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tick steps
// ──────────────────────────────────────────────────────────────────────────────

func overdraftInterest(cash int64, rate float64) int64 {
	owed := decimal.NewFromInt(-cash)
	return owed.Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
}

// applySpoilage decays volatile cargo: exotic goods lose 5–15% of their stack
// one night in three, and power cells bleed 2% of charge-dead units one night
// in four.
func (ds *DayService) applySpoilage(gs *domain.GameState, report *domain.DailyReport) {
	for _, name := range ds.cat.SpoilageNames {
		qty := gs.CargoQty(name)
		if qty == 0 || ds.rng.Float64() >= 0.33 {
			continue
		}
		frac := 0.05 + ds.rng.Float64()*0.10
		lost := int(float64(qty) * frac)
		if lost < 1 {
			lost = 1
		}
		cm, _ := ds.cat.FindCommodity(name)
		gs.RemoveCargo(name, lost, cm.UnitWeight)
		report.Add("%d %s decayed in the hold", lost, name)
		report.Lost(name, lost)
	}

	cells := ds.cat.PowerCellName
	if qty := gs.CargoQty(cells); qty > 0 && ds.rng.Float64() < 0.25 {
		lost := int(float64(qty) * 0.02)
		if lost < 1 {
			lost = 1
		}
		cm, _ := ds.cat.FindCommodity(cells)
		gs.RemoveCargo(cells, lost, cm.UnitWeight)
		report.Add("%d %s discharged overnight", lost, cells)
		report.Lost(cells, lost)
	}
}

// tickLoans compounds one day of interest on every loan, then force-debits
// any loan reaching term. Maturity debits ignore the overdraft floor.
func (ds *DayService) tickLoans(gs *domain.GameState, report *domain.DailyReport) {
	kept := gs.Loans[:0]
	for _, loan := range gs.Loans {
		loan.AccrueInterest()
		loan.DaysRemaining--
		if loan.DaysRemaining > 0 {
			kept = append(kept, loan)
			continue
		}
		gs.Cash -= loan.CurrentDebt
		report.Add("Loan from %s matured: −%d cr collected", loan.FirmName, loan.CurrentDebt)
		gs.Log(domain.MsgLoss, "%s collected %d cr at term", loan.FirmName, loan.CurrentDebt)
		if loan.CurrentDebt > gs.Stats.LargestSingleLoss {
			gs.Stats.LargestSingleLoss = loan.CurrentDebt
		}
	}
	gs.Loans = kept
}

// tickDeposits matures term deposits, crediting the fixed maturity value.
func (ds *DayService) tickDeposits(gs *domain.GameState, report *domain.DailyReport) {
	kept := gs.Investments[:0]
	for _, inv := range gs.Investments {
		inv.DaysRemaining--
		if inv.DaysRemaining > 0 {
			kept = append(kept, inv)
			continue
		}
		gs.Cash += inv.MaturityValue
		report.Add("Term deposit matured: +%d cr", inv.MaturityValue)
		gs.Log(domain.MsgProfit, "Deposit matured: +%d cr", inv.MaturityValue)
	}
	gs.Investments = kept
}

// ──────────────────────────────────────────────────────────────────────────────
// Phase ladder
// ──────────────────────────────────────────────────────────────────────────────

// checkProgression advances the phase when the net-worth goal is met, ends the
// game when a deadline passes unmet, and retires the pilot when overtime runs
// out.
func (ds *DayService) checkProgression(gs *domain.GameState, report *domain.DailyReport) {
	if gs.Phase <= 3 {
		goal := ds.cfg.GoalFor(gs.Phase)
		if gs.NetWorth() >= goal {
			oldPhase := gs.Phase
			gs.Phase++
			ds.market.RescaleForPhase(gs, oldPhase, gs.Phase)
			report.Add("Goal of %d cr reached — entering phase %d. Markets are flooded with new supply.", goal, gs.Phase)
			gs.Log(domain.MsgProfit, "Phase %d reached", gs.Phase)
			return
		}
		if gs.Day > ds.cfg.DeadlineFor(gs.Phase) {
			gs.GameOver = true
			gs.EndReason = "Financial Deadline Missed"
			report.Add("The phase %d goal was not met in time. The venture is over.", gs.Phase)
			return
		}
		return
	}

	if gs.Day > ds.cfg.Game.OvertimeDays {
		gs.GameOver = true
		gs.EndReason = "Voyage Complete"
		report.Add("After %d days the charter expires. Time to count the fortune.", gs.Day-1)
	}
}
