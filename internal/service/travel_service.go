package service

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// TravelService
// ──────────────────────────────────────────────────────────────────────────────

// TravelService implements the two-phase jump state machine. Depart validates
// and pays the jump costs on a cloned state; if the void rolls an encounter
// the clone is suspended inside a PendingJump awaiting one player decision,
// otherwise the jump finalizes immediately (arrival, mining, overnight tick).
// A suspended jump is never abandoned — the only way forward is Resolve.
type TravelService struct {
	cat *domain.Catalog
	cfg *config.Config
	rng *rand.Rand
	day *DayService
}

// NewTravelService constructs a TravelService.
func NewTravelService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand, day *DayService) *TravelService {
	return &TravelService{cat: cat, cfg: cfg, rng: rng, day: day}
}

// JumpRequest carries the departure parameters.
type JumpRequest struct {
	DestIndex        int  `json:"dest_index"`
	Mining           bool `json:"mining"`   // run the laser through the belt en route
	Overload         bool `json:"overload"` // overdrive the laser: double yield, real risk
	Insured          bool `json:"insured"`  // buy single-jump cargo cover
	InvestNinetyFive bool `json:"invest_ninety_five"` // park 95% of cash in a 1-day deposit for the jump
}

// ──────────────────────────────────────────────────────────────────────────────
// Departure
// ──────────────────────────────────────────────────────────────────────────────

// FuelCost returns the fuel units a jump consumes. Phase 1 charges purely by
// distance; later phases scale with loaded tonnage.
func (ts *TravelService) FuelCost(gs *domain.GameState, destIdx int) int {
	dist := ts.cat.Distance(gs.VenueIndex, destIdx)
	if gs.Phase == 1 {
		return dist * 2
	}
	weightFactor := int(math.Ceil(gs.CargoWeight / 1000))
	if weightFactor < 1 {
		weightFactor = 1
	}
	return dist * weightFactor
}

// MiningCellCost returns the power cells one mining run burns:
// phase × 3^(laserTier−1).
func (ts *TravelService) MiningCellCost(gs *domain.GameState) int {
	tier := gs.LaserTier(ts.cat)
	cost := gs.Phase
	for i := 1; i < tier; i++ {
		cost *= 3
	}
	return cost
}

// Depart validates and initiates a jump. On a calm transit it returns the
// fully-finalized morning state and a nil pending jump; when an encounter
// fires it returns the suspended context instead and the caller's state is
// untouched.
func (ts *TravelService) Depart(gs *domain.GameState, req JumpRequest) (*domain.GameState, *domain.DailyReport, *domain.PendingJump, error) {
	if gs.GameOver {
		return nil, nil, nil, domain.ErrGameOver
	}
	if req.DestIndex < 0 || req.DestIndex >= len(ts.cat.Venues) {
		return nil, nil, nil, domain.ErrUnknownVenue
	}
	if req.DestIndex == gs.VenueIndex {
		return nil, nil, nil, domain.ErrSameVenue
	}

	fuelCost := ts.FuelCost(gs, req.DestIndex)
	if gs.CargoQty(ts.cat.FuelName) < fuelCost {
		return nil, nil, nil, domain.ErrInsufficientFuel
	}

	var cellCost int
	if req.Mining {
		if !gs.HasLaser(ts.cat) {
			return nil, nil, nil, domain.ErrLaserRequired
		}
		cellCost = ts.MiningCellCost(gs)
		if gs.CargoQty(ts.cat.PowerCellName) < cellCost {
			return nil, nil, nil, domain.ErrInsufficientCells
		}
	}

	var premium int64
	if req.Insured {
		premium = insurancePremium(gs, ts.cfg.Game.InsurancePremiumRate)
		if gs.Cash-premium < ts.cfg.Game.OverdraftFloor {
			return nil, nil, nil, domain.ErrInsufficientFunds
		}
	}

	// All further mutation happens on a clone; the caller's state survives
	// intact until the jump fully finalizes.
	work := gs.Clone()
	report := domain.NewDailyReport()

	// Cash parked in a deposit is out of reach for whatever the void demands;
	// the banks refuse the trick while any loan is outstanding.
	if req.InvestNinetyFive && len(work.Loans) == 0 {
		amount := work.Cash * 95 / 100
		if amount > 0 {
			rate := ts.cfg.Game.DepositRate1Day
			work.Cash -= amount
			work.Investments = append(work.Investments, &domain.BankInvestment{
				ID:            uuid.New(),
				Amount:        amount,
				InterestRate:  rate,
				DaysRemaining: 1,
				MaturityValue: domain.DepositMaturity(amount, rate),
			})
			report.Add("Parked %d cr in a 1-day deposit before departure", amount)
			work.Log(domain.MsgInfo, "Pre-jump deposit: %d cr locked for the transit", amount)
		}
	}

	fuelCm, _ := ts.cat.FindCommodity(ts.cat.FuelName)
	work.RemoveCargo(ts.cat.FuelName, fuelCost, fuelCm.UnitWeight)
	report.FuelUsed = fuelCost

	if req.Insured {
		work.Cash -= premium
		report.InsurancePremium = premium
		report.Add("Single-jump cargo cover bound for %d cr", premium)
	}

	if ts.rollEncounter(work, req.DestIndex) {
		pending := &domain.PendingJump{
			State:     work,
			Report:    report,
			DestIndex: req.DestIndex,
			Mining:    req.Mining,
			Overload:  req.Overload,
			Insured:   req.Insured,
			Encounter: ts.buildEncounter(work, req.Insured),
		}
		return nil, nil, pending, nil
	}

	ts.finalize(work, report, req.DestIndex, req.Mining, req.Overload, req.Insured)
	return work, report, nil, nil
}

// Wait stays docked for a day: no fuel, no encounters, just the overnight tick.
func (ts *TravelService) Wait(gs *domain.GameState) (*domain.GameState, *domain.DailyReport, error) {
	if gs.GameOver {
		return nil, nil, domain.ErrGameOver
	}
	work := gs.Clone()
	report := domain.NewDailyReport()
	report.Add("Stayed docked at %s", ts.cat.Venues[work.VenueIndex].Name)
	ts.day.Tick(work, report)
	return work, report, nil
}

// rollEncounter decides whether the void interrupts this jump.
func (ts *TravelService) rollEncounter(gs *domain.GameState, destIdx int) bool {
	chance := ts.cfg.Game.EncounterBaseChance
	if gs.WarrantLevel > 0 {
		chance += ts.cfg.Game.WarrantEncounterBonus
	}
	if gs.SectorPasses[destIdx] {
		chance -= ts.cfg.Game.SectorPassDiscount
	}
	return ts.rng.Float64() < chance
}

func insurancePremium(gs *domain.GameState, rate float64) int64 {
	value := gs.CargoValue(gs.Markets[gs.VenueIndex])
	return int64(math.Round(float64(value) * rate))
}

// ──────────────────────────────────────────────────────────────────────────────
// Encounter construction
// ──────────────────────────────────────────────────────────────────────────────

// riskDamage is the hull cost of defying an armed demand. Insurance syndicates
// negotiate softer treatment; shields soak a share of what lands.
func riskDamage(gs *domain.GameState, cat *domain.Catalog, insured bool) int {
	mult := 4.0
	if insured {
		mult = 1.5
	}
	shield := float64(gs.TierOf(cat, domain.EquipShield))
	dmg := 45 * mult * (1 - shield*0.15)
	if dmg < 0 {
		dmg = 0
	}
	return int(math.Round(dmg))
}

func (ts *TravelService) buildEncounter(gs *domain.GameState, insured bool) *domain.Encounter {
	et := domain.EncounterTypes[ts.rng.Intn(len(domain.EncounterTypes))]
	e := &domain.Encounter{Type: et}

	switch et {
	case domain.EncounterPirate:
		e.Title = "Pirate Interdiction"
		e.Description = "A rigged corvette drops out of cruise and paints your hull. They want a cut."
		if gs.Cash > 0 {
			e.DemandAmount = int64(math.Floor(float64(gs.Cash) * 0.30))
		}
		e.Decisions = []domain.Decision{domain.DecisionPay, domain.DecisionFight}

	case domain.EncounterAccident:
		e.Title = "Navigation Accident"
		e.Description = "A misplotted gravity shear rakes the hull before the computer corrects."
		shield := float64(gs.TierOf(ts.cat, domain.EquipShield))
		e.RiskDamage = int(math.Round(30 * (1 - shield*0.25)))
		e.Decisions = []domain.Decision{domain.DecisionIgnore}

	case domain.EncounterDerelict:
		e.Title = "Derelict Hulk"
		e.Description = "A dead freighter drifts across your lane. Its holds might not be empty."
		e.Decisions = []domain.Decision{domain.DecisionCheck, domain.DecisionLeave}

	case domain.EncounterFuelBreach:
		e.Title = "Fuel Line Breach"
		e.Description = "A micro-fracture vents propellant into the dark before the crew seals it."
		e.Decisions = []domain.Decision{domain.DecisionIgnore}

	case domain.EncounterMutiny:
		e.Title = "Crew Unrest"
		e.Description = "The crew blocks the bridge corridor. Back pay, or they stop being polite."
		if gs.Cash > 0 {
			e.DemandAmount = int64(math.Floor(float64(gs.Cash) * 0.15))
		}
		e.RiskDamage = riskDamage(gs, ts.cat, insured)
		e.Decisions = []domain.Decision{domain.DecisionPay, domain.DecisionIgnore}

	case domain.EncounterCargoTax:
		e.Title = "Transit Cargo Levy"
		e.Description = "A patrol cutter demands the per-tonne transit levy on everything aboard."
		e.DemandAmount = int64(math.Ceil(gs.CargoWeight * 15))
		e.RiskDamage = riskDamage(gs, ts.cat, insured)
		e.Decisions = []domain.Decision{domain.DecisionPay, domain.DecisionIgnore}

	case domain.EncounterStructural:
		e.Title = "Structural Fatigue"
		e.Description = "Frame sensors flag a buckled cargo spar. Part of the hold is condemned."
		e.Decisions = []domain.Decision{domain.DecisionIgnore}

	case domain.EncounterVisaAudit:
		e.Title = "Transit Visa Audit"
		e.Description = "Sector customs flags your transit visa as lapsed and names the renewal fee."
		if gs.Cash > 0 {
			e.DemandAmount = int64(math.Floor(float64(gs.Cash) * 0.22))
		}
		e.Decisions = []domain.Decision{domain.DecisionPay, domain.DecisionIgnore}

	case domain.EncounterScamCustoms:
		e.Title = "Customs Shakedown"
		e.Description = "Officials with suspiciously fresh uniforms quote an 'expedited inspection' fee."
		if gs.Cash > 0 {
			e.DemandAmount = int64(math.Floor(float64(gs.Cash) * 0.25))
		}
		e.Decisions = []domain.Decision{domain.DecisionPay, domain.DecisionIgnore}

	case domain.EncounterGuildFee:
		e.Title = "Haulers' Guild Toll"
		e.Description = "Guild enforcers hail you over an unpaid lane toll for this corridor."
		e.DemandAmount = 5000 * int64(gs.Phase)
		e.RiskDamage = riskDamage(gs, ts.cat, insured)
		e.Decisions = []domain.Decision{domain.DecisionPay, domain.DecisionIgnore}

	case domain.EncounterRustRats:
		e.Title = "Rust Rat Infestation"
		e.Description = "Something with too many legs has been chewing through the electronics crates."
		e.Decisions = []domain.Decision{domain.DecisionIgnore}
	}

	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolution
// ──────────────────────────────────────────────────────────────────────────────

// Resolve applies the player's decision to a suspended jump and finalizes it.
// If the resolution leaves the ship below zero integrity the game ends on the
// spot and the arrival never happens.
func (ts *TravelService) Resolve(pending *domain.PendingJump, decision domain.Decision) (*domain.GameState, *domain.DailyReport, error) {
	if pending == nil || pending.Encounter == nil {
		return nil, nil, domain.ErrNoEncounterPending
	}
	if !pending.Encounter.Allows(decision) {
		return nil, nil, domain.ErrInvalidDecision
	}

	gs := pending.State
	report := pending.Report
	ts.applyDecision(gs, report, pending.Encounter, decision)

	if gs.ShipHealth <= 0 {
		gs.GameOver = true
		gs.EndReason = "Structural Integrity Failure"
		report.Add("The hull gives way. The ship breaks apart between the stars.")
		gs.Log(domain.MsgDanger, "Ship lost to structural failure")
		return gs, report, nil
	}

	ts.finalize(gs, report, pending.DestIndex, pending.Mining, pending.Overload, pending.Insured)
	return gs, report, nil
}

func (ts *TravelService) applyDecision(gs *domain.GameState, report *domain.DailyReport, e *domain.Encounter, decision domain.Decision) {
	switch e.Type {
	case domain.EncounterPirate:
		if decision == domain.DecisionPay {
			gs.Cash -= e.DemandAmount
			report.Add("Paid the pirates %d cr to pass", e.DemandAmount)
			gs.Log(domain.MsgLoss, "Pirate tribute: −%d cr", e.DemandAmount)
			return
		}
		// fight
		cannon := gs.TierOf(ts.cat, domain.EquipCannon)
		if cannon > 0 {
			scrap := int64(5000 * cannon)
			gs.Cash += scrap
			report.Add("The cannons tore the corvette apart. Salvage fetched %d cr", scrap)
			gs.Log(domain.MsgProfit, "Pirate salvage: +%d cr", scrap)
			if ts.rng.Float64() < 0.20 {
				gs.SectorPasses[gs.VenueIndex] = true
				report.Add("Recovered a valid sector transit pass from the wreck")
			}
			return
		}
		ts.damageHull(gs, report, 60, "Fought unarmed; boarding charges wrecked the hull")

	case domain.EncounterAccident:
		ts.damageHull(gs, report, e.RiskDamage, "Gravity shear damage")

	case domain.EncounterDerelict:
		if decision == domain.DecisionLeave {
			report.Add("Left the hulk to its drift")
			return
		}
		if ts.rng.Float64() < 0.50 {
			found := ts.rng.Intn(5) + 2
			ts.gainCargo(gs, report, ts.cat.PowerCellName, found, "Salvaged %d %s from the wreck")
		} else {
			ts.damageHull(gs, report, 20, "A rigged airlock detonated during the sweep")
		}

	case domain.EncounterFuelBreach:
		fuel := gs.CargoQty(ts.cat.FuelName)
		lost := int(float64(fuel) * 0.40)
		if lost > 0 {
			cm, _ := ts.cat.FindCommodity(ts.cat.FuelName)
			gs.RemoveCargo(ts.cat.FuelName, lost, cm.UnitWeight)
			report.Add("Vented %d %s before the breach sealed", lost, ts.cat.FuelName)
			report.Lost(ts.cat.FuelName, lost)
		}

	case domain.EncounterMutiny:
		if decision == domain.DecisionPay {
			gs.Cash -= e.DemandAmount
			report.Add("Settled crew back pay: −%d cr", e.DemandAmount)
			return
		}
		ts.damageHull(gs, report, e.RiskDamage, "The mutiny got ugly before the loyalists retook the deck")

	case domain.EncounterCargoTax:
		if decision == domain.DecisionPay {
			gs.Cash -= e.DemandAmount
			report.Add("Paid the transit cargo levy: −%d cr", e.DemandAmount)
			return
		}
		gs.WarrantLevel++
		ts.damageHull(gs, report, e.RiskDamage, "The cutter opened fire as you ran the levy point")
		report.Add("A warrant has been issued for levy evasion (level %d)", gs.WarrantLevel)

	case domain.EncounterStructural:
		oldCap := gs.CargoCapacity
		gs.CargoCapacity -= 100
		if gs.CargoCapacity < 100 {
			gs.CargoCapacity = 100
		}
		report.Add("Condemned spar reduces hold capacity from %dt to %dt", oldCap, gs.CargoCapacity)
		gs.Log(domain.MsgDanger, "Hold capacity reduced to %dt", gs.CargoCapacity)

	case domain.EncounterVisaAudit:
		if decision == domain.DecisionPay {
			gs.Cash -= e.DemandAmount
			report.Add("Renewed the transit visa: −%d cr", e.DemandAmount)
			return
		}
		gs.WarrantLevel++
		gs.LaserHealth -= 50
		if gs.LaserHealth < 0 {
			gs.LaserHealth = 0
		}
		report.Add("Customs 'inspected' the mining laser with a plasma torch")
		report.LaserDamage += 50
		report.Add("A warrant has been issued for visa violations (level %d)", gs.WarrantLevel)

	case domain.EncounterScamCustoms:
		if decision == domain.DecisionPay {
			gs.Cash -= e.DemandAmount
			report.Add("Paid the 'inspection fee': −%d cr", e.DemandAmount)
			return
		}
		for _, name := range ts.cat.ContrabandNames {
			qty := gs.CargoQty(name)
			if qty == 0 {
				continue
			}
			cm, _ := ts.cat.FindCommodity(name)
			gs.RemoveCargo(name, qty, cm.UnitWeight)
			report.Add("The 'officials' confiscated %d %s and vanished", qty, name)
			report.Lost(name, qty)
			break
		}

	case domain.EncounterGuildFee:
		if decision == domain.DecisionPay {
			gs.Cash -= e.DemandAmount
			report.Add("Paid the guild lane toll: −%d cr", e.DemandAmount)
			return
		}
		ts.damageHull(gs, report, e.RiskDamage, "Guild enforcers made their displeasure structural")

	case domain.EncounterRustRats:
		for _, name := range ts.cat.VerminTargets {
			qty := gs.CargoQty(name)
			if qty == 0 {
				continue
			}
			lost := qty / 2
			if lost < 1 {
				lost = 1
			}
			cm, _ := ts.cat.FindCommodity(name)
			gs.RemoveCargo(name, lost, cm.UnitWeight)
			report.Add("Rust rats chewed through %d %s", lost, name)
			report.Lost(name, lost)
		}
	}
}

func (ts *TravelService) damageHull(gs *domain.GameState, report *domain.DailyReport, dmg int, note string) {
	if dmg <= 0 {
		return
	}
	gs.ShipHealth -= dmg
	report.HullDamage += dmg
	report.Add("%s: hull −%d", note, dmg)
	gs.Log(domain.MsgDanger, "Hull damage: −%d (%d remaining)", dmg, gs.ShipHealth)
}

// gainCargo adds found or mined goods at zero cost, discarding what the hold
// cannot fit. The note should contain one %d (quantity) and one %s (name).
func (ts *TravelService) gainCargo(gs *domain.GameState, report *domain.DailyReport, commodity string, qty int, note string) {
	cm, ok := ts.cat.FindCommodity(commodity)
	if !ok || qty <= 0 {
		return
	}
	free := float64(gs.CargoCapacity) - gs.CargoWeight
	fits := int(free / cm.UnitWeight)
	if fits < qty {
		qty = fits
	}
	if qty <= 0 {
		report.Add("No room in the hold for the %s", commodity)
		return
	}
	gs.AddCargo(commodity, qty, 0, cm.UnitWeight)
	report.Add(note, qty, commodity)
	report.Gained(commodity, qty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Finalization
// ──────────────────────────────────────────────────────────────────────────────

// finalize lands the ship: arrival cargo loss for a battered hull, the mining
// run, and the overnight tick.
func (ts *TravelService) finalize(gs *domain.GameState, report *domain.DailyReport, destIdx int, mining, overload, insured bool) {
	gs.VenueIndex = destIdx
	report.Add("Arrived at %s", ts.cat.Venues[destIdx].Name)
	gs.Log(domain.MsgInfo, "Docked at %s", ts.cat.Venues[destIdx].Name)

	if gs.ShipHealth < 100 {
		ts.applyArrivalCargoLoss(gs, report, insured)
	}
	if mining {
		ts.runMining(gs, report, overload)
	}

	ts.day.Tick(gs, report)
}

// applyArrivalCargoLoss leaks cargo in proportion to hull damage; an insured
// jump pays out most of the lost value at destination prices.
func (ts *TravelService) applyArrivalCargoLoss(gs *domain.GameState, report *domain.DailyReport, insured bool) {
	ratio := float64(100-gs.ShipHealth) / 100
	market := gs.Markets[gs.VenueIndex]

	var lostValue int64
	for name, item := range gs.Cargo {
		lost := int(float64(item.Quantity) * ratio)
		if lost < 1 {
			continue
		}
		if mi := market[name]; mi != nil {
			lostValue += int64(lost) * mi.Price
		}
		cm, _ := ts.cat.FindCommodity(name)
		gs.RemoveCargo(name, lost, cm.UnitWeight)
		report.Add("Lost %d %s through the breached hull", lost, name)
		report.Lost(name, lost)
	}
	if lostValue == 0 {
		return
	}
	gs.Log(domain.MsgLoss, "Cargo worth %d cr lost to hull damage", lostValue)

	if insured {
		payout := int64(math.Round(float64(lostValue) * ts.cfg.Game.InsurancePayoutRate))
		gs.Cash += payout
		report.InsurancePayout = payout
		report.Add("Insurance paid out %d cr on the lost cargo", payout)
		gs.Log(domain.MsgProfit, "Insurance payout: +%d cr", payout)
	}
}

// runMining executes the belt run booked at departure. Cells were verified at
// departure but spent here; encounter losses en route can shrink the stock, in
// which case the run burns what remains and yields nothing.
func (ts *TravelService) runMining(gs *domain.GameState, report *domain.DailyReport, overload bool) {
	cellCost := ts.MiningCellCost(gs)
	cellCm, _ := ts.cat.FindCommodity(ts.cat.PowerCellName)
	have := gs.CargoQty(ts.cat.PowerCellName)
	if have < cellCost {
		gs.RemoveCargo(ts.cat.PowerCellName, have, cellCm.UnitWeight)
		report.Add("Too few intact power cells for the belt run; the laser never spun up")
		return
	}
	gs.RemoveCargo(ts.cat.PowerCellName, cellCost, cellCm.UnitWeight)

	tier := gs.LaserTier(ts.cat)
	equipMult := map[int]float64{1: 1, 2: 2, 3: 5}[tier]
	phaseYield := float64(domain.PhaseStockMultiplier(gs.Phase))
	condition := float64(gs.LaserHealth) / 100

	yield := float64(ts.rng.Intn(10)+5) * equipMult * phaseYield * condition
	if overload {
		yield *= ts.cfg.Game.OverloadYieldMult
	}
	units := int(yield)

	// Laser wear: overdriving usually bites, careful running rarely does.
	wear := ts.rng.Intn(10) + 5
	if overload {
		if ts.rng.Float64() < 0.60 {
			ts.wearLaser(gs, report, wear*ts.cfg.Game.OverloadRiskMult)
		}
	} else if ts.rng.Float64() < 0.10 {
		ts.wearLaser(gs, report, wear)
	}

	if units <= 0 {
		report.Add("The belt run came up empty")
		return
	}
	ts.gainCargo(gs, report, ts.cat.OreName, units, "Mined %d %s from the belt")

	if tier >= 2 && ts.rng.Float64() < 0.20 {
		bonus := int(math.Ceil(float64(units) * 0.2))
		ts.gainCargo(gs, report, ts.cat.RareOreName, bonus, "The laser cracked open a vein: %d %s recovered")
	}
	if tier >= 3 && ts.rng.Float64() < 0.30 {
		bonus := int(math.Ceil(float64(units) * 0.05))
		ts.gainCargo(gs, report, ts.cat.ExoticName, bonus, "Condensed %d %s from the tailings")
	}
}

func (ts *TravelService) wearLaser(gs *domain.GameState, report *domain.DailyReport, wear int) {
	gs.LaserHealth -= wear
	if gs.LaserHealth < 0 {
		gs.LaserHealth = 0
	}
	report.LaserDamage += wear
	report.Add("Laser assembly took %d points of wear", wear)
}
