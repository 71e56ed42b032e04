package service

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// BankService
// ──────────────────────────────────────────────────────────────────────────────

// Loan rates are clamped to this band regardless of firm base rate and jitter.
const (
	minLoanRate = 1.0
	maxLoanRate = 15.0
)

// BankService implements the lending desk and the term-deposit counter.
type BankService struct {
	cat *domain.Catalog
	cfg *config.Config
	rng *rand.Rand
}

// NewBankService constructs a BankService.
func NewBankService(cat *domain.Catalog, cfg *config.Config, rng *rand.Rand) *BankService {
	return &BankService{cat: cat, cfg: cfg, rng: rng}
}

// ──────────────────────────────────────────────────────────────────────────────
// Loan offers
// ──────────────────────────────────────────────────────────────────────────────

// GenerateOffers replaces the day's loan board. Offer ceilings track the
// current phase goal so credit scales with ambition; rates jitter around each
// firm's base and clamp to the legal band.
func (bs *BankService) GenerateOffers(gs *domain.GameState) {
	maxLoan := bs.cfg.GoalFor(gs.Phase) / 10
	if maxLoan <= 0 {
		// Phase 4 has no goal; extend credit against the last ladder rung.
		maxLoan = bs.cfg.Game.Phase3Goal / 10
	}

	offers := make([]*domain.LoanOffer, 0, bs.cfg.Game.LoanOfferCount)
	for i := 0; i < bs.cfg.Game.LoanOfferCount; i++ {
		firm := bs.cat.LoanFirms[bs.rng.Intn(len(bs.cat.LoanFirms))]

		// 20–100% of the ceiling, in round thousands.
		amount := maxLoan / 5
		amount += bs.rng.Int63n(maxLoan - amount + 1)
		if amount >= 1000 {
			amount = amount / 1000 * 1000
		}

		rate := firm.BaseRate + (bs.rng.Float64()-0.5)*4
		if rate < minLoanRate {
			rate = minLoanRate
		}
		if rate > maxLoanRate {
			rate = maxLoanRate
		}

		offers = append(offers, &domain.LoanOffer{
			ID:           uuid.New(),
			FirmName:     firm.Name,
			Amount:       amount,
			InterestRate: rate,
		})
	}
	gs.LoanOffers = offers
}

// DrawLoan accepts one of today's offers, subject to the concurrency cap, the
// one-draw-per-day rule, and the one-loan-per-firm rule.
func (bs *BankService) DrawLoan(gs *domain.GameState, offerID uuid.UUID) (*domain.ActiveLoan, error) {
	var offer *domain.LoanOffer
	for _, o := range gs.LoanOffers {
		if o.ID == offerID {
			offer = o
			break
		}
	}
	if offer == nil {
		return nil, domain.ErrLoanOfferNotFound
	}

	if len(gs.Loans) >= bs.cfg.Game.MaxLoans {
		return nil, domain.ErrLoanLimit
	}
	if gs.LoanTakenToday {
		return nil, domain.ErrLoanAlreadyToday
	}
	for _, l := range gs.Loans {
		if l.FirmName == offer.FirmName {
			return nil, domain.ErrLoanFirmHeld
		}
	}

	loan := bs.OpenLoan(gs, offer.FirmName, offer.Amount, offer.InterestRate)
	gs.LoanTakenToday = true

	// Remove the drawn offer from the board.
	for i, o := range gs.LoanOffers {
		if o.ID == offerID {
			gs.LoanOffers = append(gs.LoanOffers[:i], gs.LoanOffers[i+1:]...)
			break
		}
	}

	gs.Log(domain.MsgInfo, "Drew %d cr from %s at %.1f%%/day", loan.Principal, loan.FirmName, loan.InterestRate)
	return loan, nil
}

// OpenLoan books a loan directly, bypassing the offer board and daily limits.
// Used for the forced starter loan on new games.
func (bs *BankService) OpenLoan(gs *domain.GameState, firm string, amount int64, rate float64) *domain.ActiveLoan {
	loan := &domain.ActiveLoan{
		ID:            uuid.New(),
		FirmName:      firm,
		Principal:     amount,
		CurrentDebt:   amount,
		InterestRate:  rate,
		DaysRemaining: bs.cfg.Game.LoanTermDays,
		OriginalDay:   gs.Day,
	}
	gs.Loans = append(gs.Loans, loan)
	gs.Cash += amount
	return loan
}

// RepayLoan settles a loan in full before or at term. Settling with days still
// on the clock adds the early-exit fee (a share of principal per remaining
// day). Repayment may draw cash down to the overdraft floor.
func (bs *BankService) RepayLoan(gs *domain.GameState, loanID uuid.UUID) (int64, error) {
	idx := -1
	for i, l := range gs.Loans {
		if l.ID == loanID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, domain.ErrLoanNotFound
	}
	loan := gs.Loans[idx]

	total := loan.CurrentDebt
	var fee int64
	if loan.DaysRemaining > 0 {
		fee = loan.EarlySettlementFee(bs.cfg.Game.EarlyRepayFeeRate)
		total += fee
	}
	if gs.Cash-total < bs.cfg.Game.OverdraftFloor {
		return 0, domain.ErrInsufficientFunds
	}

	gs.Cash -= total
	gs.Loans = append(gs.Loans[:idx], gs.Loans[idx+1:]...)
	gs.Log(domain.MsgInfo, "Repaid %s: %d cr (early fee %d cr)", loan.FirmName, total, fee)
	return total, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Term deposits
// ──────────────────────────────────────────────────────────────────────────────

// Deposit opens a blocked term deposit for 1–3 days. The full maturity value
// is fixed up front. Deposits are refused while any loan is outstanding —
// the banks will not pay interest to their own debtors.
func (bs *BankService) Deposit(gs *domain.GameState, amount int64, termDays int) (*domain.BankInvestment, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	rate, ok := bs.cfg.DepositRateFor(termDays)
	if !ok {
		return nil, domain.ErrInvalidTerm
	}
	if len(gs.Loans) > 0 {
		return nil, domain.ErrDepositWhileInDebt
	}
	if amount > gs.Cash {
		return nil, domain.ErrInsufficientFunds
	}

	inv := &domain.BankInvestment{
		ID:            uuid.New(),
		Amount:        amount,
		InterestRate:  rate,
		DaysRemaining: termDays,
		MaturityValue: domain.DepositMaturity(amount, rate),
	}
	gs.Cash -= amount
	gs.Investments = append(gs.Investments, inv)
	gs.Log(domain.MsgInfo, "Deposited %d cr for %d day(s), matures at %d cr", amount, termDays, inv.MaturityValue)
	return inv, nil
}
