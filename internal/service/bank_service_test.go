package service_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/domain"
	"github.com/orbitfall/tradeempire/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// Loan offers
// ──────────────────────────────────────────────────────────────────────────────

// TestGenerateOffers: phase 1 offers are bounded by goal/10 = 25 000, rounded
// to thousands, with rates clamped to the legal band.
func TestGenerateOffers(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := service.NewBankService(cat, cfg, testRng())
	gs := newTestState(cat)

	svc.GenerateOffers(gs)

	if len(gs.LoanOffers) != cfg.Game.LoanOfferCount {
		t.Fatalf("offer count = %d, want %d", len(gs.LoanOffers), cfg.Game.LoanOfferCount)
	}
	for i, o := range gs.LoanOffers {
		if o.Amount < 5000 || o.Amount > 25000 {
			t.Errorf("offer %d amount = %d, want within [5000, 25000]", i, o.Amount)
		}
		if o.Amount%1000 != 0 {
			t.Errorf("offer %d amount = %d, want a round thousand", i, o.Amount)
		}
		if o.InterestRate < 1.0 || o.InterestRate > 15.0 {
			t.Errorf("offer %d rate = %.2f, want within [1, 15]", i, o.InterestRate)
		}
		if _, ok := findFirm(cat, o.FirmName); !ok {
			t.Errorf("offer %d firm %q not in catalog", i, o.FirmName)
		}
	}
}

func findFirm(cat *domain.Catalog, name string) (domain.Firm, bool) {
	for _, f := range cat.LoanFirms {
		if f.Name == name {
			return f, true
		}
	}
	return domain.Firm{}, false
}

// ──────────────────────────────────────────────────────────────────────────────
// Drawing and repaying
// ──────────────────────────────────────────────────────────────────────────────

func TestDrawLoanLifecycle(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := service.NewBankService(cat, cfg, testRng())
	gs := newTestState(cat)

	offer := &domain.LoanOffer{ID: uuid.New(), FirmName: "Helios Credit", Amount: 10000, InterestRate: 5.0}
	gs.LoanOffers = []*domain.LoanOffer{offer}

	cash0 := gs.Cash
	loan, err := svc.DrawLoan(gs, offer.ID)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if gs.Cash != cash0+10000 {
		t.Errorf("cash = %d, want %d", gs.Cash, cash0+10000)
	}
	if loan.CurrentDebt != 10000 || loan.DaysRemaining != cfg.Game.LoanTermDays {
		t.Errorf("loan debt/term = %d/%d, want 10000/%d", loan.CurrentDebt, loan.DaysRemaining, cfg.Game.LoanTermDays)
	}
	if !gs.LoanTakenToday {
		t.Error("LoanTakenToday should be set after a draw")
	}
	if len(gs.LoanOffers) != 0 {
		t.Errorf("drawn offer should leave the board, %d remain", len(gs.LoanOffers))
	}

	if _, err := svc.DrawLoan(gs, uuid.New()); !errors.Is(err, domain.ErrLoanOfferNotFound) {
		t.Errorf("unknown offer err = %v, want ErrLoanOfferNotFound", err)
	}
}

func TestDrawLoanOncePerDay(t *testing.T) {
	cat := testCatalog()
	svc := service.NewBankService(cat, testConfig(), testRng())
	gs := newTestState(cat)

	first := &domain.LoanOffer{ID: uuid.New(), FirmName: "Helios Credit", Amount: 10000, InterestRate: 5.0}
	second := &domain.LoanOffer{ID: uuid.New(), FirmName: "Outer Rim Mutual", Amount: 8000, InterestRate: 8.0}
	gs.LoanOffers = []*domain.LoanOffer{first, second}

	if _, err := svc.DrawLoan(gs, first.ID); err != nil {
		t.Fatalf("first draw failed: %v", err)
	}
	if _, err := svc.DrawLoan(gs, second.ID); !errors.Is(err, domain.ErrLoanAlreadyToday) {
		t.Errorf("same-day second draw err = %v, want ErrLoanAlreadyToday", err)
	}
}

func TestDrawLoanFirmHeld(t *testing.T) {
	cat := testCatalog()
	svc := service.NewBankService(cat, testConfig(), testRng())
	gs := newTestState(cat)

	first := &domain.LoanOffer{ID: uuid.New(), FirmName: "Helios Credit", Amount: 10000, InterestRate: 5.0}
	second := &domain.LoanOffer{ID: uuid.New(), FirmName: "Helios Credit", Amount: 8000, InterestRate: 5.0}
	gs.LoanOffers = []*domain.LoanOffer{first, second}

	if _, err := svc.DrawLoan(gs, first.ID); err != nil {
		t.Fatalf("first draw failed: %v", err)
	}
	gs.LoanTakenToday = false // next morning
	if _, err := svc.DrawLoan(gs, second.ID); !errors.Is(err, domain.ErrLoanFirmHeld) {
		t.Errorf("same-firm second draw err = %v, want ErrLoanFirmHeld", err)
	}
}

func TestDrawLoanConcurrencyCap(t *testing.T) {
	cat := testCatalog()
	cfg := testConfig()
	svc := service.NewBankService(cat, cfg, testRng())
	gs := newTestState(cat)

	for i := 0; i < cfg.Game.MaxLoans; i++ {
		gs.Loans = append(gs.Loans, &domain.ActiveLoan{ID: uuid.New(), FirmName: "x", CurrentDebt: 1000})
	}
	offer := &domain.LoanOffer{ID: uuid.New(), FirmName: "Helios Credit", Amount: 10000, InterestRate: 5.0}
	gs.LoanOffers = []*domain.LoanOffer{offer}

	if _, err := svc.DrawLoan(gs, offer.ID); !errors.Is(err, domain.ErrLoanLimit) {
		t.Errorf("err = %v, want ErrLoanLimit", err)
	}
}

// TestRepayLoanEarlyFee: settling with 5 days on the clock adds
// 30 000 × 0.02 × 5 = 3000 on top of the debt.
func TestRepayLoanEarlyFee(t *testing.T) {
	cat := testCatalog()
	svc := service.NewBankService(cat, testConfig(), testRng())
	gs := newTestState(cat)

	loan := svc.OpenLoan(gs, "Helios Credit", 30000, 5.0)
	cash0 := gs.Cash

	total, err := svc.RepayLoan(gs, loan.ID)
	if err != nil {
		t.Fatalf("repay failed: %v", err)
	}
	if total != 33000 {
		t.Errorf("total = %d, want 33000 (debt 30000 + fee 3000)", total)
	}
	if gs.Cash != cash0-33000 {
		t.Errorf("cash = %d, want %d", gs.Cash, cash0-33000)
	}
	if len(gs.Loans) != 0 {
		t.Errorf("loans remaining = %d, want 0", len(gs.Loans))
	}

	if _, err := svc.RepayLoan(gs, loan.ID); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Errorf("double repay err = %v, want ErrLoanNotFound", err)
	}
}

func TestRepayLoanRespectsOverdraftFloor(t *testing.T) {
	cat := testCatalog()
	svc := service.NewBankService(cat, testConfig(), testRng())
	gs := newTestState(cat)
	gs.Cash = 0

	loan := svc.OpenLoan(gs, "Helios Credit", 30000, 5.0)
	gs.Cash = 20000 // repayment of 33000 would land at −13000

	if _, err := svc.RepayLoan(gs, loan.ID); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	if len(gs.Loans) != 1 {
		t.Errorf("rejected repayment should keep the loan, %d remain", len(gs.Loans))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Term deposits
// ──────────────────────────────────────────────────────────────────────────────

func TestDeposit(t *testing.T) {
	cat := testCatalog()
	svc := service.NewBankService(cat, testConfig(), testRng())
	gs := newTestState(cat)
	gs.Cash = 10000

	inv, err := svc.Deposit(gs, 5000, 2)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if inv.MaturityValue != 6000 {
		t.Errorf("maturity value = %d, want 6000 (5000 × 1.20)", inv.MaturityValue)
	}
	if inv.DaysRemaining != 2 {
		t.Errorf("term = %d, want 2", inv.DaysRemaining)
	}
	if gs.Cash != 5000 {
		t.Errorf("cash = %d, want 5000", gs.Cash)
	}
	if len(gs.Investments) != 1 {
		t.Errorf("investments = %d, want 1", len(gs.Investments))
	}
}

func TestDepositRejections(t *testing.T) {
	cat := testCatalog()
	svc := service.NewBankService(cat, testConfig(), testRng())

	t.Run("zero amount", func(t *testing.T) {
		gs := newTestState(cat)
		if _, err := svc.Deposit(gs, 0, 1); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("err = %v, want ErrInvalidQuantity", err)
		}
	})
	t.Run("term outside 1-3 days", func(t *testing.T) {
		gs := newTestState(cat)
		if _, err := svc.Deposit(gs, 1000, 4); !errors.Is(err, domain.ErrInvalidTerm) {
			t.Errorf("err = %v, want ErrInvalidTerm", err)
		}
	})
	t.Run("blocked while in debt", func(t *testing.T) {
		gs := newTestState(cat)
		svc.OpenLoan(gs, "Helios Credit", 10000, 5.0)
		if _, err := svc.Deposit(gs, 1000, 1); !errors.Is(err, domain.ErrDepositWhileInDebt) {
			t.Errorf("err = %v, want ErrDepositWhileInDebt", err)
		}
	})
	t.Run("more than cash on hand", func(t *testing.T) {
		gs := newTestState(cat)
		gs.Cash = 500
		if _, err := svc.Deposit(gs, 1000, 1); !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Errorf("err = %v, want ErrInsufficientFunds", err)
		}
	})
}
