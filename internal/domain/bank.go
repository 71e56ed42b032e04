package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Loans
// ──────────────────────────────────────────────────────────────────────────────

// LoanOffer is a one-day standing offer from a lending firm.
type LoanOffer struct {
	ID           uuid.UUID `json:"id"`
	FirmName     string    `json:"firm_name"`
	Amount       int64     `json:"amount"`
	InterestRate float64   `json:"interest_rate"` // %/day
}

// ActiveLoan is a drawn loan. CurrentDebt compounds daily; at term end the
// full debt is force-debited from cash, possibly driving it negative.
type ActiveLoan struct {
	ID            uuid.UUID `json:"id"`
	FirmName      string    `json:"firm_name"`
	Principal     int64     `json:"principal"`
	CurrentDebt   int64     `json:"current_debt"`
	InterestRate  float64   `json:"interest_rate"` // %/day
	DaysRemaining int       `json:"days_remaining"`
	OriginalDay   int       `json:"original_day"`
}

// AccrueInterest compounds one day of interest onto the current debt.
// The increment is computed in decimal and rounded to whole currency units.
func (l *ActiveLoan) AccrueInterest() {
	debt := decimal.NewFromInt(l.CurrentDebt)
	rate := decimal.NewFromFloat(l.InterestRate).Div(decimal.NewFromInt(100))
	l.CurrentDebt += debt.Mul(rate).Round(0).IntPart()
}

// EarlySettlementFee is 2% of principal per remaining day, rounded.
func (l *ActiveLoan) EarlySettlementFee(feeRate float64) int64 {
	principal := decimal.NewFromInt(l.Principal)
	fee := principal.Mul(decimal.NewFromFloat(feeRate)).Mul(decimal.NewFromInt(int64(l.DaysRemaining)))
	return fee.Round(0).IntPart()
}

// ──────────────────────────────────────────────────────────────────────────────
// Term deposits
// ──────────────────────────────────────────────────────────────────────────────

// BankInvestment is a blocked term deposit. MaturityValue is fixed at creation
// as floor(amount × (1+rate)) and credited in full when the term elapses.
type BankInvestment struct {
	ID            uuid.UUID `json:"id"`
	Amount        int64     `json:"amount"`
	InterestRate  float64   `json:"interest_rate"` // total for the term, e.g. 0.20
	DaysRemaining int       `json:"days_remaining"`
	MaturityValue int64     `json:"maturity_value"`
}

// DepositMaturity computes floor(amount × (1+rate)) in decimal.
func DepositMaturity(amount int64, rate float64) int64 {
	amt := decimal.NewFromInt(amount)
	one := decimal.NewFromInt(1)
	return amt.Mul(one.Add(decimal.NewFromFloat(rate))).Floor().IntPart()
}
