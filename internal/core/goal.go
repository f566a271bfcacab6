package core

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// GoalProgress is the display state of a savings goal. DeadlineReached is set
// once no days remain before the target date.
type GoalProgress struct {
	Percentage      int  `json:"percentage"`
	DaysRemaining   int  `json:"days_remaining"`
	DeadlineReached bool `json:"deadline_reached"`
	Completed       bool `json:"completed"`
}

// Progress computes percentage complete (rounded, clamped to 0..100) and the
// number of days left until targetDate, rounded up.
func Progress(current, target decimal.Decimal, targetDate Date, now time.Time) (GoalProgress, error) {
	if !target.IsPositive() {
		return GoalProgress{}, invalid("target_amount", ErrNonPositiveTarget)
	}
	pct := Percent(current, target)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	days := DaysUntil(targetDate, now)
	return GoalProgress{
		Percentage:      pct,
		DaysRemaining:   days,
		DeadlineReached: days <= 0,
		Completed:       current.GreaterThanOrEqual(target),
	}, nil
}

// DaysUntil returns ceil((d - now) / 24h).
func DaysUntil(d Date, now time.Time) int {
	return int(math.Ceil(d.Time.Sub(now).Hours() / 24))
}

// Progress is a convenience wrapper over the package-level calculator.
func (g FinancialGoal) Progress(now time.Time) (GoalProgress, error) {
	return Progress(g.CurrentAmount, g.TargetAmount, g.TargetDate, now)
}

// Deposit adds amount to the goal's current amount. There is no upper bound;
// deposits past the target are kept.
func Deposit(g FinancialGoal, amount decimal.Decimal) (FinancialGoal, error) {
	if err := ValidateDeposit(amount); err != nil {
		return g, err
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	return g, nil
}

// ValidateDeposit rejects zero and negative deposits.
func ValidateDeposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("amount", ErrNonPositiveDeposit)
	}
	return nil
}

// Remaining is how much is still missing to reach the target, never negative.
func (g FinancialGoal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
