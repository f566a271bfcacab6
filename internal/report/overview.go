package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// MonthOverview summarises one calendar month against the month before it.
// SpentTrend is the percentage change of Spent versus the previous month and
// stays nil when the previous month had no expenses.
type MonthOverview struct {
	Month      string          `json:"month"`
	Spent      decimal.Decimal `json:"spent"`
	Income     decimal.Decimal `json:"income"`
	Saved      decimal.Decimal `json:"saved"`
	Balance    decimal.Decimal `json:"balance"`
	SpentTrend *int            `json:"spent_trend"`
}

// Overview computes the month containing today. Balance is the all-time sum.
func Overview(txs []core.Transaction, today core.Date) MonthOverview {
	cur := DateRange{Start: today.StartOfMonth(), End: today.EndOfMonth()}
	prevDay := cur.Start.AddDays(-1)
	prev := DateRange{Start: prevDay.StartOfMonth(), End: prevDay}

	now := Sum(Filter(txs, cur))
	before := Sum(Filter(txs, prev))

	o := MonthOverview{
		Month:   today.MonthKey(),
		Spent:   now.Expenses,
		Income:  now.Income,
		Saved:   now.Balance,
		Balance: Sum(txs).Balance,
	}
	if before.Expenses.IsPositive() {
		trend := core.Percent(now.Expenses.Sub(before.Expenses), before.Expenses)
		o.SpentTrend = &trend
	}
	return o
}

// Recent returns up to n transactions, newest first. Ties on date are broken
// by creation time.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// MainGoal picks the unfinished goal with the nearest target date, falling
// back to the nearest finished one. ok is false for an empty list.
func MainGoal(goals []core.FinancialGoal) (core.FinancialGoal, bool) {
	var best core.FinancialGoal
	found, bestDone := false, false
	for _, g := range goals {
		done := g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
		switch {
		case !found:
		case bestDone && !done:
		case bestDone == done && g.TargetDate.Before(best.TargetDate.Time):
		default:
			continue
		}
		best, bestDone, found = g, done, true
	}
	return best, found
}
