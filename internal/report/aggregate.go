// Package report derives dashboard and report series from transaction lists.
//
// Every function here is pure: the same input always yields the same output and
// nothing touches a store.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// MaxSeriesPoints is the point count above which the balance series is thinned.
const MaxSeriesPoints = 60

// DateRange is an inclusive calendar-day interval.
type DateRange struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// Contains reports whether d falls in [Start, End].
func (r DateRange) Contains(d core.Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

// Days returns the number of calendar days covered, zero for an inverted range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start.Time) {
		return 0
	}
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

type (
	// CategoryShare is one slice of the expenses-by-category breakdown.
	CategoryShare struct {
		Name   core.Category   `json:"name"`
		Value  int             `json:"value"`
		Amount decimal.Decimal `json:"amount"`
	}

	// MonthBucket is the income and expense total of one calendar month.
	MonthBucket struct {
		Key      string          `json:"key"`
		Label    string          `json:"month"`
		Income   decimal.Decimal `json:"income"`
		Expenses decimal.Decimal `json:"expenses"`
	}

	// BalancePoint is the running balance at the end of one day.
	BalancePoint struct {
		Date    core.Date       `json:"date"`
		Label   string          `json:"label"`
		Balance decimal.Decimal `json:"balance"`
	}
)

// Filter keeps the transactions dated inside r, preserving order.
func Filter(txs []core.Transaction, r DateRange) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}

// ExpensesByCategory sums |amount| of negative transactions per category and
// expresses each group as a rounded percentage of the expense total. Each
// percentage is rounded on its own, so the values may not add up to 100.
// Categories appear in the order they are first seen in txs.
func ExpensesByCategory(txs []core.Transaction) []CategoryShare {
	sums := make(map[core.Category]decimal.Decimal)
	var order []core.Category
	total := decimal.Zero

	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		amt := tx.Amount.Abs()
		if _, seen := sums[tx.Category]; !seen {
			order = append(order, tx.Category)
			sums[tx.Category] = decimal.Zero
		}
		sums[tx.Category] = sums[tx.Category].Add(amt)
		total = total.Add(amt)
	}

	out := make([]CategoryShare, 0, len(order))
	if total.IsZero() {
		return out
	}
	for _, c := range order {
		out = append(out, CategoryShare{
			Name:   c,
			Value:  core.Percent(sums[c], total),
			Amount: sums[c],
		})
	}
	return out
}

// MonthlyIncomeExpense buckets the transactions inside r by calendar month.
// Positive amounts count as income, the absolute value of the rest as expenses.
// Only months holding at least one transaction get a bucket; buckets are
// returned in ascending month order.
func MonthlyIncomeExpense(txs []core.Transaction, r DateRange) []MonthBucket {
	buckets := make(map[string]*MonthBucket)
	for _, tx := range Filter(txs, r) {
		key := tx.Date.MonthKey()
		b, ok := buckets[key]
		if !ok {
			b = &MonthBucket{
				Key:      key,
				Label:    tx.Date.Format("Jan/06"),
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			}
			buckets[key] = b
		}
		if tx.Amount.IsPositive() {
			b.Income = b.Income.Add(tx.Amount)
		} else {
			b.Expenses = b.Expenses.Add(tx.Amount.Abs())
		}
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// RunningBalanceSeries emits one point per day of r holding the sum of all
// in-range amounts dated on or before that day. Series longer than
// MaxSeriesPoints keep only every ceil(n/MaxSeriesPoints)-th point, starting
// with the first. No transactions in range means no series.
func RunningBalanceSeries(txs []core.Transaction, r DateRange) []BalancePoint {
	inRange := Filter(txs, r)
	if len(inRange) == 0 {
		return []BalancePoint{}
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		return inRange[i].Date.Before(inRange[j].Date.Time)
	})

	n := r.Days()
	points := make([]BalancePoint, 0, n)
	running := decimal.Zero
	next := 0
	for i := 0; i < n; i++ {
		day := r.Start.AddDays(i)
		for next < len(inRange) && !inRange[next].Date.After(day.Time) {
			running = running.Add(inRange[next].Amount)
			next++
		}
		points = append(points, BalancePoint{
			Date:    day,
			Label:   day.Format("02/01/2006"),
			Balance: running,
		})
	}
	return Downsample(points, MaxSeriesPoints)
}

// Downsample keeps every ceil(len/limit)-th element when len exceeds limit.
func Downsample[T any](in []T, limit int) []T {
	if limit <= 0 || len(in) <= limit {
		return in
	}
	step := (len(in) + limit - 1) / limit
	out := make([]T, 0, (len(in)+step-1)/step)
	for i := 0; i < len(in); i += step {
		out = append(out, in[i])
	}
	return out
}

// Totals is the income/expense split of a transaction list.
type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// Sum returns income, absolute expenses and their difference.
func Sum(txs []core.Transaction) Totals {
	t := Totals{Income: decimal.Zero, Expenses: decimal.Zero, Balance: decimal.Zero}
	for _, tx := range txs {
		if tx.Amount.IsPositive() {
			t.Income = t.Income.Add(tx.Amount)
		} else {
			t.Expenses = t.Expenses.Add(tx.Amount.Abs())
		}
		t.Balance = t.Balance.Add(tx.Amount)
	}
	return t
}
