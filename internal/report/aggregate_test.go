package report

import (
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

func tx(date core.Date, amount string, cat core.Category) core.Transaction {
	return core.Transaction{
		Description: "t",
		Amount:      decimal.RequireFromString(amount),
		Category:    cat,
		Date:        date,
	}
}

func TestExpensesByCategoryEmpty(t *testing.T) {
	if got := ExpensesByCategory(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	onlyIncome := []core.Transaction{tx(core.NewDate(2025, 1, 1), "100", core.Income)}
	if got := ExpensesByCategory(onlyIncome); len(got) != 0 {
		t.Fatalf("expected empty result for income only, got %+v", got)
	}
}

func TestExpensesByCategoryEvenSplit(t *testing.T) {
	d := core.NewDate(2025, 1, 1)
	got := ExpensesByCategory([]core.Transaction{
		tx(d, "-100", core.Food),
		tx(d, "-100", core.Transport),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(got))
	}
	if got[0].Name != core.Food || got[0].Value != 50 || got[1].Name != core.Transport || got[1].Value != 50 {
		t.Fatalf("unexpected shares %+v", got)
	}
}

func TestExpensesByCategoryIndependentRounding(t *testing.T) {
	d := core.NewDate(2025, 1, 1)
	got := ExpensesByCategory([]core.Transaction{
		tx(d, "-1", core.Housing),
		tx(d, "-1", core.Food),
		tx(d, "-1", core.Health),
		tx(d, "500", core.Income),
	})
	sum := 0
	for _, s := range got {
		if s.Value != 33 {
			t.Fatalf("expected 33 for %s, got %d", s.Name, s.Value)
		}
		sum += s.Value
	}
	if sum != 99 {
		t.Fatalf("expected independent rounding to sum to 99, got %d", sum)
	}
}

func TestExpensesByCategoryGroupsAndOrders(t *testing.T) {
	d := core.NewDate(2025, 1, 1)
	got := ExpensesByCategory([]core.Transaction{
		tx(d, "-30", core.Leisure),
		tx(d, "-50", core.Food),
		tx(d, "-20", core.Leisure),
	})
	if len(got) != 2 || got[0].Name != core.Leisure || got[1].Name != core.Food {
		t.Fatalf("unexpected order %+v", got)
	}
	if !got[0].Amount.Equal(decimal.NewFromInt(50)) || got[0].Value != 50 {
		t.Fatalf("unexpected leisure share %+v", got[0])
	}
}

func TestMonthlyIncomeExpense(t *testing.T) {
	r := DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 3, 31)}
	got := MonthlyIncomeExpense([]core.Transaction{
		tx(core.NewDate(2025, 3, 5), "-40", core.Food),
		tx(core.NewDate(2025, 1, 10), "1000", core.Income),
		tx(core.NewDate(2025, 1, 12), "-250.50", core.Housing),
		tx(core.NewDate(2024, 12, 31), "-999", core.Food),
		tx(core.NewDate(2025, 4, 1), "-999", core.Food),
	}, r)

	if len(got) != 2 {
		t.Fatalf("expected 2 buckets (no empty February), got %+v", got)
	}
	if got[0].Key != "2025-01" || got[1].Key != "2025-03" {
		t.Fatalf("buckets not ascending: %s, %s", got[0].Key, got[1].Key)
	}
	if got[0].Label != "Jan/25" {
		t.Fatalf("unexpected label %q", got[0].Label)
	}
	if !got[0].Income.Equal(decimal.NewFromInt(1000)) || !got[0].Expenses.Equal(decimal.RequireFromString("250.50")) {
		t.Fatalf("unexpected january bucket %+v", got[0])
	}
	if !got[1].Income.IsZero() || !got[1].Expenses.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected march bucket %+v", got[1])
	}
}

func TestRunningBalanceSeriesStep(t *testing.T) {
	r := DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 1, 5)}
	got := RunningBalanceSeries([]core.Transaction{tx(core.NewDate(2025, 1, 3), "200", core.Income)}, r)

	want := []int64{0, 0, 200, 200, 200}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i, w := range want {
		if !got[i].Balance.Equal(decimal.NewFromInt(w)) {
			t.Fatalf("point %d: expected %d, got %s", i, w, got[i].Balance)
		}
	}
	if got[0].Label != "01/01/2025" {
		t.Fatalf("unexpected label %q", got[0].Label)
	}
}

func TestRunningBalanceSeriesIgnoresOutOfRange(t *testing.T) {
	r := DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 1, 3)}
	got := RunningBalanceSeries([]core.Transaction{
		tx(core.NewDate(2024, 12, 31), "1000", core.Income),
		tx(core.NewDate(2025, 1, 2), "-50", core.Food),
		tx(core.NewDate(2025, 1, 2), "20", core.Income),
		tx(core.NewDate(2025, 1, 4), "1000", core.Income),
	}, r)
	want := []int64{0, -30, -30}
	for i, w := range want {
		if !got[i].Balance.Equal(decimal.NewFromInt(w)) {
			t.Fatalf("point %d: expected %d, got %s", i, w, got[i].Balance)
		}
	}
}

func TestRunningBalanceSeriesEmpty(t *testing.T) {
	r := DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 1, 31)}
	if got := RunningBalanceSeries(nil, r); len(got) != 0 {
		t.Fatalf("expected empty series, got %d points", len(got))
	}
}

func TestRunningBalanceSeriesDownsamples(t *testing.T) {
	// 92 days -> step 2 -> 46 points
	r := DateRange{Start: core.NewDate(2025, 1, 1), End: core.NewDate(2025, 4, 2)}
	got := RunningBalanceSeries([]core.Transaction{tx(core.NewDate(2025, 1, 1), "10", core.Income)}, r)
	if r.Days() != 92 {
		t.Fatalf("expected 92 days, got %d", r.Days())
	}
	if len(got) != 46 {
		t.Fatalf("expected 46 points, got %d", len(got))
	}
	if !got[1].Date.SameDay(core.NewDate(2025, 1, 3)) {
		t.Fatalf("expected second point on day 3, got %s", got[1].Date)
	}
}

func TestDownsample(t *testing.T) {
	in := make([]int, 121)
	for i := range in {
		in[i] = i
	}
	got := Downsample(in, 60)
	// ceil(121/60) = 3
	if len(got) != 41 || got[1] != 3 || got[40] != 120 {
		t.Fatalf("unexpected downsample: len=%d %v", len(got), got[:3])
	}
	if short := Downsample(in[:60], 60); len(short) != 60 {
		t.Fatalf("series at the limit must be untouched")
	}
}

func TestSum(t *testing.T) {
	d := core.NewDate(2025, 1, 1)
	got := Sum([]core.Transaction{tx(d, "100", core.Income), tx(d, "-30", core.Food), tx(d, "-20.5", core.Other)})
	if !got.Income.Equal(decimal.NewFromInt(100)) || !got.Expenses.Equal(decimal.RequireFromString("50.5")) || !got.Balance.Equal(decimal.RequireFromString("49.5")) {
		t.Fatalf("unexpected totals %+v", got)
	}
}
