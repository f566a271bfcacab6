package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestProgress(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		current  string
		target   string
		date     Date
		pct      int
		days     int
		reached  bool
		complete bool
	}{
		{"partial", "3500", "10000", NewDate(2025, 6, 11), 35, 10, false, false},
		{"rounded", "1", "3", NewDate(2025, 6, 2), 33, 1, false, false},
		{"over target clamps", "15000", "10000", NewDate(2025, 7, 1), 100, 30, false, true},
		{"empty goal", "0", "500", NewDate(2025, 6, 1), 0, 0, true, false},
		{"past date", "10", "100", NewDate(2025, 5, 1), 10, -31, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Progress(decimal.RequireFromString(tc.current), decimal.RequireFromString(tc.target), tc.date, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Percentage != tc.pct {
				t.Fatalf("percentage: expected %d, got %d", tc.pct, got.Percentage)
			}
			if got.DaysRemaining != tc.days {
				t.Fatalf("days: expected %d, got %d", tc.days, got.DaysRemaining)
			}
			if got.DeadlineReached != tc.reached {
				t.Fatalf("deadline reached: expected %v, got %v", tc.reached, got.DeadlineReached)
			}
			if got.Completed != tc.complete {
				t.Fatalf("completed: expected %v, got %v", tc.complete, got.Completed)
			}
		})
	}
}

func TestProgressRejectsNonPositiveTarget(t *testing.T) {
	_, err := Progress(decimal.NewFromInt(10), decimal.Zero, NewDate(2030, 1, 1), time.Now())
	if !errors.Is(err, ErrNonPositiveTarget) {
		t.Fatalf("expected ErrNonPositiveTarget, got %v", err)
	}
}

func TestDeposit(t *testing.T) {
	g := FinancialGoal{TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(900)}

	got, err := Deposit(g, decimal.RequireFromString("250.50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.CurrentAmount.Equal(decimal.RequireFromString("1150.50")) {
		t.Fatalf("expected 1150.50, got %s", got.CurrentAmount)
	}
	if !got.Remaining().IsZero() {
		t.Fatalf("remaining must not go negative, got %s", got.Remaining())
	}

	for _, amt := range []string{"0", "-1"} {
		same, err := Deposit(g, decimal.RequireFromString(amt))
		if !errors.Is(err, ErrNonPositiveDeposit) {
			t.Fatalf("%s: expected ErrNonPositiveDeposit, got %v", amt, err)
		}
		if !same.CurrentAmount.Equal(g.CurrentAmount) {
			t.Fatalf("%s: amount changed on rejected deposit", amt)
		}
	}
}
