package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"finboard/internal/auth"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/store"
	"finboard/internal/store/memory"
)

func newTestSeeder(st *memory.Store) *seeder {
	logger := applog.Discard()
	return &seeder{
		auth:         services.NewAuthService(st, auth.NewTokens("seed-test-secret-0123456789abcdef", time.Hour), logger),
		transactions: services.NewTransactionService(st, nil, nil, logger),
		goals:        services.NewGoalService(st, nil, logger),
		habits:       services.NewHabitService(st, nil, logger),
		faker:        newFaker(42),
		today:        core.Today(),
		logger:       logger,
	}
}

func TestSeederCreatesDemoData(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := newTestSeeder(st)

	res, err := s.run(ctx, seedOptions{
		Email:        "demo@example.com",
		Password:     "demo-password",
		Transactions: 25,
		Goals:        2,
		Habits:       3,
		Months:       3,
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if res.Transactions != 25 || res.Goals != 2 || res.Habits != 3 {
		t.Fatalf("result = %+v", res)
	}

	txs, err := st.ListTransactions(ctx, res.Owner, store.TransactionFilter{})
	if err != nil || len(txs) != 25 {
		t.Fatalf("transactions = %d, %v", len(txs), err)
	}
	earliest := s.today.AddMonths(-3)
	for _, tx := range txs {
		if tx.Date.Before(earliest.Time) || tx.Date.After(s.today.Time) {
			t.Errorf("transaction dated %s outside seeded window", tx.Date)
		}
		if tx.Category == core.Income && tx.Amount.IsNegative() {
			t.Errorf("income stored as %s", tx.Amount)
		}
		if tx.Category != core.Income && tx.Amount.IsPositive() {
			t.Errorf("%s expense stored as %s", tx.Category, tx.Amount)
		}
	}

	goals, _ := st.ListGoals(ctx, res.Owner)
	for _, g := range goals {
		if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
			t.Errorf("goal %q seeded as already reached", g.Title)
		}
	}

	if _, err := s.auth.Signin(ctx, "demo@example.com", "demo-password"); err != nil {
		t.Fatalf("seeded user cannot sign in: %v", err)
	}
}

func TestSeederRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	opts := seedOptions{Email: "taken@example.com", Password: "secret-pass"}

	if _, err := newTestSeeder(st).run(ctx, opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := newTestSeeder(st).run(ctx, opts); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second run error = %v, want ErrDuplicate", err)
	}
}
