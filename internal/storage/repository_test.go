package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/store"
	"finboard/internal/store/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finboard.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteStoreContract(t *testing.T) {
	storetest.Run(t, newTestRepo(t))
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "finboard.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, core.User{Email: "ana@example.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		Owner:       u.ID,
		Description: "Coffee",
		Amount:      decimal.RequireFromString("-12.35"),
		Category:    core.Food,
		Date:        core.NewDate(2026, 3, 4),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	got, err := repo.GetTransaction(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if !got.Amount.Equal(tx.Amount) || !got.Date.SameDay(tx.Date) || got.Description != "Coffee" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSQLiteForeignKeys(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateGoal(context.Background(), core.FinancialGoal{
		Owner:        "missing-user",
		Title:        "Trip",
		TargetAmount: decimal.NewFromInt(100),
		TargetDate:   core.NewDate(2030, 1, 1),
	})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown owner")
	}
}

func TestSQLiteStreakConflictOnMissingHabit(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.UpdateHabitStreak(context.Background(), "nobody", "nope", core.HabitState{}, core.HabitState{CurrentStreak: 1, BestStreak: 1})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
