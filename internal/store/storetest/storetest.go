// Package storetest holds a conformance suite every store.Store backend runs
// from its own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/store"
)

// Run exercises s against the store contract. s must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	owner := createUser(t, s, "ana@example.com")
	other := createUser(t, s, "bruno@example.com")

	t.Run("users", func(t *testing.T) { testUsers(t, s, owner) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, s, owner, other) })
	t.Run("goals", func(t *testing.T) { testGoals(t, s, owner, other) })
	t.Run("habits", func(t *testing.T) { testHabits(t, s, owner, other) })
	t.Run("profiles", func(t *testing.T) { testProfiles(t, s, owner) })
}

func createUser(t *testing.T, s store.Store, email string) string {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{Email: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	if u.ID == "" {
		t.Fatalf("create user %s: empty id", email)
	}
	return u.ID
}

func testUsers(t *testing.T, s store.Store, owner string) {
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, core.User{Email: " ANA@example.com", PasswordHash: "x"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	u, err := s.GetUserByEmail(ctx, "Ana@Example.com")
	if err != nil || u.ID != owner || u.PasswordHash != "hash" {
		t.Fatalf("lookup by email: %+v, %v", u, err)
	}
	if _, err := s.GetUser(ctx, owner); err != nil {
		t.Fatalf("get user: %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("list users: %d, %v", len(users), err)
	}
}

func testTransactions(t *testing.T, s store.Store, owner, other string) {
	ctx := context.Background()
	mk := func(desc, amount string, cat core.Category, d core.Date) core.Transaction {
		tx, err := s.CreateTransaction(ctx, core.Transaction{
			Owner:       owner,
			Description: desc,
			Amount:      decimal.RequireFromString(amount),
			Category:    cat,
			Date:        d,
		})
		if err != nil {
			t.Fatalf("create %s: %v", desc, err)
		}
		if tx.ID == "" || tx.CreatedAt.IsZero() {
			t.Fatalf("create %s: id and created_at must be assigned", desc)
		}
		return tx
	}

	rent := mk("Rent March", "-1200.00", core.Housing, core.NewDate(2025, 3, 1))
	mk("Salary", "5000", core.Income, core.NewDate(2025, 3, 5))
	lunch := mk("Lunch", "-35.90", core.Food, core.NewDate(2025, 2, 27))

	list, err := s.ListTransactions(ctx, owner, store.TransactionFilter{})
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %d, %v", len(list), err)
	}
	if list[0].Description != "Salary" || list[2].Description != "Lunch" {
		t.Fatalf("expected date desc order, got %s, %s, %s", list[0].Description, list[1].Description, list[2].Description)
	}
	if !list[2].Amount.Equal(decimal.RequireFromString("-35.90")) || !list[2].Date.SameDay(core.NewDate(2025, 2, 27)) {
		t.Fatalf("round trip mismatch: %+v", list[2])
	}

	food, err := s.ListTransactions(ctx, owner, store.TransactionFilter{Category: core.Food})
	if err != nil || len(food) != 1 || food[0].ID != lunch.ID {
		t.Fatalf("category filter: %+v, %v", food, err)
	}
	search, err := s.ListTransactions(ctx, owner, store.TransactionFilter{Search: "rent"})
	if err != nil || len(search) != 1 || search[0].ID != rent.ID {
		t.Fatalf("search filter: %+v, %v", search, err)
	}
	march, err := s.ListTransactions(ctx, owner, store.TransactionFilter{From: core.NewDate(2025, 3, 1), To: core.NewDate(2025, 3, 31)})
	if err != nil || len(march) != 2 {
		t.Fatalf("date filter: %d, %v", len(march), err)
	}

	if list, _ := s.ListTransactions(ctx, other, store.TransactionFilter{}); len(list) != 0 {
		t.Fatalf("other owner sees %d transactions", len(list))
	}
	if _, err := s.GetTransaction(ctx, other, rent.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner get: expected ErrNotFound, got %v", err)
	}

	desc := "Rent March (adjusted)"
	amt := decimal.RequireFromString("-1150.5")
	updated, err := s.UpdateTransaction(ctx, owner, rent.ID, store.TransactionPatch{Description: &desc, Amount: &amt})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != desc || !updated.Amount.Equal(amt) || updated.Category != core.Housing {
		t.Fatalf("partial update mismatch: %+v", updated)
	}
	got, err := s.GetTransaction(ctx, owner, rent.ID)
	if err != nil || got.Description != desc {
		t.Fatalf("read after update: %+v, %v", got, err)
	}
	if _, err := s.UpdateTransaction(ctx, other, rent.ID, store.TransactionPatch{Description: &desc}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner update: expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteTransaction(ctx, other, rent.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner delete: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, owner, rent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, owner, rent.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
}

func testGoals(t *testing.T, s store.Store, owner, other string) {
	ctx := context.Background()
	mk := func(title string, target int64, d core.Date) core.FinancialGoal {
		g, err := s.CreateGoal(ctx, core.FinancialGoal{
			Owner:         owner,
			Title:         title,
			TargetAmount:  decimal.NewFromInt(target),
			CurrentAmount: decimal.Zero,
			TargetDate:    d,
		})
		if err != nil {
			t.Fatalf("create goal %s: %v", title, err)
		}
		return g
	}
	car := mk("Car", 30000, core.NewDate(2028, 1, 1))
	trip := mk("Trip", 5000, core.NewDate(2026, 7, 1))

	list, err := s.ListGoals(ctx, owner)
	if err != nil || len(list) != 2 || list[0].ID != trip.ID {
		t.Fatalf("expected target date asc order: %+v, %v", list, err)
	}

	g, err := s.DepositGoal(ctx, owner, car.ID, decimal.RequireFromString("1500.25"))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	g, err = s.DepositGoal(ctx, owner, car.ID, decimal.NewFromInt(500))
	if err != nil || !g.CurrentAmount.Equal(decimal.RequireFromString("2000.25")) {
		t.Fatalf("deposit accumulate: %s, %v", g.CurrentAmount, err)
	}
	if _, err := s.DepositGoal(ctx, other, car.ID, decimal.NewFromInt(1)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner deposit: expected ErrNotFound, got %v", err)
	}

	title := "New car"
	target := decimal.NewFromInt(35000)
	g, err = s.UpdateGoal(ctx, owner, car.ID, store.GoalPatch{Title: &title, TargetAmount: &target})
	if err != nil || g.Title != title || !g.TargetAmount.Equal(target) || !g.CurrentAmount.Equal(decimal.RequireFromString("2000.25")) {
		t.Fatalf("update goal: %+v, %v", g, err)
	}

	if err := s.DeleteGoal(ctx, owner, trip.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if _, err := s.GetGoal(ctx, owner, trip.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get deleted goal: expected ErrNotFound, got %v", err)
	}
}

func testHabits(t *testing.T, s store.Store, owner, other string) {
	ctx := context.Background()
	first, err := s.CreateHabit(ctx, core.FinancialHabit{Owner: owner, Name: "Track expenses", Target: "daily"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := s.CreateHabit(ctx, core.FinancialHabit{Owner: owner, Name: "No takeout", Target: "weekdays"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	list, err := s.ListHabits(ctx, owner)
	if err != nil || len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected created_at desc order: %+v, %v", list, err)
	}
	if list[1].LastCompletedAt != nil || list[1].CurrentStreak != 0 {
		t.Fatalf("new habit must start empty: %+v", list[1])
	}

	today := core.NewDate(2025, 5, 10)
	prev := first.State()
	next, err := core.Toggle(prev, true, today)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	h, err := s.UpdateHabitStreak(ctx, owner, first.ID, prev, next)
	if err != nil {
		t.Fatalf("update streak: %v", err)
	}
	if h.CurrentStreak != 1 || h.BestStreak != 1 || h.LastCompletedAt == nil || !h.LastCompletedAt.SameDay(today) {
		t.Fatalf("unexpected streak state %+v", h)
	}
	if _, err := s.UpdateHabitStreak(ctx, owner, first.ID, prev, next); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale snapshot: expected ErrConflict, got %v", err)
	}
	if _, err := s.UpdateHabitStreak(ctx, other, first.ID, h.State(), next); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner streak: expected ErrNotFound, got %v", err)
	}

	undo, err := core.Toggle(h.State(), false, today)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	h, err = s.UpdateHabitStreak(ctx, owner, first.ID, h.State(), undo)
	if err != nil || h.CurrentStreak != 0 || h.BestStreak != 1 || h.LastCompletedAt != nil {
		t.Fatalf("undo streak: %+v, %v", h, err)
	}

	name := "Track every expense"
	h, err = s.UpdateHabit(ctx, owner, first.ID, store.HabitPatch{Name: &name})
	if err != nil || h.Name != name || h.Target != "daily" {
		t.Fatalf("update habit: %+v, %v", h, err)
	}
	if err := s.DeleteHabit(ctx, owner, second.ID); err != nil {
		t.Fatalf("delete habit: %v", err)
	}
	if err := s.DeleteHabit(ctx, owner, second.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func testProfiles(t *testing.T, s store.Store, owner string) {
	ctx := context.Background()
	if _, err := s.GetProfile(ctx, owner); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before creation, got %v", err)
	}
	if _, err := s.CreateProfile(ctx, core.UserProfile{ID: owner, FirstName: "Ana", LastName: "Souza"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if _, err := s.CreateProfile(ctx, core.UserProfile{ID: owner}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	last := "Lima"
	p, err := s.UpdateProfile(ctx, owner, store.ProfilePatch{LastName: &last})
	if err != nil || p.FirstName != "Ana" || p.LastName != "Lima" {
		t.Fatalf("update profile: %+v, %v", p, err)
	}
	p, err = s.GetProfile(ctx, owner)
	if err != nil || p.FullName() != "Ana Lima" {
		t.Fatalf("get profile: %+v, %v", p, err)
	}
}
