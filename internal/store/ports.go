// Package store declares the data-access contract used by the services.
//
// Every operation is scoped to an owner: a row owned by someone else behaves
// exactly like a missing row.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("concurrent modification")
	ErrDuplicate = errors.New("already exists")
)

type (
	// TransactionFilter narrows a listing. Zero values match everything.
	TransactionFilter struct {
		Category core.Category
		Search   string
		From     core.Date
		To       core.Date
	}

	// Patch types carry only the fields being changed.
	TransactionPatch struct {
		Description *string
		Amount      *decimal.Decimal
		Category    *core.Category
		Date        *core.Date
	}

	GoalPatch struct {
		Title        *string
		TargetAmount *decimal.Decimal
		TargetDate   *core.Date
	}

	HabitPatch struct {
		Name   *string
		Target *string
	}

	ProfilePatch struct {
		FirstName *string
		LastName  *string
	}
)

// Ports for storage adapters.
type (
	TransactionStore interface {
		// ListTransactions returns the owner's transactions, newest date first.
		ListTransactions(ctx context.Context, owner string, f TransactionFilter) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
		// CreateTransaction assigns ID and CreatedAt.
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, owner, id string, p TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, owner, id string) error
	}

	GoalStore interface {
		// ListGoals returns the owner's goals, nearest target date first.
		ListGoals(ctx context.Context, owner string) ([]core.FinancialGoal, error)
		GetGoal(ctx context.Context, owner, id string) (core.FinancialGoal, error)
		CreateGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error)
		UpdateGoal(ctx context.Context, owner, id string, p GoalPatch) (core.FinancialGoal, error)
		// DepositGoal atomically adds amount to the goal's current amount.
		DepositGoal(ctx context.Context, owner, id string, amount decimal.Decimal) (core.FinancialGoal, error)
		DeleteGoal(ctx context.Context, owner, id string) error
	}

	HabitStore interface {
		// ListHabits returns the owner's habits, most recently created first.
		ListHabits(ctx context.Context, owner string) ([]core.FinancialHabit, error)
		GetHabit(ctx context.Context, owner, id string) (core.FinancialHabit, error)
		CreateHabit(ctx context.Context, h core.FinancialHabit) (core.FinancialHabit, error)
		UpdateHabit(ctx context.Context, owner, id string, p HabitPatch) (core.FinancialHabit, error)
		// UpdateHabitStreak writes next only if the stored streak still equals
		// prev, otherwise it returns ErrConflict.
		UpdateHabitStreak(ctx context.Context, owner, id string, prev, next core.HabitState) (core.FinancialHabit, error)
		DeleteHabit(ctx context.Context, owner, id string) error
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, owner string) (core.UserProfile, error)
		CreateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error)
		UpdateProfile(ctx context.Context, owner string, p ProfilePatch) (core.UserProfile, error)
	}

	UserStore interface {
		// CreateUser returns ErrDuplicate when the email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		GoalStore
		HabitStore
		ProfileStore
		UserStore
		Ping(ctx context.Context) error
	}
)

// Matches reports whether t passes the filter. Backends without query
// support filter with it in memory.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Search)) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	return true
}

// Apply returns t with the patch applied.
func (p TransactionPatch) Apply(t core.Transaction) core.Transaction {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

func (p GoalPatch) Apply(g core.FinancialGoal) core.FinancialGoal {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	return g
}

func (p HabitPatch) Apply(h core.FinancialHabit) core.FinancialHabit {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Target != nil {
		h.Target = *p.Target
	}
	return h
}

func (p ProfilePatch) Apply(pr core.UserProfile) core.UserProfile {
	if p.FirstName != nil {
		pr.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		pr.LastName = *p.LastName
	}
	return pr
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
