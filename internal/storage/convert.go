package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

func parseStamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func nullDate(d *core.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func userFromRow(row User) (core.User, error) {
	created, err := parseStamp(row.CreatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("user %s created_at: %w", row.ID, err)
	}
	return core.User{ID: row.ID, Email: row.Email, PasswordHash: row.PasswordHash, CreatedAt: created}, nil
}

func profileFromRow(row Profile) (core.UserProfile, error) {
	updated, err := parseStamp(row.UpdatedAt)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("profile %s updated_at: %w", row.ID, err)
	}
	return core.UserProfile{ID: row.ID, FirstName: row.FirstName, LastName: row.LastName, UpdatedAt: updated}, nil
}

func transactionToRow(t core.Transaction) Transaction {
	return Transaction{
		ID:          t.ID,
		Owner:       t.Owner,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Category:    string(t.Category),
		Date:        t.Date.String(),
		CreatedAt:   t.CreatedAt.UTC().Format(timestampLayout),
	}
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", row.ID, err)
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", row.ID, err)
	}
	created, err := parseStamp(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s created_at: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Owner:       row.Owner,
		Description: row.Description,
		Amount:      amount,
		Category:    core.Category(row.Category),
		Date:        date,
		CreatedAt:   created,
	}, nil
}

func goalToRow(g core.FinancialGoal) FinancialGoal {
	return FinancialGoal{
		ID:            g.ID,
		Owner:         g.Owner,
		Title:         g.Title,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		TargetDate:    g.TargetDate.String(),
		CreatedAt:     g.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:     g.UpdatedAt.UTC().Format(timestampLayout),
	}
}

func goalFromRow(row FinancialGoal) (core.FinancialGoal, error) {
	target, err := decimal.NewFromString(row.TargetAmount)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s target_amount: %w", row.ID, err)
	}
	current, err := decimal.NewFromString(row.CurrentAmount)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s current_amount: %w", row.ID, err)
	}
	date, err := core.ParseDate(row.TargetDate)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s target_date: %w", row.ID, err)
	}
	created, err := parseStamp(row.CreatedAt)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s created_at: %w", row.ID, err)
	}
	updated, err := parseStamp(row.UpdatedAt)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s updated_at: %w", row.ID, err)
	}
	return core.FinancialGoal{
		ID:            row.ID,
		Owner:         row.Owner,
		Title:         row.Title,
		TargetAmount:  target,
		CurrentAmount: current,
		TargetDate:    date,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

func habitToRow(h core.FinancialHabit) FinancialHabit {
	return FinancialHabit{
		ID:              h.ID,
		Owner:           h.Owner,
		Name:            h.Name,
		Target:          h.Target,
		CurrentStreak:   int64(h.CurrentStreak),
		BestStreak:      int64(h.BestStreak),
		LastCompletedAt: nullDate(h.LastCompletedAt),
		CreatedAt:       h.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:       h.UpdatedAt.UTC().Format(timestampLayout),
	}
}

func habitFromRow(row FinancialHabit) (core.FinancialHabit, error) {
	created, err := parseStamp(row.CreatedAt)
	if err != nil {
		return core.FinancialHabit{}, fmt.Errorf("habit %s created_at: %w", row.ID, err)
	}
	updated, err := parseStamp(row.UpdatedAt)
	if err != nil {
		return core.FinancialHabit{}, fmt.Errorf("habit %s updated_at: %w", row.ID, err)
	}
	h := core.FinancialHabit{
		ID:            row.ID,
		Owner:         row.Owner,
		Name:          row.Name,
		Target:        row.Target,
		CurrentStreak: int(row.CurrentStreak),
		BestStreak:    int(row.BestStreak),
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
	if row.LastCompletedAt.Valid {
		d, err := core.ParseDate(row.LastCompletedAt.String)
		if err != nil {
			return core.FinancialHabit{}, fmt.Errorf("habit %s last_completed_at: %w", row.ID, err)
		}
		h.LastCompletedAt = &d
	}
	return h, nil
}
