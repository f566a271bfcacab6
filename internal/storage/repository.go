package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/store"

	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so text comparison in SQL orders correctly.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers; read-modify-write transactions
	// below rely on it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() string {
	return r.now().UTC().Format(timestampLayout)
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to store.ErrNotFound and wraps everything else.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = store.NormalizeEmail(u.Email)
	u.CreatedAt = r.now().UTC()
	err := r.queries.CreateUser(ctx, User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.Format(timestampLayout),
	})
	if isUniqueViolation(err) {
		return core.User{}, store.ErrDuplicate
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, notFound("get user", err)
	}
	return userFromRow(row)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, store.NormalizeEmail(email))
	if err != nil {
		return core.User{}, notFound("get user by email", err)
	}
	return userFromRow(row)
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, 0, len(rows))
	for _, row := range rows {
		u, err := userFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// Profiles

func (r *SQLiteRepository) GetProfile(ctx context.Context, owner string) (core.UserProfile, error) {
	row, err := r.queries.GetProfile(ctx, owner)
	if err != nil {
		return core.UserProfile{}, notFound("get profile", err)
	}
	return profileFromRow(row)
}

func (r *SQLiteRepository) CreateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	p.UpdatedAt = r.now().UTC()
	err := r.queries.CreateProfile(ctx, Profile{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		UpdatedAt: p.UpdatedAt.Format(timestampLayout),
	})
	if isUniqueViolation(err) {
		return core.UserProfile{}, store.ErrDuplicate
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, owner string, patch store.ProfilePatch) (core.UserProfile, error) {
	var out core.UserProfile
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetProfile(ctx, owner)
		if err != nil {
			return notFound("get profile", err)
		}
		p, err := profileFromRow(row)
		if err != nil {
			return err
		}
		p = patch.Apply(p)
		p.UpdatedAt = r.now().UTC()
		if _, err := q.UpdateProfile(ctx, Profile{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			UpdatedAt: p.UpdatedAt.Format(timestampLayout),
		}); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		out = p
		return nil
	})
	return out, err
}

// Transactions

func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner string, f store.TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ListTransactionsParams{
		Owner:    owner,
		Category: string(f.Category),
		Search:   strings.TrimSpace(f.Search),
		From:     f.From.String(),
		To:       f.To.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, notFound("get transaction", err)
	}
	return transactionFromRow(row)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = r.now().UTC()
	if err := r.queries.CreateTransaction(ctx, transactionToRow(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"category", t.Category,
		"date", t.Date.String())

	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, owner, id string, p store.TransactionPatch) (core.Transaction, error) {
	var out core.Transaction
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetTransaction(ctx, owner, id)
		if err != nil {
			return notFound("get transaction", err)
		}
		t, err := transactionFromRow(row)
		if err != nil {
			return err
		}
		t = p.Apply(t)
		if err := q.UpdateTransaction(ctx, transactionToRow(t)); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		out = t
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Goals

func (r *SQLiteRepository) ListGoals(ctx context.Context, owner string) ([]core.FinancialGoal, error) {
	rows, err := r.queries.ListGoals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.FinancialGoal, 0, len(rows))
	for _, row := range rows {
		g, err := goalFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, owner, id string) (core.FinancialGoal, error) {
	row, err := r.queries.GetGoal(ctx, owner, id)
	if err != nil {
		return core.FinancialGoal{}, notFound("get goal", err)
	}
	return goalFromRow(row)
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = r.now().UTC()
	g.UpdatedAt = g.CreatedAt
	if err := r.queries.CreateGoal(ctx, goalToRow(g)); err != nil {
		return core.FinancialGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, owner, id string, p store.GoalPatch) (core.FinancialGoal, error) {
	return r.modifyGoal(ctx, owner, id, func(g core.FinancialGoal) core.FinancialGoal {
		return p.Apply(g)
	})
}

func (r *SQLiteRepository) DepositGoal(ctx context.Context, owner, id string, amount decimal.Decimal) (core.FinancialGoal, error) {
	return r.modifyGoal(ctx, owner, id, func(g core.FinancialGoal) core.FinancialGoal {
		g.CurrentAmount = g.CurrentAmount.Add(amount)
		return g
	})
}

func (r *SQLiteRepository) modifyGoal(ctx context.Context, owner, id string, fn func(core.FinancialGoal) core.FinancialGoal) (core.FinancialGoal, error) {
	var out core.FinancialGoal
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetGoal(ctx, owner, id)
		if err != nil {
			return notFound("get goal", err)
		}
		g, err := goalFromRow(row)
		if err != nil {
			return err
		}
		g = fn(g)
		g.UpdatedAt = r.now().UTC()
		if err := q.UpdateGoal(ctx, goalToRow(g)); err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		out = g
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, owner, id string) error {
	n, err := r.queries.DeleteGoal(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Habits

func (r *SQLiteRepository) ListHabits(ctx context.Context, owner string) ([]core.FinancialHabit, error) {
	rows, err := r.queries.ListHabits(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	out := make([]core.FinancialHabit, 0, len(rows))
	for _, row := range rows {
		h, err := habitFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *SQLiteRepository) GetHabit(ctx context.Context, owner, id string) (core.FinancialHabit, error) {
	row, err := r.queries.GetHabit(ctx, owner, id)
	if err != nil {
		return core.FinancialHabit{}, notFound("get habit", err)
	}
	return habitFromRow(row)
}

func (r *SQLiteRepository) CreateHabit(ctx context.Context, h core.FinancialHabit) (core.FinancialHabit, error) {
	h.ID = uuid.NewString()
	h.CreatedAt = r.now().UTC()
	h.UpdatedAt = h.CreatedAt
	if err := r.queries.CreateHabit(ctx, habitToRow(h)); err != nil {
		return core.FinancialHabit{}, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

func (r *SQLiteRepository) UpdateHabit(ctx context.Context, owner, id string, p store.HabitPatch) (core.FinancialHabit, error) {
	var out core.FinancialHabit
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetHabit(ctx, owner, id)
		if err != nil {
			return notFound("get habit", err)
		}
		h, err := habitFromRow(row)
		if err != nil {
			return err
		}
		h = p.Apply(h)
		h.UpdatedAt = r.now().UTC()
		if err := q.UpdateHabit(ctx, habitToRow(h)); err != nil {
			return fmt.Errorf("update habit: %w", err)
		}
		out = h
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) UpdateHabitStreak(ctx context.Context, owner, id string, prev, next core.HabitState) (core.FinancialHabit, error) {
	var out core.FinancialHabit
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.UpdateHabitStreak(ctx, UpdateHabitStreakParams{
			Owner:               owner,
			ID:                  id,
			CurrentStreak:       int64(next.CurrentStreak),
			BestStreak:          int64(next.BestStreak),
			LastCompletedAt:     nullDate(next.LastCompletedAt),
			UpdatedAt:           r.stamp(),
			PrevCurrentStreak:   int64(prev.CurrentStreak),
			PrevBestStreak:      int64(prev.BestStreak),
			PrevLastCompletedAt: nullDate(prev.LastCompletedAt),
		})
		if err != nil {
			return fmt.Errorf("update habit streak: %w", err)
		}
		row, err := q.GetHabit(ctx, owner, id)
		if err != nil {
			return notFound("get habit", err)
		}
		if n == 0 {
			return store.ErrConflict
		}
		out, err = habitFromRow(row)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) DeleteHabit(ctx context.Context, owner, id string) error {
	n, err := r.queries.DeleteHabit(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
