// Package postgres is the PostgreSQL backend for the store ports, built on
// a pgx connection pool.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL, applies migrations and returns a ready store.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func mapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func dateParam(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time
}

func nullableDate(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// Users

const userColumns = `id, email, password_hash, created_at`

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = store.NormalizeEmail(u.Email)
	u.CreatedAt = s.now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return core.User{}, mapErr("create user", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return core.User{}, mapErr("get user", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, store.NormalizeEmail(email)))
	if err != nil {
		return core.User{}, mapErr("get user by email", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, mapErr("list users", err)
	}
	defer rows.Close()
	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr("scan user", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Profiles

func (s *Store) GetProfile(ctx context.Context, owner string) (core.UserProfile, error) {
	var p core.UserProfile
	err := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, updated_at FROM profiles WHERE id = $1`, owner).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.UpdatedAt)
	if err != nil {
		return core.UserProfile{}, mapErr("get profile", err)
	}
	return p, nil
}

func (s *Store) CreateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	p.UpdatedAt = s.now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, first_name, last_name, updated_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.FirstName, p.LastName, p.UpdatedAt)
	if err != nil {
		return core.UserProfile{}, mapErr("create profile", err)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, owner string, patch store.ProfilePatch) (core.UserProfile, error) {
	var p core.UserProfile
	err := s.pool.QueryRow(ctx, `
UPDATE profiles SET
    first_name = COALESCE($2, first_name),
    last_name  = COALESCE($3, last_name),
    updated_at = $4
WHERE id = $1
RETURNING id, first_name, last_name, updated_at`,
		owner, patch.FirstName, patch.LastName, s.now().UTC()).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.UpdatedAt)
	if err != nil {
		return core.UserProfile{}, mapErr("update profile", err)
	}
	return p, nil
}

// Transactions

const transactionColumns = `id, owner, description, amount::text, category, date, created_at`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t      core.Transaction
		amount string
		cat    string
	)
	if err := row.Scan(&t.ID, &t.Owner, &t.Description, &amount, &cat, &t.Date.Time, &t.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	a, err := parseDecimal(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	t.Amount = a
	t.Category = core.Category(cat)
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, owner string, f store.TransactionFilter) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+transactionColumns+`
FROM transactions
WHERE owner = $1
  AND ($2 = '' OR category = $2)
  AND ($3 = '' OR description ILIKE '%' || $3 || '%')
  AND ($4::date IS NULL OR date >= $4::date)
  AND ($5::date IS NULL OR date <= $5::date)
ORDER BY date DESC, created_at DESC`,
		owner, string(f.Category), strings.TrimSpace(f.Search), dateParam(f.From), dateParam(f.To))
	if err != nil {
		return nil, mapErr("list transactions", err)
	}
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, mapErr("scan transaction", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner = $1 AND id = $2`, owner, id))
	if err != nil {
		return core.Transaction{}, mapErr("get transaction", err)
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	_, err := s.pool.Exec(ctx, `
INSERT INTO transactions (id, owner, description, amount, category, date, created_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
		t.ID, t.Owner, t.Description, t.Amount.String(), string(t.Category), t.Date.Time, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, mapErr("create transaction", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, owner, id string, p store.TransactionPatch) (core.Transaction, error) {
	var amount, category, date any
	if p.Amount != nil {
		amount = p.Amount.String()
	}
	if p.Category != nil {
		category = string(*p.Category)
	}
	if p.Date != nil {
		date = p.Date.Time
	}
	t, err := scanTransaction(s.pool.QueryRow(ctx, `
UPDATE transactions SET
    description = COALESCE($3, description),
    amount      = COALESCE($4::numeric, amount),
    category    = COALESCE($5, category),
    date        = COALESCE($6::date, date)
WHERE owner = $1 AND id = $2
RETURNING `+transactionColumns,
		owner, id, p.Description, amount, category, date))
	if err != nil {
		return core.Transaction{}, mapErr("update transaction", err)
	}
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, owner, id string) error {
	return s.delete(ctx, "transactions", owner, id)
}

// delete removes one owned row; table is always a package constant.
func (s *Store) delete(ctx context.Context, table, owner, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return mapErr("delete from "+table, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Goals

const goalColumns = `id, owner, title, target_amount::text, current_amount::text, target_date, created_at, updated_at`

func scanGoal(row pgx.Row) (core.FinancialGoal, error) {
	var (
		g               core.FinancialGoal
		target, current string
	)
	if err := row.Scan(&g.ID, &g.Owner, &g.Title, &target, &current, &g.TargetDate.Time, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return core.FinancialGoal{}, err
	}
	var err error
	if g.TargetAmount, err = parseDecimal(target); err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s target_amount: %w", g.ID, err)
	}
	if g.CurrentAmount, err = parseDecimal(current); err != nil {
		return core.FinancialGoal{}, fmt.Errorf("goal %s current_amount: %w", g.ID, err)
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, owner string) ([]core.FinancialGoal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM financial_goals WHERE owner = $1 ORDER BY target_date, created_at`, owner)
	if err != nil {
		return nil, mapErr("list goals", err)
	}
	defer rows.Close()
	var out []core.FinancialGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, mapErr("scan goal", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, owner, id string) (core.FinancialGoal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM financial_goals WHERE owner = $1 AND id = $2`, owner, id))
	if err != nil {
		return core.FinancialGoal{}, mapErr("get goal", err)
	}
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = s.now().UTC()
	g.UpdatedAt = g.CreatedAt
	_, err := s.pool.Exec(ctx, `
INSERT INTO financial_goals (id, owner, title, target_amount, current_amount, target_date, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8)`,
		g.ID, g.Owner, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate.Time, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return core.FinancialGoal{}, mapErr("create goal", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, owner, id string, p store.GoalPatch) (core.FinancialGoal, error) {
	var target, date any
	if p.TargetAmount != nil {
		target = p.TargetAmount.String()
	}
	if p.TargetDate != nil {
		date = p.TargetDate.Time
	}
	g, err := scanGoal(s.pool.QueryRow(ctx, `
UPDATE financial_goals SET
    title         = COALESCE($3, title),
    target_amount = COALESCE($4::numeric, target_amount),
    target_date   = COALESCE($5::date, target_date),
    updated_at    = $6
WHERE owner = $1 AND id = $2
RETURNING `+goalColumns,
		owner, id, p.Title, target, date, s.now().UTC()))
	if err != nil {
		return core.FinancialGoal{}, mapErr("update goal", err)
	}
	return g, nil
}

func (s *Store) DepositGoal(ctx context.Context, owner, id string, amount decimal.Decimal) (core.FinancialGoal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx, `
UPDATE financial_goals SET
    current_amount = current_amount + $3::numeric,
    updated_at     = $4
WHERE owner = $1 AND id = $2
RETURNING `+goalColumns,
		owner, id, amount.String(), s.now().UTC()))
	if err != nil {
		return core.FinancialGoal{}, mapErr("deposit goal", err)
	}
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, owner, id string) error {
	return s.delete(ctx, "financial_goals", owner, id)
}

// Habits

const habitColumns = `id, owner, name, target, current_streak, best_streak, last_completed_at, created_at, updated_at`

func scanHabit(row pgx.Row) (core.FinancialHabit, error) {
	var (
		h    core.FinancialHabit
		last *time.Time
	)
	if err := row.Scan(&h.ID, &h.Owner, &h.Name, &h.Target, &h.CurrentStreak, &h.BestStreak, &last, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return core.FinancialHabit{}, err
	}
	if last != nil {
		d := core.DateOf(*last)
		h.LastCompletedAt = &d
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, owner string) ([]core.FinancialHabit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+habitColumns+` FROM financial_habits WHERE owner = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, mapErr("list habits", err)
	}
	defer rows.Close()
	var out []core.FinancialHabit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, mapErr("scan habit", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) GetHabit(ctx context.Context, owner, id string) (core.FinancialHabit, error) {
	h, err := scanHabit(s.pool.QueryRow(ctx,
		`SELECT `+habitColumns+` FROM financial_habits WHERE owner = $1 AND id = $2`, owner, id))
	if err != nil {
		return core.FinancialHabit{}, mapErr("get habit", err)
	}
	return h, nil
}

func (s *Store) CreateHabit(ctx context.Context, h core.FinancialHabit) (core.FinancialHabit, error) {
	h.ID = uuid.NewString()
	h.CreatedAt = s.now().UTC()
	h.UpdatedAt = h.CreatedAt
	_, err := s.pool.Exec(ctx, `
INSERT INTO financial_habits (id, owner, name, target, current_streak, best_streak, last_completed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9)`,
		h.ID, h.Owner, h.Name, h.Target, h.CurrentStreak, h.BestStreak, nullableDate(h.LastCompletedAt), h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return core.FinancialHabit{}, mapErr("create habit", err)
	}
	return h, nil
}

func (s *Store) UpdateHabit(ctx context.Context, owner, id string, p store.HabitPatch) (core.FinancialHabit, error) {
	h, err := scanHabit(s.pool.QueryRow(ctx, `
UPDATE financial_habits SET
    name       = COALESCE($3, name),
    target     = COALESCE($4, target),
    updated_at = $5
WHERE owner = $1 AND id = $2
RETURNING `+habitColumns,
		owner, id, p.Name, p.Target, s.now().UTC()))
	if err != nil {
		return core.FinancialHabit{}, mapErr("update habit", err)
	}
	return h, nil
}

func (s *Store) UpdateHabitStreak(ctx context.Context, owner, id string, prev, next core.HabitState) (core.FinancialHabit, error) {
	h, err := scanHabit(s.pool.QueryRow(ctx, `
UPDATE financial_habits SET
    current_streak    = $3,
    best_streak       = $4,
    last_completed_at = $5::date,
    updated_at        = $6
WHERE owner = $1 AND id = $2
  AND current_streak = $7
  AND best_streak = $8
  AND last_completed_at IS NOT DISTINCT FROM $9::date
RETURNING `+habitColumns,
		owner, id, next.CurrentStreak, next.BestStreak, nullableDate(next.LastCompletedAt), s.now().UTC(),
		prev.CurrentStreak, prev.BestStreak, nullableDate(prev.LastCompletedAt)))
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return core.FinancialHabit{}, mapErr("update habit streak", err)
	}
	// Nothing matched: either the habit is gone or someone else moved the streak.
	if _, getErr := s.GetHabit(ctx, owner, id); getErr != nil {
		return core.FinancialHabit{}, getErr
	}
	return core.FinancialHabit{}, store.ErrConflict
}

func (s *Store) DeleteHabit(ctx context.Context, owner, id string) error {
	return s.delete(ctx, "financial_habits", owner, id)
}
