package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the tables column for column.
type (
	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    string
	}

	Profile struct {
		ID        string
		FirstName string
		LastName  string
		UpdatedAt string
	}

	Transaction struct {
		ID          string
		Owner       string
		Description string
		Amount      string
		Category    string
		Date        string
		CreatedAt   string
	}

	FinancialGoal struct {
		ID            string
		Owner         string
		Title         string
		TargetAmount  string
		CurrentAmount string
		TargetDate    string
		CreatedAt     string
		UpdatedAt     string
	}

	FinancialHabit struct {
		ID              string
		Owner           string
		Name            string
		Target          string
		CurrentStreak   int64
		BestStreak      int64
		LastCompletedAt sql.NullString
		CreatedAt       string
		UpdatedAt       string
	}
)

const createUser = `
INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateUser(ctx context.Context, arg User) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.ID, arg.Email, arg.PasswordHash, arg.CreatedAt)
	return err
}

const getUser = `
SELECT id, email, password_hash, created_at FROM users WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUser, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password_hash, created_at FROM users WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const listUsers = `
SELECT id, email, password_hash, created_at FROM users ORDER BY created_at
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const createProfile = `
INSERT INTO profiles (id, first_name, last_name, updated_at) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateProfile(ctx context.Context, arg Profile) error {
	_, err := q.db.ExecContext(ctx, createProfile, arg.ID, arg.FirstName, arg.LastName, arg.UpdatedAt)
	return err
}

const getProfile = `
SELECT id, first_name, last_name, updated_at FROM profiles WHERE id = ?
`

func (q *Queries) GetProfile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := q.db.QueryRowContext(ctx, getProfile, id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.UpdatedAt)
	return p, err
}

const updateProfile = `
UPDATE profiles SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?
`

func (q *Queries) UpdateProfile(ctx context.Context, arg Profile) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateProfile, arg.FirstName, arg.LastName, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createTransaction = `
INSERT INTO transactions (id, owner, description, amount, category, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.Owner, arg.Description, arg.Amount, arg.Category, arg.Date, arg.CreatedAt)
	return err
}

const getTransaction = `
SELECT id, owner, description, amount, category, date, created_at
FROM transactions WHERE owner = ? AND id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, owner, id string) (Transaction, error) {
	var t Transaction
	err := q.db.QueryRowContext(ctx, getTransaction, owner, id).Scan(
		&t.ID, &t.Owner, &t.Description, &t.Amount, &t.Category, &t.Date, &t.CreatedAt)
	return t, err
}

const listTransactions = `
SELECT id, owner, description, amount, category, date, created_at
FROM transactions
WHERE owner = ?1
  AND (?2 = '' OR category = ?2)
  AND (?3 = '' OR lower(description) LIKE '%' || lower(?3) || '%')
  AND (?4 = '' OR date >= ?4)
  AND (?5 = '' OR date <= ?5)
ORDER BY date DESC, created_at DESC
`

type ListTransactionsParams struct {
	Owner    string
	Category string
	Search   string
	From     string
	To       string
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, arg.Owner, arg.Category, arg.Search, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Owner, &t.Description, &t.Amount, &t.Category, &t.Date, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const updateTransaction = `
UPDATE transactions SET description = ?, amount = ?, category = ?, date = ?
WHERE owner = ? AND id = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Description, arg.Amount, arg.Category, arg.Date, arg.Owner, arg.ID)
	return err
}

const deleteTransaction = `
DELETE FROM transactions WHERE owner = ? AND id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, owner, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, owner, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createGoal = `
INSERT INTO financial_goals (id, owner, title, target_amount, current_amount, target_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, arg FinancialGoal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.ID, arg.Owner, arg.Title, arg.TargetAmount, arg.CurrentAmount, arg.TargetDate, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getGoal = `
SELECT id, owner, title, target_amount, current_amount, target_date, created_at, updated_at
FROM financial_goals WHERE owner = ? AND id = ?
`

func (q *Queries) GetGoal(ctx context.Context, owner, id string) (FinancialGoal, error) {
	var g FinancialGoal
	err := q.db.QueryRowContext(ctx, getGoal, owner, id).Scan(
		&g.ID, &g.Owner, &g.Title, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

const listGoals = `
SELECT id, owner, title, target_amount, current_amount, target_date, created_at, updated_at
FROM financial_goals WHERE owner = ?
ORDER BY target_date ASC, created_at ASC
`

func (q *Queries) ListGoals(ctx context.Context, owner string) ([]FinancialGoal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FinancialGoal
	for rows.Next() {
		var g FinancialGoal
		if err := rows.Scan(&g.ID, &g.Owner, &g.Title, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

const updateGoal = `
UPDATE financial_goals
SET title = ?, target_amount = ?, current_amount = ?, target_date = ?, updated_at = ?
WHERE owner = ? AND id = ?
`

func (q *Queries) UpdateGoal(ctx context.Context, arg FinancialGoal) error {
	_, err := q.db.ExecContext(ctx, updateGoal,
		arg.Title, arg.TargetAmount, arg.CurrentAmount, arg.TargetDate, arg.UpdatedAt, arg.Owner, arg.ID)
	return err
}

const deleteGoal = `
DELETE FROM financial_goals WHERE owner = ? AND id = ?
`

func (q *Queries) DeleteGoal(ctx context.Context, owner, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteGoal, owner, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createHabit = `
INSERT INTO financial_habits (id, owner, name, target, current_streak, best_streak, last_completed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateHabit(ctx context.Context, arg FinancialHabit) error {
	_, err := q.db.ExecContext(ctx, createHabit,
		arg.ID, arg.Owner, arg.Name, arg.Target, arg.CurrentStreak, arg.BestStreak, arg.LastCompletedAt, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getHabit = `
SELECT id, owner, name, target, current_streak, best_streak, last_completed_at, created_at, updated_at
FROM financial_habits WHERE owner = ? AND id = ?
`

func (q *Queries) GetHabit(ctx context.Context, owner, id string) (FinancialHabit, error) {
	var h FinancialHabit
	err := q.db.QueryRowContext(ctx, getHabit, owner, id).Scan(
		&h.ID, &h.Owner, &h.Name, &h.Target, &h.CurrentStreak, &h.BestStreak, &h.LastCompletedAt, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

const listHabits = `
SELECT id, owner, name, target, current_streak, best_streak, last_completed_at, created_at, updated_at
FROM financial_habits WHERE owner = ?
ORDER BY created_at DESC
`

func (q *Queries) ListHabits(ctx context.Context, owner string) ([]FinancialHabit, error) {
	rows, err := q.db.QueryContext(ctx, listHabits, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FinancialHabit
	for rows.Next() {
		var h FinancialHabit
		if err := rows.Scan(&h.ID, &h.Owner, &h.Name, &h.Target, &h.CurrentStreak, &h.BestStreak, &h.LastCompletedAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

const updateHabit = `
UPDATE financial_habits SET name = ?, target = ?, updated_at = ? WHERE owner = ? AND id = ?
`

func (q *Queries) UpdateHabit(ctx context.Context, arg FinancialHabit) error {
	_, err := q.db.ExecContext(ctx, updateHabit, arg.Name, arg.Target, arg.UpdatedAt, arg.Owner, arg.ID)
	return err
}

// updateHabitStreak only matches while the stored streak equals the snapshot.
const updateHabitStreak = `
UPDATE financial_habits
SET current_streak = ?, best_streak = ?, last_completed_at = ?, updated_at = ?
WHERE owner = ? AND id = ?
  AND current_streak = ? AND best_streak = ? AND last_completed_at IS ?
`

type UpdateHabitStreakParams struct {
	Owner               string
	ID                  string
	CurrentStreak       int64
	BestStreak          int64
	LastCompletedAt     sql.NullString
	UpdatedAt           string
	PrevCurrentStreak   int64
	PrevBestStreak      int64
	PrevLastCompletedAt sql.NullString
}

func (q *Queries) UpdateHabitStreak(ctx context.Context, arg UpdateHabitStreakParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateHabitStreak,
		arg.CurrentStreak, arg.BestStreak, arg.LastCompletedAt, arg.UpdatedAt,
		arg.Owner, arg.ID,
		arg.PrevCurrentStreak, arg.PrevBestStreak, arg.PrevLastCompletedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteHabit = `
DELETE FROM financial_habits WHERE owner = ? AND id = ?
`

func (q *Queries) DeleteHabit(ctx context.Context, owner, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteHabit, owner, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
