// Package memory is an in-process store.Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/store"
)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	transactions map[string]core.Transaction
	goals        map[string]core.FinancialGoal
	habits       map[string]core.FinancialHabit
	profiles     map[string]core.UserProfile
	users        map[string]core.User
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:          time.Now,
		transactions: make(map[string]core.Transaction),
		goals:        make(map[string]core.FinancialGoal),
		habits:       make(map[string]core.FinancialHabit),
		profiles:     make(map[string]core.UserProfile),
		users:        make(map[string]core.User),
	}
}

// WithClock replaces the timestamp source. Tests use it to get stable
// CreatedAt ordering.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

// Transactions

func (s *Store) ListTransactions(_ context.Context, owner string, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if t.Owner == owner && f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, owner, id string, p store.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return core.Transaction{}, store.ErrNotFound
	}
	t = p.Apply(t)
	s.transactions[id] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.Owner != owner {
		return store.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// Goals

func (s *Store) ListGoals(_ context.Context, owner string) ([]core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FinancialGoal, 0)
	for _, g := range s.goals {
		if g.Owner == owner {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TargetDate.Equal(out[j].TargetDate.Time) {
			return out[i].TargetDate.Before(out[j].TargetDate.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, owner, id string) (core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.Owner != owner {
		return core.FinancialGoal{}, store.ErrNotFound
	}
	return g, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = uuid.NewString()
	g.CreatedAt = s.now()
	g.UpdatedAt = g.CreatedAt
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, owner, id string, p store.GoalPatch) (core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.Owner != owner {
		return core.FinancialGoal{}, store.ErrNotFound
	}
	g = p.Apply(g)
	g.UpdatedAt = s.now()
	s.goals[id] = g
	return g, nil
}

func (s *Store) DepositGoal(_ context.Context, owner, id string, amount decimal.Decimal) (core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.Owner != owner {
		return core.FinancialGoal{}, store.ErrNotFound
	}
	g, err := core.Deposit(g, amount)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	g.UpdatedAt = s.now()
	s.goals[id] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.Owner != owner {
		return store.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

// Habits

func (s *Store) ListHabits(_ context.Context, owner string) ([]core.FinancialHabit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FinancialHabit, 0)
	for _, h := range s.habits {
		if h.Owner == owner {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetHabit(_ context.Context, owner, id string) (core.FinancialHabit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok || h.Owner != owner {
		return core.FinancialHabit{}, store.ErrNotFound
	}
	return h, nil
}

func (s *Store) CreateHabit(_ context.Context, h core.FinancialHabit) (core.FinancialHabit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = uuid.NewString()
	h.CreatedAt = s.now()
	h.UpdatedAt = h.CreatedAt
	s.habits[h.ID] = h
	return h, nil
}

func (s *Store) UpdateHabit(_ context.Context, owner, id string, p store.HabitPatch) (core.FinancialHabit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok || h.Owner != owner {
		return core.FinancialHabit{}, store.ErrNotFound
	}
	h = p.Apply(h)
	h.UpdatedAt = s.now()
	s.habits[id] = h
	return h, nil
}

func (s *Store) UpdateHabitStreak(_ context.Context, owner, id string, prev, next core.HabitState) (core.FinancialHabit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok || h.Owner != owner {
		return core.FinancialHabit{}, store.ErrNotFound
	}
	if !h.State().Equal(prev) {
		return core.FinancialHabit{}, store.ErrConflict
	}
	h = h.WithState(next)
	h.UpdatedAt = s.now()
	s.habits[id] = h
	return h, nil
}

func (s *Store) DeleteHabit(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok || h.Owner != owner {
		return store.ErrNotFound
	}
	delete(s.habits, id)
	return nil
}

// Profiles

func (s *Store) GetProfile(_ context.Context, owner string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return core.UserProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) CreateProfile(_ context.Context, p core.UserProfile) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return core.UserProfile{}, store.ErrDuplicate
	}
	p.UpdatedAt = s.now()
	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, owner string, patch store.ProfilePatch) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return core.UserProfile{}, store.ErrNotFound
	}
	p = patch.Apply(p)
	p.UpdatedAt = s.now()
	s.profiles[owner] = p
	return p, nil
}

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = store.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, store.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = store.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, store.ErrNotFound
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
