package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"finboard/internal/auth"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/store"
)

// owner is set by auth.Middleware on every private route.
func owner(r *http.Request) string {
	id, _ := auth.OwnerFrom(r.Context())
	return id
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// parseBody returns a parsed body or writes a 400 and returns nil.
func parseBody(w http.ResponseWriter, r *http.Request, operation string) *RequestBodyParser {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, operation, err)
		return nil
	}
	return p
}

// Auth

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpCreate)
	if p == nil {
		return
	}
	sess, err := s.svc.Auth.Signup(r.Context(), services.Signup{
		Email:     p.Get("email"),
		Password:  p.Get("password"),
		FirstName: p.Get("first_name"),
		LastName:  p.Get("last_name"),
	})
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created(w, sess)
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpRead)
	if p == nil {
		return
	}
	sess, err := s.svc.Auth.Signin(r.Context(), p.Get("email"), p.Get("password"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ok(w, sess)
}

// Transactions

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.TransactionFilter
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		cat, err := core.ParseCategory(c)
		if err != nil {
			writeError(w, r, applog.OpList, err)
			return
		}
		f.Category = cat
	}
	f.Search = sanitizeInput(q.Get("q"))
	for key, dst := range map[string]*core.Date{"from": &f.From, "to": &f.To} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			d, err := core.ParseDate(v)
			if err != nil {
				writeError(w, r, applog.OpList, &core.ValidationError{Field: key, Err: core.ErrInvalidDate})
				return
			}
			*dst = d
		}
	}

	txs, err := s.svc.Transactions.List(r.Context(), owner(r), f)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	ok(w, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Transactions.Get(r.Context(), owner(r), pathID(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ok(w, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpCreate)
	if p == nil {
		return
	}
	amount, err := p.Amount("amount")
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	cat, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	date := core.Today()
	if p.Has("date") {
		if date, err = p.Date("date"); err != nil {
			writeError(w, r, applog.OpCreate, err)
			return
		}
	}

	tx, err := s.svc.Transactions.Create(r.Context(), owner(r), services.NewTransaction{
		Description: p.Get("description"),
		Amount:      amount,
		Category:    cat,
		Date:        date,
	})
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created(w, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpUpdate)
	if p == nil {
		return
	}
	patch := store.TransactionPatch{Description: p.OptString("description")}
	var err error
	if patch.Amount, err = p.OptAmount("amount"); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if patch.Category, err = p.OptCategory("category"); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if patch.Date, err = p.OptDate("date"); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	tx, err := s.svc.Transactions.Update(r.Context(), owner(r), pathID(r), patch)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	ok(w, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), owner(r), pathID(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	noContent(w)
}

// Goals

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if goals == nil {
		goals = []services.GoalView{}
	}
	ok(w, goals)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Goals.Get(r.Context(), owner(r), pathID(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ok(w, g)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpCreate)
	if p == nil {
		return
	}
	target, err := p.Amount("target_amount")
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	date, err := p.Date("target_date")
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	g, err := s.svc.Goals.Create(r.Context(), owner(r), services.NewGoal{
		Title:        p.Get("title"),
		TargetAmount: target,
		TargetDate:   date,
	})
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created(w, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpUpdate)
	if p == nil {
		return
	}
	patch := store.GoalPatch{Title: p.OptString("title")}
	var err error
	if patch.TargetAmount, err = p.OptAmount("target_amount"); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if patch.TargetDate, err = p.OptDate("target_date"); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	g, err := s.svc.Goals.Update(r.Context(), owner(r), pathID(r), patch)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	ok(w, g)
}

func (s *Server) handleDepositGoal(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpDeposit)
	if p == nil {
		return
	}
	amount, err := p.Amount("amount")
	if err != nil {
		writeError(w, r, applog.OpDeposit, err)
		return
	}
	g, err := s.svc.Goals.Deposit(r.Context(), owner(r), pathID(r), amount)
	if err != nil {
		writeError(w, r, applog.OpDeposit, err)
		return
	}
	ok(w, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Goals.Delete(r.Context(), owner(r), pathID(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	noContent(w)
}

// Habits

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.Habits.List(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if habits == nil {
		habits = []services.HabitView{}
	}
	ok(w, habits)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpCreate)
	if p == nil {
		return
	}
	h, err := s.svc.Habits.Create(r.Context(), owner(r), services.NewHabit{
		Name:   p.Get("name"),
		Target: p.Get("target"),
	})
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created(w, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpUpdate)
	if p == nil {
		return
	}
	h, err := s.svc.Habits.Update(r.Context(), owner(r), pathID(r), store.HabitPatch{
		Name:   p.OptString("name"),
		Target: p.OptString("target"),
	})
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	ok(w, h)
}

func (s *Server) handleToggleHabit(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpToggle)
	if p == nil {
		return
	}
	completed, err := p.Bool("completed")
	if err != nil {
		writeError(w, r, applog.OpToggle, err)
		return
	}
	h, err := s.svc.Habits.Toggle(r.Context(), owner(r), pathID(r), completed)
	if err != nil {
		writeError(w, r, applog.OpToggle, err)
		return
	}
	ok(w, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Habits.Delete(r.Context(), owner(r), pathID(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	noContent(w)
}

// Profile

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	pr, err := s.svc.Profiles.Get(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ok(w, pr)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r, applog.OpUpdate)
	if p == nil {
		return
	}
	pr, err := s.svc.Profiles.Update(r.Context(), owner(r), store.ProfilePatch{
		FirstName: p.OptString("first_name"),
		LastName:  p.OptString("last_name"),
	})
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	ok(w, pr)
}

// Reports and dashboard

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Reports.Get(r.Context(), owner(r), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ok(w, rep)
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	shares, err := s.svc.Reports.ExpensesByCategory(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ok(w, shares)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Get(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	ok(w, d)
}

// Settings

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ok(w, s.svc.Settings.Get())
}

// handleSaveSettings overlays the body on the current settings, so omitted
// fields keep their value.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	next := s.svc.Settings.Get()
	if err := p.Decode(&next); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	saved, err := s.svc.Settings.Save(next)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentSettings).InfoContext(r.Context(), "Settings saved",
		applog.FieldOwner, owner(r), "currency", saved.Currency, "theme", saved.Theme)
	ok(w, saved)
}
