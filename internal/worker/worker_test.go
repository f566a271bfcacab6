package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/mail"
	"finboard/internal/settings"
	"finboard/internal/sheets"
	"finboard/internal/store/memory"
)

type fakeExporter struct {
	rows []sheets.Row
	err  error
}

func (f *fakeExporter) Export(_ context.Context, r sheets.Row) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, r)
	return "mem:1", nil
}

type fakeMailer struct {
	mu      sync.Mutex
	reached []string
	weekly  map[string]mail.WeeklyReport
	failFor string
}

func (m *fakeMailer) SendGoalReached(_ context.Context, to string, goal core.FinancialGoal, _ core.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reached = append(m.reached, to+":"+goal.Title)
	return nil
}

func (m *fakeMailer) SendWeeklyReport(_ context.Context, to string, r mail.WeeklyReport, _ core.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if to == m.failFor {
		return errors.New("smtp down")
	}
	if m.weekly == nil {
		m.weekly = make(map[string]mail.WeeklyReport)
	}
	m.weekly[to] = r
	return nil
}

func mustEvent(t *testing.T, typ amqp.EventType, owner, id string, payload any) amqp.Event {
	t.Helper()
	ev, err := amqp.NewEvent(typ, owner, id, payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	return ev
}

func prefs(t *testing.T, mutate func(*settings.Settings)) *settings.Store {
	t.Helper()
	s, err := settings.Load("")
	if err != nil {
		t.Fatalf("settings.Load() error = %v", err)
	}
	next := s.Get()
	mutate(&next)
	if _, err := s.Save(next); err != nil {
		t.Fatalf("settings.Save() error = %v", err)
	}
	return s
}

func TestEventWorker_ExportsTransactions(t *testing.T) {
	exp := &fakeExporter{}
	w := NewEventWorker(exp, nil, memory.New(), prefs(t, func(*settings.Settings) {}), nil)

	tx := core.Transaction{ID: "tx-1", Owner: "ana", Description: "Bus", Amount: decimal.RequireFromString("-4.40"), Category: core.Transport, Date: core.NewDate(2026, 2, 1)}
	for _, typ := range []amqp.EventType{amqp.TransactionCreated, amqp.TransactionUpdated, amqp.TransactionDeleted} {
		if err := w.HandleEvent(context.Background(), mustEvent(t, typ, "ana", tx.ID, tx)); err != nil {
			t.Fatalf("HandleEvent(%s) error = %v", typ, err)
		}
	}

	if len(exp.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(exp.rows))
	}
	wantOps := []sheets.Op{sheets.OpCreated, sheets.OpUpdated, sheets.OpDeleted}
	for i, r := range exp.rows {
		if r.Op != wantOps[i] || r.ID != "tx-1" || r.Amount != "-4.40" {
			t.Errorf("row %d = %+v", i, r)
		}
	}
}

func TestEventWorker_ExportFailureIsReturned(t *testing.T) {
	exp := &fakeExporter{err: errors.New("quota exceeded")}
	w := NewEventWorker(exp, nil, memory.New(), prefs(t, func(*settings.Settings) {}), nil)

	tx := core.Transaction{ID: "tx-1", Owner: "ana"}
	if err := w.HandleEvent(context.Background(), mustEvent(t, amqp.TransactionCreated, "ana", tx.ID, tx)); err == nil {
		t.Fatal("expected export error so the delivery is requeued")
	}
}

func TestEventWorker_MalformedPayload(t *testing.T) {
	w := NewEventWorker(&fakeExporter{}, nil, memory.New(), prefs(t, func(*settings.Settings) {}), nil)
	ev := amqp.Event{Type: amqp.TransactionCreated, Owner: "ana", Payload: []byte(`"nope"`)}
	if err := w.HandleEvent(context.Background(), ev); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEventWorker_GoalReached(t *testing.T) {
	ctx := context.Background()
	users := memory.New()
	ana, _ := users.CreateUser(ctx, core.User{Email: "ana@example.com"})
	goal := core.FinancialGoal{ID: "g1", Owner: ana.ID, Title: "Trip", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(120)}

	tests := []struct {
		name      string
		before    int64
		reminders bool
		owner     string
		wantMails int
	}{
		{"crossing the target", 80, true, ana.ID, 1},
		{"already past the target", 110, true, ana.ID, 0},
		{"reminders off", 80, false, ana.ID, 0},
		{"unknown owner", 80, true, "ghost", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMailer{}
			p := prefs(t, func(s *settings.Settings) { s.Notifications.GoalReminders = tt.reminders })
			w := NewEventWorker(nil, m, users, p, nil)

			dep := amqp.GoalDeposit{Goal: goal, Amount: decimal.NewFromInt(120 - tt.before), Before: decimal.NewFromInt(tt.before)}
			if err := w.HandleEvent(ctx, mustEvent(t, amqp.GoalDeposited, tt.owner, goal.ID, dep)); err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}
			if len(m.reached) != tt.wantMails {
				t.Fatalf("mails = %v, want %d", m.reached, tt.wantMails)
			}
			if tt.wantMails == 1 && m.reached[0] != "ana@example.com:Trip" {
				t.Errorf("mail = %q", m.reached[0])
			}
		})
	}
}

func TestEventWorker_IgnoresUnknownAndHabitEvents(t *testing.T) {
	w := NewEventWorker(nil, nil, memory.New(), prefs(t, func(*settings.Settings) {}), nil)
	ctx := context.Background()

	habit := core.FinancialHabit{ID: "h1", Owner: "ana", Name: "Track", CurrentStreak: 3, BestStreak: 3}
	if err := w.HandleEvent(ctx, mustEvent(t, amqp.HabitToggled, "ana", "h1", habit)); err != nil {
		t.Fatalf("habit event error = %v", err)
	}
	if err := w.HandleEvent(ctx, amqp.Event{Type: "budget.renewed", Owner: "ana"}); err != nil {
		t.Fatalf("unknown event error = %v", err)
	}
	// Without an exporter transaction events are acknowledged untouched.
	if err := w.HandleEvent(ctx, mustEvent(t, amqp.TransactionCreated, "ana", "tx", core.Transaction{ID: "tx"})); err != nil {
		t.Fatalf("transaction event error = %v", err)
	}
}

func TestWeeklyReporter_SendAll(t *testing.T) {
	ctx := context.Background()
	today := core.NewDate(2026, 3, 16)
	st := memory.New()

	ana, _ := st.CreateUser(ctx, core.User{Email: "ana@example.com"})
	bruno, _ := st.CreateUser(ctx, core.User{Email: "bruno@example.com"})
	st.CreateProfile(ctx, core.UserProfile{ID: ana.ID, FirstName: "Ana"})

	add := func(owner string, amount string, c core.Category, d core.Date) {
		t.Helper()
		if _, err := st.CreateTransaction(ctx, core.Transaction{Owner: owner, Description: "x", Amount: decimal.RequireFromString(amount), Category: c, Date: d}); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}
	add(ana.ID, "-30", core.Food, core.NewDate(2026, 3, 9))
	add(ana.ID, "-10", core.Transport, core.NewDate(2026, 3, 15))
	add(ana.ID, "500", core.Income, core.NewDate(2026, 3, 12))
	add(ana.ID, "-999", core.Housing, core.NewDate(2026, 3, 8))  // before the window
	add(ana.ID, "-999", core.Housing, core.NewDate(2026, 3, 16)) // today, after the window
	st.CreateHabit(ctx, core.FinancialHabit{Owner: ana.ID, Name: "Track", CurrentStreak: 2, BestStreak: 6})

	m := &fakeMailer{failFor: bruno.Email}
	r := NewWeeklyReporter(st, m, prefs(t, func(*settings.Settings) {}), nil).WithToday(func() core.Date { return today })

	sent, err := r.SendAll(ctx)
	if err != nil {
		t.Fatalf("SendAll() error = %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1 (bruno's mail fails)", sent)
	}

	rep := m.weekly["ana@example.com"]
	if rep.Name != "Ana" || rep.BestStreak != 6 {
		t.Errorf("report = %+v", rep)
	}
	if !rep.Totals.Expenses.Equal(decimal.NewFromInt(40)) || !rep.Totals.Income.Equal(decimal.NewFromInt(500)) {
		t.Errorf("totals = %+v", rep.Totals)
	}
	if len(rep.ByCategory) != 2 || rep.ByCategory[0].Name != core.Transport {
		t.Errorf("by category = %+v", rep.ByCategory)
	}
}

func TestWeeklyReporter_Disabled(t *testing.T) {
	st := memory.New()
	st.CreateUser(context.Background(), core.User{Email: "ana@example.com"})
	m := &fakeMailer{}
	p := prefs(t, func(s *settings.Settings) { s.Notifications.WeeklyReport = false })

	sent, err := NewWeeklyReporter(st, m, p, nil).SendAll(context.Background())
	if err != nil || sent != 0 || len(m.weekly) != 0 {
		t.Fatalf("SendAll() = %d, %v; mails %v", sent, err, m.weekly)
	}
}

func TestLastWeek(t *testing.T) {
	r := LastWeek(core.NewDate(2026, 3, 2))
	if r.Start.String() != "2026-02-23" || r.End.String() != "2026-03-01" || r.Days() != 7 {
		t.Fatalf("LastWeek() = %s..%s", r.Start, r.End)
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	s, err := NewScheduler("0 8 * * 1", func(context.Context) {}, nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if s.IsRunning() {
		t.Fatal("scheduler should not be running initially")
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Fatal("second Start() should fail")
	}
	if !s.IsRunning() {
		t.Fatal("scheduler should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Fatal("scheduler should be stopped")
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() on stopped scheduler error = %v", err)
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewScheduler("every monday", func(context.Context) {}, nil); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
