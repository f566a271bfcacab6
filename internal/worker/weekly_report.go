package worker

import (
	"context"
	"errors"
	"fmt"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/mail"
	"finboard/internal/report"
	"finboard/internal/store"
)

// WeeklyReporter mails every user a summary of the seven days before today.
type WeeklyReporter struct {
	store    store.Store
	mailer   mail.Mailer
	settings SettingsSource
	logger   *applog.Logger
	today    func() core.Date
}

func NewWeeklyReporter(st store.Store, mailer mail.Mailer, prefs SettingsSource, logger *applog.Logger) *WeeklyReporter {
	if logger == nil {
		logger = applog.Discard()
	}
	return &WeeklyReporter{
		store:    st,
		mailer:   mailer,
		settings: prefs,
		logger:   logger.WithComponent(applog.ComponentWorker),
		today:    core.Today,
	}
}

func (r *WeeklyReporter) WithToday(today func() core.Date) *WeeklyReporter {
	r.today = today
	return r
}

// LastWeek is the seven full days before today.
func LastWeek(today core.Date) report.DateRange {
	return report.DateRange{Start: today.AddDays(-7), End: today.AddDays(-1)}
}

// SendAll sends one report per user and returns how many went out. A failure
// for one user is logged and does not stop the others.
func (r *WeeklyReporter) SendAll(ctx context.Context) (int, error) {
	prefs := r.settings.Get()
	if !prefs.Notifications.WeeklyReport || r.mailer == nil {
		r.logger.DebugContext(ctx, "Weekly report disabled")
		return 0, nil
	}

	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	sent, failed := 0, 0
	for _, u := range users {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		rep, err := r.Build(ctx, u.ID)
		if err == nil {
			err = r.mailer.SendWeeklyReport(ctx, u.Email, rep, prefs.Currency)
		}
		if err != nil {
			failed++
			r.logger.ErrorContext(ctx, "Weekly report failed",
				applog.FieldOwner, u.ID,
				applog.FieldError, err)
			continue
		}
		sent++
	}

	r.logger.InfoContext(ctx, "Weekly reports sent",
		"total", len(users),
		"sent", sent,
		"errors", failed)
	return sent, nil
}

// Build assembles the report content for one owner.
func (r *WeeklyReporter) Build(ctx context.Context, owner string) (mail.WeeklyReport, error) {
	rng := LastWeek(r.today())
	txs, err := r.store.ListTransactions(ctx, owner, store.TransactionFilter{From: rng.Start, To: rng.End})
	if err != nil {
		return mail.WeeklyReport{}, fmt.Errorf("list transactions: %w", err)
	}
	goals, err := r.store.ListGoals(ctx, owner)
	if err != nil {
		return mail.WeeklyReport{}, fmt.Errorf("list goals: %w", err)
	}
	habits, err := r.store.ListHabits(ctx, owner)
	if err != nil {
		return mail.WeeklyReport{}, fmt.Errorf("list habits: %w", err)
	}

	rep := mail.WeeklyReport{
		Range:      rng,
		Totals:     report.Sum(txs),
		ByCategory: report.ExpensesByCategory(txs),
		Goals:      goals,
	}
	for _, h := range habits {
		if h.BestStreak > rep.BestStreak {
			rep.BestStreak = h.BestStreak
		}
	}

	profile, err := r.store.GetProfile(ctx, owner)
	switch {
	case err == nil:
		rep.Name = profile.FirstName
	case !errors.Is(err, store.ErrNotFound):
		return mail.WeeklyReport{}, fmt.Errorf("get profile: %w", err)
	}
	return rep, nil
}
