package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/report"
	"finboard/internal/store"
)

const recentLimit = 5

type Tip struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

var tips = []Tip{
	{
		Title:   "The 50/30/20 budget rule",
		Content: "Split your income into 50% for needs, 30% for wants and 20% for savings and investments.",
		Source:  "Behavioral economics",
	},
	{
		Title:   "Save without noticing",
		Content: "Schedule an automatic transfer to your savings account on payday so the habit costs no effort.",
		Source:  "Consumer psychology",
	},
	{
		Title:   "The 24 hour rule",
		Content: "Wait a day before any non-essential purchase above 100 to avoid impulse decisions.",
		Source:  "Behavioral economics",
	},
}

// TipOf returns the tip shown on day. The rotation is stable for a whole day.
func TipOf(day core.Date) Tip {
	n := int(day.Unix() / 86400)
	if n < 0 {
		n = -n
	}
	return tips[n%len(tips)]
}

// Dashboard is the summary shown on the home page.
type Dashboard struct {
	Greeting   string                 `json:"greeting"`
	Overview   report.MonthOverview   `json:"overview"`
	MainGoal   *GoalView              `json:"main_goal"`
	Recent     []core.Transaction     `json:"recent"`
	ByCategory []report.CategoryShare `json:"by_category"`
	Habits     []HabitView            `json:"habits"`
	Tip        Tip                    `json:"tip"`
}

// DashboardService assembles the home page summary.
type DashboardService struct {
	store    store.Store
	goals    *GoalService
	habits   *HabitService
	logger   *applog.Logger
	today    func() core.Date
	greeting func(time.Time) string
}

func NewDashboardService(st store.Store, goals *GoalService, habits *HabitService, logger *applog.Logger) *DashboardService {
	return &DashboardService{
		store:    st,
		goals:    goals,
		habits:   habits,
		logger:   componentLogger(logger, applog.ComponentDashboard),
		today:    core.Today,
		greeting: greetingAt,
	}
}

func (s *DashboardService) WithToday(today func() core.Date) *DashboardService {
	s.today = today
	return s
}

// Get loads the four entity lists concurrently and assembles the summary. A
// missing profile only drops the name from the greeting.
func (s *DashboardService) Get(ctx context.Context, owner string) (Dashboard, error) {
	var (
		txs     []core.Transaction
		goals   []core.FinancialGoal
		habits  []HabitView
		profile core.UserProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, owner, store.TransactionFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.store.ListGoals(gctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		habits, err = s.habits.List(gctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.store.GetProfile(gctx, owner)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}

	today := s.today()
	month := report.DateRange{Start: today.StartOfMonth(), End: today.EndOfMonth()}
	d := Dashboard{
		Greeting:   s.greeting(time.Now()),
		Overview:   report.Overview(txs, today),
		Recent:     report.Recent(txs, recentLimit),
		ByCategory: report.ExpensesByCategory(report.Filter(txs, month)),
		Habits:     habits,
		Tip:        TipOf(today),
	}
	if name := profile.FirstName; name != "" {
		d.Greeting += ", " + name
	}
	if main, ok := report.MainGoal(goals); ok {
		v := s.goals.View(main)
		d.MainGoal = &v
	}
	return d, nil
}

func greetingAt(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
