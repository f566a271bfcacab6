package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

// NewGoal holds the fields of a goal being created.
type NewGoal struct {
	Title        string
	TargetAmount decimal.Decimal
	TargetDate   core.Date
}

// GoalView is a goal together with its computed progress.
type GoalView struct {
	core.FinancialGoal
	Progress core.GoalProgress `json:"progress"`
}

// GoalService manages savings goals and deposits.
type GoalService struct {
	store  store.GoalStore
	events eventPublisher
	logger *applog.Logger
	now    func() time.Time
}

func NewGoalService(st store.GoalStore, pub amqp.Publisher, logger *applog.Logger) *GoalService {
	l := componentLogger(logger, applog.ComponentGoal)
	return &GoalService{
		store:  st,
		events: eventPublisher{pub: pub, logger: l},
		logger: l,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for validation and progress.
func (s *GoalService) WithClock(now func() time.Time) *GoalService {
	s.now = now
	return s
}

// View attaches progress to g. Stored goals always have a positive target, so
// a progress error only means corrupt data and yields a zero progress.
func (s *GoalService) View(g core.FinancialGoal) GoalView {
	p, err := g.Progress(s.now())
	if err != nil {
		s.logger.Warn("Goal with invalid target", applog.FieldEntityID, g.ID, applog.FieldError, err)
	}
	return GoalView{FinancialGoal: g, Progress: p}
}

func (s *GoalService) List(ctx context.Context, owner string) ([]GoalView, error) {
	goals, err := s.store.ListGoals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, s.View(g))
	}
	return out, nil
}

func (s *GoalService) Get(ctx context.Context, owner, id string) (GoalView, error) {
	g, err := s.store.GetGoal(ctx, owner, id)
	if err != nil {
		return GoalView{}, err
	}
	return s.View(g), nil
}

func (s *GoalService) Create(ctx context.Context, owner string, in NewGoal) (GoalView, error) {
	title := strings.TrimSpace(in.Title)
	if err := core.ValidateGoal(title, in.TargetAmount, in.TargetDate, s.now()); err != nil {
		return GoalView{}, err
	}
	created, err := s.store.CreateGoal(ctx, core.FinancialGoal{
		Owner:         owner,
		Title:         title,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		TargetDate:    in.TargetDate,
	})
	if err != nil {
		return GoalView{}, fmt.Errorf("create goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created", applog.FieldEntityID, created.ID)
	return s.View(created), nil
}

// Update edits title, target or date. The edited goal is validated as a
// whole, so an untouched past target date also rejects the edit.
func (s *GoalService) Update(ctx context.Context, owner, id string, p store.GoalPatch) (GoalView, error) {
	current, err := s.store.GetGoal(ctx, owner, id)
	if err != nil {
		return GoalView{}, err
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	next := p.Apply(current)
	if err := core.ValidateGoal(next.Title, next.TargetAmount, next.TargetDate, s.now()); err != nil {
		return GoalView{}, err
	}
	updated, err := s.store.UpdateGoal(ctx, owner, id, p)
	if err != nil {
		return GoalView{}, fmt.Errorf("update goal: %w", err)
	}
	return s.View(updated), nil
}

// Deposit adds a positive amount to the goal. Amounts past the target are kept.
func (s *GoalService) Deposit(ctx context.Context, owner, id string, amount decimal.Decimal) (GoalView, error) {
	if err := core.ValidateDeposit(amount); err != nil {
		return GoalView{}, err
	}
	updated, err := s.store.DepositGoal(ctx, owner, id, amount)
	if err != nil {
		return GoalView{}, fmt.Errorf("deposit to goal: %w", err)
	}

	dep := amqp.GoalDeposit{Goal: updated, Amount: amount, Before: updated.CurrentAmount.Sub(amount)}
	s.logger.InfoContext(ctx, "Goal deposit",
		applog.FieldEntityID, id,
		applog.FieldAmount, amount.String(),
		"reached", dep.Reached())
	s.events.publish(ctx, amqp.GoalDeposited, owner, id, dep)
	return s.View(updated), nil
}

func (s *GoalService) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteGoal(ctx, owner, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	applog.NewStructuredLogger(s.logger).LogMutation(ctx, applog.ComponentGoal, applog.OpDelete, owner, id)
	return nil
}
