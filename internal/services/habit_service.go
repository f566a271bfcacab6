package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finboard/internal/amqp"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

// NewHabit holds the fields of a habit being created.
type NewHabit struct {
	Name   string
	Target string
}

// HabitView is a habit plus whether it was completed on the current day.
type HabitView struct {
	core.FinancialHabit
	CompletedToday bool `json:"completed_today"`
}

// HabitService manages habits and their completion streaks.
type HabitService struct {
	store  store.HabitStore
	events eventPublisher
	logger *applog.Logger
	today  func() core.Date
}

func NewHabitService(st store.HabitStore, pub amqp.Publisher, logger *applog.Logger) *HabitService {
	l := componentLogger(logger, applog.ComponentHabit)
	return &HabitService{
		store:  st,
		events: eventPublisher{pub: pub, logger: l},
		logger: l,
		today:  core.Today,
	}
}

// WithToday replaces the source of the current calendar day.
func (s *HabitService) WithToday(today func() core.Date) *HabitService {
	s.today = today
	return s
}

func (s *HabitService) view(h core.FinancialHabit) HabitView {
	return HabitView{FinancialHabit: h, CompletedToday: h.IsCompletedToday(s.today())}
}

func (s *HabitService) List(ctx context.Context, owner string) ([]HabitView, error) {
	habits, err := s.store.ListHabits(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	out := make([]HabitView, 0, len(habits))
	for _, h := range habits {
		out = append(out, s.view(h))
	}
	return out, nil
}

func (s *HabitService) Create(ctx context.Context, owner string, in NewHabit) (HabitView, error) {
	h := core.FinancialHabit{
		Owner:  owner,
		Name:   strings.TrimSpace(in.Name),
		Target: strings.TrimSpace(in.Target),
	}
	if err := h.Validate(); err != nil {
		return HabitView{}, err
	}
	created, err := s.store.CreateHabit(ctx, h)
	if err != nil {
		return HabitView{}, fmt.Errorf("create habit: %w", err)
	}
	return s.view(created), nil
}

func (s *HabitService) Update(ctx context.Context, owner, id string, p store.HabitPatch) (HabitView, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return HabitView{}, &core.ValidationError{Field: "name", Err: core.ErrEmptyName}
		}
		p.Name = &name
	}
	if p.Target != nil {
		target := strings.TrimSpace(*p.Target)
		p.Target = &target
	}
	updated, err := s.store.UpdateHabit(ctx, owner, id, p)
	if err != nil {
		return HabitView{}, fmt.Errorf("update habit: %w", err)
	}
	return s.view(updated), nil
}

// Toggle marks the habit done or undone for today. The new streak is computed
// from a snapshot and written only if nobody changed the streak in between;
// a lost race surfaces as store.ErrConflict.
func (s *HabitService) Toggle(ctx context.Context, owner, id string, markCompleted bool) (HabitView, error) {
	h, err := s.store.GetHabit(ctx, owner, id)
	if err != nil {
		return HabitView{}, err
	}
	prev := h.State()
	next, err := core.Toggle(prev, markCompleted, s.today())
	if err != nil {
		return HabitView{}, err
	}

	updated, err := s.store.UpdateHabitStreak(ctx, owner, id, prev, next)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.logger.WarnContext(ctx, "Habit streak changed concurrently", applog.FieldEntityID, id)
		}
		return HabitView{}, fmt.Errorf("toggle habit: %w", err)
	}

	s.logger.InfoContext(ctx, "Habit toggled",
		applog.FieldEntityID, id,
		applog.FieldStreak, updated.CurrentStreak,
		"completed", markCompleted)
	s.events.publish(ctx, amqp.HabitToggled, owner, id, updated)
	return s.view(updated), nil
}

func (s *HabitService) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteHabit(ctx, owner, id); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	applog.NewStructuredLogger(s.logger).LogMutation(ctx, applog.ComponentHabit, applog.OpDelete, owner, id)
	return nil
}
