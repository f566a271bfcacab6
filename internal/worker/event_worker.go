// Package worker reacts to domain events and runs the scheduled jobs. It
// never writes to the entity tables.
package worker

import (
	"context"
	"errors"
	"fmt"

	"finboard/internal/amqp"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/mail"
	"finboard/internal/settings"
	"finboard/internal/sheets"
	"finboard/internal/store"
)

// SettingsSource returns the current process-wide preferences.
type SettingsSource interface {
	Get() settings.Settings
}

// EventWorker handles one AMQP event at a time. A returned error makes the
// consumer requeue the delivery once.
type EventWorker struct {
	exporter sheets.TransactionExporter
	mailer   mail.Mailer
	users    store.UserStore
	settings SettingsSource
	logger   *applog.Logger
}

// NewEventWorker wires the sinks. exporter and mailer may be nil when the
// matching integration is not configured.
func NewEventWorker(exporter sheets.TransactionExporter, mailer mail.Mailer, users store.UserStore, prefs SettingsSource, logger *applog.Logger) *EventWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &EventWorker{
		exporter: exporter,
		mailer:   mailer,
		users:    users,
		settings: prefs,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

var transactionOps = map[amqp.EventType]sheets.Op{
	amqp.TransactionCreated: sheets.OpCreated,
	amqp.TransactionUpdated: sheets.OpUpdated,
	amqp.TransactionDeleted: sheets.OpDeleted,
}

func (w *EventWorker) HandleEvent(ctx context.Context, ev amqp.Event) error {
	w.logger.DebugContext(ctx, "Processing event",
		applog.FieldEventType, ev.Type,
		applog.FieldEntityID, ev.EntityID,
		"version", ev.Version)

	if op, ok := transactionOps[ev.Type]; ok {
		return w.exportTransaction(ctx, op, ev)
	}
	switch ev.Type {
	case amqp.GoalDeposited:
		return w.notifyGoalReached(ctx, ev)
	case amqp.HabitToggled:
		var h core.FinancialHabit
		if err := ev.Decode(&h); err != nil {
			return fmt.Errorf("decode habit: %w", err)
		}
		w.logger.InfoContext(ctx, "Habit streak updated",
			applog.FieldEntityID, h.ID,
			applog.FieldStreak, h.CurrentStreak)
		return nil
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event type", applog.FieldEventType, ev.Type)
		return nil
	}
}

func (w *EventWorker) exportTransaction(ctx context.Context, op sheets.Op, ev amqp.Event) error {
	if w.exporter == nil {
		return nil
	}
	var tx core.Transaction
	if err := ev.Decode(&tx); err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}

	ref, err := w.exporter.Export(ctx, sheets.RowFor(op, tx, ev.Timestamp))
	if err != nil {
		return fmt.Errorf("export transaction %s: %w", tx.ID, err)
	}
	w.logger.InfoContext(ctx, "Transaction exported",
		applog.FieldEntityID, tx.ID,
		applog.FieldOperation, op,
		"sheets_ref", ref)
	return nil
}

func (w *EventWorker) notifyGoalReached(ctx context.Context, ev amqp.Event) error {
	var dep amqp.GoalDeposit
	if err := ev.Decode(&dep); err != nil {
		return fmt.Errorf("decode goal deposit: %w", err)
	}
	if !dep.Reached() || w.mailer == nil {
		return nil
	}
	prefs := w.settings.Get()
	if !prefs.Notifications.GoalReminders {
		return nil
	}

	user, err := w.users.GetUser(ctx, ev.Owner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.logger.WarnContext(ctx, "Goal owner no longer exists", applog.FieldOwner, ev.Owner)
			return nil
		}
		return fmt.Errorf("load goal owner: %w", err)
	}
	if err := w.mailer.SendGoalReached(ctx, user.Email, dep.Goal, prefs.Currency); err != nil {
		return fmt.Errorf("send goal reached mail: %w", err)
	}
	w.logger.InfoContext(ctx, "Goal reached notice sent",
		applog.FieldEntityID, dep.Goal.ID,
		applog.FieldOwner, ev.Owner)
	return nil
}
