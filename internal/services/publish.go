package services

import (
	"context"

	"finboard/internal/amqp"
	applog "finboard/internal/log"
)

// eventPublisher sends domain events fire-and-forget: a failed publish is
// logged and never fails the mutation that caused it.
type eventPublisher struct {
	pub    amqp.Publisher
	logger *applog.Logger
}

func (p eventPublisher) publish(ctx context.Context, t amqp.EventType, owner, entityID string, payload any) {
	if p.pub == nil {
		return
	}
	ev, err := amqp.NewEvent(t, owner, entityID, payload)
	if err == nil {
		err = p.pub.Publish(ctx, ev)
	}
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to publish event",
			applog.FieldEventType, t,
			applog.FieldEntityID, entityID,
			applog.FieldError, err)
	}
}

func componentLogger(logger *applog.Logger, component string) *applog.Logger {
	if logger == nil {
		logger = applog.Discard()
	}
	return logger.WithComponent(component)
}
