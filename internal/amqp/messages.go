package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
	GoalDeposited      EventType = "goal.deposited"
	HabitToggled       EventType = "habit.toggled"
)

// Event is a domain event. Payload carries a full snapshot of the entity so
// consumers never need to read the database.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Owner     string          `json:"owner"`
	EntityID  string          `json:"entity_id"`
	Version   int64           `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// GoalDeposit is the payload of GoalDeposited.
type GoalDeposit struct {
	Goal   core.FinancialGoal `json:"goal"`
	Amount decimal.Decimal    `json:"amount"`
	Before decimal.Decimal    `json:"before"`
}

// Reached reports whether this deposit took the goal over its target.
func (d GoalDeposit) Reached() bool {
	return d.Before.LessThan(d.Goal.TargetAmount) && !d.Goal.CurrentAmount.LessThan(d.Goal.TargetAmount)
}

func NewEvent(t EventType, owner, entityID string, payload any) (Event, error) {
	now := time.Now().UTC()
	ev := Event{
		ID:        uuid.NewString(),
		Type:      t,
		Owner:     owner,
		EntityID:  entityID,
		Version:   now.UnixNano(),
		Timestamp: now,
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		ev.Payload = body
	}
	return ev, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	if ev.Type == "" || ev.Owner == "" {
		return Event{}, errors.New("event without type or owner")
	}
	return ev, nil
}
