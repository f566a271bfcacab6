package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

// NewTransaction is the user input for a transaction. Amount is taken as a
// magnitude; the stored sign follows the category.
type NewTransaction struct {
	Description string
	Amount      decimal.Decimal
	Category    core.Category
	Date        core.Date
}

// Invalidator drops cached data derived from an owner's transactions.
type Invalidator interface {
	Invalidate(owner string)
}

// TransactionService is the owner-scoped CRUD facade over transactions.
type TransactionService struct {
	store  store.TransactionStore
	events eventPublisher
	cache  Invalidator
	logger *applog.Logger
}

func NewTransactionService(st store.TransactionStore, pub amqp.Publisher, cache Invalidator, logger *applog.Logger) *TransactionService {
	l := componentLogger(logger, applog.ComponentTransaction)
	return &TransactionService{
		store:  st,
		events: eventPublisher{pub: pub, logger: l},
		cache:  cache,
		logger: l,
	}
}

func (s *TransactionService) List(ctx context.Context, owner string, f store.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, owner, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, owner, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, owner, id)
}

func (s *TransactionService) Create(ctx context.Context, owner string, in NewTransaction) (core.Transaction, error) {
	t := core.Transaction{
		Owner:       owner,
		Description: strings.TrimSpace(in.Description),
		Amount:      core.SignedAmount(in.Category, in.Amount),
		Category:    in.Category,
		Date:        in.Date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.changed(ctx, amqp.TransactionCreated, created)
	return created, nil
}

// Update applies p to the stored transaction. Changing either the amount or
// the category re-derives the stored sign.
func (s *TransactionService) Update(ctx context.Context, owner, id string, p store.TransactionPatch) (core.Transaction, error) {
	current, err := s.store.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	next := p.Apply(current)
	next.Amount = core.SignedAmount(next.Category, next.Amount)
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if p.Amount != nil || p.Category != nil {
		p.Amount = &next.Amount
	}

	updated, err := s.store.UpdateTransaction(ctx, owner, id, p)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.changed(ctx, amqp.TransactionUpdated, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, owner, id string) error {
	current, err := s.store.GetTransaction(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, amqp.TransactionDeleted, current)
	return nil
}

func (s *TransactionService) changed(ctx context.Context, t amqp.EventType, tx core.Transaction) {
	if s.cache != nil {
		s.cache.Invalidate(tx.Owner)
	}
	s.logger.InfoContext(ctx, "Transaction changed",
		applog.FieldEventType, t,
		applog.FieldEntityID, tx.ID,
		applog.FieldCategory, tx.Category,
		applog.FieldAmount, tx.Amount.String())
	s.events.publish(ctx, t, tx.Owner, tx.ID, tx)
}
