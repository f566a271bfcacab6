// Package sheets mirrors transaction changes into a spreadsheet ledger.
//
// The ledger is append-only: every create, update and delete adds one row, so
// the sheet doubles as a change history that a person can filter by hand.
package sheets

import (
	"context"
	"time"

	"finboard/internal/core"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Header is the first row of a ledger sheet.
var Header = []string{"Recorded At", "Operation", "ID", "Owner", "Date", "Description", "Category", "Amount"}

// Row is one ledger line.
type Row struct {
	RecordedAt  time.Time
	Op          Op
	ID          string
	Owner       string
	Date        core.Date
	Description string
	Category    core.Category
	Amount      string
}

func RowFor(op Op, t core.Transaction, at time.Time) Row {
	return Row{
		RecordedAt:  at.UTC(),
		Op:          op,
		ID:          t.ID,
		Owner:       t.Owner,
		Date:        t.Date,
		Description: t.Description,
		Category:    t.Category,
		Amount:      t.Amount.StringFixed(2),
	}
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	return []any{
		r.RecordedAt.Format(time.RFC3339),
		string(r.Op),
		r.ID,
		r.Owner,
		r.Date.String(),
		r.Description,
		string(r.Category),
		r.Amount,
	}
}

// Ports for outbound adapters.
type (
	TransactionExporter interface {
		Export(ctx context.Context, r Row) (rowRef string, err error)
	}

	LedgerReader interface {
		Rows(ctx context.Context) ([]Row, error)
	}
)
