package trade

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice queries. Zero values mean no restriction.
type InvoiceFilter struct {
	Kinds          []InvoiceKind
	PartyID        *uuid.UUID
	ItemIDs        []uuid.UUID // invoices with at least one line for these items
	Before         *time.Time  // invoice date strictly before
	IncludeDeleted bool
}

// InvoiceRepository defines the interface for invoice persistence.
// Invoices are always returned with their lines.
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindAll finds invoices matching the filter, ordered by date
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error)

	// Save writes the header, replaces the lines, moves cached stock by the
	// difference between the old and new lines and records the optional payment,
	// all in one transaction
	Save(ctx context.Context, invoice *Invoice, payment *finance.Payment) error

	// Delete soft-deletes the invoice and reverses its stock effect in one transaction
	Delete(ctx context.Context, invoice *Invoice) error
}
