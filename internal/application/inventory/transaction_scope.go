package inventory

import (
	"context"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/trade"
)

// TransactionScope runs a unit of work in one database transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to the running transaction.
// Item locks taken through Items() are held until the transaction ends, so anything
// that reads history and then moves cached stock must do both through these.
type TransactionalRepositories interface {
	Items() inventory.ItemRepository
	Invoices() trade.InvoiceRepository
}

// NoOpTransactionScope runs fn directly against plain repositories. For tests.
type NoOpTransactionScope struct {
	items    inventory.ItemRepository
	invoices trade.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(items inventory.ItemRepository, invoices trade.InvoiceRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{items: items, invoices: invoices}
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Items() inventory.ItemRepository {
	return s.items
}

func (s *NoOpTransactionScope) Invoices() trade.InvoiceRepository {
	return s.invoices
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
