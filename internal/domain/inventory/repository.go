package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// FindByID finds an item by ID, including soft-deleted items
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindByIDs finds live items by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Item, error)

	// FindActive finds all items that are not soft-deleted
	FindActive(ctx context.Context) ([]*Item, error)

	// LockByIDs finds live items by their IDs, ordered by ID, and holds their rows
	// until the surrounding transaction ends
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*Item, error)

	// FindPurgeable finds soft-deleted items whose retention window has passed
	FindPurgeable(ctx context.Context, now time.Time, retention time.Duration) ([]*Item, error)

	// Save creates or updates an item. CurrentStock is only written on create.
	Save(ctx context.Context, item *Item) error

	// SetCurrentStock overwrites the cached quantity with a value derived from the ledger
	SetCurrentStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error

	// Purge permanently removes soft-deleted items
	Purge(ctx context.Context, ids []uuid.UUID) (int64, error)
}
