package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CorrectionObserver is told how many cached quantities were rewritten
type CorrectionObserver interface {
	AddStockCorrections(n int)
}

type nopObserver struct{}

func (nopObserver) AddStockCorrections(int) {}

// StockCorrection records one item whose cached quantity disagreed with its history
type StockCorrection struct {
	ItemID   uuid.UUID       `json:"item_id"`
	ItemName string          `json:"item_name"`
	Cached   decimal.Decimal `json:"cached"`
	Derived  decimal.Decimal `json:"derived"`
}

// PurgeResult summarizes a purge run
type PurgeResult struct {
	Purged int64       `json:"purged"`
	IDs    []uuid.UUID `json:"ids"`
}

// StockService maintains item lifecycle and the cached stock counter
type StockService struct {
	items     inventory.ItemRepository
	scope     TransactionScope
	retention time.Duration
	logger    *zap.Logger
	observer  CorrectionObserver
	now       func() time.Time
}

// NewStockService creates a new StockService. A non-positive retention falls back to
// inventory.DefaultRetention.
func NewStockService(
	items inventory.ItemRepository,
	scope TransactionScope,
	retention time.Duration,
	logger *zap.Logger,
	observer CorrectionObserver,
) *StockService {
	if retention <= 0 {
		retention = inventory.DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &StockService{
		items:     items,
		scope:     scope,
		retention: retention,
		logger:    logger,
		observer:  observer,
		now:       time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *StockService) WithClock(now func() time.Time) *StockService {
	s.now = now
	return s
}

// RecomputeCurrentStock derives every live item's quantity from its full history and
// overwrites the cached value wherever the two differ.
//
// The item rows are locked before history is read and stay locked until the new
// values are written, so an invoice save either lands before the read or waits and
// applies its delta on top of the corrected value.
func (s *StockService) RecomputeCurrentStock(ctx context.Context) ([]StockCorrection, error) {
	var (
		corrections []StockCorrection
		checked     int
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		corrections = make([]StockCorrection, 0)

		active, err := repos.Items().FindActive(ctx)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		ids := make([]uuid.UUID, len(active))
		for i, item := range active {
			ids[i] = item.ID
		}
		items, err := repos.Items().LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock items: %w", err)
		}
		checked = len(items)

		invoices, err := repos.Invoices().FindAll(ctx, trade.InvoiceFilter{})
		if err != nil {
			return fmt.Errorf("load invoices: %w", err)
		}
		lines := inventory.StockLinesFromInvoices(invoices)

		for _, item := range items {
			derived := inventory.CurrentQuantity(item, lines)
			if derived.Equal(item.CurrentStock) {
				continue
			}
			if err := repos.Items().SetCurrentStock(ctx, item.ID, derived); err != nil {
				return fmt.Errorf("set stock of %s: %w", item.ID, err)
			}
			corrections = append(corrections, StockCorrection{
				ItemID:   item.ID,
				ItemName: item.Name,
				Cached:   item.CurrentStock,
				Derived:  derived,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range corrections {
		s.logger.Warn("stock cache corrected",
			zap.String("item_id", c.ItemID.String()),
			zap.String("item", c.ItemName),
			zap.String("cached", c.Cached.String()),
			zap.String("derived", c.Derived.String()),
		)
	}
	s.observer.AddStockCorrections(len(corrections))
	s.logger.Info("stock recompute finished",
		zap.Int("items", checked),
		zap.Int("corrections", len(corrections)),
	)
	return corrections, nil
}

// DeleteItem soft-deletes an item. It stays restorable until the retention window passes.
func (s *StockService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load item %s: %w", id, err)
	}
	if err := item.SoftDelete(s.now()); err != nil {
		return err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	s.logger.Info("item deleted", zap.String("item_id", id.String()))
	return nil
}

// RestoreItem undoes DeleteItem while the item is still within retention
func (s *StockService) RestoreItem(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load item %s: %w", id, err)
	}
	if err := item.Restore(s.now(), s.retention); err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	s.logger.Info("item restored", zap.String("item_id", id.String()))
	return item, nil
}

// PurgeDeletedItems permanently removes items deleted longer ago than the retention window
func (s *StockService) PurgeDeletedItems(ctx context.Context) (*PurgeResult, error) {
	now := s.now()
	candidates, err := s.items.FindPurgeable(ctx, now, s.retention)
	if err != nil {
		return nil, fmt.Errorf("find purgeable items: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, item := range candidates {
		if item.IsPurgeableAfter(now, s.retention) {
			ids = append(ids, item.ID)
		}
	}
	if len(ids) == 0 {
		return &PurgeResult{IDs: ids}, nil
	}

	purged, err := s.items.Purge(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("purge items: %w", err)
	}
	s.logger.Info("deleted items purged",
		zap.Int64("purged", purged),
		zap.Duration("retention", s.retention),
	)
	return &PurgeResult{Purged: purged, IDs: ids}, nil
}
