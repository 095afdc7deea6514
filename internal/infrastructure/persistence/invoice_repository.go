package persistence

import (
	"bytes"
	"context"
	"errors"
	"slices"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements trade.InvoiceRepository using GORM.
// Every write runs in one transaction together with the stock movement it causes.
type GormInvoiceRepository struct {
	db *gorm.DB
}

var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func withOrderedLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

// FindByID finds an invoice with its lines, including soft-deleted invoices
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	model, err := findInvoice(withOrderedLines(r.db.WithContext(ctx)), id)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, shared.WrapDomainError(shared.ErrNotFound, "Invoice %s not found", id)
	}
	return model.ToDomain(), nil
}

// FindAll finds invoices matching the filter, ordered by date
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter trade.InvoiceFilter) ([]*trade.Invoice, error) {
	query := withOrderedLines(r.db.WithContext(ctx))
	if !filter.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if len(filter.Kinds) > 0 {
		kinds := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			kinds[i] = k.String()
		}
		query = query.Where("kind IN ?", kinds)
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Before != nil {
		query = query.Where("date < ?", *filter.Before)
	}
	if len(filter.ItemIDs) > 0 {
		query = query.Where("id IN (?)",
			r.db.Model(&models.InvoiceLineModel{}).Select("invoice_id").Where("item_id IN ?", filter.ItemIDs))
	}

	var rows []models.InvoiceModel
	if err := query.Order("date").Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]*trade.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}

// Save writes the header, replaces the lines, moves cached stock by the difference
// between the stored and new lines and records the optional payment.
// Any failure rolls back the whole unit.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *trade.Invoice, payment *finance.Payment) error {
	model := models.InvoiceModelFromDomain(invoice)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := findInvoice(withOrderedLines(tx), invoice.ID)
		if err != nil {
			return err
		}

		var previous []trade.StockDelta
		if stored != nil && !stored.IsDeleted {
			previous = stored.ToDomain().StockDeltas()
		}

		if stored == nil {
			err = tx.Omit("Lines").Create(model).Error
		} else {
			err = tx.Omit("Lines", "created_at").Select("*").Updates(model).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Where("invoice_id = ?", model.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) > 0 {
			if err := tx.Create(&model.Lines).Error; err != nil {
				return err
			}
		}

		if err := applyStockDeltas(tx, netDeltas(previous, invoice.StockDeltas())); err != nil {
			return err
		}

		if payment != nil {
			if err := tx.Create(models.PaymentModelFromDomain(payment)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete soft-deletes the invoice, voids its payments and reverses its stock effect.
// The reversal uses the stored lines, not the caller's copy.
func (r *GormInvoiceRepository) Delete(ctx context.Context, invoice *trade.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := findInvoice(withOrderedLines(tx), invoice.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return shared.WrapDomainError(shared.ErrNotFound, "Invoice %s not found", invoice.ID)
		}
		if stored.IsDeleted {
			return shared.NewDomainError("INVALID_STATE", "Invoice is already deleted")
		}

		deletedAt := invoice.UpdatedAt
		if invoice.DeletedAt != nil {
			deletedAt = *invoice.DeletedAt
		}
		if err := tx.Model(&models.InvoiceModel{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"is_deleted": true,
				"deleted_at": deletedAt,
				"updated_at": invoice.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.PaymentModel{}).
			Where("invoice_id = ? AND is_deleted = ?", invoice.ID, false).
			UpdateColumn("is_deleted", true).Error; err != nil {
			return err
		}

		return applyStockDeltas(tx, netDeltas(stored.ToDomain().StockDeltas(), nil))
	})
}

// findInvoice returns nil without error when the invoice does not exist
func findInvoice(query *gorm.DB, id uuid.UUID) (*models.InvoiceModel, error) {
	var model models.InvoiceModel
	err := query.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// netDeltas returns next minus previous per item, dropping zero entries, ordered by item ID
func netDeltas(previous, next []trade.StockDelta) []trade.StockDelta {
	byItem := make(map[uuid.UUID]decimal.Decimal, len(previous)+len(next))
	for _, d := range previous {
		byItem[d.ItemID] = byItem[d.ItemID].Sub(d.Quantity)
	}
	for _, d := range next {
		byItem[d.ItemID] = byItem[d.ItemID].Add(d.Quantity)
	}

	out := make([]trade.StockDelta, 0, len(byItem))
	for id, qty := range byItem {
		if !qty.IsZero() {
			out = append(out, trade.StockDelta{ItemID: id, Quantity: qty})
		}
	}
	slices.SortFunc(out, func(a, b trade.StockDelta) int {
		return bytes.Compare(a.ItemID[:], b.ItemID[:])
	})
	return out
}

// applyStockDeltas moves the cached stock with one atomic statement per item.
// Items are updated in ID order so concurrent writers lock rows in the same sequence.
func applyStockDeltas(tx *gorm.DB, deltas []trade.StockDelta) error {
	for _, d := range deltas {
		result := tx.Model(&models.ItemModel{}).
			Where("id = ?", d.ItemID).
			UpdateColumn("current_stock", gorm.Expr("current_stock + ?", d.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.WrapDomainError(shared.ErrNotFound, "Item %s not found", d.ItemID)
		}
	}
	return nil
}
