package inventory

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultRetention is how long a soft-deleted item stays recoverable
const DefaultRetention = 30 * 24 * time.Hour

// DefaultLowStockAlert applies to items without their own threshold
var DefaultLowStockAlert = decimal.NewFromInt(10)

// StockStatus classifies an item's cached quantity against its alert threshold
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// String returns the string representation of StockStatus
func (s StockStatus) String() string {
	return string(s)
}

// Item is a stocked product.
// CurrentStock is a cache of the ledger quantity and is only ever moved by
// atomic deltas at the storage boundary or by a full recompute.
type Item struct {
	shared.BaseEntity
	Name          string
	Unit          string
	CategoryID    uuid.UUID
	OpeningStock  decimal.Decimal
	CurrentStock  decimal.Decimal
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	LowStockAlert *decimal.Decimal // nil means use the default threshold
	IsDeleted     bool
	DeletedAt     *time.Time
}

// NewItem creates a new item whose cached stock starts at its opening stock
func NewItem(name, unit string, openingStock, purchasePrice, salePrice decimal.Decimal) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot exceed 200 characters")
	}
	if openingStock.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Opening stock cannot be negative")
	}
	if purchasePrice.IsNegative() || salePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	return &Item{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		Unit:          unit,
		OpeningStock:  openingStock,
		CurrentStock:  openingStock,
		PurchasePrice: purchasePrice,
		SalePrice:     salePrice,
	}, nil
}

// SetLowStockAlert sets the item's own threshold. A nil value restores the default.
func (i *Item) SetLowStockAlert(threshold *decimal.Decimal) error {
	if threshold != nil && threshold.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock alert cannot be negative")
	}
	i.LowStockAlert = threshold
	i.Touch()
	return nil
}

// AlertThreshold returns the threshold in effect for this item
func (i *Item) AlertThreshold(defaultAlert decimal.Decimal) decimal.Decimal {
	if i.LowStockAlert != nil {
		return *i.LowStockAlert
	}
	return defaultAlert
}

// StockStatus classifies the cached quantity
func (i *Item) StockStatus(defaultAlert decimal.Decimal) StockStatus {
	if i.CurrentStock.LessThanOrEqual(decimal.Zero) {
		return StockStatusOutOfStock
	}
	if i.CurrentStock.LessThanOrEqual(i.AlertThreshold(defaultAlert)) {
		return StockStatusLowStock
	}
	return StockStatusInStock
}

// SoftDelete hides the item from active queries
func (i *Item) SoftDelete(at time.Time) error {
	if i.IsDeleted {
		return shared.NewDomainError("INVALID_STATE", "Item is already deleted")
	}
	i.IsDeleted = true
	i.DeletedAt = &at
	i.Touch()
	return nil
}

// Restore brings back a soft-deleted item while it is still within retention
func (i *Item) Restore(now time.Time, retention time.Duration) error {
	if !i.IsDeleted {
		return shared.NewDomainError("INVALID_STATE", "Item is not deleted")
	}
	if i.isPastRetention(now, retention) {
		return shared.NewDomainError("RETENTION_EXPIRED", "Item can no longer be restored")
	}
	i.IsDeleted = false
	i.DeletedAt = nil
	i.Touch()
	return nil
}

// IsPurgeable reports whether the item was deleted more than DefaultRetention ago
func (i *Item) IsPurgeable(now time.Time) bool {
	return i.IsPurgeableAfter(now, DefaultRetention)
}

// IsPurgeableAfter is IsPurgeable with an explicit retention window
func (i *Item) IsPurgeableAfter(now time.Time, retention time.Duration) bool {
	return i.IsDeleted && i.isPastRetention(now, retention)
}

func (i *Item) isPastRetention(now time.Time, retention time.Duration) bool {
	if i.DeletedAt == nil {
		return false
	}
	return now.Sub(*i.DeletedAt) > retention
}
