package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemModel is the persistence model for the Item entity
type ItemModel struct {
	BaseModel
	Name          string           `gorm:"type:varchar(200);not null;index"`
	Unit          string           `gorm:"type:varchar(20)"`
	CategoryID    *uuid.UUID       `gorm:"type:uuid;index"`
	OpeningStock  decimal.Decimal  `gorm:"type:numeric;not null;default:0"`
	CurrentStock  decimal.Decimal  `gorm:"type:numeric;not null;default:0"`
	PurchasePrice decimal.Decimal  `gorm:"type:numeric;not null;default:0"`
	SalePrice     decimal.Decimal  `gorm:"type:numeric;not null;default:0"`
	LowStockAlert *decimal.Decimal `gorm:"type:numeric"`
	IsDeleted     bool             `gorm:"not null;default:false;index"`
	DeletedAt     *time.Time
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item
func (m *ItemModel) ToDomain() *inventory.Item {
	item := &inventory.Item{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Unit:          m.Unit,
		OpeningStock:  m.OpeningStock,
		CurrentStock:  m.CurrentStock,
		PurchasePrice: m.PurchasePrice,
		SalePrice:     m.SalePrice,
		IsDeleted:     m.IsDeleted,
		DeletedAt:     m.DeletedAt,
	}
	if m.CategoryID != nil {
		item.CategoryID = *m.CategoryID
	}
	if m.LowStockAlert != nil {
		alert := *m.LowStockAlert
		item.LowStockAlert = &alert
	}
	return item
}

// FromDomain populates the persistence model from a domain Item
func (m *ItemModel) FromDomain(i *inventory.Item) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.Name = i.Name
	m.Unit = i.Unit
	m.CategoryID = nil
	if i.CategoryID != uuid.Nil {
		id := i.CategoryID
		m.CategoryID = &id
	}
	m.OpeningStock = i.OpeningStock
	m.CurrentStock = i.CurrentStock
	m.PurchasePrice = i.PurchasePrice
	m.SalePrice = i.SalePrice
	m.LowStockAlert = i.LowStockAlert
	m.IsDeleted = i.IsDeleted
	m.DeletedAt = i.DeletedAt
}

// ItemModelFromDomain creates a new persistence model from a domain Item
func ItemModelFromDomain(i *inventory.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}
