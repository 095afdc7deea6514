package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	BaseModel
	Number            string          `gorm:"type:varchar(50);index"`
	Kind              string          `gorm:"type:varchar(30);not null;index"`
	Date              time.Time       `gorm:"not null;index"`
	DueDate           *time.Time      `gorm:"index"`
	PartyID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Subtotal          decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	DiscountAmount    decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	TaxAmount         decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	WithholdingAmount decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	PaidAmount        decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	BalanceDue        decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	Status            string          `gorm:"type:varchar(20);not null"`
	IsDeleted         bool            `gorm:"not null;default:false;index"`
	DeletedAt         *time.Time
	Lines             []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is the persistence model for one invoice line
type InvoiceLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position        int             `gorm:"not null"`
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemName        string          `gorm:"type:varchar(200)"`
	Quantity        decimal.Decimal `gorm:"type:numeric;not null"`
	Rate            decimal.Decimal `gorm:"type:numeric;not null"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	TaxRatePercent  decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	Total           decimal.Decimal `gorm:"type:numeric;not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Invoice. Lines keep their stored order.
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		BaseEntity:        m.BaseModel.ToDomain(),
		Number:            m.Number,
		Kind:              trade.InvoiceKind(m.Kind),
		Date:              m.Date,
		DueDate:           m.DueDate,
		PartyID:           m.PartyID,
		Subtotal:          m.Subtotal,
		DiscountAmount:    m.DiscountAmount,
		TaxAmount:         m.TaxAmount,
		WithholdingAmount: m.WithholdingAmount,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		BalanceDue:        m.BalanceDue,
		Status:            trade.PaymentStatus(m.Status),
		IsDeleted:         m.IsDeleted,
		DeletedAt:         m.DeletedAt,
		Lines:             make([]trade.InvoiceLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		inv.Lines[i] = trade.InvoiceLine{
			ID:              l.ID,
			InvoiceID:       l.InvoiceID,
			ItemID:          l.ItemID,
			ItemName:        l.ItemName,
			Quantity:        l.Quantity,
			Rate:            l.Rate,
			DiscountPercent: l.DiscountPercent,
			TaxRatePercent:  l.TaxRatePercent,
			Total:           l.Total,
		}
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *trade.Invoice) {
	m.FromDomainBaseEntity(inv.BaseEntity)
	m.Number = inv.Number
	m.Kind = inv.Kind.String()
	m.Date = inv.Date
	m.DueDate = inv.DueDate
	m.PartyID = inv.PartyID
	m.Subtotal = inv.Subtotal
	m.DiscountAmount = inv.DiscountAmount
	m.TaxAmount = inv.TaxAmount
	m.WithholdingAmount = inv.WithholdingAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.BalanceDue = inv.BalanceDue
	m.Status = inv.Status.String()
	m.IsDeleted = inv.IsDeleted
	m.DeletedAt = inv.DeletedAt
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i, l := range inv.Lines {
		m.Lines[i] = InvoiceLineModel{
			ID:              l.ID,
			InvoiceID:       inv.ID,
			Position:        i,
			ItemID:          l.ItemID,
			ItemName:        l.ItemName,
			Quantity:        l.Quantity,
			Rate:            l.Rate,
			DiscountPercent: l.DiscountPercent,
			TaxRatePercent:  l.TaxRatePercent,
			Total:           l.Total,
		}
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}
