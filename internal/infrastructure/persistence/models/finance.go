package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment entity
type PaymentModel struct {
	BaseModel
	PartyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID *uuid.UUID      `gorm:"type:uuid;index"`
	Direction string          `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null"`
	Date      time.Time       `gorm:"not null;index"`
	Reference string          `gorm:"type:varchar(100)"`
	IsDeleted bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
// Rows written by older clients may carry legacy direction spellings; they are normalized here.
func (m *PaymentModel) ToDomain() (*finance.Payment, error) {
	direction, err := finance.ParseDirection(m.Direction)
	if err != nil {
		return nil, err
	}
	return &finance.Payment{
		BaseEntity: m.BaseModel.ToDomain(),
		PartyID:    m.PartyID,
		InvoiceID:  m.InvoiceID,
		Direction:  direction,
		Amount:     m.Amount,
		Date:       m.Date,
		Reference:  m.Reference,
		IsDeleted:  m.IsDeleted,
	}, nil
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.PartyID = p.PartyID
	m.InvoiceID = p.InvoiceID
	m.Direction = p.Direction.String()
	m.Amount = p.Amount
	m.Date = p.Date
	m.Reference = p.Reference
	m.IsDeleted = p.IsDeleted
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
