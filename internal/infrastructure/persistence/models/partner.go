package models

import (
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// PartyModel is the persistence model for the Party entity
type PartyModel struct {
	BaseModel
	Name           string          `gorm:"type:varchar(200);not null;index"`
	Type           string          `gorm:"type:varchar(20);not null;index"`
	Phone          string          `gorm:"type:varchar(50)"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric;not null;default:0"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		BaseEntity:     m.BaseModel.ToDomain(),
		Name:           m.Name,
		Type:           partner.PartyType(m.Type),
		Phone:          m.Phone,
		OpeningBalance: m.OpeningBalance,
	}
}

// FromDomain populates the persistence model from a domain Party
func (m *PartyModel) FromDomain(p *partner.Party) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Name = p.Name
	m.Type = string(p.Type)
	m.Phone = p.Phone
	m.OpeningBalance = p.OpeningBalance
}

// PartyModelFromDomain creates a new persistence model from a domain Party
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{}
	m.FromDomain(p)
	return m
}
