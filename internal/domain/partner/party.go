package partner

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PartyType distinguishes customers from suppliers
type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
)

// IsValid checks if the party type is a valid PartyType
func (t PartyType) IsValid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// String returns the string representation of PartyType
func (t PartyType) String() string {
	return string(t)
}

// Party is a customer or supplier with a signed opening balance.
// A positive opening balance means the party owes us (customer) or we owe them (supplier).
type Party struct {
	shared.BaseEntity
	Name           string
	Type           PartyType
	Phone          string
	OpeningBalance decimal.Decimal
}

// NewParty creates a new party
func NewParty(name string, partyType PartyType, openingBalance decimal.Decimal) (*Party, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Party name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Party name cannot exceed 200 characters")
	}
	if !partyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTY_TYPE", "Party type must be customer or supplier")
	}
	return &Party{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Type:           partyType,
		OpeningBalance: openingBalance,
	}, nil
}

// IsCustomer returns true for customers
func (p *Party) IsCustomer() bool {
	return p.Type == PartyTypeCustomer
}

// IsSupplier returns true for suppliers
func (p *Party) IsSupplier() bool {
	return p.Type == PartyTypeSupplier
}
