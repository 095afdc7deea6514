package finance

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction represents which way money moved
type Direction string

const (
	DirectionIn  Direction = "in"  // Received from a customer
	DirectionOut Direction = "out" // Paid to a supplier
)

// IsValid checks if the direction is a valid Direction
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// ParseDirection normalizes every stored spelling of a payment direction.
// "in" and "payment_in" are the same thing, as are "out" and "payment_out".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "payment_in", "payment-in":
		return DirectionIn, nil
	case "out", "payment_out", "payment-out":
		return DirectionOut, nil
	}
	return "", shared.NewDomainError("INVALID_DIRECTION", "Unknown payment direction: "+s)
}

// Payment is money received from or paid to a party, optionally against one invoice
type Payment struct {
	shared.BaseEntity
	PartyID   uuid.UUID
	InvoiceID *uuid.UUID
	Direction Direction
	Amount    decimal.Decimal
	Date      time.Time
	Reference string
	IsDeleted bool
}

// NewPayment creates a new payment
func NewPayment(partyID uuid.UUID, direction Direction, amount decimal.Decimal, date time.Time) (*Payment, error) {
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party is required")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Unknown payment direction: "+direction.String())
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Payment date is required")
	}
	return &Payment{
		BaseEntity: shared.NewBaseEntity(),
		PartyID:    partyID,
		Direction:  direction,
		Amount:     amount,
		Date:       date,
	}, nil
}

// LinkInvoice attaches the payment to an invoice
func (p *Payment) LinkInvoice(invoiceID uuid.UUID) {
	id := invoiceID
	p.InvoiceID = &id
	p.Touch()
}
