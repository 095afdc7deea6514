package finance

import (
	"context"

	"github.com/google/uuid"
)

// PaymentFilter narrows payment queries
type PaymentFilter struct {
	PartyID   *uuid.UUID
	InvoiceID *uuid.UUID
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindAll finds live payments matching the filter, ordered by date
	FindAll(ctx context.Context, filter PaymentFilter) ([]*Payment, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error
}
