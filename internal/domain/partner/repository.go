package partner

import (
	"context"

	"github.com/google/uuid"
)

// PartyRepository defines the interface for party persistence
type PartyRepository interface {
	// FindByID finds a party by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)

	// FindAll finds all parties ordered by name
	FindAll(ctx context.Context) ([]*Party, error)

	// FindByType finds customers or suppliers
	FindByType(ctx context.Context, partyType PartyType) ([]*Party, error)

	// Save creates or updates a party
	Save(ctx context.Context, party *Party) error
}
