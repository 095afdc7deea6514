package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartyRepository implements partner.PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

var _ partner.PartyRepository = (*GormPartyRepository)(nil)

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByID finds a party by ID
func (r *GormPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.WrapDomainError(shared.ErrNotFound, "Party %s not found", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all parties ordered by name
func (r *GormPartyRepository) FindAll(ctx context.Context) ([]*partner.Party, error) {
	return r.find(r.db.WithContext(ctx))
}

// FindByType finds customers or suppliers ordered by name
func (r *GormPartyRepository) FindByType(ctx context.Context, partyType partner.PartyType) ([]*partner.Party, error) {
	return r.find(r.db.WithContext(ctx).Where("type = ?", string(partyType)))
}

// Save creates or updates a party
func (r *GormPartyRepository) Save(ctx context.Context, party *partner.Party) error {
	return r.db.WithContext(ctx).Save(models.PartyModelFromDomain(party)).Error
}

func (r *GormPartyRepository) find(query *gorm.DB) ([]*partner.Party, error) {
	var rows []models.PartyModel
	if err := query.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	parties := make([]*partner.Party, len(rows))
	for i := range rows {
		parties[i] = rows[i].ToDomain()
	}
	return parties, nil
}
