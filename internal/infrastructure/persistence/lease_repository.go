package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/infrastructure/persistence/models"
)

// GormLeaseRepository implements leasing.LeaseRepository using GORM
type GormLeaseRepository struct {
	db *gorm.DB
}

// NewGormLeaseRepository creates a new GormLeaseRepository
func NewGormLeaseRepository(db *gorm.DB) *GormLeaseRepository {
	return &GormLeaseRepository{db: db}
}

// Save persists a new lease with its fee definitions
func (r *GormLeaseRepository) Save(ctx context.Context, lease *leasing.Lease) error {
	model := models.LeaseModelFromDomain(lease)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing lease, bumping the version for
// optimistic locking. Fee rows are managed through SaveFee.
func (r *GormLeaseRepository) Update(ctx context.Context, lease *leasing.Lease) error {
	model := models.LeaseModelFromDomain(lease)
	result := r.db.WithContext(ctx).
		Model(&models.LeaseModel{}).
		Omit("Fees").
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]any{
			"discount_type":  model.DiscountType,
			"discount_value": model.DiscountValue,
			"status":         model.Status,
			"end_date":       model.EndDate,
			"updated_at":     model.UpdatedAt,
			"version":        model.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID retrieves a lease with its fees preloaded
func (r *GormLeaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Lease, error) {
	var model models.LeaseModel
	if err := r.db.WithContext(ctx).
		Preload("Fees").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveBillableOn returns ACTIVE leases with the given billing day,
// fees preloaded. Backed by the composite index on (status, billing_day).
func (r *GormLeaseRepository) FindActiveBillableOn(ctx context.Context, dayOfMonth int) ([]*leasing.Lease, error) {
	var leaseModels []models.LeaseModel
	if err := r.db.WithContext(ctx).
		Preload("Fees").
		Where("status = ? AND billing_day = ?", leasing.LeaseStatusActive, dayOfMonth).
		Order("created_at").
		Find(&leaseModels).Error; err != nil {
		return nil, err
	}

	leases := make([]*leasing.Lease, len(leaseModels))
	for i := range leaseModels {
		leases[i] = leaseModels[i].ToDomain()
	}
	return leases, nil
}

// FindActiveFees returns the active fee definitions for a lease
func (r *GormLeaseRepository) FindActiveFees(ctx context.Context, leaseID uuid.UUID) ([]leasing.Fee, error) {
	var feeModels []models.FeeModel
	if err := r.db.WithContext(ctx).
		Where("lease_id = ? AND is_active = ?", leaseID, true).
		Order("created_at").
		Find(&feeModels).Error; err != nil {
		return nil, err
	}

	fees := make([]leasing.Fee, len(feeModels))
	for i := range feeModels {
		fees[i] = *feeModels[i].ToDomainFee()
	}
	return fees, nil
}

// SaveFee inserts or updates a fee definition
func (r *GormLeaseRepository) SaveFee(ctx context.Context, fee *leasing.Fee) error {
	model := &models.FeeModel{}
	model.FromDomainFee(fee)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindFee retrieves a single fee definition
func (r *GormLeaseRepository) FindFee(ctx context.Context, feeID uuid.UUID) (*leasing.Fee, error) {
	var model models.FeeModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", feeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomainFee(), nil
}
