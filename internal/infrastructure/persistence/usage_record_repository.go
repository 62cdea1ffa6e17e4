package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/infrastructure/persistence/models"
)

// GormUsageRecordRepository implements billing.UsageRecordRepository using GORM
type GormUsageRecordRepository struct {
	db *gorm.DB
}

// NewGormUsageRecordRepository creates a new GormUsageRecordRepository
func NewGormUsageRecordRepository(db *gorm.DB) *GormUsageRecordRepository {
	return &GormUsageRecordRepository{db: db}
}

// Upsert inserts the record or replaces the quantity and charge of an
// existing one. The ON CONFLICT clause on the (lease, fee, month) key makes
// concurrent submissions last-write-wins instead of erroring.
func (r *GormUsageRecordRepository) Upsert(ctx context.Context, record *billing.UsageRecord) error {
	model := &models.UsageRecordModel{}
	model.FromDomainRecord(record)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "lease_id"}, {Name: "fee_id"}, {Name: "period_month"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "total_amount", "recorded_at", "updated_at"}),
		}).
		Create(model).Error
}

// FindForFeeInRange returns the records for one fee within [from, to]
func (r *GormUsageRecordRepository) FindForFeeInRange(ctx context.Context, leaseID, feeID uuid.UUID, from, to time.Time) ([]billing.UsageRecord, error) {
	var recordModels []models.UsageRecordModel
	if err := r.db.WithContext(ctx).
		Where("lease_id = ? AND fee_id = ? AND period_month >= ? AND period_month <= ?",
			leaseID, feeID, from, to).
		Order("period_month").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]billing.UsageRecord, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomainRecord()
	}
	return records, nil
}

// ListForLease returns all records for a lease ordered by period month
func (r *GormUsageRecordRepository) ListForLease(ctx context.Context, leaseID uuid.UUID) ([]billing.UsageRecord, error) {
	var recordModels []models.UsageRecordModel
	if err := r.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("period_month").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]billing.UsageRecord, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomainRecord()
	}
	return records, nil
}
