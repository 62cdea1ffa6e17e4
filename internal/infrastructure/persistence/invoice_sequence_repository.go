package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GormInvoiceSequenceRepository implements billing.InvoiceSequenceRepository
// using an atomic counter table. The single UPSERT statement makes Next safe
// under concurrency: two callers in the same month always observe distinct
// sequence values.
type GormInvoiceSequenceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceSequenceRepository creates a new GormInvoiceSequenceRepository
func NewGormInvoiceSequenceRepository(db *gorm.DB) *GormInvoiceSequenceRepository {
	return &GormInvoiceSequenceRepository{db: db}
}

// Next atomically increments and returns the counter for the given month
func (r *GormInvoiceSequenceRepository) Next(ctx context.Context, year int, month time.Month) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO invoice_sequences (year, month, value)
		VALUES (?, ?, 1)
		ON CONFLICT (year, month)
		DO UPDATE SET value = invoice_sequences.value + 1
		RETURNING value`,
		year, int(month),
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
