package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/infrastructure/persistence/models"
)

const pgUniqueViolation = "23505"

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save persists the invoice and its items in one transaction. A unique
// violation on the period index means a concurrent writer billed the same
// period first; that surfaces as ErrDuplicateInvoice.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateInvoice
		}
		return err
	}
	return nil
}

// Update persists changes to the invoice header under optimistic locking.
// Items are immutable once issued and are not touched.
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]any{
			"status":         model.Status,
			"paid_at":        model.PaidAt,
			"paid_amount":    model.PaidAmount,
			"payment_method": model.PaymentMethod,
			"cancel_reason":  model.CancelReason,
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

// FindByID retrieves an invoice with its items preloaded
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber retrieves an invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "invoice_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLeaseAndPeriod returns the non-cancelled invoice covering exactly the
// given period
func (r *GormInvoiceRepository) FindByLeaseAndPeriod(ctx context.Context, leaseID uuid.UUID, period billing.Period) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("lease_id = ? AND period_start = ? AND period_end = ? AND status <> ?",
			leaseID, period.Start, period.End, billing.InvoiceStatusCancelled).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindMostRecentForLease returns the non-cancelled invoice with the latest
// period end for the lease
func (r *GormInvoiceRepository) FindMostRecentForLease(ctx context.Context, leaseID uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("lease_id = ? AND status <> ?", leaseID, billing.InvoiceStatusCancelled).
		Order("period_end DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns a page of invoices matching the filter, newest first
func (r *GormInvoiceRepository) List(ctx context.Context, filter billing.InvoiceFilter) (*shared.Paginated[*billing.Invoice], error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})

	if filter.LeaseID != nil {
		query = query.Where("lease_id = ?", *filter.LeaseID)
	}
	if filter.RenterID != nil {
		query = query.Where("renter_id = ?", *filter.RenterID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("issued_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("issued_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var invoiceModels []models.InvoiceModel
	if err := query.
		Preload("Items").
		Order("issued_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	result := shared.NewPaginated(invoices, total, page, pageSize)
	return &result, nil
}

// FindDueForOverdue returns unpaid invoices whose due date is before now
func (r *GormInvoiceRepository) FindDueForOverdue(ctx context.Context, now time.Time) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", billing.InvoiceStatusUnpaid, now).
		Order("due_date").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// isUniqueViolation reports whether the error is a Postgres unique constraint
// violation as surfaced by the pgx driver underneath gorm's postgres dialect
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
