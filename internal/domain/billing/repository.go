package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rentora/backend/internal/domain/shared"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	LeaseID  *uuid.UUID
	RenterID *uuid.UUID
	Status   *InvoiceStatus
	From     *time.Time // Issued on or after
	To       *time.Time // Issued on or before
}

// InvoiceRepository defines the persistence interface for invoices
type InvoiceRepository interface {
	// Save persists the invoice and all of its items atomically.
	// Returns shared.ErrDuplicateInvoice if a non-cancelled invoice already
	// covers the same lease and period.
	Save(ctx context.Context, invoice *Invoice) error

	// Update persists changes to the invoice header (status, payment fields)
	Update(ctx context.Context, invoice *Invoice) error

	// FindByID retrieves an invoice with its items preloaded.
	// Returns shared.ErrNotFound if the invoice does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber retrieves an invoice by its invoice number.
	// Returns shared.ErrNotFound if the invoice does not exist.
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// FindByLeaseAndPeriod returns the non-cancelled invoice covering exactly
	// the given period, or shared.ErrNotFound.
	FindByLeaseAndPeriod(ctx context.Context, leaseID uuid.UUID, period Period) (*Invoice, error)

	// FindMostRecentForLease returns the non-cancelled invoice with the
	// latest period end for the lease, or shared.ErrNotFound if the lease has
	// never been billed.
	FindMostRecentForLease(ctx context.Context, leaseID uuid.UUID) (*Invoice, error)

	// List returns a page of invoices matching the filter, newest first
	List(ctx context.Context, filter InvoiceFilter) (*shared.Paginated[*Invoice], error)

	// FindDueForOverdue returns unpaid invoices whose due date is before the
	// given instant. Used by the overdue sweep.
	FindDueForOverdue(ctx context.Context, now time.Time) ([]*Invoice, error)
}

// UsageRecordRepository defines the persistence interface for usage records
type UsageRecordRepository interface {
	// Upsert inserts the record, or replaces the quantity if a record already
	// exists for the same (lease, fee, period month).
	Upsert(ctx context.Context, record *UsageRecord) error

	// FindForFeeInRange returns the records for one fee whose period month
	// falls within [from, to], both normalized to month starts.
	FindForFeeInRange(ctx context.Context, leaseID, feeID uuid.UUID, from, to time.Time) ([]UsageRecord, error)

	// ListForLease returns all records for a lease ordered by period month
	ListForLease(ctx context.Context, leaseID uuid.UUID) ([]UsageRecord, error)
}

// InvoiceSequenceRepository hands out per-month invoice sequence numbers.
// Next must be atomic across concurrent callers so two invoices issued in the
// same month can never share a number.
type InvoiceSequenceRepository interface {
	Next(ctx context.Context, year int, month time.Month) (int64, error)
}
