package leasing

import (
	"context"

	"github.com/google/uuid"
)

// LeaseRepository defines the persistence interface for leases and their fees
type LeaseRepository interface {
	// Save persists a new lease with its fee definitions
	Save(ctx context.Context, lease *Lease) error

	// Update persists changes to an existing lease
	Update(ctx context.Context, lease *Lease) error

	// FindByID retrieves a lease with its fees preloaded.
	// Returns shared.ErrNotFound if the lease does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Lease, error)

	// FindActiveBillableOn returns all ACTIVE leases whose billing day equals
	// the given day of month, with fees preloaded. Used by the daily billing run.
	FindActiveBillableOn(ctx context.Context, dayOfMonth int) ([]*Lease, error)

	// FindActiveFees returns the active fee definitions for a lease
	FindActiveFees(ctx context.Context, leaseID uuid.UUID) ([]Fee, error)

	// SaveFee attaches a fee definition to a lease
	SaveFee(ctx context.Context, fee *Fee) error

	// FindFee retrieves a single fee definition.
	// Returns shared.ErrNotFound if the fee does not exist.
	FindFee(ctx context.Context, feeID uuid.UUID) (*Fee, error)
}
