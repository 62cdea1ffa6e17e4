package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/shared"
)

// UsageRecord represents a metered reading for a variable fee in one calendar
// month. The natural key is (lease, fee, period month); recording a second
// reading for the same month overwrites the first, so a correction is just a
// re-submission.
type UsageRecord struct {
	shared.BaseEntity
	LeaseID     uuid.UUID
	FeeID       uuid.UUID
	PeriodMonth time.Time // Always the first day of the month, UTC midnight
	Quantity    decimal.Decimal
	// TotalAmount is quantity times the fee's unit price at record time.
	// Invoices sum these stored amounts, so a later unit-price change
	// never alters charges for months already metered.
	TotalAmount decimal.Decimal
	RecordedAt  time.Time
}

// NewUsageRecord creates a usage record with the period normalized to the
// first day of its month
func NewUsageRecord(leaseID, feeID uuid.UUID, period time.Time, quantity, unitPrice decimal.Decimal) (*UsageRecord, error) {
	if leaseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEASE", "Lease ID cannot be empty")
	}
	if feeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FEE", "Fee ID cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Usage quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}

	return &UsageRecord{
		BaseEntity:  shared.NewBaseEntity(),
		LeaseID:     leaseID,
		FeeID:       feeID,
		PeriodMonth: FirstDayOfMonth(period),
		Quantity:    quantity,
		TotalAmount: quantity.Mul(unitPrice),
		RecordedAt:  time.Now(),
	}, nil
}

// ApplyReading replaces the recorded quantity and recomputes the charge with
// the given unit price
func (u *UsageRecord) ApplyReading(quantity, unitPrice decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Usage quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	u.Quantity = quantity
	u.TotalAmount = quantity.Mul(unitPrice)
	u.RecordedAt = time.Now()
	u.UpdatedAt = time.Now()
	return nil
}
