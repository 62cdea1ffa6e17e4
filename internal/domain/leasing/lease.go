package leasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

// LeaseStatus represents the status of a lease contract
type LeaseStatus string

const (
	LeaseStatusDraft      LeaseStatus = "DRAFT"      // Not yet signed, never billed
	LeaseStatusActive     LeaseStatus = "ACTIVE"     // In force, eligible for billing
	LeaseStatusExpired    LeaseStatus = "EXPIRED"    // Past end date
	LeaseStatusTerminated LeaseStatus = "TERMINATED" // Ended early
)

// IsValid checks if the status is a valid LeaseStatus
func (s LeaseStatus) IsValid() bool {
	switch s {
	case LeaseStatusDraft, LeaseStatusActive, LeaseStatusExpired, LeaseStatusTerminated:
		return true
	}
	return false
}

// String returns the string representation of LeaseStatus
func (s LeaseStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the lease can no longer change state
func (s LeaseStatus) IsTerminal() bool {
	return s == LeaseStatusExpired || s == LeaseStatusTerminated
}

// DiscountType represents how a lease-level discount is computed
type DiscountType string

const (
	DiscountTypePercent DiscountType = "PERCENT" // Percentage of the invoice subtotal
	DiscountTypeFixed   DiscountType = "FIXED"   // Flat amount per invoice
	DiscountTypeNone    DiscountType = ""        // No discount configured
)

// IsValid checks if the discount type is valid (including none)
func (d DiscountType) IsValid() bool {
	return d == DiscountTypePercent || d == DiscountTypeFixed || d == DiscountTypeNone
}

// Lease represents a lease contract aggregate root.
// It binds a tenant to a unit and carries the billing configuration the
// invoicing engine works from: rent, billing day, cycle length and discount.
type Lease struct {
	shared.BaseAggregateRoot
	PropertyID         uuid.UUID
	UnitID             uuid.UUID
	LandlordID         uuid.UUID
	RenterID           uuid.UUID
	RentAmount         decimal.Decimal
	BillingDay         int // Day of month billing runs for this lease (1-31)
	BillingCycleMonths int // Calendar months covered by one invoice (>= 1)
	DiscountType       DiscountType
	DiscountValue      decimal.Decimal
	Status             LeaseStatus
	StartDate          time.Time
	EndDate            time.Time
	Fees               []Fee // Active and inactive fee definitions
}

// NewLease creates a new lease contract in DRAFT status
func NewLease(
	propertyID, unitID, landlordID, renterID uuid.UUID,
	rentAmount valueobject.Money,
	billingDay, billingCycleMonths int,
	startDate, endDate time.Time,
) (*Lease, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if unitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit ID cannot be empty")
	}
	if landlordID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LANDLORD", "Landlord ID cannot be empty")
	}
	if renterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RENTER", "Renter ID cannot be empty")
	}
	if rentAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_RENT", "Rent amount must be positive")
	}
	if billingDay < 1 || billingDay > 31 {
		return nil, shared.NewDomainError("INVALID_BILLING_DAY", "Billing day must be between 1 and 31")
	}
	if billingCycleMonths < 1 {
		return nil, shared.NewDomainError("INVALID_BILLING_CYCLE", "Billing cycle must be at least one month")
	}
	if endDate.Before(startDate) {
		return nil, shared.NewDomainError("INVALID_DATES", "Lease end date cannot be before start date")
	}

	return &Lease{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		PropertyID:         propertyID,
		UnitID:             unitID,
		LandlordID:         landlordID,
		RenterID:           renterID,
		RentAmount:         rentAmount.Amount(),
		BillingDay:         billingDay,
		BillingCycleMonths: billingCycleMonths,
		DiscountType:       DiscountTypeNone,
		DiscountValue:      decimal.Zero,
		Status:             LeaseStatusDraft,
		StartDate:          startDate,
		EndDate:            endDate,
		Fees:               []Fee{},
	}, nil
}

// SetDiscount configures the lease-level discount
func (l *Lease) SetDiscount(discountType DiscountType, value decimal.Decimal) error {
	if !discountType.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type is not valid")
	}
	if discountType != DiscountTypeNone && value.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Discount value must be positive")
	}
	if discountType == DiscountTypeNone {
		value = decimal.Zero
	}

	l.DiscountType = discountType
	l.DiscountValue = value
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// Activate moves a DRAFT lease into ACTIVE status, making it billable
func (l *Lease) Activate() error {
	if l.Status != LeaseStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft leases can be activated")
	}

	l.Status = LeaseStatusActive
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	l.AddDomainEvent(NewLeaseActivatedEvent(l))
	return nil
}

// Terminate ends the lease early. Already-issued invoices are unaffected.
func (l *Lease) Terminate(effective time.Time) error {
	if l.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Lease is already ended")
	}
	if effective.Before(l.StartDate) {
		return shared.NewDomainError("INVALID_DATES", "Termination date cannot precede lease start")
	}

	l.Status = LeaseStatusTerminated
	l.EndDate = effective
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	l.AddDomainEvent(NewLeaseTerminatedEvent(l))
	return nil
}

// IsActive returns true if the lease is currently billable
func (l *Lease) IsActive() bool {
	return l.Status == LeaseStatusActive
}

// GetRentMoney returns the rent amount as Money
func (l *Lease) GetRentMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.RentAmount)
}

// HasDiscount returns true if a discount is configured
func (l *Lease) HasDiscount() bool {
	return l.DiscountType != DiscountTypeNone && l.DiscountValue.IsPositive()
}

// ActiveFees returns the subset of fee definitions that are currently active.
// Inactive fees stay on the lease for invoice history but are skipped when
// building new invoices.
func (l *Lease) ActiveFees() []Fee {
	active := make([]Fee, 0, len(l.Fees))
	for _, f := range l.Fees {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active
}

// FindFee returns the fee with the given ID, or nil if not attached
func (l *Lease) FindFee(feeID uuid.UUID) *Fee {
	for i := range l.Fees {
		if l.Fees[i].ID == feeID {
			return &l.Fees[i]
		}
	}
	return nil
}
