package leasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

// FeeType distinguishes flat recurring charges from usage-metered ones
type FeeType string

const (
	FeeTypeFixed    FeeType = "FIXED"    // Flat monthly amount
	FeeTypeVariable FeeType = "VARIABLE" // Unit price x metered usage
)

// IsValid checks if the fee type is valid
func (t FeeType) IsValid() bool {
	return t == FeeTypeFixed || t == FeeTypeVariable
}

// Fee represents a recurring charge definition attached to a lease.
// FIXED fees carry a flat monthly Amount; VARIABLE fees carry a UnitPrice and
// a BillingUnit label (e.g. "kWh") and are charged from metered usage records.
type Fee struct {
	shared.BaseEntity
	LeaseID     uuid.UUID
	Type        FeeType
	Name        string
	Amount      decimal.Decimal // FIXED: flat monthly charge
	UnitPrice   decimal.Decimal // VARIABLE: price per billing unit
	BillingUnit string          // VARIABLE: unit label, e.g. "kWh", "m3"
	IsActive    bool
}

// NewFixedFee creates a flat monthly fee
func NewFixedFee(leaseID uuid.UUID, name string, amount valueobject.Money) (*Fee, error) {
	if leaseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEASE", "Lease ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Fee name cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Fee amount must be positive")
	}

	return &Fee{
		BaseEntity: shared.NewBaseEntity(),
		LeaseID:    leaseID,
		Type:       FeeTypeFixed,
		Name:       name,
		Amount:     amount.Amount(),
		UnitPrice:  decimal.Zero,
		IsActive:   true,
	}, nil
}

// NewVariableFee creates a usage-metered fee
func NewVariableFee(leaseID uuid.UUID, name string, unitPrice valueobject.Money, billingUnit string) (*Fee, error) {
	if leaseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEASE", "Lease ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Fee name cannot be empty")
	}
	if unitPrice.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price must be positive")
	}
	if billingUnit == "" {
		return nil, shared.NewDomainError("INVALID_BILLING_UNIT", "Billing unit cannot be empty")
	}

	return &Fee{
		BaseEntity:  shared.NewBaseEntity(),
		LeaseID:     leaseID,
		Type:        FeeTypeVariable,
		Name:        name,
		Amount:      decimal.Zero,
		UnitPrice:   unitPrice.Amount(),
		BillingUnit: billingUnit,
		IsActive:    true,
	}, nil
}

// Deactivate excludes the fee from future invoices while keeping it for history
func (f *Fee) Deactivate() {
	f.IsActive = false
	f.UpdatedAt = time.Now()
}

// IsVariable returns true for usage-metered fees
func (f *Fee) IsVariable() bool {
	return f.Type == FeeTypeVariable
}

// IsMeterable returns true if usage can be recorded against this fee.
// A variable fee without a unit price is a configuration error and cannot
// accept readings.
func (f *Fee) IsMeterable() bool {
	return f.Type == FeeTypeVariable && f.UnitPrice.IsPositive()
}

// GetAmountMoney returns the flat amount as Money
func (f *Fee) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(f.Amount)
}

// GetUnitPriceMoney returns the unit price as Money
func (f *Fee) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(f.UnitPrice)
}
