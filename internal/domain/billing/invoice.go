package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "UNPAID"    // Issued, awaiting payment
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Settled
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // Due date passed without payment
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Voided, period becomes billable again
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice can no longer change state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// IsPayable returns true if a payment can be recorded in this status
func (s InvoiceStatus) IsPayable() bool {
	return s == InvoiceStatusUnpaid || s == InvoiceStatusOverdue
}

// ItemType classifies an invoice line
type ItemType string

const (
	ItemTypeRent        ItemType = "RENT"
	ItemTypeFixedFee    ItemType = "FIXED_FEE"
	ItemTypeVariableFee ItemType = "VARIABLE_FEE"
	ItemTypeDiscount    ItemType = "DISCOUNT"
)

// IsValid checks if the item type is valid
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeRent, ItemTypeFixedFee, ItemTypeVariableFee, ItemTypeDiscount:
		return true
	}
	return false
}

// InvoiceItem represents a single line on an invoice.
// Amount is always Quantity x UnitPrice except for discount lines, where the
// amount is negative and quantity is 1.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID
	FeeID       *uuid.UUID // Set for fee lines, nil for rent and discount
	Type        ItemType
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// GetAmountMoney returns the line amount as Money
func (i *InvoiceItem) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Amount)
}

// Invoice represents a billing invoice aggregate root.
// Lines are appended through the Add* methods, which keep the subtotal and
// total consistent; the invoice is immutable once issued except for the
// payment state machine (MarkPaid, MarkOverdue, Cancel).
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber  string
	LeaseID        uuid.UUID
	RenterID       uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	Status         InvoiceStatus
	IssuedAt       time.Time
	DueDate        time.Time
	PaidAt         *time.Time
	PaidAmount     decimal.Decimal
	PaymentMethod  string
	CancelReason   string
	Items          []InvoiceItem
}

// NewInvoice creates an empty UNPAID invoice for the given lease and period
func NewInvoice(invoiceNumber string, lease *leasing.Lease, period Period, issuedAt, dueDate time.Time) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if lease == nil {
		return nil, shared.NewDomainError("INVALID_LEASE", "Lease cannot be nil")
	}
	if dueDate.Before(issuedAt) {
		return nil, shared.NewDomainError("INVALID_DATES", "Due date cannot precede issue date")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		LeaseID:           lease.ID,
		RenterID:          lease.RenterID,
		PeriodStart:       period.Start,
		PeriodEnd:         period.End,
		Subtotal:          decimal.Zero,
		DiscountAmount:    decimal.Zero,
		TaxAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		Status:            InvoiceStatusUnpaid,
		IssuedAt:          issuedAt,
		DueDate:           dueDate,
		PaidAmount:        decimal.Zero,
		Items:             []InvoiceItem{},
	}, nil
}

// Period returns the invoice's billing period
func (inv *Invoice) Period() Period {
	return Period{Start: inv.PeriodStart, End: inv.PeriodEnd}
}

// AddRentLine appends the rent line: monthly rent times the number of months
// the period covers.
func (inv *Invoice) AddRentLine(monthlyRent valueobject.Money, months int) error {
	if months < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Rent months must be at least 1")
	}
	quantity := decimal.NewFromInt(int64(months))
	amount := monthlyRent.Amount().Mul(quantity)

	inv.appendItem(InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   inv.ID,
		Type:        ItemTypeRent,
		Description: fmt.Sprintf("Rent %s", inv.Period()),
		Quantity:    quantity,
		UnitPrice:   monthlyRent.Amount(),
		Amount:      amount,
	})
	return nil
}

// AddFixedFeeLine appends a flat fee line charged once per month in the period
func (inv *Invoice) AddFixedFeeLine(fee *leasing.Fee, months int) error {
	if fee == nil || fee.Type != leasing.FeeTypeFixed {
		return shared.NewDomainError("INVALID_FEE", "Fee must be a fixed fee")
	}
	if months < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Fee months must be at least 1")
	}
	quantity := decimal.NewFromInt(int64(months))
	feeID := fee.ID

	inv.appendItem(InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   inv.ID,
		FeeID:       &feeID,
		Type:        ItemTypeFixedFee,
		Description: fee.Name,
		Quantity:    quantity,
		UnitPrice:   fee.Amount,
		Amount:      fee.Amount.Mul(quantity),
	})
	return nil
}

// AddVariableFeeLine appends a metered fee line. The amount is the sum of the
// usage records' stored charges, not usage times the current unit price, so
// the line reflects the prices in effect when each reading was recorded. Zero
// usage is the caller's signal to skip the line; this method rejects it to
// keep invoices free of empty lines.
func (inv *Invoice) AddVariableFeeLine(fee *leasing.Fee, usage, amount decimal.Decimal) error {
	if fee == nil || !fee.IsVariable() {
		return shared.NewDomainError("INVALID_FEE", "Fee must be a variable fee")
	}
	if usage.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Usage quantity must be positive")
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Usage amount cannot be negative")
	}
	feeID := fee.ID

	inv.appendItem(InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   inv.ID,
		FeeID:       &feeID,
		Type:        ItemTypeVariableFee,
		Description: fmt.Sprintf("%s (%s %s)", fee.Name, usage.String(), fee.BillingUnit),
		Quantity:    usage,
		UnitPrice:   fee.UnitPrice,
		Amount:      amount,
	})
	return nil
}

// ApplyDiscount appends a negative discount line and records the discount
// amount. Call once, after all charge lines have been added.
func (inv *Invoice) ApplyDiscount(description string, amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_DISCOUNT_VALUE", "Discount amount must be positive")
	}
	if inv.DiscountAmount.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Discount has already been applied")
	}

	inv.Items = append(inv.Items, InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   inv.ID,
		Type:        ItemTypeDiscount,
		Description: description,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   amount.Amount().Neg(),
		Amount:      amount.Amount().Neg(),
	})
	inv.DiscountAmount = amount.Amount()
	inv.recalculate()
	return nil
}

// appendItem adds a charge line and keeps the totals consistent
func (inv *Invoice) appendItem(item InvoiceItem) {
	inv.Items = append(inv.Items, item)
	inv.Subtotal = inv.Subtotal.Add(item.Amount)
	inv.recalculate()
}

// recalculate derives the total from subtotal, discount and tax
func (inv *Invoice) recalculate() {
	inv.TotalAmount = inv.Subtotal.Sub(inv.DiscountAmount).Add(inv.TaxAmount)
	inv.UpdatedAt = time.Now()
}

// GetSubtotalMoney returns the subtotal as Money
func (inv *Invoice) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Subtotal)
}

// GetTotalMoney returns the total as Money
func (inv *Invoice) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.TotalAmount)
}

// MarkPaid settles the invoice. Allowed from UNPAID and OVERDUE; a payment
// against an overdue invoice clears the overdue state. One call fully settles
// the invoice whatever amount was tendered; the supplied amount is stored as
// a record of what was actually received, there is no partial-payment state.
func (inv *Invoice) MarkPaid(paidAmount valueobject.Money, method string, paidAt time.Time) error {
	if !inv.Status.IsPayable() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot record payment on %s invoice", inv.Status))
	}

	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &paidAt
	inv.PaidAmount = paidAmount.Amount()
	inv.PaymentMethod = method
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	return nil
}

// MarkOverdue flags an unpaid invoice whose due date has passed
func (inv *Invoice) MarkOverdue(now time.Time) error {
	if inv.Status != InvoiceStatusUnpaid {
		return shared.NewDomainError("INVALID_STATE", "Only unpaid invoices can become overdue")
	}
	if !now.After(inv.DueDate) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not yet past its due date")
	}

	inv.Status = InvoiceStatusOverdue
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceOverdueEvent(inv))
	return nil
}

// Cancel voids the invoice. A cancelled invoice no longer blocks re-billing
// of its period. Paid invoices cannot be cancelled.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel %s invoice", inv.Status))
	}

	inv.Status = InvoiceStatusCancelled
	inv.CancelReason = reason
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))
	return nil
}

// IsOverdue reports whether the invoice should be flagged overdue at the
// given instant, regardless of whether the sweep has run yet.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	return inv.Status == InvoiceStatusUnpaid && now.After(inv.DueDate)
}

// FormatInvoiceNumber renders an invoice number from the issue month and a
// per-month sequence value, e.g. INV-202502-0001.
func FormatInvoiceNumber(year int, month time.Month, sequence int64) string {
	return fmt.Sprintf("INV-%04d%02d-%04d", year, int(month), sequence)
}
