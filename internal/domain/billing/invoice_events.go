package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/shared"
)

// Event types for the invoice aggregate
const (
	EventTypeInvoiceGenerated = "invoice.generated"
	EventTypeInvoicePaid      = "invoice.paid"
	EventTypeInvoiceOverdue   = "invoice.overdue"
	EventTypeInvoiceCancelled = "invoice.cancelled"
)

// AggregateTypeInvoice is the aggregate type name used in events
const AggregateTypeInvoice = "Invoice"

// InvoiceGeneratedEvent is emitted when a new invoice is issued
type InvoiceGeneratedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	LeaseID       uuid.UUID       `json:"lease_id"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoiceGeneratedEvent creates a new invoice generated event
func NewInvoiceGeneratedEvent(inv *Invoice) *InvoiceGeneratedEvent {
	return &InvoiceGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceGenerated, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		LeaseID:         inv.LeaseID,
		PeriodStart:     inv.PeriodStart,
		PeriodEnd:       inv.PeriodEnd,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoicePaidEvent is emitted when an invoice is settled
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	LeaseID       uuid.UUID       `json:"lease_id"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentMethod string          `json:"payment_method"`
}

// NewInvoicePaidEvent creates a new invoice paid event
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		LeaseID:         inv.LeaseID,
		PaidAmount:      inv.PaidAmount,
		PaymentMethod:   inv.PaymentMethod,
	}
}

// InvoiceOverdueEvent is emitted when an unpaid invoice passes its due date
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	LeaseID       uuid.UUID `json:"lease_id"`
	DueDate       time.Time `json:"due_date"`
}

// NewInvoiceOverdueEvent creates a new invoice overdue event
func NewInvoiceOverdueEvent(inv *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceOverdue, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		LeaseID:         inv.LeaseID,
		DueDate:         inv.DueDate,
	}
}

// InvoiceCancelledEvent is emitted when an invoice is voided
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	LeaseID       uuid.UUID `json:"lease_id"`
	Reason        string    `json:"reason"`
}

// NewInvoiceCancelledEvent creates a new invoice cancelled event
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		LeaseID:         inv.LeaseID,
		Reason:          inv.CancelReason,
	}
}
