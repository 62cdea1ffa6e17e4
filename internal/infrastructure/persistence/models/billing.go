package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/billing"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// The partial unique index on (lease_id, period_start, period_end) excluding
// cancelled invoices enforces the one-invoice-per-period rule at the store.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber  string                `gorm:"type:varchar(30);not null;uniqueIndex"`
	LeaseID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	RenterID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	PeriodStart    time.Time             `gorm:"type:date;not null"`
	PeriodEnd      time.Time             `gorm:"type:date;not null"`
	Subtotal       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	IssuedAt       time.Time             `gorm:"not null"`
	DueDate        time.Time             `gorm:"type:date;not null;index"`
	PaidAt         *time.Time
	PaidAmount     decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentMethod  string             `gorm:"type:varchar(50)"`
	CancelReason   string             `gorm:"type:varchar(500)"`
	Items          []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	items := make([]billing.InvoiceItem, len(m.Items))
	for i := range m.Items {
		items[i] = *m.Items[i].ToDomainItem()
	}
	return &billing.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		LeaseID:           m.LeaseID,
		RenterID:          m.RenterID,
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		Subtotal:          m.Subtotal,
		DiscountAmount:    m.DiscountAmount,
		TaxAmount:         m.TaxAmount,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		IssuedAt:          m.IssuedAt,
		DueDate:           m.DueDate,
		PaidAt:            m.PaidAt,
		PaidAmount:        m.PaidAmount,
		PaymentMethod:     m.PaymentMethod,
		CancelReason:      m.CancelReason,
		Items:             items,
	}
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.LeaseID = inv.LeaseID
	m.RenterID = inv.RenterID
	m.PeriodStart = inv.PeriodStart
	m.PeriodEnd = inv.PeriodEnd
	m.Subtotal = inv.Subtotal
	m.DiscountAmount = inv.DiscountAmount
	m.TaxAmount = inv.TaxAmount
	m.TotalAmount = inv.TotalAmount
	m.Status = inv.Status
	m.IssuedAt = inv.IssuedAt
	m.DueDate = inv.DueDate
	m.PaidAt = inv.PaidAt
	m.PaidAmount = inv.PaidAmount
	m.PaymentMethod = inv.PaymentMethod
	m.CancelReason = inv.CancelReason
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i].FromDomainItem(&inv.Items[i])
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for invoice lines
type InvoiceItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	FeeID       *uuid.UUID       `gorm:"type:uuid;index"`
	Type        billing.ItemType `gorm:"type:varchar(20);not null"`
	Description string           `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomainItem converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomainItem() *billing.InvoiceItem {
	return &billing.InvoiceItem{
		BaseEntity:  m.ToDomain(),
		InvoiceID:   m.InvoiceID,
		FeeID:       m.FeeID,
		Type:        m.Type,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Amount:      m.Amount,
	}
}

// FromDomainItem populates the persistence model from a domain InvoiceItem
func (m *InvoiceItemModel) FromDomainItem(item *billing.InvoiceItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.InvoiceID = item.InvoiceID
	m.FeeID = item.FeeID
	m.Type = item.Type
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.Amount = item.Amount
}

// UsageRecordModel is the persistence model for metered usage readings.
// (lease_id, fee_id, period_month) is unique; upserts replace the quantity
// and the stored charge.
type UsageRecordModel struct {
	BaseModel
	LeaseID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_usage_lease_fee_month,priority:1"`
	FeeID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_usage_lease_fee_month,priority:2"`
	PeriodMonth time.Time       `gorm:"type:date;not null;uniqueIndex:idx_usage_lease_fee_month,priority:3"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RecordedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UsageRecordModel) TableName() string {
	return "usage_records"
}

// ToDomainRecord converts the persistence model to a domain UsageRecord
func (m *UsageRecordModel) ToDomainRecord() *billing.UsageRecord {
	return &billing.UsageRecord{
		BaseEntity:  m.ToDomain(),
		LeaseID:     m.LeaseID,
		FeeID:       m.FeeID,
		PeriodMonth: m.PeriodMonth,
		Quantity:    m.Quantity,
		TotalAmount: m.TotalAmount,
		RecordedAt:  m.RecordedAt,
	}
}

// FromDomainRecord populates the persistence model from a domain UsageRecord
func (m *UsageRecordModel) FromDomainRecord(r *billing.UsageRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.LeaseID = r.LeaseID
	m.FeeID = r.FeeID
	m.PeriodMonth = r.PeriodMonth
	m.Quantity = r.Quantity
	m.TotalAmount = r.TotalAmount
	m.RecordedAt = r.RecordedAt
}

// InvoiceSequenceModel is the per-month invoice number counter.
// Rows are keyed by (year, month) and bumped atomically.
type InvoiceSequenceModel struct {
	Year  int   `gorm:"primaryKey"`
	Month int   `gorm:"primaryKey"`
	Value int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
