package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/leasing"
)

// LeaseModel is the persistence model for the Lease aggregate root
type LeaseModel struct {
	AggregateModel
	PropertyID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	UnitID             uuid.UUID            `gorm:"type:uuid;not null;index"`
	LandlordID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	RenterID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	RentAmount         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	BillingDay         int                  `gorm:"not null;index:idx_leases_status_billing_day,priority:2"`
	BillingCycleMonths int                  `gorm:"not null;default:1"`
	DiscountType       leasing.DiscountType `gorm:"type:varchar(20)"`
	DiscountValue      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Status             leasing.LeaseStatus  `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_leases_status_billing_day,priority:1"`
	StartDate          time.Time            `gorm:"type:date;not null"`
	EndDate            time.Time            `gorm:"type:date;not null"`
	Fees               []FeeModel           `gorm:"foreignKey:LeaseID;references:ID"`
}

// TableName returns the table name for GORM
func (LeaseModel) TableName() string {
	return "leases"
}

// ToDomain converts the persistence model to a domain Lease
func (m *LeaseModel) ToDomain() *leasing.Lease {
	fees := make([]leasing.Fee, len(m.Fees))
	for i := range m.Fees {
		fees[i] = *m.Fees[i].ToDomainFee()
	}
	return &leasing.Lease{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		PropertyID:         m.PropertyID,
		UnitID:             m.UnitID,
		LandlordID:         m.LandlordID,
		RenterID:           m.RenterID,
		RentAmount:         m.RentAmount,
		BillingDay:         m.BillingDay,
		BillingCycleMonths: m.BillingCycleMonths,
		DiscountType:       m.DiscountType,
		DiscountValue:      m.DiscountValue,
		Status:             m.Status,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		Fees:               fees,
	}
}

// FromDomain populates the persistence model from a domain Lease
func (m *LeaseModel) FromDomain(l *leasing.Lease) {
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	m.PropertyID = l.PropertyID
	m.UnitID = l.UnitID
	m.LandlordID = l.LandlordID
	m.RenterID = l.RenterID
	m.RentAmount = l.RentAmount
	m.BillingDay = l.BillingDay
	m.BillingCycleMonths = l.BillingCycleMonths
	m.DiscountType = l.DiscountType
	m.DiscountValue = l.DiscountValue
	m.Status = l.Status
	m.StartDate = l.StartDate
	m.EndDate = l.EndDate
	m.Fees = make([]FeeModel, len(l.Fees))
	for i := range l.Fees {
		m.Fees[i].FromDomainFee(&l.Fees[i])
	}
}

// LeaseModelFromDomain creates a new persistence model from a domain Lease
func LeaseModelFromDomain(l *leasing.Lease) *LeaseModel {
	m := &LeaseModel{}
	m.FromDomain(l)
	return m
}

// FeeModel is the persistence model for fee definitions
type FeeModel struct {
	BaseModel
	LeaseID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        leasing.FeeType `gorm:"type:varchar(20);not null"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BillingUnit string          `gorm:"type:varchar(50)"`
	IsActive    bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (FeeModel) TableName() string {
	return "fees"
}

// ToDomainFee converts the persistence model to a domain Fee
func (m *FeeModel) ToDomainFee() *leasing.Fee {
	return &leasing.Fee{
		BaseEntity:  m.ToDomain(),
		LeaseID:     m.LeaseID,
		Type:        m.Type,
		Name:        m.Name,
		Amount:      m.Amount,
		UnitPrice:   m.UnitPrice,
		BillingUnit: m.BillingUnit,
		IsActive:    m.IsActive,
	}
}

// FromDomainFee populates the persistence model from a domain Fee
func (m *FeeModel) FromDomainFee(f *leasing.Fee) {
	m.FromDomainBaseEntity(f.BaseEntity)
	m.LeaseID = f.LeaseID
	m.Type = f.Type
	m.Name = f.Name
	m.Amount = f.Amount
	m.UnitPrice = f.UnitPrice
	m.BillingUnit = f.BillingUnit
	m.IsActive = f.IsActive
}
