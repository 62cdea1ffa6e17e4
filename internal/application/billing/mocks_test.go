package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
)

// MockLeaseRepository is a mock implementation of leasing.LeaseRepository
type MockLeaseRepository struct {
	mock.Mock
}

func (m *MockLeaseRepository) Save(ctx context.Context, lease *leasing.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

func (m *MockLeaseRepository) Update(ctx context.Context, lease *leasing.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

func (m *MockLeaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Lease), args.Error(1)
}

func (m *MockLeaseRepository) FindActiveBillableOn(ctx context.Context, dayOfMonth int) ([]*leasing.Lease, error) {
	args := m.Called(ctx, dayOfMonth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leasing.Lease), args.Error(1)
}

func (m *MockLeaseRepository) FindActiveFees(ctx context.Context, leaseID uuid.UUID) ([]leasing.Fee, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leasing.Fee), args.Error(1)
}

func (m *MockLeaseRepository) SaveFee(ctx context.Context, fee *leasing.Fee) error {
	args := m.Called(ctx, fee)
	return args.Error(0)
}

func (m *MockLeaseRepository) FindFee(ctx context.Context, feeID uuid.UUID) (*leasing.Fee, error) {
	args := m.Called(ctx, feeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Fee), args.Error(1)
}

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByLeaseAndPeriod(ctx context.Context, leaseID uuid.UUID, period billing.Period) (*billing.Invoice, error) {
	args := m.Called(ctx, leaseID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindMostRecentForLease(ctx context.Context, leaseID uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, filter billing.InvoiceFilter) (*shared.Paginated[*billing.Invoice], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.Invoice]), args.Error(1)
}

func (m *MockInvoiceRepository) FindDueForOverdue(ctx context.Context, now time.Time) ([]*billing.Invoice, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

// MockUsageRecordRepository is a mock implementation of billing.UsageRecordRepository
type MockUsageRecordRepository struct {
	mock.Mock
}

func (m *MockUsageRecordRepository) Upsert(ctx context.Context, record *billing.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRecordRepository) FindForFeeInRange(ctx context.Context, leaseID, feeID uuid.UUID, from, to time.Time) ([]billing.UsageRecord, error) {
	args := m.Called(ctx, leaseID, feeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.UsageRecord), args.Error(1)
}

func (m *MockUsageRecordRepository) ListForLease(ctx context.Context, leaseID uuid.UUID) ([]billing.UsageRecord, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.UsageRecord), args.Error(1)
}

// MockInvoiceSequenceRepository is a mock implementation of billing.InvoiceSequenceRepository
type MockInvoiceSequenceRepository struct {
	mock.Mock
}

func (m *MockInvoiceSequenceRepository) Next(ctx context.Context, year int, month time.Month) (int64, error) {
	args := m.Called(ctx, year, month)
	return args.Get(0).(int64), args.Error(1)
}
