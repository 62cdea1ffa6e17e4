package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

type usageServiceFixture struct {
	leaseRepo *MockLeaseRepository
	usageRepo *MockUsageRecordRepository
	svc       *UsageService
}

func newUsageServiceFixture() *usageServiceFixture {
	f := &usageServiceFixture{
		leaseRepo: new(MockLeaseRepository),
		usageRepo: new(MockUsageRecordRepository),
	}
	f.svc = NewUsageService(f.leaseRepo, f.usageRepo, zap.NewNop())
	return f
}

func meteredLease(t *testing.T) (*leasing.Lease, *leasing.Fee) {
	t.Helper()
	lease := activeLease(t, 1)
	fee, err := leasing.NewVariableFee(lease.ID, "Water",
		valueobject.NewMoneyUSD(decimal.RequireFromString("2.50")), "m3")
	require.NoError(t, err)
	lease.Fees = []leasing.Fee{*fee}
	return lease, fee
}

func TestRecordUsage_NormalizesToMonth(t *testing.T) {
	f := newUsageServiceFixture()
	lease, fee := meteredLease(t)

	f.leaseRepo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	f.usageRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*billing.UsageRecord")).Return(nil)

	resp, err := f.svc.RecordUsage(context.Background(), RecordUsageRequest{
		LeaseID:  lease.ID,
		FeeID:    fee.ID,
		Period:   date(2025, 3, 17),
		Quantity: decimal.RequireFromString("42.7"),
	})
	require.NoError(t, err)

	assert.Equal(t, date(2025, 3, 1), resp.PeriodMonth)
	assert.Equal(t, "42.7", resp.Quantity.String())
	assert.Equal(t, "106.75", resp.TotalAmount.StringFixed(2))
	f.usageRepo.AssertExpectations(t)
}

func TestRecordUsage_LeaseNotFound(t *testing.T) {
	f := newUsageServiceFixture()
	id := uuid.New()
	f.leaseRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := f.svc.RecordUsage(context.Background(), RecordUsageRequest{
		LeaseID: id, FeeID: uuid.New(), Period: date(2025, 3, 1), Quantity: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordUsage_UnknownFee(t *testing.T) {
	f := newUsageServiceFixture()
	lease, _ := meteredLease(t)

	f.leaseRepo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)

	_, err := f.svc.RecordUsage(context.Background(), RecordUsageRequest{
		LeaseID: lease.ID, FeeID: uuid.New(), Period: date(2025, 3, 1), Quantity: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestRecordUsage_FixedFeeRejected(t *testing.T) {
	f := newUsageServiceFixture()
	lease := activeLease(t, 1)
	fee, err := leasing.NewFixedFee(lease.ID, "Parking", valueobject.NewMoneyUSD(decimal.NewFromInt(50)))
	require.NoError(t, err)
	lease.Fees = []leasing.Fee{*fee}

	f.leaseRepo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)

	_, err = f.svc.RecordUsage(context.Background(), RecordUsageRequest{
		LeaseID: lease.ID, FeeID: fee.ID, Period: date(2025, 3, 1), Quantity: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	f.usageRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestBulkRecordUsage_BadReadingDoesNotBlockBatch(t *testing.T) {
	f := newUsageServiceFixture()
	lease, fee := meteredLease(t)

	f.leaseRepo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	f.usageRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.BulkRecordUsage(context.Background(), []RecordUsageRequest{
		{LeaseID: lease.ID, FeeID: fee.ID, Period: date(2025, 3, 1), Quantity: decimal.NewFromInt(10)},
		{LeaseID: lease.ID, FeeID: uuid.New(), Period: date(2025, 3, 1), Quantity: decimal.NewFromInt(5)},
		{LeaseID: lease.ID, FeeID: fee.ID, Period: date(2025, 4, 1), Quantity: decimal.NewFromInt(12)},
	})
	require.NoError(t, err)

	assert.Len(t, result.Recorded, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
}

func TestListUsageForLease(t *testing.T) {
	f := newUsageServiceFixture()
	lease, fee := meteredLease(t)

	records := []billing.UsageRecord{
		{LeaseID: lease.ID, FeeID: fee.ID, PeriodMonth: date(2025, 2, 1), Quantity: decimal.NewFromInt(8)},
		{LeaseID: lease.ID, FeeID: fee.ID, PeriodMonth: date(2025, 3, 1), Quantity: decimal.NewFromInt(11)},
	}
	f.leaseRepo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	f.usageRepo.On("ListForLease", mock.Anything, lease.ID).Return(records, nil)

	out, err := f.svc.ListUsageForLease(context.Background(), lease.ID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, date(2025, 2, 1), out[0].PeriodMonth)
}
