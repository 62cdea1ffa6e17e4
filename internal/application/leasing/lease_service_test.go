package leasing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
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

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validCreateRequest() CreateLeaseRequest {
	return CreateLeaseRequest{
		PropertyID:         uuid.New(),
		UnitID:             uuid.New(),
		LandlordID:         uuid.New(),
		RenterID:           uuid.New(),
		RentAmount:         decimal.NewFromInt(1800),
		BillingDay:         1,
		BillingCycleMonths: 1,
		StartDate:          date(2025, 3, 1),
		EndDate:            date(2026, 2, 28),
	}
}

func TestCreateLease(t *testing.T) {
	repo := new(MockLeaseRepository)
	svc := NewLeaseService(repo, zap.NewNop())

	repo.On("Save", mock.Anything, mock.AnythingOfType("*leasing.Lease")).Return(nil)

	resp, err := svc.CreateLease(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, "1800", resp.RentAmount.String())
	repo.AssertExpectations(t)
}

func TestCreateLease_InvalidBillingDay(t *testing.T) {
	repo := new(MockLeaseRepository)
	svc := NewLeaseService(repo, zap.NewNop())

	req := validCreateRequest()
	req.BillingDay = 32

	_, err := svc.CreateLease(context.Background(), req)
	require.Error(t, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestActivateLease(t *testing.T) {
	repo := new(MockLeaseRepository)
	svc := NewLeaseService(repo, zap.NewNop())
	lease, err := leasing.NewLease(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyUSD(decimal.NewFromInt(1800)),
		1, 1, date(2025, 3, 1), date(2026, 2, 28),
	)
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	repo.On("Update", mock.Anything, lease).Return(nil)

	resp, err := svc.ActivateLease(context.Background(), lease.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", resp.Status)

	// Activating twice is rejected by the state machine
	_, err = svc.ActivateLease(context.Background(), lease.ID)
	assert.Error(t, err)
}

func TestTerminateLease(t *testing.T) {
	repo := new(MockLeaseRepository)
	svc := NewLeaseService(repo, zap.NewNop())
	lease, err := leasing.NewLease(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyUSD(decimal.NewFromInt(1800)),
		1, 1, date(2025, 3, 1), date(2026, 2, 28),
	)
	require.NoError(t, err)
	require.NoError(t, lease.Activate())

	repo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	repo.On("Update", mock.Anything, lease).Return(nil)

	resp, err := svc.TerminateLease(context.Background(), lease.ID, TerminateLeaseRequest{
		EffectiveDate: date(2025, 9, 30),
	})
	require.NoError(t, err)

	assert.Equal(t, "TERMINATED", resp.Status)
	assert.Equal(t, date(2025, 9, 30), resp.EndDate)
}

func TestSetDiscount(t *testing.T) {
	repo := new(MockLeaseRepository)
	svc := NewLeaseService(repo, zap.NewNop())
	lease, err := leasing.NewLease(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyUSD(decimal.NewFromInt(1800)),
		1, 1, date(2025, 3, 1), date(2026, 2, 28),
	)
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	repo.On("Update", mock.Anything, lease).Return(nil)

	resp, err := svc.SetDiscount(context.Background(), lease.ID, SetDiscountRequest{
		Type: "PERCENT", Value: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "PERCENT", resp.DiscountType)
	assert.Equal(t, "5", resp.DiscountValue.String())
}

func TestAddFee(t *testing.T) {
	repo := new(MockLeaseRepository)
	svc := NewLeaseService(repo, zap.NewNop())
	lease, err := leasing.NewLease(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyUSD(decimal.NewFromInt(1800)),
		1, 1, date(2025, 3, 1), date(2026, 2, 28),
	)
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	repo.On("SaveFee", mock.Anything, mock.AnythingOfType("*leasing.Fee")).Return(nil)

	fixed, err := svc.AddFee(context.Background(), lease.ID, AddFeeRequest{
		Type: "FIXED", Name: "Parking", Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, "FIXED", fixed.Type)

	variable, err := svc.AddFee(context.Background(), lease.ID, AddFeeRequest{
		Type: "VARIABLE", Name: "Water", UnitPrice: decimal.RequireFromString("2.50"), BillingUnit: "m3",
	})
	require.NoError(t, err)
	assert.Equal(t, "VARIABLE", variable.Type)
	assert.Equal(t, "m3", variable.BillingUnit)
}

func TestDeactivateFee_WrongLease(t *testing.T) {
	repo := new(MockLeaseRepository)
	svc := NewLeaseService(repo, zap.NewNop())

	fee, err := leasing.NewFixedFee(uuid.New(), "Parking", valueobject.NewMoneyUSD(decimal.NewFromInt(50)))
	require.NoError(t, err)

	repo.On("FindFee", mock.Anything, fee.ID).Return(fee, nil)

	err = svc.DeactivateFee(context.Background(), uuid.New(), fee.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
