package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	billingapp "github.com/rentora/backend/internal/application/billing"
	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

// MockLeaseRepository implements leasing.LeaseRepository for testing
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

// MockInvoiceRepository implements billing.InvoiceRepository for testing
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

// MockUsageRecordRepository implements billing.UsageRecordRepository for testing
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

// MockInvoiceSequenceRepository implements billing.InvoiceSequenceRepository for testing
type MockInvoiceSequenceRepository struct {
	mock.Mock
}

func (m *MockInvoiceSequenceRepository) Next(ctx context.Context, year int, month time.Month) (int64, error) {
	args := m.Called(ctx, year, month)
	return args.Get(0).(int64), args.Error(1)
}

type invoiceHandlerFixture struct {
	leaseRepo    *MockLeaseRepository
	invoiceRepo  *MockInvoiceRepository
	usageRepo    *MockUsageRecordRepository
	sequenceRepo *MockInvoiceSequenceRepository
	router       *gin.Engine
}

func newInvoiceHandlerFixture(t *testing.T) *invoiceHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &invoiceHandlerFixture{
		leaseRepo:    new(MockLeaseRepository),
		invoiceRepo:  new(MockInvoiceRepository),
		usageRepo:    new(MockUsageRecordRepository),
		sequenceRepo: new(MockInvoiceSequenceRepository),
	}

	invoiceSvc := billingapp.NewInvoiceService(
		f.leaseRepo, f.invoiceRepo, f.usageRepo, f.sequenceRepo, zap.NewNop(),
	)
	runSvc := billingapp.NewBillingRunService(
		f.leaseRepo, f.invoiceRepo, invoiceSvc, zap.NewNop(),
	)

	handler := NewInvoiceHandler(invoiceSvc, runSvc)
	f.router = gin.New()
	api := f.router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return f
}

func activeTestLease(t *testing.T) *leasing.Lease {
	t.Helper()
	lease, err := leasing.NewLease(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyUSD(decimal.NewFromInt(2000)), 1, 1,
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.NoError(t, lease.Activate())
	return lease
}

func paidableInvoice(t *testing.T, lease *leasing.Lease) *billing.Invoice {
	t.Helper()
	period, err := billing.NewPeriod(
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	issued := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	inv, err := billing.NewInvoice("INV-202503-0001", lease, period, issued, issued.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 1))
	return inv
}

func performJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInvoiceHandler_Generate(t *testing.T) {
	f := newInvoiceHandlerFixture(t)
	lease := activeTestLease(t)

	f.leaseRepo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	f.invoiceRepo.On("FindMostRecentForLease", mock.Anything, lease.ID).Return(nil, shared.ErrNotFound)
	f.invoiceRepo.On("FindByLeaseAndPeriod", mock.Anything, lease.ID, mock.Anything).Return(nil, shared.ErrNotFound)
	f.sequenceRepo.On("Next", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/invoices", gin.H{
		"lease_id": lease.ID,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			InvoiceNumber string `json:"invoice_number"`
			Status        string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.InvoiceNumber)
	assert.Equal(t, "UNPAID", resp.Data.Status)
}

func TestInvoiceHandler_Generate_DuplicateConflict(t *testing.T) {
	f := newInvoiceHandlerFixture(t)
	lease := activeTestLease(t)
	existing := paidableInvoice(t, lease)

	f.leaseRepo.On("FindByID", mock.Anything, lease.ID).Return(lease, nil)
	f.invoiceRepo.On("FindMostRecentForLease", mock.Anything, lease.ID).Return(nil, shared.ErrNotFound)
	f.invoiceRepo.On("FindByLeaseAndPeriod", mock.Anything, lease.ID, mock.Anything).Return(existing, nil)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/invoices", gin.H{
		"lease_id": lease.ID,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_DUPLICATE_INVOICE")
	f.invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Generate_InvalidBody(t *testing.T) {
	f := newInvoiceHandlerFixture(t)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/invoices", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_Generate_HalfOpenPeriodRejected(t *testing.T) {
	f := newInvoiceHandlerFixture(t)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/invoices", gin.H{
		"lease_id":     uuid.New(),
		"period_start": "2025-03-01T00:00:00Z",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_GetByID_NotFound(t *testing.T) {
	f := newInvoiceHandlerFixture(t)
	id := uuid.New()

	f.invoiceRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := performJSON(f.router, http.MethodGet, "/api/v1/billing/invoices/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestInvoiceHandler_GetByID_InvalidUUID(t *testing.T) {
	f := newInvoiceHandlerFixture(t)

	w := performJSON(f.router, http.MethodGet, "/api/v1/billing/invoices/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_Pay(t *testing.T) {
	f := newInvoiceHandlerFixture(t)
	lease := activeTestLease(t)
	inv := paidableInvoice(t, lease)

	f.invoiceRepo.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoiceRepo.On("Update", mock.Anything, inv).Return(nil)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/invoices/"+inv.ID.String()+"/pay", gin.H{
		"amount": inv.TotalAmount,
		"method": "BANK_TRANSFER",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"PAID"`)
}

func TestInvoiceHandler_Pay_DifferingAmountStillSettles(t *testing.T) {
	// The recorded amount is informational; a single payment call settles
	// the invoice even when the tendered amount differs from the total.
	f := newInvoiceHandlerFixture(t)
	lease := activeTestLease(t)
	inv := paidableInvoice(t, lease)

	f.invoiceRepo.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	f.invoiceRepo.On("Update", mock.Anything, inv).Return(nil)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/invoices/"+inv.ID.String()+"/pay", gin.H{
		"amount": "1.00",
		"method": "CASH",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"PAID"`)
	assert.Contains(t, w.Body.String(), `"paid_amount":"1"`)
}

func TestInvoiceHandler_List(t *testing.T) {
	f := newInvoiceHandlerFixture(t)
	lease := activeTestLease(t)
	inv := paidableInvoice(t, lease)

	page := shared.NewPaginated([]*billing.Invoice{inv}, 1, 1, 20)
	f.invoiceRepo.On("List", mock.Anything, mock.Anything).Return(&page, nil)

	w := performJSON(f.router, http.MethodGet, "/api/v1/billing/invoices?lease_id="+lease.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
		Meta    struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestInvoiceHandler_RunBilling(t *testing.T) {
	f := newInvoiceHandlerFixture(t)

	f.leaseRepo.On("FindActiveBillableOn", mock.Anything, mock.Anything).Return([]*leasing.Lease{}, nil)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/runs", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"matched":0`)
}

func TestInvoiceHandler_SweepOverdue(t *testing.T) {
	f := newInvoiceHandlerFixture(t)

	f.invoiceRepo.On("FindDueForOverdue", mock.Anything, mock.Anything).Return([]*billing.Invoice{}, nil)

	w := performJSON(f.router, http.MethodPost, "/api/v1/billing/overdue-sweeps", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"flagged":0`)
}
