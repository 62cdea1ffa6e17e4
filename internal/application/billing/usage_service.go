package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
)

// UsageService provides application-level usage metering operations
type UsageService struct {
	leaseRepo leasing.LeaseRepository
	usageRepo billing.UsageRecordRepository
	logger    *zap.Logger
}

// NewUsageService creates a new UsageService
func NewUsageService(
	leaseRepo leasing.LeaseRepository,
	usageRepo billing.UsageRecordRepository,
	logger *zap.Logger,
) *UsageService {
	return &UsageService{
		leaseRepo: leaseRepo,
		usageRepo: usageRepo,
		logger:    logger,
	}
}

// UsageRecordResponse represents a usage record in API responses
type UsageRecordResponse struct {
	ID          uuid.UUID       `json:"id"`
	LeaseID     uuid.UUID       `json:"lease_id"`
	FeeID       uuid.UUID       `json:"fee_id"`
	PeriodMonth time.Time       `json:"period_month"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

func toUsageRecordResponse(rec *billing.UsageRecord) *UsageRecordResponse {
	return &UsageRecordResponse{
		ID:          rec.ID,
		LeaseID:     rec.LeaseID,
		FeeID:       rec.FeeID,
		PeriodMonth: rec.PeriodMonth,
		Quantity:    rec.Quantity,
		TotalAmount: rec.TotalAmount,
		RecordedAt:  rec.RecordedAt,
	}
}

// RecordUsageRequest is one meter reading submission
type RecordUsageRequest struct {
	LeaseID  uuid.UUID       `json:"lease_id" binding:"required"`
	FeeID    uuid.UUID       `json:"fee_id" binding:"required"`
	Period   time.Time       `json:"period" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// RecordUsage stores a meter reading for a variable fee. The reading is keyed
// by calendar month; a second reading for the same month replaces the first.
func (s *UsageService) RecordUsage(ctx context.Context, req RecordUsageRequest) (*UsageRecordResponse, error) {
	lease, err := s.leaseRepo.FindByID(ctx, req.LeaseID)
	if err != nil {
		return nil, err
	}

	fee := lease.FindFee(req.FeeID)
	if fee == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Fee not found on lease")
	}
	if !fee.IsMeterable() {
		return nil, shared.NewDomainError("INVALID_STATE", "Usage can only be recorded against variable fees")
	}

	record, err := billing.NewUsageRecord(req.LeaseID, req.FeeID, req.Period, req.Quantity, fee.UnitPrice)
	if err != nil {
		return nil, err
	}

	if err := s.usageRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("usage recorded",
		zap.String("lease_id", req.LeaseID.String()),
		zap.String("fee", fee.Name),
		zap.Time("period_month", record.PeriodMonth),
		zap.String("quantity", record.Quantity.String()),
		zap.String("total_amount", record.TotalAmount.String()),
	)
	return toUsageRecordResponse(record), nil
}

// BulkUsageFailure reports one reading that could not be stored
type BulkUsageFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BulkRecordUsageResult summarizes a bulk submission
type BulkRecordUsageResult struct {
	Recorded []UsageRecordResponse `json:"recorded"`
	Failures []BulkUsageFailure    `json:"failures,omitempty"`
}

// BulkRecordUsage stores a batch of readings. Bad readings are reported per
// index and do not block the rest of the batch.
func (s *UsageService) BulkRecordUsage(ctx context.Context, reqs []RecordUsageRequest) (*BulkRecordUsageResult, error) {
	result := &BulkRecordUsageResult{Recorded: []UsageRecordResponse{}}

	for i, req := range reqs {
		resp, err := s.RecordUsage(ctx, req)
		if err != nil {
			s.logger.Warn("bulk usage reading rejected",
				zap.Int("index", i),
				zap.String("lease_id", req.LeaseID.String()),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, BulkUsageFailure{Index: i, Error: err.Error()})
			continue
		}
		result.Recorded = append(result.Recorded, *resp)
	}
	return result, nil
}

// ListUsageForLease returns all readings for a lease ordered by month
func (s *UsageService) ListUsageForLease(ctx context.Context, leaseID uuid.UUID) ([]UsageRecordResponse, error) {
	if _, err := s.leaseRepo.FindByID(ctx, leaseID); err != nil {
		return nil, err
	}

	records, err := s.usageRepo.ListForLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}

	out := make([]UsageRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, *toUsageRecordResponse(&records[i]))
	}
	return out, nil
}
