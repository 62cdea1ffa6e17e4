package billing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
)

// BillingRunService drives the scheduled batch run that invoices every lease
// whose billing day matches the current date.
type BillingRunService struct {
	leaseRepo   leasing.LeaseRepository
	invoiceRepo billing.InvoiceRepository
	invoiceSvc  *InvoiceService
	logger      *zap.Logger
	now         func() time.Time
}

// BillingRunServiceOption is a functional option for configuring BillingRunService
type BillingRunServiceOption func(*BillingRunService)

// WithRunClock overrides the time source, used in tests
func WithRunClock(now func() time.Time) BillingRunServiceOption {
	return func(s *BillingRunService) {
		s.now = now
	}
}

// NewBillingRunService creates a new BillingRunService
func NewBillingRunService(
	leaseRepo leasing.LeaseRepository,
	invoiceRepo billing.InvoiceRepository,
	invoiceSvc *InvoiceService,
	logger *zap.Logger,
	opts ...BillingRunServiceOption,
) *BillingRunService {
	s := &BillingRunService{
		leaseRepo:   leaseRepo,
		invoiceRepo: invoiceRepo,
		invoiceSvc:  invoiceSvc,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LeaseFailure reports one lease the run could not invoice
type LeaseFailure struct {
	LeaseID string `json:"lease_id"`
	Error   string `json:"error"`
}

// BillingRunResult summarizes one batch run
type BillingRunResult struct {
	RunDate   time.Time         `json:"run_date"`
	Matched   int               `json:"matched"`
	Generated []InvoiceResponse `json:"generated"`
	Skipped   int               `json:"skipped"`
	Failures  []LeaseFailure    `json:"failures,omitempty"`
}

// GenerateInvoicesForToday invoices every active lease whose billing day
// equals today's day of month and whose next billing cycle has come due.
//
// A lease is skipped, not failed, when its current cycle has already been
// invoiced or the lease has no billable period left. One lease's failure
// never aborts the run; errors are collected per lease and the rest of the
// batch proceeds.
func (s *BillingRunService) GenerateInvoicesForToday(ctx context.Context) (*BillingRunResult, error) {
	today := s.now()
	leases, err := s.leaseRepo.FindActiveBillableOn(ctx, today.Day())
	if err != nil {
		return nil, err
	}

	result := &BillingRunResult{
		RunDate:   today,
		Matched:   len(leases),
		Generated: []InvoiceResponse{},
	}

	for _, lease := range leases {
		due, err := s.cycleDue(ctx, lease, today)
		if err != nil {
			s.recordFailure(result, lease, err)
			continue
		}
		if !due {
			result.Skipped++
			continue
		}

		resp, err := s.invoiceSvc.GenerateInvoiceForLease(ctx, lease.ID, nil)
		if err != nil {
			// Another run already billed this period; treat as a skip
			if errors.Is(err, shared.ErrDuplicateInvoice) {
				result.Skipped++
				continue
			}
			s.recordFailure(result, lease, err)
			continue
		}
		result.Generated = append(result.Generated, *resp)
	}

	s.logger.Info("billing run finished",
		zap.Time("run_date", today),
		zap.Int("matched", result.Matched),
		zap.Int("generated", len(result.Generated)),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// cycleDue reports whether a full billing cycle has elapsed since the end of
// the lease's last invoiced period. A quarterly lease matches its billing day
// every month but is only due again three months after the covered period
// ended; anything earlier is a rerun or retry and must not bill.
func (s *BillingRunService) cycleDue(ctx context.Context, lease *leasing.Lease, today time.Time) (bool, error) {
	recent, err := s.invoiceRepo.FindMostRecentForLease(ctx, lease.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return billing.MonthsBetween(recent.PeriodEnd, today) >= lease.BillingCycleMonths, nil
}

func (s *BillingRunService) recordFailure(result *BillingRunResult, lease *leasing.Lease, err error) {
	s.logger.Error("billing run failed for lease",
		zap.String("lease_id", lease.ID.String()),
		zap.Error(err),
	)
	result.Failures = append(result.Failures, LeaseFailure{
		LeaseID: lease.ID.String(),
		Error:   err.Error(),
	})
}
