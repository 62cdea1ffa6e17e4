package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rentora/backend/internal/domain/billing"
	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

// InvoiceService provides application-level invoicing operations
type InvoiceService struct {
	leaseRepo    leasing.LeaseRepository
	invoiceRepo  billing.InvoiceRepository
	usageRepo    billing.UsageRecordRepository
	sequenceRepo billing.InvoiceSequenceRepository
	logger       *zap.Logger
	graceDays    int
	now          func() time.Time
}

// InvoiceServiceOption is a functional option for configuring InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithGraceDays sets the number of days between issue date and due date
func WithGraceDays(days int) InvoiceServiceOption {
	return func(s *InvoiceService) {
		if days >= 0 {
			s.graceDays = days
		}
	}
}

// WithClock overrides the time source, used in tests
func WithClock(now func() time.Time) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.now = now
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	leaseRepo leasing.LeaseRepository,
	invoiceRepo billing.InvoiceRepository,
	usageRepo billing.UsageRecordRepository,
	sequenceRepo billing.InvoiceSequenceRepository,
	logger *zap.Logger,
	opts ...InvoiceServiceOption,
) *InvoiceService {
	s := &InvoiceService{
		leaseRepo:    leaseRepo,
		invoiceRepo:  invoiceRepo,
		usageRepo:    usageRepo,
		sequenceRepo: sequenceRepo,
		logger:       logger,
		graceDays:    7,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	FeeID       *uuid.UUID      `json:"fee_id,omitempty"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	InvoiceNumber  string                `json:"invoice_number"`
	LeaseID        uuid.UUID             `json:"lease_id"`
	RenterID       uuid.UUID             `json:"renter_id"`
	PeriodStart    time.Time             `json:"period_start"`
	PeriodEnd      time.Time             `json:"period_end"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	Status         string                `json:"status"`
	IssuedAt       time.Time             `json:"issued_at"`
	DueDate        time.Time             `json:"due_date"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	PaidAmount     decimal.Decimal       `json:"paid_amount"`
	PaymentMethod  string                `json:"payment_method,omitempty"`
	Items          []InvoiceItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	Version        int                   `json:"version"`
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ID:          item.ID,
			FeeID:       item.FeeID,
			Type:        string(item.Type),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return &InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		LeaseID:        inv.LeaseID,
		RenterID:       inv.RenterID,
		PeriodStart:    inv.PeriodStart,
		PeriodEnd:      inv.PeriodEnd,
		Subtotal:       inv.Subtotal,
		DiscountAmount: inv.DiscountAmount,
		TaxAmount:      inv.TaxAmount,
		TotalAmount:    inv.TotalAmount,
		Status:         string(inv.Status),
		IssuedAt:       inv.IssuedAt,
		DueDate:        inv.DueDate,
		PaidAt:         inv.PaidAt,
		PaidAmount:     inv.PaidAmount,
		PaymentMethod:  inv.PaymentMethod,
		Items:          items,
		CreatedAt:      inv.CreatedAt,
		Version:        inv.Version,
	}
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	LeaseID  *uuid.UUID `form:"lease_id"`
	RenterID *uuid.UUID `form:"renter_id"`
	Status   string     `form:"status"`
	FromDate *time.Time `form:"from_date"`
	ToDate   *time.Time `form:"to_date"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// InvoiceListResponse is a page of invoices
type InvoiceListResponse struct {
	Items      []InvoiceResponse `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// GenerateInvoiceForLease builds and persists the next invoice for a lease.
//
// Without a period override the billing period continues from the lease's most
// recent non-cancelled invoice, or starts at the lease start month for a lease
// never billed. The operation is idempotent per period: a second call for the
// same period returns DUPLICATE_INVOICE and leaves the first invoice intact.
func (s *InvoiceService) GenerateInvoiceForLease(ctx context.Context, leaseID uuid.UUID, periodOverride *billing.Period) (*InvoiceResponse, error) {
	lease, err := s.leaseRepo.FindByID(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if !lease.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only active leases can be invoiced")
	}

	period, err := s.resolvePeriod(ctx, lease, periodOverride)
	if err != nil {
		return nil, err
	}

	// Fast-path duplicate check; the partial unique index on the invoices
	// table is the real guarantee under concurrency.
	if _, err := s.invoiceRepo.FindByLeaseAndPeriod(ctx, lease.ID, period); err == nil {
		return nil, shared.ErrDuplicateInvoice
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	invoice, err := s.buildInvoice(ctx, lease, period)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice generated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("lease_id", lease.ID.String()),
		zap.String("period", period.String()),
		zap.String("total", invoice.TotalAmount.StringFixed(2)),
	)
	return toInvoiceResponse(invoice), nil
}

// resolvePeriod picks the billing period: the explicit override if given,
// otherwise the next period after the lease's most recent invoice.
func (s *InvoiceService) resolvePeriod(ctx context.Context, lease *leasing.Lease, override *billing.Period) (billing.Period, error) {
	if override != nil {
		return billing.NewPeriod(override.Start, override.End)
	}

	var lastEnd *time.Time
	recent, err := s.invoiceRepo.FindMostRecentForLease(ctx, lease.ID)
	switch {
	case err == nil:
		end := recent.PeriodEnd
		lastEnd = &end
	case errors.Is(err, shared.ErrNotFound):
		// First invoice for this lease
	default:
		return billing.Period{}, err
	}

	return billing.NextPeriod(lease.StartDate, lease.EndDate, lease.BillingCycleMonths, lastEnd)
}

// buildInvoice assembles the invoice lines in a fixed order: rent, fixed fees,
// variable fees, then the discount.
func (s *InvoiceService) buildInvoice(ctx context.Context, lease *leasing.Lease, period billing.Period) (*billing.Invoice, error) {
	issuedAt := s.now()
	dueDate := issuedAt.AddDate(0, 0, s.graceDays)

	seq, err := s.sequenceRepo.Next(ctx, issuedAt.Year(), issuedAt.Month())
	if err != nil {
		return nil, err
	}
	number := billing.FormatInvoiceNumber(issuedAt.Year(), issuedAt.Month(), seq)

	invoice, err := billing.NewInvoice(number, lease, period, issuedAt, dueDate)
	if err != nil {
		return nil, err
	}

	months := billing.MonthsBetween(period.Start, period.End) + 1
	if err := invoice.AddRentLine(lease.GetRentMoney(), months); err != nil {
		return nil, err
	}

	for _, fee := range lease.ActiveFees() {
		f := fee
		switch {
		case f.Type == leasing.FeeTypeFixed:
			if err := invoice.AddFixedFeeLine(&f, months); err != nil {
				return nil, err
			}
		case f.IsVariable():
			usage, amount, err := s.totalUsage(ctx, lease.ID, &f, period)
			if err != nil {
				return nil, err
			}
			// Variable fees with no recorded usage produce no line
			if usage.IsPositive() {
				if err := invoice.AddVariableFeeLine(&f, usage, amount); err != nil {
					return nil, err
				}
			}
		}
	}

	if lease.HasDiscount() {
		amount, err := billing.CalculateDiscount(invoice.GetSubtotalMoney(), lease.DiscountType, lease.DiscountValue)
		if err != nil {
			return nil, err
		}
		if amount.IsPositive() {
			if err := invoice.ApplyDiscount(discountDescription(lease), amount); err != nil {
				return nil, err
			}
		}
	}

	invoice.AddDomainEvent(billing.NewInvoiceGeneratedEvent(invoice))
	return invoice, nil
}

// totalUsage sums the fee's usage records across the months the period covers.
// The charge comes from each record's stored amount so that unit-price changes
// after a reading was taken do not shift the billed total.
func (s *InvoiceService) totalUsage(ctx context.Context, leaseID uuid.UUID, fee *leasing.Fee, period billing.Period) (decimal.Decimal, decimal.Decimal, error) {
	from, to := period.MonthWindow()
	records, err := s.usageRepo.FindForFeeInRange(ctx, leaseID, fee.ID, from, to)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	quantity := decimal.Zero
	amount := decimal.Zero
	for _, rec := range records {
		quantity = quantity.Add(rec.Quantity)
		amount = amount.Add(rec.TotalAmount)
	}
	return quantity, amount, nil
}

func discountDescription(lease *leasing.Lease) string {
	if lease.DiscountType == leasing.DiscountTypePercent {
		return "Discount (" + lease.DiscountValue.String() + "%)"
	}
	return "Discount"
}

// GetInvoice retrieves an invoice with its items
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter) (*InvoiceListResponse, error) {
	domainFilter := billing.InvoiceFilter{
		Filter:   shared.DefaultFilter(),
		LeaseID:  filter.LeaseID,
		RenterID: filter.RenterID,
		From:     filter.FromDate,
		To:       filter.ToDate,
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown invoice status: "+filter.Status)
		}
		domainFilter.Status = &status
	}

	page, err := s.invoiceRepo.List(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceResponse, 0, len(page.Items))
	for _, inv := range page.Items {
		items = append(items, *toInvoiceResponse(inv))
	}
	return &InvoiceListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// MarkInvoiceAsPaid records a full payment against an invoice
func (s *InvoiceService) MarkInvoiceAsPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	paid := valueobject.NewMoneyUSD(amount)
	if err := invoice.MarkPaid(paid, method, s.now()); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice paid",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("amount", invoice.PaidAmount.StringFixed(2)),
		zap.String("method", method),
	)
	return toInvoiceResponse(invoice), nil
}

// CancelInvoice voids an invoice, freeing its period for re-billing
func (s *InvoiceService) CancelInvoice(ctx context.Context, id uuid.UUID, reason string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := invoice.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice cancelled",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("reason", reason),
	)
	return toInvoiceResponse(invoice), nil
}

// UpdateOverdueInvoices flags every unpaid invoice past its due date as
// OVERDUE and returns the number of invoices transitioned. Safe to run
// repeatedly; already-overdue invoices are not touched.
func (s *InvoiceService) UpdateOverdueInvoices(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.invoiceRepo.FindDueForOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, invoice := range due {
		if err := invoice.MarkOverdue(now); err != nil {
			// Raced with a payment or another sweep; skip
			continue
		}
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			s.logger.Error("failed to mark invoice overdue",
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.Error(err),
			)
			continue
		}
		count++
	}

	if count > 0 {
		s.logger.Info("overdue sweep finished", zap.Int("flagged", count))
	}
	return count, nil
}
