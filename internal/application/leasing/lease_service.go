package leasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

// LeaseService provides application-level lease management operations
type LeaseService struct {
	leaseRepo leasing.LeaseRepository
	logger    *zap.Logger
}

// NewLeaseService creates a new LeaseService
func NewLeaseService(leaseRepo leasing.LeaseRepository, logger *zap.Logger) *LeaseService {
	return &LeaseService{
		leaseRepo: leaseRepo,
		logger:    logger,
	}
}

// FeeResponse represents a fee definition in API responses
type FeeResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	BillingUnit string          `json:"billing_unit,omitempty"`
	IsActive    bool            `json:"is_active"`
}

// LeaseResponse represents a lease in API responses
type LeaseResponse struct {
	ID                 uuid.UUID       `json:"id"`
	PropertyID         uuid.UUID       `json:"property_id"`
	UnitID             uuid.UUID       `json:"unit_id"`
	LandlordID         uuid.UUID       `json:"landlord_id"`
	RenterID           uuid.UUID       `json:"renter_id"`
	RentAmount         decimal.Decimal `json:"rent_amount"`
	BillingDay         int             `json:"billing_day"`
	BillingCycleMonths int             `json:"billing_cycle_months"`
	DiscountType       string          `json:"discount_type,omitempty"`
	DiscountValue      decimal.Decimal `json:"discount_value"`
	Status             string          `json:"status"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	Fees               []FeeResponse   `json:"fees,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	Version            int             `json:"version"`
}

func toFeeResponse(f *leasing.Fee) FeeResponse {
	return FeeResponse{
		ID:          f.ID,
		Type:        string(f.Type),
		Name:        f.Name,
		Amount:      f.Amount,
		UnitPrice:   f.UnitPrice,
		BillingUnit: f.BillingUnit,
		IsActive:    f.IsActive,
	}
}

func toLeaseResponse(l *leasing.Lease) *LeaseResponse {
	fees := make([]FeeResponse, 0, len(l.Fees))
	for i := range l.Fees {
		fees = append(fees, toFeeResponse(&l.Fees[i]))
	}
	return &LeaseResponse{
		ID:                 l.ID,
		PropertyID:         l.PropertyID,
		UnitID:             l.UnitID,
		LandlordID:         l.LandlordID,
		RenterID:           l.RenterID,
		RentAmount:         l.RentAmount,
		BillingDay:         l.BillingDay,
		BillingCycleMonths: l.BillingCycleMonths,
		DiscountType:       string(l.DiscountType),
		DiscountValue:      l.DiscountValue,
		Status:             string(l.Status),
		StartDate:          l.StartDate,
		EndDate:            l.EndDate,
		Fees:               fees,
		CreatedAt:          l.CreatedAt,
		Version:            l.Version,
	}
}

// CreateLeaseRequest defines the payload for creating a lease
type CreateLeaseRequest struct {
	PropertyID         uuid.UUID       `json:"property_id" binding:"required"`
	UnitID             uuid.UUID       `json:"unit_id" binding:"required"`
	LandlordID         uuid.UUID       `json:"landlord_id" binding:"required"`
	RenterID           uuid.UUID       `json:"renter_id" binding:"required"`
	RentAmount         decimal.Decimal `json:"rent_amount" binding:"required"`
	BillingDay         int             `json:"billing_day" binding:"required,min=1,max=31"`
	BillingCycleMonths int             `json:"billing_cycle_months" binding:"required,min=1"`
	StartDate          time.Time       `json:"start_date" binding:"required"`
	EndDate            time.Time       `json:"end_date" binding:"required"`
}

// CreateLease creates a lease in DRAFT status
func (s *LeaseService) CreateLease(ctx context.Context, req CreateLeaseRequest) (*LeaseResponse, error) {
	rent := valueobject.NewMoneyUSD(req.RentAmount)
	lease, err := leasing.NewLease(
		req.PropertyID, req.UnitID, req.LandlordID, req.RenterID,
		rent, req.BillingDay, req.BillingCycleMonths,
		req.StartDate, req.EndDate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.leaseRepo.Save(ctx, lease); err != nil {
		return nil, err
	}

	s.logger.Info("lease created",
		zap.String("lease_id", lease.ID.String()),
		zap.String("unit_id", lease.UnitID.String()),
	)
	return toLeaseResponse(lease), nil
}

// GetLease retrieves a lease with its fees
func (s *LeaseService) GetLease(ctx context.Context, id uuid.UUID) (*LeaseResponse, error) {
	lease, err := s.leaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLeaseResponse(lease), nil
}

// ActivateLease moves a draft lease into ACTIVE status
func (s *LeaseService) ActivateLease(ctx context.Context, id uuid.UUID) (*LeaseResponse, error) {
	lease, err := s.leaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := lease.Activate(); err != nil {
		return nil, err
	}

	if err := s.leaseRepo.Update(ctx, lease); err != nil {
		return nil, err
	}

	s.logger.Info("lease activated", zap.String("lease_id", lease.ID.String()))
	return toLeaseResponse(lease), nil
}

// TerminateLeaseRequest defines the payload for ending a lease early
type TerminateLeaseRequest struct {
	EffectiveDate time.Time `json:"effective_date" binding:"required"`
}

// TerminateLease ends a lease early. Issued invoices are unaffected.
func (s *LeaseService) TerminateLease(ctx context.Context, id uuid.UUID, req TerminateLeaseRequest) (*LeaseResponse, error) {
	lease, err := s.leaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := lease.Terminate(req.EffectiveDate); err != nil {
		return nil, err
	}

	if err := s.leaseRepo.Update(ctx, lease); err != nil {
		return nil, err
	}

	s.logger.Info("lease terminated",
		zap.String("lease_id", lease.ID.String()),
		zap.Time("effective", req.EffectiveDate),
	)
	return toLeaseResponse(lease), nil
}

// SetDiscountRequest defines the payload for configuring a lease discount
type SetDiscountRequest struct {
	Type  string          `json:"type" binding:"required,oneof=PERCENT FIXED NONE"`
	Value decimal.Decimal `json:"value"`
}

// SetDiscount configures the lease-level discount
func (s *LeaseService) SetDiscount(ctx context.Context, id uuid.UUID, req SetDiscountRequest) (*LeaseResponse, error) {
	lease, err := s.leaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	discountType := leasing.DiscountType(req.Type)
	if req.Type == "NONE" {
		discountType = leasing.DiscountTypeNone
	}
	if err := lease.SetDiscount(discountType, req.Value); err != nil {
		return nil, err
	}

	if err := s.leaseRepo.Update(ctx, lease); err != nil {
		return nil, err
	}
	return toLeaseResponse(lease), nil
}

// AddFeeRequest defines the payload for attaching a fee to a lease
type AddFeeRequest struct {
	Type        string          `json:"type" binding:"required,oneof=FIXED VARIABLE"`
	Name        string          `json:"name" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	BillingUnit string          `json:"billing_unit"`
}

// AddFee attaches a fee definition to a lease
func (s *LeaseService) AddFee(ctx context.Context, leaseID uuid.UUID, req AddFeeRequest) (*FeeResponse, error) {
	if _, err := s.leaseRepo.FindByID(ctx, leaseID); err != nil {
		return nil, err
	}

	var (
		fee *leasing.Fee
		err error
	)
	switch leasing.FeeType(req.Type) {
	case leasing.FeeTypeFixed:
		fee, err = leasing.NewFixedFee(leaseID, req.Name, valueobject.NewMoneyUSD(req.Amount))
	case leasing.FeeTypeVariable:
		fee, err = leasing.NewVariableFee(leaseID, req.Name, valueobject.NewMoneyUSD(req.UnitPrice), req.BillingUnit)
	default:
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown fee type: "+req.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := s.leaseRepo.SaveFee(ctx, fee); err != nil {
		return nil, err
	}

	s.logger.Info("fee added",
		zap.String("lease_id", leaseID.String()),
		zap.String("fee", fee.Name),
		zap.String("type", string(fee.Type)),
	)
	resp := toFeeResponse(fee)
	return &resp, nil
}

// DeactivateFee excludes a fee from future invoices
func (s *LeaseService) DeactivateFee(ctx context.Context, leaseID, feeID uuid.UUID) error {
	fee, err := s.leaseRepo.FindFee(ctx, feeID)
	if err != nil {
		return err
	}
	if fee.LeaseID != leaseID {
		return shared.ErrNotFound
	}

	fee.Deactivate()
	return s.leaseRepo.SaveFee(ctx, fee)
}
