package leasing

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentora/backend/internal/domain/shared"
)

// Event types for the lease aggregate
const (
	EventTypeLeaseActivated  = "lease.activated"
	EventTypeLeaseTerminated = "lease.terminated"
)

// AggregateTypeLease is the aggregate type name used in events
const AggregateTypeLease = "Lease"

// LeaseActivatedEvent is emitted when a lease becomes billable
type LeaseActivatedEvent struct {
	shared.BaseDomainEvent
	UnitID    uuid.UUID `json:"unit_id"`
	RenterID  uuid.UUID `json:"renter_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// NewLeaseActivatedEvent creates a new lease activated event
func NewLeaseActivatedEvent(l *Lease) *LeaseActivatedEvent {
	return &LeaseActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeaseActivated, AggregateTypeLease, l.ID),
		UnitID:          l.UnitID,
		RenterID:        l.RenterID,
		StartDate:       l.StartDate,
		EndDate:         l.EndDate,
	}
}

// LeaseTerminatedEvent is emitted when a lease is ended early
type LeaseTerminatedEvent struct {
	shared.BaseDomainEvent
	UnitID  uuid.UUID `json:"unit_id"`
	EndDate time.Time `json:"end_date"`
}

// NewLeaseTerminatedEvent creates a new lease terminated event
func NewLeaseTerminatedEvent(l *Lease) *LeaseTerminatedEvent {
	return &LeaseTerminatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeaseTerminated, AggregateTypeLease, l.ID),
		UnitID:          l.UnitID,
		EndDate:         l.EndDate,
	}
}
