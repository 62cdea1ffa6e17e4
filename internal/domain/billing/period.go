package billing

import (
	"fmt"
	"time"

	"github.com/rentora/backend/internal/domain/shared"
)

// Period is the inclusive date range an invoice covers
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod creates a period after validating its bounds
func NewPeriod(start, end time.Time) (Period, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Period end cannot be before period start")
	}
	return Period{Start: start, End: end}, nil
}

// String renders the period as "2025-02-01..2025-04-30"
func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// Contains returns true if the given date falls inside the period
func (p Period) Contains(t time.Time) bool {
	t = truncateToDay(t)
	return !t.Before(p.Start) && !t.After(p.End)
}

// Overlaps returns true if the two periods share at least one day
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Equal returns true if both periods cover exactly the same range
func (p Period) Equal(other Period) bool {
	return p.Start.Equal(other.Start) && p.End.Equal(other.End)
}

// MonthWindow returns the period's bounds normalized to month starts, the
// range usage records are matched against when building variable fee lines.
func (p Period) MonthWindow() (time.Time, time.Time) {
	return FirstDayOfMonth(p.Start), FirstDayOfMonth(p.End)
}

// NextPeriod computes the billing period for a lease's next invoice.
//
// The first invoice starts at the first day of the lease start month, even if
// the lease starts mid-month; subsequent periods start one day after the
// previous invoice's period end, which makes successive periods contiguous and
// non-overlapping by construction. The end is the last day of the month
// (cycleMonths - 1) months after the start, clamped to the lease end date.
func NextPeriod(leaseStart, leaseEnd time.Time, cycleMonths int, lastPeriodEnd *time.Time) (Period, error) {
	if cycleMonths < 1 {
		return Period{}, shared.NewDomainError("INVALID_BILLING_CYCLE", "Billing cycle must be at least one month")
	}

	var start time.Time
	if lastPeriodEnd != nil {
		start = truncateToDay(*lastPeriodEnd).AddDate(0, 0, 1)
	} else {
		start = FirstDayOfMonth(leaseStart)
	}

	end := LastDayOfMonth(start.AddDate(0, cycleMonths-1, 0))
	leaseEnd = truncateToDay(leaseEnd)
	if end.After(leaseEnd) {
		end = leaseEnd
	}

	if end.Before(start) {
		return Period{}, shared.NewDomainError("LEASE_EXHAUSTED", "Lease has no remaining billable period")
	}

	return Period{Start: start, End: end}, nil
}

// FirstDayOfMonth returns midnight on the first day of t's month
func FirstDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// LastDayOfMonth returns midnight on the last day of t's month
func LastDayOfMonth(t time.Time) time.Time {
	return FirstDayOfMonth(t).AddDate(0, 1, -1)
}

// MonthsBetween returns the whole calendar months from a's month to b's month.
// Negative when b is in an earlier month than a.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
