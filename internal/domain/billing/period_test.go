package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextPeriod_FirstInvoiceSnapsToMonthStart(t *testing.T) {
	// Lease starting mid-month bills from the first of that month
	p, err := NextPeriod(date(2025, 2, 15), date(2026, 1, 31), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 1), p.Start)
	assert.Equal(t, date(2025, 2, 28), p.End)
}

func TestNextPeriod_MultiMonthCycle(t *testing.T) {
	p, err := NextPeriod(date(2025, 2, 15), date(2026, 1, 31), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 1), p.Start)
	assert.Equal(t, date(2025, 4, 30), p.End)
}

func TestNextPeriod_ContinuesFromLastPeriodEnd(t *testing.T) {
	last := date(2025, 4, 30)
	p, err := NextPeriod(date(2025, 2, 15), date(2026, 1, 31), 3, &last)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 5, 1), p.Start)
	assert.Equal(t, date(2025, 7, 31), p.End)
}

func TestNextPeriod_ClampsToLeaseEnd(t *testing.T) {
	last := date(2025, 10, 31)
	p, err := NextPeriod(date(2025, 2, 15), date(2025, 12, 15), 3, &last)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 11, 1), p.Start)
	assert.Equal(t, date(2025, 12, 15), p.End)
}

func TestNextPeriod_LeaseExhausted(t *testing.T) {
	last := date(2025, 12, 15)
	_, err := NextPeriod(date(2025, 2, 15), date(2025, 12, 15), 1, &last)
	assert.Error(t, err)
}

func TestNextPeriod_InvalidCycle(t *testing.T) {
	_, err := NextPeriod(date(2025, 2, 15), date(2026, 1, 31), 0, nil)
	assert.Error(t, err)
}

func TestNextPeriod_ConsecutivePeriodsAreContiguous(t *testing.T) {
	// Walking the full lease must produce gap-free, non-overlapping periods
	leaseStart := date(2025, 1, 20)
	leaseEnd := date(2026, 6, 30)

	var lastEnd *time.Time
	var periods []Period
	for {
		p, err := NextPeriod(leaseStart, leaseEnd, 2, lastEnd)
		if err != nil {
			break
		}
		periods = append(periods, p)
		end := p.End
		lastEnd = &end
	}

	require.NotEmpty(t, periods)
	assert.Equal(t, date(2025, 1, 1), periods[0].Start)
	assert.Equal(t, leaseEnd, periods[len(periods)-1].End)
	for i := 1; i < len(periods); i++ {
		expected := periods[i-1].End.AddDate(0, 0, 1)
		assert.Equal(t, expected, periods[i].Start, "period %d not contiguous", i)
		assert.False(t, periods[i].Overlaps(periods[i-1]))
	}
}

func TestNextPeriod_FebruaryLeapYear(t *testing.T) {
	last := date(2024, 1, 31)
	p, err := NextPeriod(date(2024, 1, 1), date(2024, 12, 31), 1, &last)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), p.End)
}

func TestPeriod_Contains(t *testing.T) {
	p, err := NewPeriod(date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.True(t, p.Contains(date(2025, 3, 1)))
	assert.True(t, p.Contains(date(2025, 3, 31)))
	assert.False(t, p.Contains(date(2025, 4, 1)))
	assert.False(t, p.Contains(date(2025, 2, 28)))
}

func TestNewPeriod_RejectsInvertedRange(t *testing.T) {
	_, err := NewPeriod(date(2025, 3, 31), date(2025, 3, 1))
	assert.Error(t, err)
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"january", date(2025, 1, 10), date(2025, 1, 31)},
		{"february non-leap", date(2025, 2, 1), date(2025, 2, 28)},
		{"february leap", date(2024, 2, 15), date(2024, 2, 29)},
		{"april", date(2025, 4, 30), date(2025, 4, 30)},
		{"december", date(2025, 12, 1), date(2025, 12, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastDayOfMonth(tt.in))
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(date(2025, 3, 1), date(2025, 3, 31)))
	assert.Equal(t, 1, MonthsBetween(date(2025, 3, 15), date(2025, 4, 1)))
	assert.Equal(t, 12, MonthsBetween(date(2024, 6, 1), date(2025, 6, 1)))
	assert.Equal(t, -2, MonthsBetween(date(2025, 3, 1), date(2025, 1, 31)))
}

func TestPeriod_MonthWindow(t *testing.T) {
	p, err := NewPeriod(date(2025, 2, 1), date(2025, 4, 30))
	require.NoError(t, err)

	from, to := p.MonthWindow()
	assert.Equal(t, date(2025, 2, 1), from)
	assert.Equal(t, date(2025, 4, 1), to)
}
