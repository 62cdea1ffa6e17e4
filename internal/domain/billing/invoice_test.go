package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

func testLease(t *testing.T) *leasing.Lease {
	t.Helper()
	lease, err := leasing.NewLease(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		valueobject.NewMoneyUSD(decimal.NewFromInt(2000)),
		1, 3,
		date(2025, 2, 15), date(2026, 1, 31),
	)
	require.NoError(t, err)
	require.NoError(t, lease.Activate())
	return lease
}

func testInvoice(t *testing.T, lease *leasing.Lease) *Invoice {
	t.Helper()
	period, err := NewPeriod(date(2025, 2, 1), date(2025, 4, 30))
	require.NoError(t, err)
	inv, err := NewInvoice("INV-202502-0001", lease, period, date(2025, 2, 1), date(2025, 2, 8))
	require.NoError(t, err)
	return inv
}

func TestNewInvoice_Validation(t *testing.T) {
	lease := testLease(t)
	period, err := NewPeriod(date(2025, 2, 1), date(2025, 4, 30))
	require.NoError(t, err)

	_, err = NewInvoice("", lease, period, date(2025, 2, 1), date(2025, 2, 8))
	assert.Error(t, err)

	_, err = NewInvoice("INV-202502-0001", nil, period, date(2025, 2, 1), date(2025, 2, 8))
	assert.Error(t, err)

	_, err = NewInvoice("INV-202502-0001", lease, period, date(2025, 2, 8), date(2025, 2, 1))
	assert.Error(t, err)
}

func TestInvoice_RentLineCoversFullCycle(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)

	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))

	require.Len(t, inv.Items, 1)
	item := inv.Items[0]
	assert.Equal(t, ItemTypeRent, item.Type)
	assert.Equal(t, "3", item.Quantity.String())
	assert.Equal(t, "6000.00", item.Amount.StringFixed(2))
	assert.Equal(t, "6000.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "6000.00", inv.TotalAmount.StringFixed(2))
}

func TestInvoice_FixedFeeLine(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	fee, err := leasing.NewFixedFee(lease.ID, "Parking", valueobject.NewMoneyUSD(decimal.NewFromInt(50)))
	require.NoError(t, err)

	require.NoError(t, inv.AddFixedFeeLine(fee, 3))

	item := inv.Items[0]
	assert.Equal(t, ItemTypeFixedFee, item.Type)
	assert.Equal(t, "Parking", item.Description)
	assert.Equal(t, "150.00", item.Amount.StringFixed(2))
	require.NotNil(t, item.FeeID)
	assert.Equal(t, fee.ID, *item.FeeID)
}

func TestInvoice_VariableFeeLine(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	fee, err := leasing.NewVariableFee(lease.ID, "Electricity",
		valueobject.NewMoneyUSD(decimal.RequireFromString("0.15")), "kWh")
	require.NoError(t, err)

	usage := decimal.RequireFromString("342.5")
	require.NoError(t, inv.AddVariableFeeLine(fee, usage, usage.Mul(decimal.RequireFromString("0.15"))))

	item := inv.Items[0]
	assert.Equal(t, ItemTypeVariableFee, item.Type)
	assert.Equal(t, "Electricity (342.5 kWh)", item.Description)
	assert.Equal(t, "51.38", item.Amount.Round(2).StringFixed(2))
}

func TestInvoice_VariableFeeLineRejectsZeroUsage(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	fee, err := leasing.NewVariableFee(lease.ID, "Water",
		valueobject.NewMoneyUSD(decimal.NewFromInt(2)), "m3")
	require.NoError(t, err)

	assert.Error(t, inv.AddVariableFeeLine(fee, decimal.Zero, decimal.Zero))
	assert.Empty(t, inv.Items)
}

func TestInvoice_ApplyDiscount(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))

	require.NoError(t, inv.ApplyDiscount("Loyalty discount", valueobject.NewMoneyUSD(decimal.NewFromInt(600))))

	assert.Equal(t, "6000.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "600.00", inv.DiscountAmount.StringFixed(2))
	assert.Equal(t, "5400.00", inv.TotalAmount.StringFixed(2))

	discountLine := inv.Items[len(inv.Items)-1]
	assert.Equal(t, ItemTypeDiscount, discountLine.Type)
	assert.Equal(t, "-600.00", discountLine.Amount.StringFixed(2))
}

func TestInvoice_ApplyDiscountTwiceFails(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))

	require.NoError(t, inv.ApplyDiscount("Discount", valueobject.NewMoneyUSD(decimal.NewFromInt(100))))
	assert.Error(t, inv.ApplyDiscount("Discount", valueobject.NewMoneyUSD(decimal.NewFromInt(100))))
}

func TestInvoice_FixedDiscountCanDriveTotalNegative(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(valueobject.NewMoneyUSD(decimal.NewFromInt(100)), 1))

	require.NoError(t, inv.ApplyDiscount("Credit", valueobject.NewMoneyUSD(decimal.NewFromInt(250))))
	assert.Equal(t, "-150.00", inv.TotalAmount.StringFixed(2))
}

func TestInvoice_MarkPaid(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))

	paidAt := date(2025, 2, 5)
	err := inv.MarkPaid(valueobject.NewMoneyUSD(decimal.NewFromInt(6000)), "BANK_TRANSFER", paidAt)
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, paidAt, *inv.PaidAt)
	assert.Equal(t, "BANK_TRANSFER", inv.PaymentMethod)
}

func TestInvoice_MarkPaidSettlesRegardlessOfAmount(t *testing.T) {
	// No partial-payment semantics: whatever amount is tendered settles the
	// invoice in one call, and the tendered amount is what gets stored.
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))

	err := inv.MarkPaid(valueobject.NewMoneyUSD(decimal.NewFromInt(5999)), "CASH", time.Now())
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Equal(t, "5999", inv.PaidAmount.String())
	assert.Equal(t, "6000", inv.TotalAmount.String())
}

func TestInvoice_MarkPaidFromOverdue(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))
	require.NoError(t, inv.MarkOverdue(date(2025, 2, 9)))

	err := inv.MarkPaid(valueobject.NewMoneyUSD(decimal.NewFromInt(6000)), "CASH", date(2025, 2, 10))
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

func TestInvoice_MarkPaidTwiceFails(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))
	require.NoError(t, inv.MarkPaid(valueobject.NewMoneyUSD(decimal.NewFromInt(6000)), "CASH", time.Now()))

	err := inv.MarkPaid(valueobject.NewMoneyUSD(decimal.NewFromInt(6000)), "CASH", time.Now())
	assert.Error(t, err)
}

func TestInvoice_MarkOverdue(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)

	// Not yet past due date
	assert.Error(t, inv.MarkOverdue(date(2025, 2, 8)))

	require.NoError(t, inv.MarkOverdue(date(2025, 2, 9)))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	// Idempotent sweeps re-encounter overdue invoices
	assert.Error(t, inv.MarkOverdue(date(2025, 2, 10)))
}

func TestInvoice_Cancel(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)

	require.NoError(t, inv.Cancel("Issued in error"))
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)
	assert.Equal(t, "Issued in error", inv.CancelReason)
}

func TestInvoice_CancelPaidFails(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)
	require.NoError(t, inv.AddRentLine(lease.GetRentMoney(), 3))
	require.NoError(t, inv.MarkPaid(valueobject.NewMoneyUSD(decimal.NewFromInt(6000)), "CASH", time.Now()))

	assert.Error(t, inv.Cancel("Too late"))
}

func TestInvoice_IsOverdue(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)

	assert.False(t, inv.IsOverdue(date(2025, 2, 8)))
	assert.True(t, inv.IsOverdue(date(2025, 2, 9)))

	require.NoError(t, inv.Cancel("void"))
	assert.False(t, inv.IsOverdue(date(2025, 2, 9)))
}

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-202502-0001", FormatInvoiceNumber(2025, time.February, 1))
	assert.Equal(t, "INV-202512-0042", FormatInvoiceNumber(2025, time.December, 42))
	assert.Equal(t, "INV-202601-10000", FormatInvoiceNumber(2026, time.January, 10000))
}

func TestInvoice_DecimalTotalsAreExact(t *testing.T) {
	lease := testLease(t)
	inv := testInvoice(t, lease)

	// Amounts that drift under binary floats must stay exact
	require.NoError(t, inv.AddRentLine(valueobject.NewMoneyUSD(decimal.RequireFromString("1000.10")), 1))
	fee, err := leasing.NewFixedFee(lease.ID, "Cleaning", valueobject.NewMoneyUSD(decimal.RequireFromString("0.20")))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, inv.AddFixedFeeLine(fee, 1))
	}

	assert.Equal(t, "1002.10", inv.TotalAmount.StringFixed(2))
}
