package billing

import (
	"github.com/shopspring/decimal"

	"github.com/rentora/backend/internal/domain/leasing"
	"github.com/rentora/backend/internal/domain/shared/valueobject"
)

// CalculateDiscount returns the discount amount for a subtotal given the
// lease's discount configuration. Percent discounts are computed against the
// subtotal; fixed discounts are taken at face value even when they exceed the
// subtotal, which can drive the invoice total negative (a credit).
func CalculateDiscount(subtotal valueobject.Money, discountType leasing.DiscountType, value decimal.Decimal) (valueobject.Money, error) {
	switch discountType {
	case leasing.DiscountTypePercent:
		amount := subtotal.Amount().Mul(value).Div(decimal.NewFromInt(100))
		return valueobject.NewMoney(amount.Round(2), subtotal.Currency())
	case leasing.DiscountTypeFixed:
		return valueobject.NewMoney(value, subtotal.Currency())
	default:
		return valueobject.Zero(), nil
	}
}
