package booking

import (
	"github.com/shopspring/decimal"
)

// Pricing derives the fee and total of a new booking from its base price.
type Pricing struct {
	FeePercent decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Quote returns the platform fee and grand total for base and discount.
// Amounts must be whole cents. The fee is rounded to cents; the total is
// base + fee - discount.
func (p Pricing) Quote(base, discount decimal.Decimal) (fee, total decimal.Decimal, err error) {
	if base.IsNegative() || discount.IsNegative() {
		return decimal.Zero, decimal.Zero, ErrInvalidInput
	}
	if !isCents(base) || !isCents(discount) {
		return decimal.Zero, decimal.Zero, ErrInvalidInput
	}
	fee = base.Mul(p.FeePercent).Div(hundred).Round(2)
	total = base.Add(fee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero, decimal.Zero, ErrInvalidInput
	}
	return fee, total, nil
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
