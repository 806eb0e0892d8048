// internal/rules/calculator.go
package rules

import (
	"github.com/shopspring/decimal"

	"github.com/solatis/pricekeeper/internal/types"
)

/*
 * Price calculation.
 *
 * All arithmetic runs on exact decimals and is rounded once, at the end, to
 * the currency scale. Rounding is half-up (half away from zero, which is the
 * same thing for the non-negative prices produced here).
 *
 *   PercentageDiscount: base * (100 - v) / 100, floored at 0
 *   FixedDiscount:      base - v, floored at 0
 *   FixedPrice:         v
 *   PercentageIncrease: base * (100 + v) / 100
 *
 * Currencies are informational: a deployment prices in a single currency,
 * so FixedDiscount/FixedPrice values are taken to be in the base currency.
 */

// DefaultScale is the number of fractional digits of a final price.
const DefaultScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Apply transforms base according to action and rounds to scale digits.
// A nil or unknown action leaves the price unchanged.
func Apply(action types.Action, base decimal.Decimal, scale int32) decimal.Decimal {
	var price decimal.Decimal

	switch a := action.(type) {
	case types.PercentageDiscount:
		price = clampZero(base.Mul(hundred.Sub(a.Value)).Div(hundred))
	case types.FixedDiscount:
		price = clampZero(base.Sub(a.Value))
	case types.FixedPrice:
		price = a.Value
	case types.PercentageIncrease:
		price = base.Mul(hundred.Add(a.Value)).Div(hundred)
	default:
		price = base
	}

	return RoundPrice(price, scale)
}

// RoundPrice rounds v half-up to scale fractional digits.
func RoundPrice(v decimal.Decimal, scale int32) decimal.Decimal {
	return v.Round(scale)
}

func clampZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
