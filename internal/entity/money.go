package entity

import "github.com/shopspring/decimal"

// MoneyScale is the internal monetary precision in fractional digits.
// Amounts are rounded to this scale on input and kept exact afterwards.
const MoneyScale = 4

// FormatMoney renders a monetary value for display: dollar sign, two
// fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
