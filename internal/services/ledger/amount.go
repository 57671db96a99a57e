package ledger

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/papertrade/internal/entity"
)

// ParseAmount converts raw user input into a positive monetary amount
// rounded to the internal scale. Malformed text and non-positive values
// are distinct failure kinds so validation order stays deterministic:
// format is checked before sign, sign before any business rule. Sign is
// judged on the value as entered; a positive amount too fine for the
// internal scale rounds to zero and is rejected with that reason.
func ParseAmount(input string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrInvalidAmountFormat, "parse %q", input)
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, errors.Wrapf(ErrNonPositiveAmount, "got %s", value)
	}

	value = value.Round(entity.MoneyScale)
	if value.IsZero() {
		return decimal.Decimal{}, errors.Wrapf(ErrNonPositiveAmount,
			"%s rounds to zero at %d decimal places", strings.TrimSpace(input), entity.MoneyScale)
	}
	return value, nil
}

// ParseQuantity converts raw user input into a positive whole share count.
func ParseQuantity(input string) (int64, error) {
	quantity, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidQuantity, "parse %q", input)
	}
	if quantity <= 0 {
		return 0, errors.Wrapf(ErrInvalidQuantity, "got %d", quantity)
	}
	return quantity, nil
}
