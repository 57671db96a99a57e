package ledger

import "github.com/pkg/errors"

// Failure kinds surfaced by account operations. Callers branch with
// errors.Is; the message wrapped around a kind is presentation detail.
var (
	// ErrInvalidAmountFormat means the amount did not parse as a number.
	ErrInvalidAmountFormat = errors.New("amount is not a number")
	// ErrNonPositiveAmount means the amount parsed but is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrInvalidQuantity means the share count is not a positive whole number.
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
	// ErrInsufficientFunds means the operation would drive cash below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoSuchHolding means the account holds no position in the symbol.
	ErrNoSuchHolding = errors.New("no such holding")
	// ErrInsufficientHoldings means the sell quantity exceeds the held quantity.
	ErrInsufficientHoldings = errors.New("not enough shares to sell")
)
