package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Pricer supplies the current quote for one unit of a symbol.
//
// A quote of zero is a valid answer (a delisted symbol still values a
// position, at zero). A symbol the source has never heard of is
// ErrUnknownSymbol; a source that failed to answer at all is
// ErrQuoteUnavailable. Callers must never confuse the two.
type Pricer interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

var (
	// ErrUnknownSymbol means the symbol does not exist at the quote source.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrQuoteUnavailable means the quote source failed to answer. It says
	// nothing about the symbol and must not be substituted with a default
	// or stale price.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)
