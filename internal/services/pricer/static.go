package pricer

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// StaticPricer serves quotes from a fixed in-memory table. It is the
// deterministic price source used by the simulation and by tests.
// Symbols are case-sensitive uppercase tickers.
type StaticPricer struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// DefaultTable returns the stock table the simulation ships with.
func DefaultTable() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"AAPL":  decimal.NewFromFloat(150.00),
		"TSLA":  decimal.NewFromFloat(650.00),
		"GOOGL": decimal.NewFromFloat(2800.00),
	}
}

// NewStaticPricer creates a pricer over the given table. A nil table
// starts from DefaultTable.
func NewStaticPricer(prices map[string]decimal.Decimal) *StaticPricer {
	if prices == nil {
		prices = DefaultTable()
	}
	table := make(map[string]decimal.Decimal, len(prices))
	for symbol, price := range prices {
		table[symbol] = price
	}
	return &StaticPricer{prices: table}
}

func (p *StaticPricer) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, ok := p.prices[symbol]
	if !ok {
		return decimal.Decimal{}, errors.Wrap(ErrUnknownSymbol, symbol)
	}
	return price, nil
}

// SetPrice inserts or updates a quote.
func (p *StaticPricer) SetPrice(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

// Delist keeps the symbol quotable but drops its price to zero.
func (p *StaticPricer) Delist(symbol string) {
	p.SetPrice(symbol, decimal.Zero)
}
