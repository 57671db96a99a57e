package pricer

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/papertrade/pkg/retrier"
)

// BinancePricer fetches quotes from the Binance public API. Price
// endpoints do not require authentication.
type BinancePricer struct {
	client  *binance.Client
	retrier *retrier.Retrier
}

func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client, retrier: retrier.New()}
}

func (p *BinancePricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var raw string
	var found bool
	err := p.retrier.Do(ctx, func(ctx context.Context) error {
		prices, err := p.client.NewListPricesService().Symbol(symbol).Do(ctx)
		if err != nil {
			return err
		}
		if len(prices) > 0 {
			raw = prices[0].Price
			found = true
		}
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrQuoteUnavailable, "binance list prices for %s: %v", symbol, err)
	}
	if !found {
		return decimal.Decimal{}, errors.Wrap(ErrUnknownSymbol, symbol)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrQuoteUnavailable, "binance returned malformed price for %s: %v", symbol, err)
	}
	return price, nil
}
