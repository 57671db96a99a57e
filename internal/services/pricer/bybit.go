package pricer

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/papertrade/pkg/retrier"
)

// BybitPricer fetches spot quotes from the Bybit V5 market API.
type BybitPricer struct {
	client  *bybit.Client
	retrier *retrier.Retrier
}

func NewBybitPricer(client *bybit.Client) *BybitPricer {
	return &BybitPricer{client: client, retrier: retrier.New()}
}

func (p *BybitPricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym := bybit.SymbolV5(symbol)

	var raw string
	var found bool
	err := p.retrier.Do(ctx, func(context.Context) error {
		result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
			Category: "spot",
			Symbol:   &sym,
		})
		if err != nil {
			return err
		}
		if len(result.Result.Spot.List) > 0 {
			raw = result.Result.Spot.List[0].LastPrice
			found = true
		}
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrQuoteUnavailable, "bybit tickers for %s: %v", symbol, err)
	}
	if !found {
		return decimal.Decimal{}, errors.Wrap(ErrUnknownSymbol, symbol)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrQuoteUnavailable, "bybit returned malformed price for %s: %v", symbol, err)
	}
	return price, nil
}
