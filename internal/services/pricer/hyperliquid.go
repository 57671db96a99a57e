package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/vadiminshakov/papertrade/pkg/retrier"
)

// HyperliquidPricer fetches mid prices from the Hyperliquid Info API.
type HyperliquidPricer struct {
	info    *hyperliquid.Info
	retrier *retrier.Retrier
}

func NewHyperliquidPricer(info *hyperliquid.Info) *HyperliquidPricer {
	return &HyperliquidPricer{info: info, retrier: retrier.New()}
}

func (p *HyperliquidPricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p.info == nil {
		return decimal.Decimal{}, errors.Wrap(ErrQuoteUnavailable, "hyperliquid info client is nil")
	}

	mids, err := retrier.DoWithData(p.retrier, ctx, p.info.AllMids)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrQuoteUnavailable, "hyperliquid all mids: %v", err)
	}

	// mids are keyed by base coin (e.g. "BTC")
	mid, ok := mids[symbol]
	if !ok || mid == "" {
		return decimal.Decimal{}, errors.Wrap(ErrUnknownSymbol, symbol)
	}

	price, err := decimal.NewFromString(mid)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrQuoteUnavailable, "hyperliquid returned malformed mid for %s: %v", symbol, err)
	}
	return price, nil
}
