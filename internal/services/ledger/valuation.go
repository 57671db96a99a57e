package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/internal/entity"
)

// HoldingValue is one position with its market value at query time.
// Unpriced marks a position whose quote source failed to answer; its
// Value is zero and excluded from totals. A zero Price with Unpriced
// false is a real quote: a delisted symbol values at 0.00.
type HoldingValue struct {
	Symbol   string
	Quantity int64
	Price    decimal.Decimal
	Value    decimal.Decimal
	Unpriced bool
}

// Report is a point-in-time view of the whole account.
//
// TotalPortfolioValue = Cash + TotalHoldingsValue, and ProfitAndLoss =
// TotalPortfolioValue - DepositsBase, both at this report's quotes.
type Report struct {
	Cash                decimal.Decimal
	Holdings            []HoldingValue
	TotalHoldingsValue  decimal.Decimal
	TotalPortfolioValue decimal.Decimal
	ProfitAndLoss       decimal.Decimal
	DepositsBase        decimal.Decimal
}

// Valuation prices every held position at the current quote and
// derives portfolio totals and profit/loss against net deposits.
// A quote failure degrades only that position (Unpriced), never the
// whole report, and never mutates account state.
func (a *Account) Valuation(ctx context.Context) Report {
	a.mu.RLock()
	defer a.mu.RUnlock()

	report := Report{
		Cash:               a.cash,
		TotalHoldingsValue: decimal.Zero,
		DepositsBase:       a.depositsBase,
	}

	for _, position := range a.holdingsLocked() {
		hv := HoldingValue{Symbol: position.Symbol, Quantity: position.Quantity}

		price, err := a.pricer.GetPrice(ctx, position.Symbol)
		if err != nil {
			a.logger.Warn("valuation quote failed",
				zap.String("symbol", position.Symbol),
				zap.Error(err))
			hv.Unpriced = true
		} else {
			hv.Price = price
			hv.Value = price.Mul(decimal.NewFromInt(position.Quantity))
			report.TotalHoldingsValue = report.TotalHoldingsValue.Add(hv.Value)
		}
		report.Holdings = append(report.Holdings, hv)
	}

	report.TotalPortfolioValue = report.Cash.Add(report.TotalHoldingsValue)
	report.ProfitAndLoss = report.TotalPortfolioValue.Sub(report.DepositsBase)
	return report
}

// Snapshot condenses a valuation into the streamable account snapshot.
func (a *Account) Snapshot(ctx context.Context) entity.AccountSnapshot {
	report := a.Valuation(ctx)
	return entity.AccountSnapshot{
		Timestamp:     a.now(),
		Cash:          report.Cash.StringFixed(2),
		HoldingsValue: report.TotalHoldingsValue.StringFixed(2),
		TotalValue:    report.TotalPortfolioValue.StringFixed(2),
		ProfitAndLoss: report.ProfitAndLoss.StringFixed(2),
		Positions:     len(report.Holdings),
	}
}
