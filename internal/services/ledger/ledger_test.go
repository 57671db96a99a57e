package ledger

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/internal/entity"
	"github.com/vadiminshakov/papertrade/internal/services/pricer"
	"github.com/vadiminshakov/papertrade/internal/storage/txlog"
)

// mockPricer is a simple mock for the Pricer interface.
type mockPricer struct {
	prices map[string]decimal.Decimal
	err    error
}

func (m *mockPricer) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Decimal{}, m.err
	}
	price, ok := m.prices[symbol]
	if !ok {
		return decimal.Decimal{}, errors.Wrap(pricer.ErrUnknownSymbol, symbol)
	}
	return price, nil
}

func defaultMock() *mockPricer {
	return &mockPricer{prices: map[string]decimal.Decimal{
		"AAPL":  decimal.NewFromInt(150),
		"TSLA":  decimal.NewFromInt(650),
		"GOOGL": decimal.NewFromInt(2800),
	}}
}

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	account, err := New(defaultMock(), nil, zap.NewNop())
	require.NoError(t, err)
	return account
}

// state captures everything a rejected operation must leave untouched.
type state struct {
	cash     decimal.Decimal
	holdings []entity.Position
	history  int
}

func captureState(a *Account) state {
	return state{cash: a.Cash(), holdings: a.Holdings(), history: len(a.History())}
}

func assertUnchanged(t *testing.T, a *Account, before state) {
	t.Helper()
	assert.True(t, a.Cash().Equal(before.cash), "cash changed: %s -> %s", before.cash, a.Cash())
	assert.Equal(t, before.holdings, a.Holdings())
	assert.Equal(t, before.history, len(a.History()))
}

func TestNew_RequiresPricer(t *testing.T) {
	_, err := New(nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestDeposit(t *testing.T) {
	account := newTestAccount(t)

	receipt, err := account.Deposit("1000.50")
	require.NoError(t, err)
	assert.True(t, receipt.Balance.Equal(decimal.NewFromFloat(1000.50)))

	receipt, err = account.Deposit("100.50")
	require.NoError(t, err)
	assert.True(t, receipt.Balance.Equal(decimal.NewFromFloat(1101.00)))
	assert.Equal(t, entity.TxDeposit, receipt.Tx.Kind)
	assert.Equal(t, 2, len(account.History()))
}

func TestDeposit_RoundsToInternalScale(t *testing.T) {
	account := newTestAccount(t)

	receipt, err := account.Deposit("0.00015")
	require.NoError(t, err)
	assert.Equal(t, "0.0002", receipt.Balance.String())
}

func TestDeposit_InvalidInput(t *testing.T) {
	account := newTestAccount(t)
	before := captureState(account)

	for _, input := range []string{"TEXT", "100.00.00", "", "  "} {
		_, err := account.Deposit(input)
		assert.ErrorIs(t, err, ErrInvalidAmountFormat, "input %q", input)
	}
	for _, input := range []string{"0", "-5", "-0.0001"} {
		_, err := account.Deposit(input)
		assert.ErrorIs(t, err, ErrNonPositiveAmount, "input %q", input)
	}
	assertUnchanged(t, account, before)
}

func TestWithdraw_ExactBalance(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("500.00")
	require.NoError(t, err)

	receipt, err := account.Withdraw("500.00")
	require.NoError(t, err)
	assert.True(t, receipt.Balance.IsZero())
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("500.00")
	require.NoError(t, err)
	before := captureState(account)

	_, err = account.Withdraw("500.01")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assertUnchanged(t, account, before)
}

func TestBuy(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("5000.00")
	require.NoError(t, err)

	receipt, err := account.Buy(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.True(t, receipt.Balance.Equal(decimal.NewFromInt(3500)))
	assert.True(t, receipt.Tx.Total.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, []entity.Position{{Symbol: "AAPL", Quantity: 10}}, account.Holdings())
}

func TestBuy_AccumulatesPosition(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("10000.00")
	require.NoError(t, err)

	_, err = account.Buy(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	_, err = account.Buy(context.Background(), "AAPL", 5)
	require.NoError(t, err)

	assert.Equal(t, []entity.Position{{Symbol: "AAPL", Quantity: 15}}, account.Holdings())
}

func TestBuy_InsufficientFunds(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("299.00")
	require.NoError(t, err)
	before := captureState(account)

	_, err = account.Buy(context.Background(), "AAPL", 2) // costs 300.00
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assertUnchanged(t, account, before)
	assert.Empty(t, account.Holdings())
}

func TestBuy_UnknownSymbol(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("5000.00")
	require.NoError(t, err)
	before := captureState(account)

	_, err = account.Buy(context.Background(), "NOPE", 1)
	assert.ErrorIs(t, err, pricer.ErrUnknownSymbol)
	assertUnchanged(t, account, before)
}

func TestBuy_InvalidQuantity(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("5000.00")
	require.NoError(t, err)
	before := captureState(account)

	for _, quantity := range []int64{0, -3} {
		_, err := account.Buy(context.Background(), "AAPL", quantity)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", quantity)
	}
	assertUnchanged(t, account, before)
}

func TestBuy_QuoteUnavailable(t *testing.T) {
	quotes := defaultMock()
	account, err := New(quotes, nil, zap.NewNop())
	require.NoError(t, err)
	_, err = account.Deposit("5000.00")
	require.NoError(t, err)
	before := captureState(account)

	quotes.err = errors.Wrap(pricer.ErrQuoteUnavailable, "boom")
	_, err = account.Buy(context.Background(), "AAPL", 1)
	assert.ErrorIs(t, err, pricer.ErrQuoteUnavailable)
	assertUnchanged(t, account, before)
}

func TestBuy_ZeroPricedSymbol(t *testing.T) {
	quotes := defaultMock()
	quotes.prices["DEAD"] = decimal.Zero
	account, err := New(quotes, nil, zap.NewNop())
	require.NoError(t, err)
	_, err = account.Deposit("100.00")
	require.NoError(t, err)

	receipt, err := account.Buy(context.Background(), "DEAD", 100)
	require.NoError(t, err)
	assert.True(t, receipt.Balance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, []entity.Position{{Symbol: "DEAD", Quantity: 100}}, account.Holdings())
}

func TestSell_NoSuchHolding(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("5000.00")
	require.NoError(t, err)
	before := captureState(account)

	_, err = account.Sell(context.Background(), "AAPL", 1)
	assert.ErrorIs(t, err, ErrNoSuchHolding)
	assertUnchanged(t, account, before)
}

func TestSell_InsufficientHoldings(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("5000.00")
	require.NoError(t, err)
	_, err = account.Buy(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	before := captureState(account)

	_, err = account.Sell(context.Background(), "AAPL", 11)
	assert.ErrorIs(t, err, ErrInsufficientHoldings)
	assertUnchanged(t, account, before)
	assert.Equal(t, []entity.Position{{Symbol: "AAPL", Quantity: 10}}, account.Holdings())
}

func TestSell_ExhaustedPositionIsRemoved(t *testing.T) {
	account := newTestAccount(t)
	_, err := account.Deposit("5000.00")
	require.NoError(t, err)
	_, err = account.Buy(context.Background(), "AAPL", 10)
	require.NoError(t, err)

	receipt, err := account.Sell(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.True(t, receipt.Balance.Equal(decimal.NewFromInt(5000)))
	assert.Empty(t, account.Holdings())
}

func TestBalanceConservation(t *testing.T) {
	account := newTestAccount(t)
	ctx := context.Background()

	_, err := account.Deposit("10000.00")
	require.NoError(t, err)
	_, err = account.Withdraw("1000.00")
	require.NoError(t, err)
	_, err = account.Buy(ctx, "AAPL", 10) // -1500
	require.NoError(t, err)
	_, err = account.Buy(ctx, "TSLA", 2) // -1300
	require.NoError(t, err)
	_, err = account.Sell(ctx, "AAPL", 5) // +750
	require.NoError(t, err)

	// 10000 - 1000 - 1500 - 1300 + 750
	assert.True(t, account.Cash().Equal(decimal.NewFromInt(6950)))
	assert.True(t, account.DepositsBase().Equal(decimal.NewFromInt(9000)))
	assert.Equal(t, 5, len(account.History()))
}

func TestHistory_NewestFirst(t *testing.T) {
	account := newTestAccount(t)
	ctx := context.Background()

	_, err := account.Deposit("5000.00")
	require.NoError(t, err)
	_, err = account.Buy(ctx, "AAPL", 10)
	require.NoError(t, err)
	_, err = account.Sell(ctx, "AAPL", 4)
	require.NoError(t, err)

	history := account.History()
	require.Equal(t, 3, len(history))
	assert.Equal(t, entity.TxSell, history[0].Kind)
	assert.Equal(t, entity.TxBuy, history[1].Kind)
	assert.Equal(t, entity.TxDeposit, history[2].Kind)
}

// failingLog rejects every append, simulating a dead disk.
type failingLog struct{}

func (failingLog) Append(entity.Transaction) (uint64, error) {
	return 0, errors.New("disk gone")
}
func (failingLog) All() ([]entity.TransactionRecord, error) { return nil, nil }

func TestCommit_AppendFailureLeavesStateUntouched(t *testing.T) {
	account, err := New(defaultMock(), failingLog{}, zap.NewNop())
	require.NoError(t, err)

	_, err = account.Deposit("100.00")
	assert.Error(t, err)
	assert.True(t, account.Cash().IsZero())
	assert.Empty(t, account.History())
}

func TestRestoreFromTransactionLog(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := txlog.NewStore(dir)
	require.NoError(t, err)

	account, err := New(defaultMock(), store, zap.NewNop())
	require.NoError(t, err)
	_, err = account.Deposit("5000.00")
	require.NoError(t, err)
	_, err = account.Buy(ctx, "AAPL", 10)
	require.NoError(t, err)
	_, err = account.Sell(ctx, "AAPL", 3)
	require.NoError(t, err)
	_, err = account.Withdraw("200.00")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := txlog.NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	restored, err := New(defaultMock(), reopened, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, restored.Cash().Equal(account.Cash()),
		"restored cash %s, want %s", restored.Cash(), account.Cash())
	assert.Equal(t, account.Holdings(), restored.Holdings())
	assert.True(t, restored.DepositsBase().Equal(account.DepositsBase()))
	assert.Equal(t, 4, len(restored.History()))
}

func TestWalBackedSession(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := txlog.NewStore(dir)
	require.NoError(t, err)

	account, err := New(defaultMock(), store, zap.NewNop())
	require.NoError(t, err)

	_, err = account.Deposit("1000.50")
	require.NoError(t, err)
	receipt, err := account.Deposit("100.50")
	require.NoError(t, err)
	assert.True(t, receipt.Balance.Equal(decimal.NewFromInt(1101)))

	_, err = account.Buy(ctx, "AAPL", 5) // -750
	require.NoError(t, err)
	_, err = account.Sell(ctx, "AAPL", 5) // +750
	require.NoError(t, err)

	// rejected operations must not reach the log
	before := captureState(account)
	_, err = account.Withdraw("9999.00")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = account.Buy(ctx, "NOPE", 1)
	assert.ErrorIs(t, err, pricer.ErrUnknownSymbol)
	assertUnchanged(t, account, before)

	receipt, err = account.Withdraw("1101.00")
	require.NoError(t, err)
	assert.True(t, receipt.Balance.IsZero())
	require.NoError(t, store.Close())

	reopened, err := txlog.NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.All()
	require.NoError(t, err)
	assert.Equal(t, 5, len(records), "only committed transactions are logged")

	restored, err := New(defaultMock(), reopened, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, restored.Cash().IsZero())
	assert.Empty(t, restored.Holdings())
	assert.True(t, restored.DepositsBase().IsZero())
	assert.Equal(t, 5, len(restored.History()))
}
