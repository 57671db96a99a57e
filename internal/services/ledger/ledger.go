package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/internal/entity"
	"github.com/vadiminshakov/papertrade/internal/services/pricer"
)

// TxLog persists transactions in execution order. Append must be
// durable before it returns; All returns every stored record in the
// order it was appended.
type TxLog interface {
	Append(tx entity.Transaction) (uint64, error)
	All() ([]entity.TransactionRecord, error)
}

// Account is the single authority over one simulated brokerage account:
// cash balance, holdings and transaction history. Every mutation is
// all-or-nothing: the transaction is appended to the log first and the
// in-memory state changes only if the append succeeds. A rejected
// operation leaves cash, holdings and history untouched.
//
// Mutating operations serialize on the account lock; the price lookup
// inside Buy and Sell happens under that lock, so a quote and the
// commit it prices are atomic with respect to every other operation.
type Account struct {
	mu sync.RWMutex

	cash         decimal.Decimal
	holdings     map[string]int64
	transactions []entity.Transaction
	depositsBase decimal.Decimal

	pricer pricer.Pricer
	log    TxLog
	logger *zap.Logger
	now    func() time.Time
}

// New creates an account backed by the given price source. A non-nil
// log is replayed to reconstruct cash and holdings from history; a nil
// log keeps the account in memory only.
func New(quotes pricer.Pricer, log TxLog, logger *zap.Logger) (*Account, error) {
	if quotes == nil {
		return nil, errors.New("pricer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Account{
		cash:         decimal.Zero,
		holdings:     make(map[string]int64),
		depositsBase: decimal.Zero,
		pricer:       quotes,
		log:          log,
		logger:       logger,
		now:          time.Now,
	}

	if log != nil {
		if err := a.restore(); err != nil {
			return nil, errors.Wrap(err, "restore account from transaction log")
		}
	}
	return a, nil
}

func (a *Account) restore() error {
	records, err := a.log.All()
	if err != nil {
		return err
	}
	for _, rec := range records {
		a.apply(rec.Tx)
	}
	if len(records) > 0 {
		a.logger.Info("account restored",
			zap.Int("transactions", len(records)),
			zap.String("cash", a.cash.String()))
	}
	return nil
}

// apply folds one transaction into account state. Replaying the whole
// log through apply reproduces the exact state the original operations
// built, because trades carry their execution price.
func (a *Account) apply(tx entity.Transaction) {
	switch tx.Kind {
	case entity.TxDeposit:
		a.cash = a.cash.Add(tx.Amount)
		a.depositsBase = a.depositsBase.Add(tx.Amount)
	case entity.TxWithdrawal:
		a.cash = a.cash.Sub(tx.Amount)
		a.depositsBase = a.depositsBase.Sub(tx.Amount)
	case entity.TxBuy:
		a.cash = a.cash.Sub(tx.Total)
		a.holdings[tx.Symbol] += tx.Quantity
	case entity.TxSell:
		a.cash = a.cash.Add(tx.Total)
		a.holdings[tx.Symbol] -= tx.Quantity
		if a.holdings[tx.Symbol] <= 0 {
			delete(a.holdings, tx.Symbol)
		}
	}
	a.transactions = append(a.transactions, tx)
}

// commit makes the transaction durable, then applies it. Callers hold
// the write lock.
func (a *Account) commit(tx entity.Transaction) error {
	if a.log != nil {
		if _, err := a.log.Append(tx); err != nil {
			return errors.Wrap(err, "append transaction")
		}
	}
	a.apply(tx)
	return nil
}

// Receipt describes one successfully applied operation.
type Receipt struct {
	Tx      entity.Transaction
	Balance decimal.Decimal
}

func (r Receipt) String() string {
	switch r.Tx.Kind {
	case entity.TxBuy:
		return fmt.Sprintf("bought %d %s @ %s for %s, balance %s",
			r.Tx.Quantity, r.Tx.Symbol, entity.FormatMoney(r.Tx.Price),
			entity.FormatMoney(r.Tx.Total), entity.FormatMoney(r.Balance))
	case entity.TxSell:
		return fmt.Sprintf("sold %d %s @ %s for %s, balance %s",
			r.Tx.Quantity, r.Tx.Symbol, entity.FormatMoney(r.Tx.Price),
			entity.FormatMoney(r.Tx.Total), entity.FormatMoney(r.Balance))
	case entity.TxWithdrawal:
		return fmt.Sprintf("withdrew %s, balance %s",
			entity.FormatMoney(r.Tx.Amount), entity.FormatMoney(r.Balance))
	default:
		return fmt.Sprintf("deposited %s, balance %s",
			entity.FormatMoney(r.Tx.Amount), entity.FormatMoney(r.Balance))
	}
}

// Deposit adds funds to the account. The amount is raw user input:
// malformed text is ErrInvalidAmountFormat, a non-positive value is
// ErrNonPositiveAmount.
func (a *Account) Deposit(amount string) (Receipt, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return Receipt{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tx := a.newCashTx(entity.TxDeposit, value)
	if err := a.commit(tx); err != nil {
		return Receipt{}, err
	}

	a.logger.Info("deposit",
		zap.String("amount", value.String()),
		zap.String("balance", a.cash.String()))
	return Receipt{Tx: tx, Balance: a.cash}, nil
}

// Withdraw removes funds from the account. Withdrawing the exact
// balance succeeds and leaves zero; anything above it is
// ErrInsufficientFunds.
func (a *Account) Withdraw(amount string) (Receipt, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return Receipt{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if value.GreaterThan(a.cash) {
		return Receipt{}, errors.Wrapf(ErrInsufficientFunds,
			"withdraw %s with balance %s", value, a.cash)
	}

	tx := a.newCashTx(entity.TxWithdrawal, value)
	if err := a.commit(tx); err != nil {
		return Receipt{}, err
	}

	a.logger.Info("withdrawal",
		zap.String("amount", value.String()),
		zap.String("balance", a.cash.String()))
	return Receipt{Tx: tx, Balance: a.cash}, nil
}

// Buy purchases quantity shares of symbol at the current quote. The
// quote is fetched under the account lock and committed at that price.
func (a *Account) Buy(ctx context.Context, symbol string, quantity int64) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, errors.Wrapf(ErrInvalidQuantity, "got %d", quantity)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	price, err := a.pricer.GetPrice(ctx, symbol)
	if err != nil {
		return Receipt{}, err
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(a.cash) {
		return Receipt{}, errors.Wrapf(ErrInsufficientFunds,
			"cost %s with balance %s", cost, a.cash)
	}

	tx := a.newTradeTx(entity.TxBuy, symbol, quantity, price)
	if err := a.commit(tx); err != nil {
		return Receipt{}, err
	}

	a.logger.Info("buy",
		zap.String("symbol", symbol),
		zap.Int64("quantity", quantity),
		zap.String("price", price.String()),
		zap.String("balance", a.cash.String()))
	return Receipt{Tx: tx, Balance: a.cash}, nil
}

// Sell disposes quantity shares of a held symbol at the current quote.
// There is no partial execution: a quantity above the held amount
// rejects the whole order.
func (a *Account) Sell(ctx context.Context, symbol string, quantity int64) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, errors.Wrapf(ErrInvalidQuantity, "got %d", quantity)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	held, ok := a.holdings[symbol]
	if !ok {
		return Receipt{}, errors.Wrap(ErrNoSuchHolding, symbol)
	}
	if quantity > held {
		return Receipt{}, errors.Wrapf(ErrInsufficientHoldings,
			"sell %d %s with %d held", quantity, symbol, held)
	}

	price, err := a.pricer.GetPrice(ctx, symbol)
	if err != nil {
		return Receipt{}, err
	}

	tx := a.newTradeTx(entity.TxSell, symbol, quantity, price)
	if err := a.commit(tx); err != nil {
		return Receipt{}, err
	}

	a.logger.Info("sell",
		zap.String("symbol", symbol),
		zap.Int64("quantity", quantity),
		zap.String("price", price.String()),
		zap.String("balance", a.cash.String()))
	return Receipt{Tx: tx, Balance: a.cash}, nil
}

// Cash returns the current cash balance.
func (a *Account) Cash() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cash
}

// DepositsBase returns net contributed cash: deposits minus withdrawals.
func (a *Account) DepositsBase() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.depositsBase
}

// Holdings returns current positions sorted by symbol.
func (a *Account) Holdings() []entity.Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.holdingsLocked()
}

func (a *Account) holdingsLocked() []entity.Position {
	positions := make([]entity.Position, 0, len(a.holdings))
	for symbol, quantity := range a.holdings {
		positions = append(positions, entity.Position{Symbol: symbol, Quantity: quantity})
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions
}

// History returns transaction copies newest-first. The underlying log
// keeps execution order; only the view is reversed.
func (a *Account) History() []entity.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()

	history := make([]entity.Transaction, len(a.transactions))
	for i, tx := range a.transactions {
		history[len(a.transactions)-1-i] = tx
	}
	return history
}

func (a *Account) newCashTx(kind entity.TxKind, amount decimal.Decimal) entity.Transaction {
	return entity.Transaction{
		ID:     uuid.New().String(),
		Kind:   kind,
		Time:   a.now(),
		Amount: amount,
	}
}

func (a *Account) newTradeTx(kind entity.TxKind, symbol string, quantity int64, price decimal.Decimal) entity.Transaction {
	return entity.Transaction{
		ID:       uuid.New().String(),
		Kind:     kind,
		Time:     a.now(),
		Symbol:   symbol,
		Quantity: quantity,
		Price:    price,
		Total:    price.Mul(decimal.NewFromInt(quantity)),
	}
}
