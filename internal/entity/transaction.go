package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxKind is the type of a ledger transaction.
type TxKind string

const (
	TxDeposit    TxKind = "DEPOSIT"
	TxWithdrawal TxKind = "WITHDRAWAL"
	TxBuy        TxKind = "BUY"
	TxSell       TxKind = "SELL"
)

// Transaction is one immutable entry in the account log. Cash movements
// carry Amount; trades carry Symbol, Quantity, the executed per-share
// Price and Total = Quantity * Price.
type Transaction struct {
	ID       string          `json:"id"`
	Kind     TxKind          `json:"kind"`
	Time     time.Time       `json:"time"`
	Amount   decimal.Decimal `json:"amount,omitempty"`
	Symbol   string          `json:"symbol,omitempty"`
	Quantity int64           `json:"quantity,omitempty"`
	Price    decimal.Decimal `json:"price,omitempty"`
	Total    decimal.Decimal `json:"total,omitempty"`
}

// IsTrade reports whether the transaction moved shares rather than plain cash.
func (t Transaction) IsTrade() bool {
	return t.Kind == TxBuy || t.Kind == TxSell
}

func (t Transaction) String() string {
	if t.IsTrade() {
		return fmt.Sprintf("%s %d %s @ %s (total %s)",
			t.Kind, t.Quantity, t.Symbol, FormatMoney(t.Price), FormatMoney(t.Total))
	}
	return fmt.Sprintf("%s %s", t.Kind, FormatMoney(t.Amount))
}

// TransactionRecord bundles a transaction with the log index it was stored at.
type TransactionRecord struct {
	Index uint64      `json:"index"`
	Tx    Transaction `json:"tx"`
}
