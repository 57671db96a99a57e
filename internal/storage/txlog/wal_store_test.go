package txlog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/papertrade/internal/entity"
)

func testTx(kind entity.TxKind, amount int64) entity.Transaction {
	return entity.Transaction{
		ID:     uuid.New().String(),
		Kind:   kind,
		Time:   time.Now().UTC(),
		Amount: decimal.NewFromInt(amount),
		Total:  decimal.NewFromInt(amount),
	}
}

func TestStore_AppendAndAll(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	first := testTx(entity.TxDeposit, 1000)
	second := testTx(entity.TxWithdrawal, 250)

	idx, err := store.Append(first)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	idx, err = store.Append(second)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx)

	records, err := store.All()
	require.NoError(t, err)
	require.Equal(t, 2, len(records))
	assert.Equal(t, first.ID, records[0].Tx.ID)
	assert.Equal(t, second.ID, records[1].Tx.ID)
	assert.Equal(t, uint64(2), store.CurrentIndex())
}

func TestStore_RecordsAfter(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 5; i++ {
		_, err := store.Append(testTx(entity.TxDeposit, int64(100+i)))
		require.NoError(t, err)
	}

	records, err := store.RecordsAfter(3)
	require.NoError(t, err)
	require.Equal(t, 2, len(records))
	assert.Equal(t, uint64(4), records[0].Index)
	assert.Equal(t, uint64(5), records[1].Index)

	records, err = store.RecordsAfter(5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_RejectsMissingID(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	tx := testTx(entity.TxDeposit, 100)
	tx.ID = ""
	_, err = store.Append(tx)
	assert.Error(t, err)
	assert.Equal(t, uint64(0), store.CurrentIndex())
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)

	tx := entity.Transaction{
		ID:       uuid.New().String(),
		Kind:     entity.TxBuy,
		Time:     time.Now().UTC(),
		Symbol:   "AAPL",
		Quantity: 10,
		Price:    decimal.NewFromInt(150),
		Total:    decimal.NewFromInt(1500),
	}
	_, err = store.Append(tx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.All()
	require.NoError(t, err)
	require.Equal(t, 1, len(records))
	got := records[0].Tx
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, entity.TxBuy, got.Kind)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, int64(10), got.Quantity)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(1500)))
}
