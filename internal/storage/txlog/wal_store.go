package txlog

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/papertrade/internal/entity"
)

const (
	defaultLogDir       = "./wal/transactions"
	logSegmentThreshold = 1000
	logMaxSegments      = 1000
	txKeyPrefix         = "tx_"
)

// Store persists account transactions in an append-only WAL. The log
// is the source of truth for account state: replaying it in index
// order reconstructs cash and holdings deterministically.
type Store struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewStore opens (or creates) the transaction WAL under dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = defaultLogDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "txlog_",
		SegmentThreshold: logSegmentThreshold,
		MaxSegments:      logMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init transaction WAL")
	}
	return &Store{wal: wal}, nil
}

// Append writes the transaction to the WAL and returns its log index.
func (s *Store) Append(tx entity.Transaction) (uint64, error) {
	if s == nil || s.wal == nil {
		return 0, errors.New("transaction log is not initialized")
	}
	if tx.ID == "" {
		return 0, errors.New("transaction id is required")
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return 0, errors.Wrap(err, "marshal transaction")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(index, txKeyPrefix+tx.ID, payload); err != nil {
		return 0, errors.Wrap(err, "write transaction")
	}
	return index, nil
}

// All returns every stored transaction in append order.
func (s *Store) All() ([]entity.TransactionRecord, error) {
	return s.RecordsAfter(0)
}

// RecordsAfter returns all transactions written after the given WAL index.
func (s *Store) RecordsAfter(index uint64) ([]entity.TransactionRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("transaction log is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]entity.TransactionRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, txKeyPrefix) {
			continue
		}
		var tx entity.Transaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			return nil, errors.Wrap(err, "decode transaction")
		}
		records = append(records, entity.TransactionRecord{Index: idx, Tx: tx})
	}
	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *Store) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Close()
}
