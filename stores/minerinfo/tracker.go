package minerinfo

import (
	"context"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/ulogger"
)

// Tracker holds the id of the miner info transaction currently considered active, and the
// history of the ones that made it into blocks.
//
// The current id is read and written both by the lifecycle service and by the block connect
// path of the mempool, so every access goes through the tracker's own lock.
type Tracker struct {
	logger  ulogger.Logger
	mu      sync.RWMutex
	current *chainhash.Hash
	history History
}

func NewTracker(logger ulogger.Logger, history History) *Tracker {
	if history == nil {
		history = NewMemoryHistory()
	}

	return &Tracker{
		logger:  logger,
		history: history,
	}
}

// Current returns a copy of the tracked id, or nil when nothing is tracked.
func (t *Tracker) Current() *chainhash.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.current == nil {
		return nil
	}

	txID := *t.current

	return &txID
}

func (t *Tracker) SetCurrent(txID *chainhash.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = copyHash(txID)
}

// CompareAndSwap replaces the tracked id with newID only if it currently equals oldID.
// A nil oldID matches an empty tracker.
func (t *Tracker) CompareAndSwap(oldID, newID *chainhash.Hash) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !hashEqual(t.current, oldID) {
		return false
	}

	t.current = copyHash(newID)

	return true
}

// ClearIfMatches empties the tracker if it holds txID.
func (t *Tracker) ClearIfMatches(txID *chainhash.Hash) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if txID == nil || !hashEqual(t.current, txID) {
		return false
	}

	t.logger.Debugf("[Tracker] clearing miner info tx %s", txID)
	t.current = nil

	return true
}

func (t *Tracker) ClearCurrent() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = nil
}

// Record stores a miner info transaction that was confirmed at height in blockHash.
func (t *Tracker) Record(ctx context.Context, height uint32, blockHash, txID *chainhash.Hash) error {
	entry := &Entry{
		Height:    height,
		BlockHash: *blockHash,
		TxID:      *txID,
	}

	if err := t.history.Record(ctx, entry); err != nil {
		return errors.NewStorageError("[Tracker] failed to record miner info tx %s at height %d", txID, height, err)
	}

	return nil
}

// FindLatest walks the history newest first and returns the first transaction fn yields.
// fn returns nil to move on to the next older entry. A nil result means nothing matched.
func (t *Tracker) FindLatest(ctx context.Context, fn func(ctx context.Context, entry *Entry) (*bt.Tx, error)) (*bt.Tx, error) {
	var found *bt.Tx

	err := t.history.Walk(ctx, func(entry *Entry) (bool, error) {
		tx, err := fn(ctx, entry)
		if err != nil {
			return false, err
		}

		if tx != nil {
			found = tx
			return false, nil
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

func (t *Tracker) Close() error {
	return t.history.Close()
}

func copyHash(h *chainhash.Hash) *chainhash.Hash {
	if h == nil {
		return nil
	}

	c := *h

	return &c
}

func hashEqual(a, b *chainhash.Hash) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.IsEqual(b)
}
