// Package mempool holds the unconfirmed transactions accepted by the node and owns the tracker
// of the active miner info transaction.
package mempool

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/ulogger"
)

type txEntry struct {
	tx    *bt.Tx
	added time.Time
}

type TxPool struct {
	logger  ulogger.Logger
	mu      sync.RWMutex
	txs     map[chainhash.Hash]*txEntry
	spends  map[utxo.Outpoint]chainhash.Hash
	journal *Journal
	tracker *minerinfo.Tracker
}

func New(logger ulogger.Logger, tracker *minerinfo.Tracker) *TxPool {
	initPrometheusMetrics()

	return &TxPool{
		logger:  logger,
		txs:     make(map[chainhash.Hash]*txEntry),
		spends:  make(map[utxo.Outpoint]chainhash.Hash),
		journal: NewJournal(),
		tracker: tracker,
	}
}

func (p *TxPool) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "OK", nil
}

func (p *TxPool) Tracker() *minerinfo.Tracker {
	return p.tracker
}

func (p *TxPool) Journal() *Journal {
	return p.journal
}

func (p *TxPool) NewChangeSet(reason JournalUpdateReason) *ChangeSet {
	return newChangeSet(reason, p.journal)
}

// Add accepts tx into the pool. The caller has already checked that its inputs exist.
func (p *TxPool) Add(tx *bt.Tx, cs *ChangeSet) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txHash := *tx.TxIDChainHash()

	if _, ok := p.txs[txHash]; ok {
		return errors.NewTxAlreadyExistsError("[TxPool][%s] transaction already in mempool", txHash)
	}

	for _, input := range tx.Inputs {
		outpoint := utxo.Outpoint{TxID: *input.PreviousTxIDChainHash(), Index: input.PreviousTxOutIndex}

		if spender, ok := p.spends[outpoint]; ok {
			return errors.NewTxInvalidDoubleSpendError("[TxPool][%s] input %s already spent by %s", txHash, outpoint, spender)
		}
	}

	for _, input := range tx.Inputs {
		p.spends[utxo.Outpoint{TxID: *input.PreviousTxIDChainHash(), Index: input.PreviousTxOutIndex}] = txHash
	}

	p.txs[txHash] = &txEntry{
		tx:    tx,
		added: time.Now(),
	}

	cs.AddOperation(OperationAdd, tx)
	prometheusMempoolSize.Set(float64(len(p.txs)))

	return nil
}

func (p *TxPool) Get(txHash *chainhash.Hash) *bt.Tx {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if entry, ok := p.txs[*txHash]; ok {
		return entry.tx
	}

	return nil
}

func (p *TxPool) Has(txHash *chainhash.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.txs[*txHash]

	return ok
}

func (p *TxPool) SpentBy(outpoint *utxo.Outpoint) *chainhash.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if spender, ok := p.spends[*outpoint]; ok {
		return &spender
	}

	return nil
}

func (p *TxPool) Output(outpoint *utxo.Outpoint) *bt.Output {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.txs[outpoint.TxID]
	if !ok || int(outpoint.Index) >= len(entry.tx.Outputs) {
		return nil
	}

	output := entry.tx.Outputs[outpoint.Index]
	if utxo.IsUnspendable(output.LockingScript) {
		return nil
	}

	return output
}

func (p *TxPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.txs)
}

// RemoveMinerIDTx removes the miner info transaction txHash and everything spending its outputs.
// The removals are recorded in cs; the caller applies it.
func (p *TxPool) RemoveMinerIDTx(txHash *chainhash.Hash, cs *ChangeSet) {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := p.removeRecursive(*txHash, cs)

	p.logger.Debugf("[TxPool] removed miner info tx %s and %d descendants (%s)", txHash, removed-1, cs.Reason())
	prometheusMempoolSize.Set(float64(len(p.txs)))
}

// BlockConnected drops the block's transactions and anything conflicting with them. A tracked
// miner info transaction that confirmed is recorded in the tracker history; the tracked id is
// cleared when it confirmed or was evicted as a conflict.
func (p *TxPool) BlockConnected(ctx context.Context, height uint32, blockHash *chainhash.Hash, txs []*bt.Tx) error {
	cs := p.NewChangeSet(ReasonRemoveForBlock)
	tracked := p.tracker.Current()

	p.mu.Lock()

	var confirmedTracked bool

	for _, tx := range txs {
		txHash := *tx.TxIDChainHash()

		if tracked != nil && tracked.IsEqual(&txHash) {
			confirmedTracked = true
		}

		if entry, ok := p.txs[txHash]; ok {
			p.removeEntry(txHash, entry)
			cs.AddOperation(OperationRemove, entry.tx)
		}

		if tx.IsCoinbase() {
			continue
		}

		for _, input := range tx.Inputs {
			outpoint := utxo.Outpoint{TxID: *input.PreviousTxIDChainHash(), Index: input.PreviousTxOutIndex}

			if spender, ok := p.spends[outpoint]; ok && !spender.IsEqual(&txHash) {
				p.logger.Infof("[TxPool] removing %s, conflicts with %s in block %s", spender, txHash, blockHash)
				p.removeRecursive(spender, cs)
			}
		}
	}

	evictedTracked := tracked != nil && !confirmedTracked && p.txs[*tracked] == nil

	prometheusMempoolSize.Set(float64(len(p.txs)))
	p.mu.Unlock()

	cs.Apply()

	if confirmedTracked {
		if err := p.tracker.Record(ctx, height, blockHash, tracked); err != nil {
			return err
		}
	}

	if confirmedTracked || evictedTracked {
		if p.tracker.ClearIfMatches(tracked) {
			p.logger.Infof("[TxPool] miner info tx %s no longer in mempool at height %d", tracked, height)
		}
	}

	return nil
}

// removeRecursive must be called with the lock held. Returns the number of transactions removed.
func (p *TxPool) removeRecursive(txHash chainhash.Hash, cs *ChangeSet) int {
	entry, ok := p.txs[txHash]
	if !ok {
		return 0
	}

	p.removeEntry(txHash, entry)
	cs.AddOperation(OperationRemove, entry.tx)

	removed := 1

	for i := range entry.tx.Outputs {
		outpoint := utxo.Outpoint{TxID: txHash, Index: uint32(i)} //nolint:gosec // bounded by tx size

		if spender, ok := p.spends[outpoint]; ok {
			removed += p.removeRecursive(spender, cs)
		}
	}

	return removed
}

func (p *TxPool) removeEntry(txHash chainhash.Hash, entry *txEntry) {
	for _, input := range entry.tx.Inputs {
		outpoint := utxo.Outpoint{TxID: *input.PreviousTxIDChainHash(), Index: input.PreviousTxOutIndex}

		if spender, ok := p.spends[outpoint]; ok && spender.IsEqual(&txHash) {
			delete(p.spends, outpoint)
		}
	}

	delete(p.txs, txHash)
}
