// Package chainstate keeps the active chain tip, the confirmed UTXO set and the index of
// confirmed transactions, and reconciles the mempool when blocks connect.
package chainstate

import (
	"context"
	"encoding/binary"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/ulogger"
)

// State guards the tip and the UTXO set with a RWMutex. Readers that need a consistent view of
// confirmed and unconfirmed coins go through View; ConnectBlock holds the write lock until the
// mempool has been reconciled.
type State struct {
	logger   ulogger.Logger
	settings *settings.Settings
	mu       sync.RWMutex
	height   uint32
	hash     chainhash.Hash
	utxos    utxo.Interface
	txIndex  map[chainhash.Hash]*bt.Tx
	pool     *mempool.TxPool
}

func New(logger ulogger.Logger, tSettings *settings.Settings, utxoStore utxo.Interface, pool *mempool.TxPool) *State {
	initPrometheusMetrics()

	return &State{
		logger:   logger,
		settings: tSettings,
		utxos:    utxoStore,
		txIndex:  make(map[chainhash.Hash]*bt.Tx),
		pool:     pool,
	}
}

func (s *State) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	return s.utxos.Health(ctx, checkLiveness)
}

// Tip returns the height and hash of the active chain tip.
func (s *State) Tip() (uint32, *chainhash.Hash) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash := s.hash

	return s.height, &hash
}

// View runs fn with a mempool aware coin view while holding the chain state read lock.
func (s *State) View(ctx context.Context, fn func(view utxo.CoinView) error) error {
	if err := ctx.Err(); err != nil {
		return errors.NewContextCanceledError("[View] context done", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(utxo.NewMempoolView(s.utxos, s.pool))
}

// GetTransaction looks in the mempool first and then in the confirmed transactions.
func (s *State) GetTransaction(_ context.Context, txHash *chainhash.Hash) (*bt.Tx, error) {
	if tx := s.pool.Get(txHash); tx != nil {
		return tx, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if tx, ok := s.txIndex[*txHash]; ok {
		return tx, nil
	}

	return nil, errors.NewTxNotFoundError("[GetTransaction][%s] transaction not found", txHash)
}

// ConnectBlock extends the active chain by one block containing txs.
func (s *State) ConnectBlock(ctx context.Context, blockHash *chainhash.Hash, txs []*bt.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.height + 1

	// blocks are trusted; a failure part way leaves the UTXO set partially updated
	for _, tx := range txs {
		if !tx.IsCoinbase() {
			if err := s.utxos.Spend(tx); err != nil {
				return errors.NewBlockInvalidError("[ConnectBlock][%s] transaction %s spends missing coins", blockHash, tx.TxID(), err)
			}
		}

		if err := s.utxos.Add(tx, height); err != nil {
			return errors.NewBlockInvalidError("[ConnectBlock][%s] could not add outputs of %s", blockHash, tx.TxID(), err)
		}

		s.txIndex[*tx.TxIDChainHash()] = tx
	}

	s.height = height
	s.hash = *blockHash

	prometheusChainStateHeight.Set(float64(height))
	s.logger.Infof("[ConnectBlock] connected block %s at height %d with %d transactions", blockHash, height, len(txs))

	return s.pool.BlockConnected(ctx, height, blockHash, txs)
}

// SeedCoinbase connects a block holding a single coinbase that pays satoshis to lockingScript.
// It is used to fund regtest nodes and tests.
func (s *State) SeedCoinbase(ctx context.Context, lockingScript *bscript.Script, satoshis uint64) (*bt.Tx, error) {
	height, _ := s.Tip()

	coinbase := bt.NewTx()

	input := &bt.Input{
		PreviousTxOutIndex: 0xffffffff,
		SequenceNumber:     bt.DefaultSequenceNumber,
	}

	if err := input.PreviousTxIDAdd(&chainhash.Hash{}); err != nil {
		return nil, errors.NewProcessingError("[SeedCoinbase] could not build coinbase input", err)
	}

	heightBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(heightBytes, height+1)

	unlockingScript := &bscript.Script{}
	if err := unlockingScript.AppendPushData(heightBytes); err != nil {
		return nil, errors.NewProcessingError("[SeedCoinbase] could not build coinbase script", err)
	}

	input.UnlockingScript = unlockingScript
	coinbase.Inputs = append(coinbase.Inputs, input)
	coinbase.AddOutput(&bt.Output{Satoshis: satoshis, LockingScript: lockingScript})

	blockHash := chainhash.DoubleHashH(append(heightBytes, coinbase.Bytes()...))

	if err := s.ConnectBlock(ctx, &blockHash, []*bt.Tx{coinbase}); err != nil {
		return nil, err
	}

	return coinbase, nil
}
