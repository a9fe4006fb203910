package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/ulogger"
)

type Memory struct {
	logger  ulogger.Logger
	coins   map[utxo.Outpoint]*utxo.Coin
	coinsMu sync.RWMutex
}

func New(logger ulogger.Logger) *Memory {
	return &Memory{
		logger: logger,
		coins:  make(map[utxo.Outpoint]*utxo.Coin),
	}
}

func (m *Memory) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "Memory Store available", nil
}

// Add stores every spendable output of tx as a coin created at blockHeight.
func (m *Memory) Add(tx *bt.Tx, blockHeight uint32) error {
	m.coinsMu.Lock()
	defer m.coinsMu.Unlock()

	txHash := tx.TxIDChainHash()

	for i, output := range tx.Outputs {
		if utxo.IsUnspendable(output.LockingScript) {
			continue
		}

		outpoint := utxo.Outpoint{TxID: *txHash, Index: uint32(i)} //nolint:gosec // output count is bounded by tx size

		if _, ok := m.coins[outpoint]; ok {
			return errors.NewTxAlreadyExistsError("coin %s already exists", outpoint)
		}

		m.coins[outpoint] = &utxo.Coin{
			Output: output,
			Height: blockHeight,
		}
	}

	return nil
}

// Spend removes the coins consumed by tx. Either all inputs are spent or none.
func (m *Memory) Spend(tx *bt.Tx) error {
	m.coinsMu.Lock()
	defer m.coinsMu.Unlock()

	outpoints := make([]utxo.Outpoint, 0, len(tx.Inputs))

	for _, input := range tx.Inputs {
		outpoint := utxo.Outpoint{TxID: *input.PreviousTxIDChainHash(), Index: input.PreviousTxOutIndex}

		if _, ok := m.coins[outpoint]; !ok {
			return errors.NewUtxoNotFoundError("[Spend][%s] coin %s not found", tx.TxID(), outpoint)
		}

		outpoints = append(outpoints, outpoint)
	}

	for _, outpoint := range outpoints {
		delete(m.coins, outpoint)
	}

	return nil
}

func (m *Memory) GetCoin(outpoint *utxo.Outpoint) (*utxo.Coin, error) {
	m.coinsMu.RLock()
	defer m.coinsMu.RUnlock()

	coin, ok := m.coins[*outpoint]
	if !ok {
		return nil, errors.NewUtxoNotFoundError("coin %s not found", outpoint)
	}

	return coin, nil
}

func (m *Memory) Len() int {
	m.coinsMu.RLock()
	defer m.coinsMu.RUnlock()

	return len(m.coins)
}
