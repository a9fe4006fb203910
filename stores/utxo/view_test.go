package utxo_test

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/stores/utxo/memory"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pool struct {
	spent   map[utxo.Outpoint]*chainhash.Hash
	outputs map[utxo.Outpoint]*bt.Output
}

func (p *pool) SpentBy(outpoint *utxo.Outpoint) *chainhash.Hash {
	return p.spent[*outpoint]
}

func (p *pool) Output(outpoint *utxo.Outpoint) *bt.Output {
	return p.outputs[*outpoint]
}

func TestMempoolView(t *testing.T) {
	confirmed := bt.NewTx()
	require.NoError(t, confirmed.PayToAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 5000))
	require.NoError(t, confirmed.PayToAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 6000))

	base := memory.New(ulogger.TestLogger{})
	require.NoError(t, base.Add(confirmed, 10))

	unconfirmed := bt.NewTx()
	require.NoError(t, unconfirmed.PayToAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 4000))

	spentOutpoint := utxo.NewOutpoint(confirmed.TxIDChainHash(), 0)
	freeOutpoint := utxo.NewOutpoint(confirmed.TxIDChainHash(), 1)
	mempoolOutpoint := utxo.NewOutpoint(unconfirmed.TxIDChainHash(), 0)

	p := &pool{
		spent: map[utxo.Outpoint]*chainhash.Hash{
			*spentOutpoint: unconfirmed.TxIDChainHash(),
		},
		outputs: map[utxo.Outpoint]*bt.Output{
			*mempoolOutpoint: unconfirmed.Outputs[0],
		},
	}

	view := utxo.NewMempoolView(base, p)

	t.Run("confirmed coin spent in mempool", func(t *testing.T) {
		coin, err := view.GetCoin(spentOutpoint)
		require.NoError(t, err)
		assert.True(t, coin.IsSpent())

		_, ok := utxo.Spendable(view, spentOutpoint)
		assert.False(t, ok)

		// the confirmed set itself is untouched
		baseCoin, err := base.GetCoin(spentOutpoint)
		require.NoError(t, err)
		assert.False(t, baseCoin.IsSpent())
	})

	t.Run("confirmed coin", func(t *testing.T) {
		coin, ok := utxo.Spendable(view, freeOutpoint)
		require.True(t, ok)
		assert.Equal(t, uint64(6000), coin.Output.Satoshis)
		assert.Equal(t, uint32(10), coin.Height)
	})

	t.Run("mempool output", func(t *testing.T) {
		coin, ok := utxo.Spendable(view, mempoolOutpoint)
		require.True(t, ok)
		assert.Equal(t, uint64(4000), coin.Output.Satoshis)
		assert.Equal(t, utxo.MempoolHeight, coin.Height)
	})

	t.Run("unknown outpoint", func(t *testing.T) {
		_, err := view.GetCoin(utxo.NewOutpoint(&chainhash.Hash{}, 0))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUtxoNotFound))
	})
}

func TestIsUnspendable(t *testing.T) {
	tx := bt.NewTx()
	require.NoError(t, tx.AddOpReturnOutput([]byte("data")))
	require.NoError(t, tx.PayToAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", 1))

	assert.True(t, utxo.IsUnspendable(tx.Outputs[0].LockingScript))
	assert.False(t, utxo.IsUnspendable(tx.Outputs[1].LockingScript))
	assert.False(t, utxo.IsUnspendable(nil))
}
