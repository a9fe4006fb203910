package mempool

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func spend(t *testing.T, parent *chainhash.Hash, index uint32, satoshis uint64) *bt.Tx {
	t.Helper()

	tx := bt.NewTx()

	input := &bt.Input{PreviousTxOutIndex: index, SequenceNumber: bt.DefaultSequenceNumber}
	require.NoError(t, input.PreviousTxIDAdd(parent))
	tx.Inputs = append(tx.Inputs, input)

	require.NoError(t, tx.PayToAddress(testAddress, satoshis))

	return tx
}

func newPool() *TxPool {
	return New(ulogger.TestLogger{}, minerinfo.NewTracker(ulogger.TestLogger{}, nil))
}

func TestTxPool_Add(t *testing.T) {
	pool := newPool()
	funding := chainhash.DoubleHashH([]byte("funding"))

	tx := spend(t, &funding, 0, 1000)
	cs := pool.NewChangeSet(ReasonNewTxn)
	require.NoError(t, pool.Add(tx, cs))
	cs.Apply()

	assert.True(t, pool.Has(tx.TxIDChainHash()))
	assert.Equal(t, tx, pool.Get(tx.TxIDChainHash()))
	assert.Equal(t, 1, pool.Size())
	assert.Equal(t, []chainhash.Hash{*tx.TxIDChainHash()}, pool.Journal().Contents())

	assert.Equal(t, tx.TxIDChainHash(), pool.SpentBy(utxo.NewOutpoint(&funding, 0)))
	assert.Nil(t, pool.SpentBy(utxo.NewOutpoint(&funding, 1)))

	output := pool.Output(utxo.NewOutpoint(tx.TxIDChainHash(), 0))
	require.NotNil(t, output)
	assert.Equal(t, uint64(1000), output.Satoshis)
	assert.Nil(t, pool.Output(utxo.NewOutpoint(tx.TxIDChainHash(), 1)))

	t.Run("duplicate", func(t *testing.T) {
		err := pool.Add(tx, pool.NewChangeSet(ReasonNewTxn))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxAlreadyExists))
	})

	t.Run("double spend", func(t *testing.T) {
		err := pool.Add(spend(t, &funding, 0, 900), pool.NewChangeSet(ReasonNewTxn))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxInvalidDoubleSpend))
		assert.Equal(t, 1, pool.Size())
	})
}

func TestTxPool_RemoveMinerIDTx(t *testing.T) {
	pool := newPool()
	funding := chainhash.DoubleHashH([]byte("funding"))

	parent := spend(t, &funding, 0, 1000)
	child := spend(t, parent.TxIDChainHash(), 0, 900)
	grandChild := spend(t, child.TxIDChainHash(), 0, 800)
	unrelated := spend(t, &funding, 1, 500)

	cs := pool.NewChangeSet(ReasonNewTxn)
	for _, tx := range []*bt.Tx{parent, child, grandChild, unrelated} {
		require.NoError(t, pool.Add(tx, cs))
	}
	cs.Apply()

	require.Equal(t, 4, pool.Journal().Len())

	removal := pool.NewChangeSet(ReasonRemoveTxn)
	pool.RemoveMinerIDTx(parent.TxIDChainHash(), removal)

	assert.Len(t, removal.Changes(), 3)
	assert.Equal(t, ReasonRemoveTxn, removal.Reason())

	// the journal only changes once the set is applied
	assert.Equal(t, 4, pool.Journal().Len())
	removal.Apply()
	assert.Equal(t, []chainhash.Hash{*unrelated.TxIDChainHash()}, pool.Journal().Contents())

	assert.Equal(t, 1, pool.Size())
	assert.False(t, pool.Has(child.TxIDChainHash()))
	assert.Nil(t, pool.SpentBy(utxo.NewOutpoint(&funding, 0)))

	// the freed coin can be spent again
	require.NoError(t, pool.Add(spend(t, &funding, 0, 700), pool.NewChangeSet(ReasonNewTxn)))
}

func TestTxPool_BlockConnected(t *testing.T) {
	ctx := context.Background()
	funding := chainhash.DoubleHashH([]byte("funding"))
	blockHash := chainhash.DoubleHashH([]byte("block"))

	t.Run("tracked tx confirmed", func(t *testing.T) {
		pool := newPool()

		tracked := spend(t, &funding, 0, 1000)
		other := spend(t, &funding, 1, 1000)

		cs := pool.NewChangeSet(ReasonNewTxn)
		require.NoError(t, pool.Add(tracked, cs))
		require.NoError(t, pool.Add(other, cs))
		cs.Apply()

		pool.Tracker().SetCurrent(tracked.TxIDChainHash())

		require.NoError(t, pool.BlockConnected(ctx, 101, &blockHash, []*bt.Tx{tracked}))

		assert.Nil(t, pool.Tracker().Current())
		assert.Equal(t, 1, pool.Size())
		assert.Equal(t, []chainhash.Hash{*other.TxIDChainHash()}, pool.Journal().Contents())

		found, err := pool.Tracker().FindLatest(ctx, func(_ context.Context, entry *minerinfo.Entry) (*bt.Tx, error) {
			assert.Equal(t, uint32(101), entry.Height)
			assert.Equal(t, blockHash, entry.BlockHash)

			if entry.TxID == *tracked.TxIDChainHash() {
				return tracked, nil
			}

			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, tracked, found)
	})

	t.Run("tracked tx conflicted", func(t *testing.T) {
		pool := newPool()

		tracked := spend(t, &funding, 0, 1000)
		child := spend(t, tracked.TxIDChainHash(), 0, 900)

		cs := pool.NewChangeSet(ReasonNewTxn)
		require.NoError(t, pool.Add(tracked, cs))
		require.NoError(t, pool.Add(child, cs))
		cs.Apply()

		pool.Tracker().SetCurrent(tracked.TxIDChainHash())

		conflict := spend(t, &funding, 0, 500)
		require.NoError(t, pool.BlockConnected(ctx, 50, &blockHash, []*bt.Tx{conflict}))

		assert.Nil(t, pool.Tracker().Current())
		assert.Equal(t, 0, pool.Size())
		assert.Equal(t, 0, pool.Journal().Len())
	})

	t.Run("tracked tx untouched", func(t *testing.T) {
		pool := newPool()

		tracked := spend(t, &funding, 0, 1000)
		require.NoError(t, pool.Add(tracked, pool.NewChangeSet(ReasonNewTxn)))
		pool.Tracker().SetCurrent(tracked.TxIDChainHash())

		require.NoError(t, pool.BlockConnected(ctx, 50, &blockHash, []*bt.Tx{spend(t, &funding, 7, 500)}))

		assert.Equal(t, tracked.TxIDChainHash(), pool.Tracker().Current())
		assert.Equal(t, 1, pool.Size())
	})
}

func TestJournal_ReAddKeepsPosition(t *testing.T) {
	journal := NewJournal()
	funding := chainhash.DoubleHashH([]byte("funding"))

	first := spend(t, &funding, 0, 1)
	second := spend(t, &funding, 1, 1)

	add := newChangeSet(ReasonNewTxn, journal)
	add.AddOperation(OperationAdd, first)
	add.AddOperation(OperationAdd, second)
	add.Apply()
	add.Apply()

	both := newChangeSet(ReasonRemoveTxn, journal)
	both.AddOperation(OperationRemove, first)
	both.AddOperation(OperationAdd, first)
	both.Apply()

	assert.Equal(t, []chainhash.Hash{*first.TxIDChainHash(), *second.TxIDChainHash()}, journal.Contents())
	assert.True(t, journal.Has(second.TxIDChainHash()))
	assert.Equal(t, "REMOVE_FOR_BLOCK", ReasonRemoveForBlock.String())
}
