package chainstate

import (
	"context"
	"sync"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/stores/utxo/memory"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/bsv-blockchain/minerid/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func newState(t *testing.T) (*State, *mempool.TxPool) {
	t.Helper()

	logger := ulogger.TestLogger{}
	pool := mempool.New(logger, minerinfo.NewTracker(logger, nil))

	return New(logger, test.CreateBaseTestSettings(t), memory.New(logger), pool), pool
}

func spend(t *testing.T, parent *chainhash.Hash, index uint32, satoshis uint64) *bt.Tx {
	t.Helper()

	tx := bt.NewTx()

	input := &bt.Input{PreviousTxOutIndex: index, SequenceNumber: bt.DefaultSequenceNumber}
	require.NoError(t, input.PreviousTxIDAdd(parent))
	tx.Inputs = append(tx.Inputs, input)

	require.NoError(t, tx.PayToAddress(testAddress, satoshis))

	return tx
}

func TestState_ConnectBlock(t *testing.T) {
	ctx := context.Background()
	state, _ := newState(t)

	height, hash := state.Tip()
	assert.Equal(t, uint32(0), height)
	assert.Equal(t, chainhash.Hash{}, *hash)

	coinbase := test.CoinbaseTx(t, 1, test.P2PKHScript(t, testAddress), 5000)
	blockHash := chainhash.DoubleHashH([]byte("block1"))

	require.NoError(t, state.ConnectBlock(ctx, &blockHash, []*bt.Tx{coinbase}))

	height, hash = state.Tip()
	assert.Equal(t, uint32(1), height)
	assert.Equal(t, blockHash, *hash)

	tx, err := state.GetTransaction(ctx, coinbase.TxIDChainHash())
	require.NoError(t, err)
	assert.Equal(t, coinbase.TxID(), tx.TxID())

	child := spend(t, coinbase.TxIDChainHash(), 0, 4000)
	block2 := chainhash.DoubleHashH([]byte("block2"))
	require.NoError(t, state.ConnectBlock(ctx, &block2, []*bt.Tx{test.CoinbaseTx(t, 2, test.P2PKHScript(t, testAddress), 5000), child}))

	require.NoError(t, state.View(ctx, func(view utxo.CoinView) error {
		_, ok := utxo.Spendable(view, utxo.NewOutpoint(coinbase.TxIDChainHash(), 0))
		assert.False(t, ok)

		coin, ok := utxo.Spendable(view, utxo.NewOutpoint(child.TxIDChainHash(), 0))
		assert.True(t, ok)
		assert.Equal(t, uint32(2), coin.Height)

		return nil
	}))

	t.Run("block spending missing coin", func(t *testing.T) {
		bad := chainhash.DoubleHashH([]byte("bad"))
		err := state.ConnectBlock(ctx, &bad, []*bt.Tx{spend(t, coinbase.TxIDChainHash(), 0, 1)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))

		height, _ := state.Tip()
		assert.Equal(t, uint32(2), height)
	})
}

func TestState_ViewSeesMempool(t *testing.T) {
	ctx := context.Background()
	state, pool := newState(t)

	coinbase := test.CoinbaseTx(t, 1, test.P2PKHScript(t, testAddress), 5000)
	blockHash := chainhash.DoubleHashH([]byte("block1"))
	require.NoError(t, state.ConnectBlock(ctx, &blockHash, []*bt.Tx{coinbase}))

	unconfirmed := spend(t, coinbase.TxIDChainHash(), 0, 4000)
	require.NoError(t, pool.Add(unconfirmed, pool.NewChangeSet(mempool.ReasonNewTxn)))

	require.NoError(t, state.View(ctx, func(view utxo.CoinView) error {
		_, ok := utxo.Spendable(view, utxo.NewOutpoint(coinbase.TxIDChainHash(), 0))
		assert.False(t, ok)

		coin, ok := utxo.Spendable(view, utxo.NewOutpoint(unconfirmed.TxIDChainHash(), 0))
		assert.True(t, ok)
		assert.Equal(t, utxo.MempoolHeight, coin.Height)

		return nil
	}))

	tx, err := state.GetTransaction(ctx, unconfirmed.TxIDChainHash())
	require.NoError(t, err)
	assert.Equal(t, unconfirmed, tx)

	_, err = state.GetTransaction(ctx, &chainhash.Hash{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTxNotFound))

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		called := false
		err := state.View(cancelled, func(utxo.CoinView) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
	})
}

func TestState_ConnectBlockWaitsForReaders(t *testing.T) {
	ctx := context.Background()
	state, _ := newState(t)

	inView := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		_ = state.View(ctx, func(utxo.CoinView) error {
			close(inView)
			<-release

			assert.Equal(t, uint32(0), state.height)

			return nil
		})
	}()

	<-inView

	connected := make(chan struct{})

	go func() {
		blockHash := chainhash.DoubleHashH([]byte("block1"))
		assert.NoError(t, state.ConnectBlock(ctx, &blockHash, []*bt.Tx{test.CoinbaseTx(t, 1, test.P2PKHScript(t, testAddress), 1)}))
		close(connected)
	}()

	select {
	case <-connected:
		t.Fatal("block connected while a view was open")
	default:
	}

	close(release)
	wg.Wait()
	<-connected

	height, _ := state.Tip()
	assert.Equal(t, uint32(1), height)
}

func TestState_SeedCoinbase(t *testing.T) {
	ctx := context.Background()
	state, _ := newState(t)

	lockingScript := test.P2PKHScript(t, testAddress)

	first, err := state.SeedCoinbase(ctx, lockingScript, 1000)
	require.NoError(t, err)

	second, err := state.SeedCoinbase(ctx, lockingScript, 1000)
	require.NoError(t, err)

	assert.NotEqual(t, first.TxID(), second.TxID())

	height, _ := state.Tip()
	assert.Equal(t, uint32(2), height)

	require.NoError(t, state.View(ctx, func(view utxo.CoinView) error {
		coin, ok := utxo.Spendable(view, utxo.NewOutpoint(second.TxIDChainHash(), 0))
		require.True(t, ok)
		assert.Equal(t, uint64(1000), coin.Output.Satoshis)
		assert.Equal(t, uint32(2), coin.Height)

		return nil
	}))
}
