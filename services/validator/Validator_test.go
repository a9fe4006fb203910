package validator

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-bt/v2/unlocker"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/chainstate"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/stores/utxo/memory"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/bsv-blockchain/minerid/util/test"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payToAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

type fixture struct {
	validator  *Validator
	pool       *mempool.TxPool
	privateKey *bec.PrivateKey
	coinbase   *bt.Tx
}

func newFixture(t *testing.T, coinbaseSatoshis uint64) *fixture {
	t.Helper()

	logger := ulogger.TestLogger{}
	tSettings := test.CreateBaseTestSettings(t)

	pool := mempool.New(logger, minerinfo.NewTracker(logger, nil))
	state := chainstate.New(logger, tSettings, memory.New(logger), pool)

	privateKey, err := bec.NewPrivateKey()
	require.NoError(t, err)

	lockingScript, err := bscript.NewP2PKHFromPubKeyBytes(privateKey.PubKey().Compressed())
	require.NoError(t, err)

	coinbase, err := state.SeedCoinbase(context.Background(), lockingScript, coinbaseSatoshis)
	require.NoError(t, err)

	return &fixture{
		validator:  New(logger, tSettings, state, pool),
		pool:       pool,
		privateKey: privateKey,
		coinbase:   coinbase,
	}
}

func (f *fixture) spend(t *testing.T, txID *chainhash.Hash, output *bt.Output, fee uint64, signer *bec.PrivateKey) *bt.Tx {
	t.Helper()

	tx := bt.NewTx()

	require.NoError(t, tx.FromUTXOs(&bt.UTXO{
		TxIDHash:      txID,
		Vout:          0,
		LockingScript: output.LockingScript,
		Satoshis:      output.Satoshis,
	}))

	require.NoError(t, tx.PayToAddress(payToAddress, output.Satoshis-fee))
	require.NoError(t, tx.FillAllInputs(context.Background(), &unlocker.Getter{PrivateKey: signer}))

	return tx
}

func TestValidator_SendRawTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("signed transaction is accepted", func(t *testing.T) {
		f := newFixture(t, 100_000)
		tx := f.spend(t, f.coinbase.TxIDChainHash(), f.coinbase.Outputs[0], 1000, f.privateKey)

		txHash, err := f.validator.SendRawTransaction(ctx, tx.String(), false, false)
		require.NoError(t, err)

		assert.Equal(t, tx.TxID(), txHash.String())
		assert.True(t, f.pool.Has(txHash))
		assert.True(t, f.pool.Journal().Has(txHash))
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newFixture(t, 100_000)

		otherKey, err := bec.NewPrivateKey()
		require.NoError(t, err)

		tx := f.spend(t, f.coinbase.TxIDChainHash(), f.coinbase.Outputs[0], 1000, otherKey)

		_, err = f.validator.SendRawTransaction(ctx, tx.String(), false, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxInvalid))
		assert.Equal(t, 0, f.pool.Size())
	})

	t.Run("fee too low unless fee check is skipped", func(t *testing.T) {
		f := newFixture(t, 100_000)
		tx := f.spend(t, f.coinbase.TxIDChainHash(), f.coinbase.Outputs[0], 0, f.privateKey)

		_, err := f.validator.SendRawTransaction(ctx, tx.String(), false, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxInsufficientFee))

		_, err = f.validator.SendRawTransaction(ctx, tx.String(), false, true)
		require.NoError(t, err)
	})

	t.Run("absurd fee unless high fees are allowed", func(t *testing.T) {
		f := newFixture(t, 100_000_000)
		tx := f.spend(t, f.coinbase.TxIDChainHash(), f.coinbase.Outputs[0], 99_999_000, f.privateKey)

		_, err := f.validator.SendRawTransaction(ctx, tx.String(), false, false)
		require.Error(t, err)
		assert.ErrorContains(t, err, "absurdly high fee")

		_, err = f.validator.SendRawTransaction(ctx, tx.String(), true, false)
		require.NoError(t, err)
	})

	t.Run("missing coin", func(t *testing.T) {
		f := newFixture(t, 100_000)

		unknown := chainhash.DoubleHashH([]byte("unknown"))
		tx := f.spend(t, &unknown, f.coinbase.Outputs[0], 1000, f.privateKey)

		_, err := f.validator.SendRawTransaction(ctx, tx.String(), false, false)
		require.Error(t, err)
		assert.ErrorContains(t, err, "missing or spent coin")
	})

	t.Run("mempool double spend", func(t *testing.T) {
		f := newFixture(t, 100_000)

		first := f.spend(t, f.coinbase.TxIDChainHash(), f.coinbase.Outputs[0], 1000, f.privateKey)
		second := f.spend(t, f.coinbase.TxIDChainHash(), f.coinbase.Outputs[0], 2000, f.privateKey)

		_, err := f.validator.SendRawTransaction(ctx, first.String(), false, false)
		require.NoError(t, err)

		_, err = f.validator.SendRawTransaction(ctx, second.String(), false, false)
		require.Error(t, err)
		assert.Equal(t, 1, f.pool.Size())
	})

	t.Run("unparsable hex", func(t *testing.T) {
		f := newFixture(t, 100_000)

		_, err := f.validator.SendRawTransaction(ctx, "zz", false, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxInvalid))
	})
}

func TestTxValidator_ValidateTransaction(t *testing.T) {
	tSettings := test.CreateBaseTestSettings(t)
	tv := NewTxValidator(ulogger.TestLogger{}, tSettings)

	t.Run("no inputs", func(t *testing.T) {
		tx := bt.NewTx()
		require.NoError(t, tx.PayToAddress(payToAddress, 1))

		err := tv.ValidateTransaction(tx, 1, nil)
		require.Error(t, err)
		assert.ErrorContains(t, err, "no inputs or outputs")
	})

	t.Run("duplicate inputs", func(t *testing.T) {
		lockingScript := test.P2PKHScript(t, payToAddress)
		parent := chainhash.DoubleHashH([]byte("parent"))

		tx := bt.NewTx()

		for i := 0; i < 2; i++ {
			require.NoError(t, tx.FromUTXOs(&bt.UTXO{TxIDHash: &parent, Vout: 0, LockingScript: lockingScript, Satoshis: 10}))
		}

		require.NoError(t, tx.PayToAddress(payToAddress, 1))

		err := tv.ValidateTransaction(tx, 1, nil)
		require.Error(t, err)
		assert.ErrorContains(t, err, "duplicate input")
	})

	t.Run("outputs exceed inputs", func(t *testing.T) {
		err := tv.checkFees(&bt.Tx{
			Inputs:  []*bt.Input{{PreviousTxSatoshis: 1}},
			Outputs: []*bt.Output{{Satoshis: 2, LockingScript: test.P2PKHScript(t, payToAddress)}},
		}, NewDefaultOptions())
		require.Error(t, err)
		assert.ErrorContains(t, err, "less than output satoshis")
	})
}

func TestMinRequiredFee(t *testing.T) {
	assert.Equal(t, uint64(100), MinRequiredFee(0.000005, 200))
	assert.Equal(t, uint64(1), MinRequiredFee(0.000005, 1))
	assert.Equal(t, uint64(0), MinRequiredFee(0, 200))
	assert.Equal(t, uint64(100), MinRequiredFee(0.00001, 100))
}

func TestOptions(t *testing.T) {
	options := ProcessOptions(WithAllowHighFees(true), WithDontCheckFee(true))
	assert.True(t, options.allowHighFees)
	assert.True(t, options.dontCheckFee)

	options = ProcessOptions()
	assert.False(t, options.allowHighFees)
	assert.False(t, options.dontCheckFee)
}
