package validator

import (
	"context"
	"net/http"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/stores/utxo"
	"github.com/bsv-blockchain/minerid/ulogger"
)

// ChainView is the part of the chain state the validator reads.
type ChainView interface {
	Tip() (uint32, *chainhash.Hash)
	View(ctx context.Context, fn func(view utxo.CoinView) error) error
}

// Pool is the part of the mempool the validator writes to.
type Pool interface {
	NewChangeSet(reason mempool.JournalUpdateReason) *mempool.ChangeSet
	Add(tx *bt.Tx, cs *mempool.ChangeSet) error
}

// Validator resolves the coins a transaction spends, validates it and adds it to the mempool.
type Validator struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	chain       ChainView
	pool        Pool
	txValidator TxValidatorI
}

func New(logger ulogger.Logger, tSettings *settings.Settings, chain ChainView, pool Pool) *Validator {
	initPrometheusMetrics()

	return &Validator{
		logger:      logger,
		settings:    tSettings,
		chain:       chain,
		pool:        pool,
		txValidator: NewTxValidator(logger, tSettings),
	}
}

func (v *Validator) Health(_ context.Context, _ bool) (int, string, error) {
	return http.StatusOK, "OK", nil
}

// SendRawTransaction accepts a hex encoded transaction into the mempool and returns its id.
func (v *Validator) SendRawTransaction(ctx context.Context, txHex string, allowHighFees, dontCheckFee bool) (*chainhash.Hash, error) {
	start := time.Now()

	tx, err := bt.NewTxFromString(txHex)
	if err != nil {
		prometheusInvalidTransactions.Inc()
		return nil, errors.NewTxInvalidError("[SendRawTransaction] could not parse transaction", err)
	}

	prometheusTransactionSize.Observe(float64(tx.Size()))

	if err = v.Validate(ctx, tx, WithAllowHighFees(allowHighFees), WithDontCheckFee(dontCheckFee)); err != nil {
		prometheusInvalidTransactions.Inc()
		return nil, err
	}

	prometheusTransactionValidateTotal.Observe(time.Since(start).Seconds())

	return tx.TxIDChainHash(), nil
}

// Validate extends tx from the mempool aware coin view, validates it at the next block height
// and adds it to the mempool. No block can connect between resolving the coins and adding the
// transaction.
func (v *Validator) Validate(ctx context.Context, tx *bt.Tx, opts ...Option) error {
	validationOptions := ProcessOptions(opts...)

	if tx.IsCoinbase() {
		return errors.NewTxInvalidError("[Validate][%s] coinbase transactions are not accepted", tx.TxID())
	}

	// read before taking the view: Tip takes the same read lock
	height, _ := v.chain.Tip()

	return v.chain.View(ctx, func(view utxo.CoinView) error {
		for index, input := range tx.Inputs {
			outpoint := utxo.NewOutpoint(input.PreviousTxIDChainHash(), input.PreviousTxOutIndex)

			coin, ok := utxo.Spendable(view, outpoint)
			if !ok {
				return errors.NewTxInvalidError("[Validate][%s] input %d spends missing or spent coin %s", tx.TxID(), index, outpoint)
			}

			input.PreviousTxSatoshis = coin.Output.Satoshis
			input.PreviousTxScript = coin.Output.LockingScript
		}

		if err := v.txValidator.ValidateTransaction(tx, height+1, validationOptions); err != nil {
			return errors.NewTxInvalidError("[Validate][%s] transaction is invalid", tx.TxID(), err)
		}

		cs := v.pool.NewChangeSet(mempool.ReasonNewTxn)

		if err := v.pool.Add(tx, cs); err != nil {
			return err
		}

		cs.Apply()

		v.logger.Debugf("[Validate][%s] accepted into mempool", tx.TxID())

		return nil
	})
}
