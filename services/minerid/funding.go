package minerid

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/sighash"
	"github.com/bsv-blockchain/go-bt/v2/unlocker"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/stores/funding"
	"github.com/bsv-blockchain/minerid/stores/utxo"
)

// ChooseFundingOutpoint picks the coin that pays for the next miner info transaction: the seed
// outpoint while it is unspent, then the first positive, unspent output of the previous miner
// info transaction.
func ChooseFundingOutpoint(view utxo.CoinView, seed utxo.Outpoint, previous *bt.Tx) (*utxo.Outpoint, error) {
	if _, ok := utxo.Spendable(view, &seed); ok {
		return &seed, nil
	}

	if previous == nil {
		return nil, errors.NewFundingExhaustedError("Cannot find spendable funding transaction")
	}

	previousID := previous.TxIDChainHash()

	for i, output := range previous.Outputs {
		if output.Satoshis == 0 {
			continue
		}

		index, err := safeconversion.IntToUint32(i)
		if err != nil {
			return nil, errors.NewProcessingError("output index %d out of range", i, err)
		}

		outpoint := utxo.NewOutpoint(previousID, index)

		if _, ok := utxo.Spendable(view, outpoint); ok {
			return outpoint, nil
		}
	}

	return nil, errors.NewFundingExhaustedError("Could not use previous minerinfo-txn to fund next: %s", previousID)
}

// FundAndSign spends outpoint in tx: the whole coin value goes back to the funding address in a
// change output, and the single input is signed with key. The transaction pays no fee.
func FundAndSign(ctx context.Context, view utxo.CoinView, key *funding.Key, outpoint *utxo.Outpoint, tx *bt.Tx) error {
	coin, ok := utxo.Spendable(view, outpoint)
	if !ok {
		return errors.NewMissingCoinError("Cannot find funding UTXO's")
	}

	changeScript, err := bscript.NewP2PKHFromAddress(key.Address)
	if err != nil {
		return errors.NewProcessingError("invalid funding address %s", key.Address, err)
	}

	tx.AddOutput(&bt.Output{
		Satoshis:      coin.Output.Satoshis,
		LockingScript: changeScript,
	})

	input := &bt.Input{
		PreviousTxOutIndex: outpoint.Index,
		PreviousTxSatoshis: coin.Output.Satoshis,
		PreviousTxScript:   coin.Output.LockingScript,
		SequenceNumber:     bt.DefaultSequenceNumber,
	}

	if err = input.PreviousTxIDAdd(&outpoint.TxID); err != nil {
		return errors.NewProcessingError("invalid funding outpoint %s", outpoint, err)
	}

	tx.Inputs = append(tx.Inputs, input)

	idx, err := safeconversion.IntToUint32(len(tx.Inputs) - 1)
	if err != nil {
		return errors.NewProcessingError("input index out of range", err)
	}

	getter := &unlocker.Getter{PrivateKey: key.PrivateKey}

	u, err := getter.Unlocker(ctx, coin.Output.LockingScript)
	if err != nil {
		return errors.NewProcessingError("could not create unlocker for funding outpoint %s", outpoint, err)
	}

	if err = tx.FillInput(ctx, u, bt.UnlockerParams{InputIdx: idx, SigHashFlags: sighash.AllForkID}); err != nil {
		return errors.NewProcessingError("could not sign funding input %s", outpoint, err)
	}

	return nil
}
