/*
Package validator accepts raw transactions into the mempool.

The TxValidator enforces the consensus and policy checks a node applies before relaying a
transaction: structure, size, input and output ranges, push-only unlocking scripts, script
execution against the spent outputs and the fee policy. The Validator service resolves the
spent coins from the chain state, runs the checks and adds the transaction to the mempool.
*/
package validator

import (
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/bscript/interpreter"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/ulogger"
)

const (
	// MaxSatoshis is the total supply in satoshis
	MaxSatoshis = 21_000_000_00_000_000

	// MaxBlockSize is used when no tx size policy is configured
	MaxBlockSize = 4 * 1024 * 1024 * 1024

	// DustLimit is the smallest value a spendable output may carry on networks requiring standard txs
	DustLimit = 1

	// AbsurdFeeMultiplier is how many times the minimum fee a transaction may pay before it is
	// rejected as absurd, unless high fees are allowed
	AbsurdFeeMultiplier = 10_000

	coinbaseTxID = "0000000000000000000000000000000000000000000000000000000000000000"
)

// TxValidatorI defines the contract for transaction validation.
type TxValidatorI interface {
	// ValidateTransaction checks an extended transaction against the node's rules at blockHeight.
	ValidateTransaction(tx *bt.Tx, blockHeight uint32, validationOptions *Options) error
}

// TxValidator implements transaction validation logic
type TxValidator struct {
	logger   ulogger.Logger
	settings *settings.Settings
}

func NewTxValidator(logger ulogger.Logger, tSettings *settings.Settings) *TxValidator {
	return &TxValidator{
		logger:   logger,
		settings: tSettings,
	}
}

// ValidateTransaction checks, in order:
//  1. Input and output presence
//  2. Transaction size limits
//  3. Input values and coinbase restrictions
//  4. Output values
//  5. Push only unlocking scripts
//  6. Script execution
//  7. Fee requirements
//
// The transaction must be extended: every input carries the satoshis and locking script of the
// output it spends.
func (tv *TxValidator) ValidateTransaction(tx *bt.Tx, blockHeight uint32, validationOptions *Options) error {
	if validationOptions == nil {
		validationOptions = NewDefaultOptions()
	}

	// 1) Neither lists of inputs nor outputs are empty
	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return errors.NewTxInvalidError("transaction has no inputs or outputs")
	}

	// 2) The transaction size in bytes is less than maxtxsizepolicy.
	if err := tv.checkTxSize(tx.Size()); err != nil {
		return err
	}

	// 3) each input value, as well as the sum, is below 21m coins and nothing spends a coinbase input
	if err := tv.checkInputs(tx); err != nil {
		return err
	}

	// 4) each output value, as well as the total, is below 21m coins
	if err := tv.checkOutputs(tx); err != nil {
		return err
	}

	// 5) The unlocking script (scriptSig) can only push numbers on the stack
	if blockHeight > tv.settings.ChainCfgParams.UahfForkHeight {
		if err := tv.pushDataCheck(tx); err != nil {
			return err
		}
	}

	// 6) The unlocking scripts for each input must validate against the corresponding output locking scripts
	if err := tv.verifyScripts(tx, blockHeight); err != nil {
		return err
	}

	// 7) Reject if the sum of input values is less than sum of output values, or the fee is below
	//    the mining fee or absurdly high
	return tv.checkFees(tx, validationOptions)
}

func (tv *TxValidator) checkTxSize(txSize int) error {
	maxTxSizePolicy := tv.settings.Policy.GetMaxTxSizePolicy()
	if maxTxSizePolicy == 0 {
		// no policy found for tx size, use max block size
		maxTxSizePolicy = MaxBlockSize
	}

	if txSize > maxTxSizePolicy {
		return errors.NewTxInvalidError("transaction size in bytes is greater than max tx size policy %d", maxTxSizePolicy)
	}

	return nil
}

func (tv *TxValidator) checkInputs(tx *bt.Tx) error {
	total := uint64(0)

	// 32 bytes txid + 4 bytes output index
	seenInputs := make(map[[36]byte]struct{}, len(tx.Inputs))

	for index, input := range tx.Inputs {
		var key [36]byte

		copy(key[:32], input.PreviousTxID())

		outIdx := input.PreviousTxOutIndex
		key[32] = byte(outIdx >> 24)
		key[33] = byte(outIdx >> 16)
		key[34] = byte(outIdx >> 8)
		key[35] = byte(outIdx)

		if _, exists := seenInputs[key]; exists {
			return errors.NewTxInvalidError("duplicate input found at index %d", index)
		}

		seenInputs[key] = struct{}{}

		if input.PreviousTxIDStr() == coinbaseTxID {
			return errors.NewTxInvalidError("transaction input %d is a coinbase input", index)
		}

		if input.PreviousTxSatoshis > MaxSatoshis {
			return errors.NewTxInvalidError("transaction input %d satoshis is too high", index)
		}

		total += input.PreviousTxSatoshis
	}

	if total > MaxSatoshis {
		return errors.NewTxInvalidError("transaction input total satoshis is too high")
	}

	return nil
}

func (tv *TxValidator) checkOutputs(tx *bt.Tx) error {
	total := uint64(0)

	for index, output := range tx.Outputs {
		if output.Satoshis > MaxSatoshis {
			return errors.NewTxInvalidError("transaction output %d satoshis is invalid", index)
		}

		if output.LockingScript == nil {
			return errors.NewTxInvalidError("transaction output %d has no locking script", index)
		}

		if tv.settings.ChainCfgParams.RequireStandard && output.Satoshis < DustLimit && !isUnspendableOutput(output.LockingScript) {
			return errors.NewTxInvalidError("zero-satoshi outputs require 'OP_FALSE OP_RETURN' prefix")
		}

		total += output.Satoshis
	}

	if total > MaxSatoshis {
		return errors.NewTxInvalidError("transaction output total satoshis is too high")
	}

	return nil
}

func (tv *TxValidator) pushDataCheck(tx *bt.Tx) error {
	for index, input := range tx.Inputs {
		if input.UnlockingScript == nil {
			return errors.NewTxInvalidError("transaction input %d unlocking script is empty", index)
		}

		parser := interpreter.DefaultOpcodeParser{}

		parsedUnlockingScript, err := parser.Parse(input.UnlockingScript)
		if err != nil {
			return errors.NewTxInvalidError("transaction input %d unlocking script could not be parsed", index, err)
		}

		if !parsedUnlockingScript.IsPushOnly() {
			return errors.NewTxInvalidError("transaction input %d unlocking script is not push only", index)
		}
	}

	return nil
}

func (tv *TxValidator) verifyScripts(tx *bt.Tx, blockHeight uint32) error {
	for index, input := range tx.Inputs {
		if input.PreviousTxScript == nil {
			return errors.NewTxInvalidError("transaction input %d is not extended", index)
		}

		prevOutput := &bt.Output{
			Satoshis:      input.PreviousTxSatoshis,
			LockingScript: input.PreviousTxScript,
		}

		opts := []interpreter.ExecutionOptionFunc{
			interpreter.WithTx(tx, index, prevOutput),
			interpreter.WithForkID(),
		}

		if blockHeight >= tv.settings.ChainCfgParams.GenesisActivationHeight {
			opts = append(opts, interpreter.WithAfterGenesis())
		}

		if err := interpreter.NewEngine().Execute(opts...); err != nil {
			return errors.NewTxInvalidError("transaction input %d script verification failed", index, err)
		}
	}

	return nil
}

func (tv *TxValidator) checkFees(tx *bt.Tx, validationOptions *Options) error {
	inputSats := tx.TotalInputSatoshis()
	outputSats := tx.TotalOutputSatoshis()

	if inputSats < outputSats {
		return errors.NewTxInvalidError("transaction input satoshis is less than output satoshis: %d < %d", inputSats, outputSats)
	}

	minFeeRateBSVPerKB := tv.settings.Policy.GetMinMiningTxFee()
	if minFeeRateBSVPerKB == 0 {
		return nil // no fee policy found, skip fee check
	}

	actualFeePaid := inputSats - outputSats
	minRequiredFee := MinRequiredFee(minFeeRateBSVPerKB, tx.Size())

	if !validationOptions.dontCheckFee && actualFeePaid < minRequiredFee {
		return errors.NewTxInsufficientFeeError("transaction fee is too low: %d < %d required", actualFeePaid, minRequiredFee)
	}

	if !validationOptions.allowHighFees && actualFeePaid > AbsurdFeeMultiplier*minRequiredFee {
		return errors.NewTxInvalidError("absurdly high fee: %d > %d", actualFeePaid, AbsurdFeeMultiplier*minRequiredFee)
	}

	return nil
}

// MinRequiredFee converts a BSV per kilobyte rate into the fee for txSize bytes. Any non-zero
// rate costs at least one satoshi.
func MinRequiredFee(minFeeRateBSVPerKB float64, txSize int) uint64 {
	// BSV/kB * 1e8 / 1000 = satoshis/byte
	satoshisPerByte := minFeeRateBSVPerKB * 1e8 / 1000

	minRequiredFee := uint64(satoshisPerByte * float64(txSize))

	if minRequiredFee == 0 && txSize > 0 && minFeeRateBSVPerKB > 0 {
		minRequiredFee = 1
	}

	return minRequiredFee
}

// isUnspendableOutput checks if an output script starts with OP_FALSE OP_RETURN
func isUnspendableOutput(script *bscript.Script) bool {
	if script == nil {
		return false
	}

	scriptBytes := *script

	return len(scriptBytes) >= 2 && scriptBytes[0] == bscript.OpFALSE && scriptBytes[1] == bscript.OpRETURN
}
