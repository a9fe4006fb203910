package test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/stretchr/testify/require"
)

// CreateBaseTestSettings returns regtest settings rooted in a temporary data folder.
func CreateBaseTestSettings(t *testing.T) *settings.Settings {
	t.Helper()

	tSettings := &settings.Settings{
		ClientName:     "minerid-test",
		DataFolder:     t.TempDir(),
		LogLevel:       "DEBUG",
		LoggerType:     "zerolog",
		ChainCfgParams: &chaincfg.RegressionNetParams,
		Policy: &settings.PolicySettings{
			MinMiningTxFee:  0.00000500,
			MaxTxSizePolicy: 10 * 1024 * 1024,
		},
		MinerID: settings.MinerIDSettings{
			FundingPath:     filepath.Join("miner_id", "Funding"),
			FundingKeyFile:  ".minerinfotxsigningkey.dat",
			FundingSeedFile: "minerinfotxfunding.dat",
		},
		RPC: settings.RPCSettings{
			RPCUser:       "user",
			RPCPass:       "pass",
			RPCLimitUser:  "limited",
			RPCLimitPass:  "limitedpass",
			RPCMaxClients: 10,
			RPCTimeout:    5 * time.Second,
		},
	}

	return tSettings
}

// CoinbaseTx builds a coinbase transaction paying satoshis to lockingScript. The height is
// pushed into the unlocking script so coinbases at different heights get different ids.
func CoinbaseTx(t *testing.T, height uint32, lockingScript *bscript.Script, satoshis uint64) *bt.Tx {
	t.Helper()

	tx := bt.NewTx()

	input := &bt.Input{
		PreviousTxOutIndex: 0xffffffff,
		SequenceNumber:     bt.DefaultSequenceNumber,
	}

	require.NoError(t, input.PreviousTxIDAdd(&chainhash.Hash{}))

	unlockingScript := &bscript.Script{}
	require.NoError(t, unlockingScript.AppendPushData([]byte{byte(height), byte(height >> 8), byte(height >> 16), byte(height >> 24)}))
	input.UnlockingScript = unlockingScript

	tx.Inputs = append(tx.Inputs, input)
	tx.AddOutput(&bt.Output{
		Satoshis:      satoshis,
		LockingScript: lockingScript,
	})

	return tx
}

// P2PKHScript returns the pay to public key hash script of address.
func P2PKHScript(t *testing.T, address string) *bscript.Script {
	t.Helper()

	script, err := bscript.NewP2PKHFromAddress(address)
	require.NoError(t, err)

	return script
}
