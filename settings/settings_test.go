package settings

import (
	"path/filepath"
	"testing"

	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// check settings object is initialised
func TestInitialiseSettings(t *testing.T) {
	tSettings := NewSettings()

	require.NotNil(t, tSettings.ChainCfgParams)
	require.NotNil(t, tSettings.Policy)
	require.NotNil(t, tSettings.RPC.RPCListenerURL)

	assert.Equal(t, filepath.Join("miner_id", "Funding"), tSettings.MinerID.FundingPath)
	assert.Equal(t, ".minerinfotxsigningkey.dat", tSettings.MinerID.FundingKeyFile)
	assert.Equal(t, "minerinfotxfunding.dat", tSettings.MinerID.FundingSeedFile)
	assert.Equal(t, 1, tSettings.RPC.RPCMaxClients)
	assert.Equal(t, ":8000", tSettings.HealthCheckAddr)
}

func TestFundingDir(t *testing.T) {
	tSettings := NewSettings()
	tSettings.DataFolder = "/var/lib/minerid"

	assert.Equal(t, "/var/lib/minerid/miner_id/Funding", tSettings.FundingDir())
}

func TestIsRegtest(t *testing.T) {
	tests := []struct {
		name   string
		params *chaincfg.Params
		expect bool
	}{
		{"RegressionNet", &chaincfg.RegressionNetParams, true},
		{"TestNet", &chaincfg.TestNetParams, false},
		{"MainNet", &chaincfg.MainNetParams, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tSettings := NewSettings()
			tSettings.ChainCfgParams = tt.params
			require.Equal(t, tt.expect, tSettings.IsRegtest())
		})
	}
}
