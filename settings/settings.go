package settings

import (
	"path/filepath"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

func NewSettings() *Settings {
	params, err := chaincfg.GetChainParams(getString("network", "mainnet"))
	if err != nil {
		panic(err)
	}

	return &Settings{
		ClientName:         getString("clientName", "minerid"),
		DataFolder:         getString("dataFolder", "data"),
		LogLevel:           getString("logLevel", "INFO"),
		LoggerType:         getString("logger", "zerolog"),
		PrettyLogs:         getBool("PRETTY_LOGS", true),
		ProfilerAddr:       getString("profilerAddr", ":9091"),
		PrometheusEndpoint: getString("prometheusEndpoint", "/metrics"),
		HealthCheckAddr:    getString("healthCheckAddress", ":8000"),
		ChainCfgParams:     params,
		Policy: &PolicySettings{
			MinMiningTxFee:  getFloat64("minminingtxfee", 0.00000500),
			MaxTxSizePolicy: getInt("maxtxsizepolicy", 10485760), // 10MB
		},
		MinerID: MinerIDSettings{
			FundingPath:     getString("minerid_fundingPath", filepath.Join("miner_id", "Funding")),
			FundingKeyFile:  getString("minerid_fundingKeyFile", ".minerinfotxsigningkey.dat"),
			FundingSeedFile: getString("minerid_fundingSeedFile", "minerinfotxfunding.dat"),
			TrackerStore:    getString("minerid_trackerStore", ""),
			BroadcastURL:    getURL("minerid_broadcastURL", ""),
		},
		RPC: RPCSettings{
			RPCUser:        getString("rpc_user", ""),
			RPCPass:        getString("rpc_pass", ""),
			RPCLimitUser:   getString("rpc_limit_user", ""),
			RPCLimitPass:   getString("rpc_limit_pass", ""),
			RPCMaxClients:  getInt("rpc_max_clients", 1),
			RPCTimeout:     getDuration("rpc_timeout", 30*time.Second),
			RPCListenerURL: getURL("rpc_listener_url", "http://:9292"),
		},
	}
}

// FundingDir returns the absolute-or-relative directory holding the funding key and seed files.
func (s *Settings) FundingDir() string {
	return filepath.Join(s.DataFolder, s.MinerID.FundingPath)
}

// IsRegtest reports whether the node runs on the regression test network.
func (s *Settings) IsRegtest() bool {
	return s.ChainCfgParams != nil && s.ChainCfgParams.Name == chaincfg.RegressionNetParams.Name
}
