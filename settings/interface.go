package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

type Settings struct {
	ClientName         string
	DataFolder         string
	LogLevel           string
	LoggerType         string
	PrettyLogs         bool
	ProfilerAddr       string
	PrometheusEndpoint string
	HealthCheckAddr    string
	ChainCfgParams     *chaincfg.Params
	Policy             *PolicySettings
	MinerID            MinerIDSettings
	RPC                RPCSettings
}

type PolicySettings struct {
	MinMiningTxFee  float64
	MaxTxSizePolicy int
}

func (ps *PolicySettings) GetMinMiningTxFee() float64 {
	return ps.MinMiningTxFee
}

func (ps *PolicySettings) GetMaxTxSizePolicy() int {
	return ps.MaxTxSizePolicy
}

type MinerIDSettings struct {
	// FundingPath is relative to DataFolder.
	FundingPath     string
	FundingKeyFile  string
	FundingSeedFile string
	// TrackerStore selects the history backend, empty keeps it in memory.
	TrackerStore string
	// BroadcastURL points at a remote node's JSON-RPC endpoint. When nil transactions go
	// through the in-process validator.
	BroadcastURL *url.URL
}

type RPCSettings struct {
	RPCUser        string
	RPCPass        string
	RPCLimitUser   string
	RPCLimitPass   string
	RPCMaxClients  int
	RPCTimeout     time.Duration
	RPCListenerURL *url.URL
}
