package rpc

import (
	"sync"

	"github.com/bsv-blockchain/minerid/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusHandleCreateMinerInfoTx            prometheus.Histogram
	prometheusHandleReplaceMinerInfoTx           prometheus.Histogram
	prometheusHandleGetMinerInfoTxID             prometheus.Histogram
	prometheusHandleMakeMinerInfoTxSigningKey    prometheus.Histogram
	prometheusHandleGetMinerInfoTxFundingAddress prometheus.Histogram
	prometheusHandleSetMinerInfoTxFundingOutpt   prometheus.Histogram
	prometheusRequestErrors                      *prometheus.CounterVec
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusHandleCreateMinerInfoTx = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rpc",
			Name:      "create_miner_info_tx",
			Help:      "Histogram of calls to handleCreateMinerInfoTx in the rpc service",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
	prometheusHandleReplaceMinerInfoTx = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rpc",
			Name:      "replace_miner_info_tx",
			Help:      "Histogram of calls to handleReplaceMinerInfoTx in the rpc service",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
	prometheusHandleGetMinerInfoTxID = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rpc",
			Name:      "get_miner_info_tx_id",
			Help:      "Histogram of calls to handleGetMinerInfoTxID in the rpc service",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
	prometheusHandleMakeMinerInfoTxSigningKey = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rpc",
			Name:      "make_miner_info_tx_signing_key",
			Help:      "Histogram of calls to handleMakeMinerInfoTxSigningKey in the rpc service",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
	prometheusHandleGetMinerInfoTxFundingAddress = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rpc",
			Name:      "get_miner_info_tx_funding_address",
			Help:      "Histogram of calls to handleGetMinerInfoTxFundingAddress in the rpc service",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
	prometheusHandleSetMinerInfoTxFundingOutpt = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rpc",
			Name:      "set_miner_info_tx_funding_outpoint",
			Help:      "Histogram of calls to handleSetMinerInfoTxFundingOutpoint in the rpc service",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
	prometheusRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rpc",
			Name:      "request_errors",
			Help:      "Number of rpc requests answered with an error, by rpc error code",
		},
		[]string{"code"},
	)
}
