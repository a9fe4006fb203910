package validator

import (
	"sync"

	"github.com/bsv-blockchain/minerid/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// prometheusInvalidTransactions counts rejected transactions
	prometheusInvalidTransactions prometheus.Counter

	// prometheusTransactionValidateTotal measures parse, validate and mempool insertion
	prometheusTransactionValidateTotal prometheus.Histogram

	prometheusTransactionSize prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusInvalidTransactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "minerid",
			Subsystem: "validator",
			Name:      "invalid_transactions",
			Help:      "Number of transactions found invalid by the validator",
		},
	)

	prometheusTransactionValidateTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "minerid",
			Subsystem: "validator",
			Name:      "transactions_validate_total",
			Help:      "Time taken to accept a transaction into the mempool",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusTransactionSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "minerid",
			Subsystem: "validator",
			Name:      "transactions_size",
			Help:      "Size of transactions processed by the validator",
			Buckets:   util.MetricsBucketsSizeSmall,
		},
	)
}
