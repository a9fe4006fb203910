package minerid

import (
	"sync"

	"github.com/bsv-blockchain/minerid/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCreateOrReplace *prometheus.HistogramVec
	prometheusBroadcast       prometheus.Histogram
	prometheusTrackedReplaced prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCreateOrReplace = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "minerid",
			Subsystem: "lifecycle",
			Name:      "create_or_replace",
			Help:      "Histogram of miner info transaction create or replace calls",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
		[]string{"outcome"},
	)

	prometheusBroadcast = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "minerid",
			Subsystem: "lifecycle",
			Name:      "broadcast",
			Help:      "Histogram of miner info transaction broadcasts",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusTrackedReplaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "minerid",
			Subsystem: "lifecycle",
			Name:      "replaced",
			Help:      "Number of tracked miner info transactions removed to make room for a replacement",
		},
	)
}
