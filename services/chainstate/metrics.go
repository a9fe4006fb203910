package chainstate

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusChainStateHeight prometheus.Gauge
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusChainStateHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "minerid",
			Subsystem: "chainstate",
			Name:      "height",
			Help:      "Height of the active chain tip",
		},
	)
}
