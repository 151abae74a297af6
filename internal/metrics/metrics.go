package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poller metrics
var (
	PollTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cryptodevs_poll_ticks_total",
		Help: "Total number of state poller ticks",
	})

	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodevs_poll_errors_total",
			Help: "Total number of failed contract reads by read sequence",
		},
		[]string{"read"},
	)

	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cryptodevs_poll_duration_seconds",
		Help:    "Time taken by one poller tick",
		Buckets: prometheus.DefBuckets,
	})
)

// Sale state
var (
	TokensMinted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cryptodevs_tokens_minted",
		Help: "Last observed number of minted tokens",
	})

	PresaleActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cryptodevs_presale_active",
		Help: "1 while presale is started and not ended",
	})
)

// Transaction metrics
var (
	TxSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodevs_tx_submitted_total",
			Help: "Total number of submitted transactions by method",
		},
		[]string{"method"},
	)

	TxFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptodevs_tx_failed_total",
			Help: "Total number of failed or timed out transactions by method",
		},
		[]string{"method"},
	)

	TxConfirmDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cryptodevs_tx_confirm_duration_seconds",
		Help:    "Time from submission to receipt",
		Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 300},
	})
)
