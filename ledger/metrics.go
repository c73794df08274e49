package ledger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusLedgerEpochs        prometheus.Counter
	prometheusLedgerEpochAborts   prometheus.Counter
	prometheusLedgerAdmitted      prometheus.Counter
	prometheusLedgerRejected      *prometheus.CounterVec
	prometheusLedgerFees          prometheus.Counter
	prometheusLedgerEpochDuration prometheus.Histogram
	prometheusLedgerPoolSize      prometheus.Gauge

	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusLedgerEpochs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_epochs_committed",
			Help: "Number of epochs committed to the pool",
		},
	)
	prometheusLedgerEpochAborts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_epochs_aborted",
			Help: "Number of epochs abandoned before commit",
		},
	)
	prometheusLedgerAdmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_tx_admitted",
			Help: "Number of transactions admitted",
		},
	)
	prometheusLedgerRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_tx_rejected",
			Help: "Number of candidate transactions rejected",
		},
		[]string{
			"reason", // error code name
		},
	)
	prometheusLedgerFees = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_fees_collected",
			Help: "Sum of the fees of admitted transactions in minor units",
		},
	)
	prometheusLedgerEpochDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_epoch_duration_seconds",
			Help:    "Time taken to rank, admit and commit one epoch",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)
	prometheusLedgerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_pool_size",
			Help: "Number of unspent outputs in the committed pool",
		},
	)
}
