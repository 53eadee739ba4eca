package bank

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on a registry owned by the bank, so several
// banks can live in one process.
type Metrics struct {
	Registry          *prometheus.Registry
	Transactions      *prometheus.CounterVec
	Instructions      *prometheus.CounterVec
	ComputeUnits      prometheus.Histogram
	AccountsCommitted prometheus.Counter
	ClockUnixTime     prometheus.Gauge
}

func newMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liquidstake",
			Subsystem: "bank",
			Name:      "transactions_total",
			Help:      "Processed transactions by outcome",
		}, []string{"status"}),
		Instructions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liquidstake",
			Subsystem: "bank",
			Name:      "instructions_total",
			Help:      "Top-level instructions executed by program and outcome",
		}, []string{"program", "status"}),
		ComputeUnits: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "liquidstake",
			Subsystem: "bank",
			Name:      "compute_units",
			Help:      "Compute units consumed per transaction",
			Buckets:   prometheus.ExponentialBuckets(500, 2, 10),
		}),
		AccountsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "liquidstake",
			Subsystem: "bank",
			Name:      "accounts_committed_total",
			Help:      "Accounts written back to the store",
		}),
		ClockUnixTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "liquidstake",
			Subsystem: "bank",
			Name:      "clock_unix_timestamp",
			Help:      "Unix timestamp of the clock sysvar",
		}),
	}
}
