// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Monitoring metrics
	TransactionsObserved *prometheus.CounterVec
	NotificationsDropped prometheus.Counter
	ActiveMonitors       prometheus.Gauge
	MonitorRestarts      prometheus.Counter

	// Copy metrics
	CopiesAttempted prometheus.Counter
	CopiesSucceeded prometheus.Counter
	CopiesFailed    prometheus.Counter
	CopyVolumeSOL   prometheus.Counter

	// Wallet metrics
	WalletsTracked prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the given registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "solana_copy_bot"
	}
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsObserved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "transactions_observed_total",
			Help:      "Total number of classified transactions observed, by kind",
		}, []string{"kind"}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "notifications_dropped_total",
			Help:      "Total number of duplicate or unusable notifications dropped",
		}),
		ActiveMonitors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "active_monitors",
			Help:      "Number of wallet monitors currently running",
		}),
		MonitorRestarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "restarts_total",
			Help:      "Total number of wallet monitor restarts after disconnect",
		}),
		CopiesAttempted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "copy",
			Name:      "attempts_total",
			Help:      "Total number of copy transactions attempted",
		}),
		CopiesSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "copy",
			Name:      "successes_total",
			Help:      "Total number of copy transactions submitted successfully",
		}),
		CopiesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "copy",
			Name:      "failures_total",
			Help:      "Total number of copy transactions that failed",
		}),
		CopyVolumeSOL: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "copy",
			Name:      "volume_sol_total",
			Help:      "Total SOL-denominated volume of successful copies",
		}),
		WalletsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallets",
			Name:      "tracked",
			Help:      "Number of wallets currently configured",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance, registered on the
// default Prometheus registry.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)
