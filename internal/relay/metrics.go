package relay

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsOnce ensures metrics are only initialized once.
var metricsOnce sync.Once

// metricsInstance is the singleton instance of relay metrics.
var metricsInstance *Metrics

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	TransfersTotal *prometheus.CounterVec // file2link_transfers_total{outcome}
	BytesUploaded  prometheus.Counter     // file2link_bytes_uploaded_total
	DedupHits      prometheus.Counter     // file2link_dedup_hits_total
	SweepDeletions prometheus.Counter     // file2link_sweep_deletions_total
	AdminDeletions prometheus.Counter     // file2link_admin_deletions_total
}

// InitMetrics initializes all relay metrics.
// Metrics are only registered once; subsequent calls return the same instance.
func InitMetrics(registry prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registry == nil {
			registry = prometheus.DefaultRegisterer
		}
		metricsInstance = &Metrics{
			TransfersTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
				Name: "file2link_transfers_total",
				Help: "Transfer pipeline runs by terminal state",
			}, []string{"outcome"}),

			BytesUploaded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "file2link_bytes_uploaded_total",
				Help: "Total bytes uploaded to the object store",
			}),

			DedupHits: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "file2link_dedup_hits_total",
				Help: "Transfers answered with an existing object",
			}),

			SweepDeletions: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "file2link_sweep_deletions_total",
				Help: "Objects deleted by the retention sweeper",
			}),

			AdminDeletions: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "file2link_admin_deletions_total",
				Help: "Objects deleted by admin commands",
			}),
		}
	})
	return metricsInstance
}
