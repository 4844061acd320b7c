package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Checks                 *prometheus.CounterVec
	Exceeded               *prometheus.CounterVec
	StoreErrors            *prometheus.CounterVec
	CleanupRunsTotal       *prometheus.CounterVec
	CleanupBucketsPruned   prometheus.Counter
	CleanupDurationSeconds prometheus.Histogram
}

// New registers limiter metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_checks_total",
			Help: "Sliding-window checks performed, by limiter",
		}, []string{"limiter"}),
		Exceeded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_exceeded_total",
			Help: "Checks rejected because the window was exhausted, by limiter",
		}, []string{"limiter"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_store_errors_total",
			Help: "Bucket store failures; the limiter fails open",
		}, []string{"limiter"}),
		CleanupRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_cleanup_runs_total",
			Help: "Total number of bucket cleanup runs",
		}, []string{"status"}),
		CleanupBucketsPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_cleanup_buckets_pruned_total",
			Help: "Empty buckets removed by the cleanup worker",
		}),
		CleanupDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "leadgate_ratelimit_cleanup_duration_seconds",
			Help: "Duration of cleanup runs in seconds",
		}),
	}
}

func (m *Metrics) ObserveCheck(limiter string, exceeded bool) {
	m.Checks.WithLabelValues(limiter).Inc()
	if exceeded {
		m.Exceeded.WithLabelValues(limiter).Inc()
	}
}

func (m *Metrics) IncrementStoreErrors(limiter string) {
	m.StoreErrors.WithLabelValues(limiter).Inc()
}
