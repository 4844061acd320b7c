package captcha

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts verification outcomes.
type Metrics struct {
	Verifications *prometheus.CounterVec
	Latency       prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_captcha_verifications_total",
			Help: "CAPTCHA verifications by provider and result",
		}, []string{"provider", "result"}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadgate_captcha_verify_duration_seconds",
			Help:    "Time spent calling the CAPTCHA provider",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
		}),
	}
}
