package opmode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CacheHits *prometheus.CounterVec
	Probes    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_opmode_cache_hits_total",
			Help: "Mode resolutions served without probing, by source (token, local)",
		}, []string{"source"}),
		Probes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_opmode_probes_total",
			Help: "Health probes by resulting mode",
		}, []string{"mode"}),
	}
}
