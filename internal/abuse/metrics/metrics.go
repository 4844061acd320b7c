package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Verdicts *prometheus.CounterVec
	Blocks   *prometheus.CounterVec
	Signals  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_abuse_verdicts_total",
			Help: "Abuse verdicts by kind",
		}, []string{"kind"}),
		Blocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_abuse_blocks_total",
			Help: "Hard blocks by reason",
		}, []string{"reason"}),
		Signals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_abuse_advisory_signals_total",
			Help: "Advisory bot signals fired, by signal",
		}, []string{"signal"}),
	}
}
