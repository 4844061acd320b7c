package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FormsEnabled prometheus.Gauge
	ReadErrors   prometheus.Counter
	Toggles      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FormsEnabled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leadgate_forms_enabled",
			Help: "1 when form submissions are accepted, 0 when the kill-switch is off",
		}),
		ReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgate_killswitch_read_errors_total",
			Help: "Failed reads of the durable kill-switch record",
		}),
		Toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_killswitch_toggles_total",
			Help: "Operator changes to the kill-switch, by new state",
		}, []string{"enabled"}),
	}
}
