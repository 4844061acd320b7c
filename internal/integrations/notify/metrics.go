package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Sent         *prometheus.CounterVec
	BreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Sent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_notify_sent_total",
			Help: "Notification deliveries by sink, channel and result",
		}, []string{"sink", "channel", "result"}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leadgate_notify_webhook_circuit_open",
			Help: "1 while the webhook circuit breaker is open",
		}),
	}
}
