package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Issued   *prometheus.CounterVec
	Redeemed *prometheus.CounterVec
	Rejected *prometheus.CounterVec
	Released *prometheus.CounterVec
	Reaped   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Issued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ledger_issued_total",
			Help: "Submission codes issued, by flow",
		}, []string{"flow"}),
		Redeemed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ledger_redeemed_total",
			Help: "Successful redemptions, by route",
		}, []string{"route"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ledger_rejected_total",
			Help: "Rejected redemptions, by internal reason",
		}, []string{"reason"}),
		Released: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ledger_released_total",
			Help: "Reserved routes released after the guarded upstream call failed",
		}, []string{"route"}),
		Reaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgate_ledger_reaped_total",
			Help: "Expired submission codes removed by the reaper",
		}),
	}
}
