package scenarios

import "github.com/prometheus/client_golang/prometheus"

var (
	scenariosCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "echopredictor",
		Subsystem: "scenarios",
		Name:      "created_total",
		Help:      "Total scenarios created.",
	})

	scenariosDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "echopredictor",
		Subsystem: "scenarios",
		Name:      "deleted_total",
		Help:      "Total scenarios deleted.",
	})

	scenariosAnalyzed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "echopredictor",
		Subsystem: "scenarios",
		Name:      "analyzed_total",
		Help:      "Total scenarios that transitioned from draft to analyzed.",
	})
)

func init() {
	prometheus.MustRegister(
		scenariosCreated,
		scenariosDeleted,
		scenariosAnalyzed,
	)
}
