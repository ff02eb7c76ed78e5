package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes lifecycle counters for scraping.
type Metrics struct {
	Events     *prometheus.CounterVec
	WorkingSet prometheus.Gauge
	SaveErrors prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dailyquests_events_total",
				Help: "Daily task lifecycle events",
			},
			[]string{"event", "category"},
		),
		WorkingSet: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dailyquests_working_set_size",
			Help: "Tasks currently in the working set",
		}),
		SaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dailyquests_save_errors_total",
			Help: "Failed save writes",
		}),
	}
	reg.MustRegister(m.Events, m.WorkingSet, m.SaveErrors)
	return m
}
