package grant

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the grant subsystem's Prometheus collectors. A nil *Metrics
// is valid and records nothing, so tests can pass nil.
type Metrics struct {
	grantsCreated  prometheus.Counter
	grantsExtended prometheus.Counter
	quotaDenials   prometheus.Counter
	grantsReaped   prometheus.Counter
	lastSweepSize  prometheus.Gauge
}

// NewMetrics creates and registers the grant collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		grantsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagate",
			Subsystem: "grants",
			Name:      "created_total",
			Help:      "Access grants created.",
		}),
		grantsExtended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagate",
			Subsystem: "grants",
			Name:      "extended_total",
			Help:      "Access grant extensions applied.",
		}),
		quotaDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagate",
			Subsystem: "grants",
			Name:      "quota_denials_total",
			Help:      "Grant creations denied by the concurrency cap.",
		}),
		grantsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "datagate",
			Subsystem: "grants",
			Name:      "reaped_total",
			Help:      "Expired grants deactivated by the reaper.",
		}),
		lastSweepSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "datagate",
			Subsystem: "grants",
			Name:      "last_sweep_size",
			Help:      "Grants deactivated in the most recent reaper sweep.",
		}),
	}

	reg.MustRegister(m.grantsCreated, m.grantsExtended, m.quotaDenials, m.grantsReaped, m.lastSweepSize)
	return m
}

func (m *Metrics) created() {
	if m != nil {
		m.grantsCreated.Inc()
	}
}

func (m *Metrics) extended() {
	if m != nil {
		m.grantsExtended.Inc()
	}
}

func (m *Metrics) quotaDenied() {
	if m != nil {
		m.quotaDenials.Inc()
	}
}

func (m *Metrics) reaped(n int) {
	if m == nil {
		return
	}
	m.grantsReaped.Add(float64(n))
	m.lastSweepSize.Set(float64(n))
}
