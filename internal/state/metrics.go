package state

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts state store activity. A nil *Metrics records nothing.
type Metrics struct {
	reads        *prometheus.CounterVec
	writes       *prometheus.CounterVec
	writeSeconds prometheus.Histogram
	docBytes     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squad",
			Subsystem: "state",
			Name:      "reads_total",
			Help:      "State document reads by outcome (ok, reinitialized).",
		}, []string{"result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squad",
			Subsystem: "state",
			Name:      "writes_total",
			Help:      "State document writes by outcome (ok, error).",
		}, []string{"result"}),
		writeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "squad",
			Subsystem: "state",
			Name:      "write_duration_seconds",
			Help:      "Time spent persisting the state document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		docBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "squad",
			Subsystem: "state",
			Name:      "document_bytes",
			Help:      "Size of the last persisted state document.",
		}),
	}
	reg.MustRegister(m.reads, m.writes, m.writeSeconds, m.docBytes)
	return m
}

func (m *Metrics) read(result string) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(result).Inc()
}

func (m *Metrics) wrote(err error, size int, took time.Duration) {
	if m == nil {
		return
	}
	if err != nil {
		m.writes.WithLabelValues("error").Inc()
		return
	}
	m.writes.WithLabelValues("ok").Inc()
	m.writeSeconds.Observe(took.Seconds())
	m.docBytes.Set(float64(size))
}
