// Package metrics exposes Prometheus collectors for the risk engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vct"

// Label values used by the engine.
const (
	TickOK             = "ok"
	TickInvalidSubject = "invalid_subject"

	AlertEmitted    = "emitted"
	AlertSuppressed = "suppressed"
	AlertFailed     = "failed"

	DropInvalidPosition = "invalid_position"
	DropOutOfRange      = "out_of_range"
)

var tickDurationBuckets = []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1}

// Metrics holds the engine collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Ticks        *prometheus.CounterVec
	TickDuration prometheus.Histogram
	Assessments  *prometheus.CounterVec
	Alerts       *prometheus.CounterVec
	Dropped      *prometheus.CounterVec
	Tracked      prometheus.Gauge
	StoreSize    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Risk evaluation ticks by outcome.",
		}, []string{"outcome"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one risk evaluation tick.",
			Buckets:   tickDurationBuckets,
		}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Surfaced risk assessments by level.",
		}, []string{"level"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "High-risk alerts by outcome.",
		}, []string{"outcome"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vessels_dropped_total",
			Help:      "Candidate vessels dropped from a tick by reason.",
		}, []string{"reason"}),
		Tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_subjects",
			Help:      "Subject vessels with an active tick loop.",
		}),
		StoreSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_vessels",
			Help:      "Vessels held in the position store.",
		}),
	}
	reg.MustRegister(m.Ticks, m.TickDuration, m.Assessments, m.Alerts, m.Dropped, m.Tracked, m.StoreSize)
	return m
}

func (m *Metrics) ObserveTick(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.WithLabelValues(outcome).Inc()
	m.TickDuration.Observe(d.Seconds())
}

func (m *Metrics) Assessment(level string) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(level).Inc()
}

func (m *Metrics) Alert(outcome string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Drop(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetTracked(n int) {
	if m == nil {
		return
	}
	m.Tracked.Set(float64(n))
}

func (m *Metrics) SetStoreSize(n int) {
	if m == nil {
		return
	}
	m.StoreSize.Set(float64(n))
}
