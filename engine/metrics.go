package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/plantstream/metric"
)

// engineMetrics holds Prometheus metrics for the telemetry engine.
type engineMetrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram

	wateringsStarted   *prometheus.CounterVec // by trigger (manual/auto)
	wateringsCompleted prometheus.Counter

	alertsRaised     *prometheus.CounterVec // by severity
	unresolvedAlerts prometheus.Gauge
}

// newEngineMetrics creates and registers engine metrics with the
// provided registry. A nil registry disables metrics.
func newEngineMetrics(registry *metric.Registry) (*engineMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &engineMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		}),

		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plantstream",
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Simulation tick duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		wateringsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "engine",
			Name:      "waterings_started_total",
			Help:      "Total number of watering cycles started",
		}, []string{"trigger"}), // trigger: manual, auto

		wateringsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "engine",
			Name:      "waterings_completed_total",
			Help:      "Total number of watering cycles completed",
		}),

		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "engine",
			Name:      "alerts_raised_total",
			Help:      "Total number of alerts raised",
		}, []string{"severity"}),

		unresolvedAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plantstream",
			Subsystem: "engine",
			Name:      "unresolved_alerts",
			Help:      "Current number of unresolved alerts",
		}),
	}

	if err := registry.Register("engine", "ticks", m.ticks); err != nil {
		return nil, err
	}
	if err := registry.Register("engine", "tick_duration", m.tickDuration); err != nil {
		return nil, err
	}
	if err := registry.Register("engine", "waterings_started", m.wateringsStarted); err != nil {
		return nil, err
	}
	if err := registry.Register("engine", "waterings_completed", m.wateringsCompleted); err != nil {
		return nil, err
	}
	if err := registry.Register("engine", "alerts_raised", m.alertsRaised); err != nil {
		return nil, err
	}
	if err := registry.Register("engine", "unresolved_alerts", m.unresolvedAlerts); err != nil {
		return nil, err
	}

	return m, nil
}

// recordTick records one simulation tick.
func (m *engineMetrics) recordTick(duration float64) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(duration)
}

// recordWateringStart records the start of a watering cycle.
func (m *engineMetrics) recordWateringStart(trigger string) {
	if m == nil {
		return
	}
	m.wateringsStarted.WithLabelValues(trigger).Inc()
}

// recordWateringComplete records a finished watering cycle.
func (m *engineMetrics) recordWateringComplete() {
	if m == nil {
		return
	}
	m.wateringsCompleted.Inc()
}

// recordAlert records a newly raised alert.
func (m *engineMetrics) recordAlert(severity string) {
	if m == nil {
		return
	}
	m.alertsRaised.WithLabelValues(severity).Inc()
}

// setUnresolvedAlerts syncs the unresolved-alert gauge.
func (m *engineMetrics) setUnresolvedAlerts(count float64) {
	if m != nil {
		m.unresolvedAlerts.Set(count)
	}
}
