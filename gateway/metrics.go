package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/plantstream/metric"
)

// gatewayMetrics holds Prometheus metrics for the gateway.
type gatewayMetrics struct {
	wsClients     prometheus.Gauge
	broadcasts    *prometheus.CounterVec // by event type
	droppedEvents prometheus.Counter
}

// newGatewayMetrics creates and registers gateway metrics. A nil
// registry disables metrics.
func newGatewayMetrics(registry *metric.Registry) (*gatewayMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &gatewayMetrics{
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plantstream",
			Subsystem: "gateway",
			Name:      "ws_clients",
			Help:      "Number of connected WebSocket clients",
		}),

		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "gateway",
			Name:      "broadcasts_total",
			Help:      "Total events broadcast to WebSocket clients",
		}, []string{"type"}),

		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "gateway",
			Name:      "dropped_events_total",
			Help:      "Total hub events dropped because the broadcast queue was full",
		}),
	}

	if err := registry.Register("gateway", "ws_clients", m.wsClients); err != nil {
		return nil, err
	}
	if err := registry.Register("gateway", "broadcasts", m.broadcasts); err != nil {
		return nil, err
	}
	if err := registry.Register("gateway", "dropped_events", m.droppedEvents); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *gatewayMetrics) setWSClients(count float64) {
	if m != nil {
		m.wsClients.Set(count)
	}
}

func (m *gatewayMetrics) recordBroadcast(eventType string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(eventType).Inc()
}

func (m *gatewayMetrics) recordDroppedEvent() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}
