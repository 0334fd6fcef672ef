package wsclient

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/plantstream/metric"
)

// clientMetrics holds Prometheus metrics for the channel client.
type clientMetrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	reconnectAttempts prometheus.Counter

	messagesReceived *prometheus.CounterVec // by type
	messagesSent     *prometheus.CounterVec // by type
	messagesDropped  prometheus.Counter

	errorsTotal *prometheus.CounterVec // by kind (dial/parse/write)
}

// newClientMetrics creates and registers channel client metrics. A nil
// registry disables metrics.
func newClientMetrics(registry *metric.Registry) (*clientMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &clientMetrics{
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plantstream",
			Subsystem: "channel",
			Name:      "connections_active",
			Help:      "Whether the channel is currently connected (0 or 1)",
		}),

		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "channel",
			Name:      "connections_total",
			Help:      "Total number of successful channel connections",
		}),

		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "channel",
			Name:      "reconnect_attempts_total",
			Help:      "Total number of reconnection attempts",
		}),

		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "channel",
			Name:      "messages_received_total",
			Help:      "Total messages received on the channel",
		}, []string{"type"}),

		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "channel",
			Name:      "messages_sent_total",
			Help:      "Total messages written to the channel",
		}, []string{"type"}),

		messagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "channel",
			Name:      "messages_dropped_total",
			Help:      "Total outbound messages dropped while disconnected",
		}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantstream",
			Subsystem: "channel",
			Name:      "errors_total",
			Help:      "Total channel errors",
		}, []string{"kind"}),
	}

	if err := registry.Register("channel", "connections_active", m.connectionsActive); err != nil {
		return nil, err
	}
	if err := registry.Register("channel", "connections_total", m.connectionsTotal); err != nil {
		return nil, err
	}
	if err := registry.Register("channel", "reconnect_attempts", m.reconnectAttempts); err != nil {
		return nil, err
	}
	if err := registry.Register("channel", "messages_received", m.messagesReceived); err != nil {
		return nil, err
	}
	if err := registry.Register("channel", "messages_sent", m.messagesSent); err != nil {
		return nil, err
	}
	if err := registry.Register("channel", "messages_dropped", m.messagesDropped); err != nil {
		return nil, err
	}
	if err := registry.Register("channel", "errors", m.errorsTotal); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *clientMetrics) recordConnect() {
	if m == nil {
		return
	}
	m.connectionsActive.Set(1)
	m.connectionsTotal.Inc()
}

func (m *clientMetrics) recordDisconnect() {
	if m == nil {
		return
	}
	m.connectionsActive.Set(0)
}

func (m *clientMetrics) recordReconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnectAttempts.Inc()
}

func (m *clientMetrics) recordMessage(msgType string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(msgType).Inc()
}

func (m *clientMetrics) recordSent(msgType string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(msgType).Inc()
}

func (m *clientMetrics) recordDropped() {
	if m == nil {
		return
	}
	m.messagesDropped.Inc()
}

func (m *clientMetrics) recordError(kind string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(kind).Inc()
}
