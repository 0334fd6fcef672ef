// Package wsclient implements the resilient channel client: a WebSocket
// connection to the upstream telemetry backend that survives transport
// failures through exponential-backoff reconnection and fans decoded
// messages out to local subscribers.
package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/plantstream/component"
	"github.com/c360/plantstream/config"
	"github.com/c360/plantstream/errors"
	"github.com/c360/plantstream/metric"
	"github.com/c360/plantstream/pkg/retry"
	"github.com/c360/plantstream/pkg/sched"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/pubsub"
	"github.com/c360/plantstream/types"
)

// State is the channel client's connection state.
type State int32

const (
	// StateDisconnected means no connection and no dial in flight.
	StateDisconnected State = iota
	// StateConnecting means a dial attempt or a scheduled retry is in
	// flight.
	StateConnecting
	// StateConnected means the transport is open.
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// reconnectKey is the scheduler key for the single pending retry.
const reconnectKey = "reconnect"

// Ensure Client satisfies the lifecycle contract.
var _ component.Lifecycle = (*Client)(nil)

// Client maintains one WebSocket connection with automatic reconnection.
// Events (connection status, decoded messages, terminal errors) fan out
// through the client's own hub; subscribers never touch the transport.
type Client struct {
	cfg     config.ChannelConfig
	backoff retry.Config
	hub     *pubsub.Hub
	sched   *sched.Scheduler
	logger  *slog.Logger
	metrics *clientMetrics
	dialer  *websocket.Dialer

	mu   sync.Mutex
	url  string
	conn *websocket.Conn
	// attempts counts consecutive dial failures; it resets to zero on
	// every successful open and on every explicit Connect.
	attempts int
	state    State
	// suppress is set by Disconnect so the close event produced by
	// tearing down the connection does not trigger a reconnect.
	suppress bool
	// terminalSent guards the exactly-once terminal error event per
	// retry cycle.
	terminalSent bool
	readDone     chan struct{}

	started bool
	stopped bool
}

// New creates a channel client. A nil metrics registry disables metrics.
func New(
	cfg config.ChannelConfig,
	logger *slog.Logger,
	metricsRegistry *metric.Registry,
) *Client {
	metrics, err := newClientMetrics(metricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize channel client metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &Client{
		cfg:     cfg,
		backoff: cfg.Backoff(),
		hub:     pubsub.New(logger),
		sched:   sched.New(),
		logger:  logger,
		metrics: metrics,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 45 * time.Second,
		},
		state: StateDisconnected,
	}
}

// Name identifies the client to the service manager.
func (c *Client) Name() string { return "channel" }

// Initialize validates the client configuration.
func (c *Client) Initialize() error {
	if c.cfg.MaxRetries < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"wsclient", "Initialize", "max retries must not be negative")
	}
	if c.backoff.InitialDelay <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"wsclient", "Initialize", "initial delay must be positive")
	}
	return nil
}

// Start opens the configured channel. With no URL configured the client
// starts idle; Connect can still be called explicitly.
func (c *Client) Start(_ context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted,
			"wsclient", "Start", "client already started")
	}
	c.started = true
	c.mu.Unlock()

	if c.cfg.URL != "" {
		c.Connect(c.cfg.URL)
	}
	return nil
}

// Stop disconnects and waits up to timeout for the read loop to exit.
func (c *Client) Stop(timeout time.Duration) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStopped,
			"wsclient", "Stop", "client already stopped")
	}
	c.stopped = true
	c.mu.Unlock()

	c.Disconnect()
	c.sched.Stop()

	c.mu.Lock()
	done := c.readDone
	c.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-time.After(timeout):
			return errors.WrapTransient(
				fmt.Errorf("read loop did not exit within %s", timeout),
				"wsclient", "Stop", "shutdown timed out")
		}
	}
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a callback for all channel events.
func (c *Client) Subscribe(fn pubsub.Callback) string {
	return c.hub.Subscribe(fn)
}

// Unsubscribe removes a subscription; idempotent.
func (c *Client) Unsubscribe(token string) {
	c.hub.Unsubscribe(token)
}

// Connect opens the channel to the given address. A no-op when already
// connected. An explicit Connect always resets the retry budget, so it
// restarts reconnection after a terminal failure.
func (c *Client) Connect(url string) {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return
	}
	c.url = url
	c.attempts = 0
	c.suppress = false
	c.terminalSent = false
	c.state = StateConnecting
	c.sched.Cancel(reconnectKey)
	c.mu.Unlock()

	go c.dial()
}

// dial runs one connection attempt and, on success, hands the
// connection to the read loop.
func (c *Client) dial() {
	c.mu.Lock()
	url := c.url
	if c.suppress {
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	conn, resp, err := c.dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	if c.suppress || c.state == StateConnected {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		c.logger.Warn("Channel dial failed", "url", url, "error", err)
		c.metrics.recordError("dial")
		c.retryLocked()
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	done := make(chan struct{})
	c.readDone = done
	c.mu.Unlock()

	c.metrics.recordConnect()
	c.logger.Info("Channel connected", "url", url)
	c.hub.Publish(types.ConnectionEvent{Status: "connected"})

	go c.readLoop(conn, done)
}

// readLoop consumes inbound frames until the transport fails or is
// closed, then routes the disconnect through the reconnect policy.
func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(err)
			return
		}

		envelope, perr := parseEnvelope(data)
		if perr != nil {
			// Malformed frames are dropped, not fatal: log and keep
			// reading.
			c.logger.Warn("Dropping malformed channel message", "error", perr)
			c.metrics.recordError("parse")
			continue
		}

		c.metrics.recordMessage(envelope.Type)
		c.hub.Publish(types.DataEvent{
			Kind:    envelope.Type,
			Payload: envelope.Payload,
		})
	}
}

// handleDisconnect records the lost connection and schedules a retry
// unless Disconnect asked for the teardown.
func (c *Client) handleDisconnect(err error) {
	c.mu.Lock()
	c.conn = nil
	c.state = StateDisconnected
	suppressed := c.suppress
	c.mu.Unlock()

	c.metrics.recordDisconnect()

	if suppressed {
		c.hub.Publish(types.ConnectionEvent{Status: "disconnected"})
		return
	}

	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		c.logger.Warn("Channel connection lost", "error", err)
		c.hub.Publish(types.ErrorEvent{Message: err.Error()})
	}
	c.hub.Publish(types.ConnectionEvent{Status: "disconnected"})

	c.mu.Lock()
	c.retryLocked()
	c.mu.Unlock()
}

// retryLocked advances the backoff state machine after a failure:
// either schedules the next attempt or, once the budget is exhausted,
// publishes the terminal error exactly once. Callers hold c.mu.
func (c *Client) retryLocked() {
	c.attempts++
	c.metrics.recordReconnectAttempt()

	if c.backoff.Exhausted(c.attempts) {
		c.state = StateDisconnected
		if !c.terminalSent {
			c.terminalSent = true
			c.logger.Error("Channel reconnection budget exhausted",
				"attempts", c.attempts)
			// Publish outside the lock; subscribers may call back in.
			go c.hub.Publish(types.ErrorEvent{
				Message:  fmt.Sprintf("connection failed after %d attempts", c.attempts),
				Terminal: true,
			})
		}
		return
	}

	delay := retry.Delay(c.backoff, c.attempts)
	c.state = StateConnecting
	c.logger.Info("Scheduling channel reconnect",
		"attempt", c.attempts+1,
		"delay", delay.String())
	c.sched.Replace(reconnectKey, delay, c.dial)
}

// Disconnect force-closes the channel and suppresses the automatic
// reconnect the close would otherwise trigger.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.suppress = true
	c.state = StateDisconnected
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.sched.Cancel(reconnectKey)

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

// Send writes a typed payload to the channel. When the channel is not
// connected this is a warning-level no-op, not a failure: telemetry
// frames are disposable and the reconnect policy owns recovery. The
// return value reports whether the frame was written.
func (c *Client) Send(kind string, payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.conn == nil {
		c.logger.Warn("Channel send skipped, not connected",
			"type", kind, "state", c.state.String())
		c.metrics.recordDropped()
		return false
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.logger.Warn("Channel send skipped, payload not serializable",
				"type", kind, "error", err)
			c.metrics.recordDropped()
			return false
		}
		raw = data
	}

	frame, err := json.Marshal(Envelope{
		Type:      kind,
		Timestamp: timestamp.Now(),
		Payload:   raw,
	})
	if err != nil {
		c.metrics.recordDropped()
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Warn("Channel write failed", "type", kind, "error", err)
		c.metrics.recordError("write")
		return false
	}

	c.metrics.recordSent(kind)
	return true
}
