package wsclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/plantstream/config"
	"github.com/c360/plantstream/types"
)

// testServer is a minimal WebSocket endpoint that records connections
// and can push frames to the most recent client.
type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{}
	upgrader := websocket.Upgrader{}

	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.conns = append(ts.conns, conn)
		ts.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.mu.Lock()
			ts.received = append(ts.received, string(data))
			ts.mu.Unlock()
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func (ts *testServer) push(t *testing.T, frame string) {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.conns)
	conn := ts.conns[len(ts.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (ts *testServer) connCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.conns)
}

func (ts *testServer) closeClients() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, conn := range ts.conns {
		_ = conn.Close()
	}
}

// eventRecorder collects hub events behind a mutex; client goroutines
// publish concurrently with test assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *eventRecorder) record(e types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) snapshot() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Event(nil), r.events...)
}

func (r *eventRecorder) count(match func(types.Event) bool) int {
	var n int
	for _, e := range r.snapshot() {
		if match(e) {
			n++
		}
	}
	return n
}

func testChannelConfig() config.ChannelConfig {
	return config.ChannelConfig{
		MaxRetries:   3,
		InitialDelay: config.Duration(5 * time.Millisecond),
		MaxDelay:     config.Duration(50 * time.Millisecond),
		Multiplier:   2.0,
	}
}

func newTestClient(t *testing.T, cfg config.ChannelConfig) (*Client, *eventRecorder) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(cfg, logger, nil)
	require.NoError(t, c.Initialize())

	rec := &eventRecorder{}
	c.Subscribe(rec.record)
	t.Cleanup(c.Disconnect)
	return c, rec
}

func isConnected(e types.Event) bool {
	ce, ok := e.(types.ConnectionEvent)
	return ok && ce.Connected()
}

func isDisconnected(e types.Event) bool {
	ce, ok := e.(types.ConnectionEvent)
	return ok && !ce.Connected()
}

func isTerminal(e types.Event) bool {
	ee, ok := e.(types.ErrorEvent)
	return ok && ee.Terminal
}

func TestConnect_PublishesConnectionEvent(t *testing.T) {
	server := newTestServer(t)
	c, rec := newTestClient(t, testChannelConfig())

	c.Connect(server.wsURL())

	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.count(isConnected))
}

func TestConnect_NoOpWhenConnected(t *testing.T) {
	server := newTestServer(t)
	c, rec := newTestClient(t, testChannelConfig())

	c.Connect(server.wsURL())
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	c.Connect(server.wsURL())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, server.connCount())
	assert.Equal(t, 1, rec.count(isConnected))
}

func TestInboundMessages_RepublishedAsDataEvents(t *testing.T) {
	server := newTestServer(t)
	c, rec := newTestClient(t, testChannelConfig())

	c.Connect(server.wsURL())
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	server.push(t, `{"type":"sensor_update","payload":{"plantId":"p1"}}`)

	require.Eventually(t, func() bool {
		return rec.count(func(e types.Event) bool {
			de, ok := e.(types.DataEvent)
			return ok && de.Kind == "sensor_update"
		}) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMalformedMessage_DroppedWithoutDisconnect(t *testing.T) {
	server := newTestServer(t)
	c, rec := newTestClient(t, testChannelConfig())

	c.Connect(server.wsURL())
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	server.push(t, `{not json`)
	server.push(t, `{"payload":{}}`) // valid JSON, missing type tag
	server.push(t, `{"type":"ok"}`)

	// The valid frame after the malformed ones still arrives.
	require.Eventually(t, func() bool {
		return rec.count(func(e types.Event) bool {
			de, ok := e.(types.DataEvent)
			return ok && de.Kind == "ok"
		}) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, StateConnected, c.State())
	assert.Zero(t, rec.count(func(e types.Event) bool {
		_, ok := e.(types.ErrorEvent)
		return ok
	}))
}

func TestSend_WarnNoOpWhenDisconnected(t *testing.T) {
	c, _ := newTestClient(t, testChannelConfig())
	assert.False(t, c.Send("command", map[string]string{"action": "water"}))
}

func TestSend_DeliversWhenConnected(t *testing.T) {
	server := newTestServer(t)
	c, _ := newTestClient(t, testChannelConfig())

	c.Connect(server.wsURL())
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	assert.True(t, c.Send("command", map[string]string{"action": "water"}))

	require.Eventually(t, func() bool {
		server.mu.Lock()
		defer server.mu.Unlock()
		return len(server.received) == 1
	}, time.Second, 5*time.Millisecond)

	server.mu.Lock()
	frame := server.received[0]
	server.mu.Unlock()
	assert.Contains(t, frame, `"type":"command"`)
	assert.Contains(t, frame, `"action":"water"`)
}

func TestReconnect_AfterServerClose(t *testing.T) {
	server := newTestServer(t)
	c, rec := newTestClient(t, testChannelConfig())

	c.Connect(server.wsURL())
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	server.closeClients()

	// The client notices the drop and dials again.
	require.Eventually(t, func() bool {
		return server.connCount() == 2
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, rec.count(isDisconnected), 1)
	assert.Equal(t, 2, rec.count(isConnected))
}

func TestReconnect_TerminalErrorExactlyOnce(t *testing.T) {
	server := newTestServer(t)
	c, rec := newTestClient(t, testChannelConfig())

	url := server.wsURL()
	server.Close() // every dial now fails

	c.Connect(url)

	require.Eventually(t, func() bool {
		return rec.count(isTerminal) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateDisconnected, c.State())

	// No further attempts after the terminal error.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, rec.count(isTerminal))
}

func TestConnect_ResetsRetryBudgetAfterTerminal(t *testing.T) {
	dead := newTestServer(t)
	url := dead.wsURL()
	dead.Close()

	c, rec := newTestClient(t, testChannelConfig())
	c.Connect(url)
	require.Eventually(t, func() bool {
		return rec.count(isTerminal) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// An explicit Connect to a live endpoint starts a fresh cycle.
	server := newTestServer(t)
	c.Connect(server.wsURL())
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)
}

func TestDisconnect_SuppressesReconnect(t *testing.T) {
	server := newTestServer(t)
	c, rec := newTestClient(t, testChannelConfig())

	c.Connect(server.wsURL())
	require.Eventually(t, func() bool {
		return c.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	c.Disconnect()

	require.Eventually(t, func() bool {
		return rec.count(isDisconnected) == 1
	}, time.Second, 5*time.Millisecond)

	// No reconnect happens after an explicit disconnect.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, server.connCount())
	assert.Equal(t, StateDisconnected, c.State())
}

func TestLifecycle_StartWithoutURLIsIdle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(testChannelConfig(), logger, nil)
	require.NoError(t, c.Initialize())

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateDisconnected, c.State())
	require.NoError(t, c.Stop(time.Second))
}
