// Package gateway exposes the telemetry facade over HTTP and fans hub
// events out to WebSocket clients. It is the only surface the UI layer
// talks to; nothing here touches the store directly.
package gateway

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/c360/plantstream/component"
	"github.com/c360/plantstream/config"
	"github.com/c360/plantstream/engine"
	"github.com/c360/plantstream/errors"
	"github.com/c360/plantstream/metric"
	"github.com/c360/plantstream/pubsub"
	"github.com/c360/plantstream/types"
)

// eventBufferSize bounds the hub-to-broadcaster queue. Events past the
// bound are dropped: WebSocket fanout is best-effort state refresh, the
// next snapshot supersedes anything lost.
const eventBufferSize = 64

// Ensure Server satisfies the lifecycle contract.
var _ component.Lifecycle = (*Server)(nil)

// Server is the HTTP/WebSocket gateway.
type Server struct {
	cfg      config.GatewayConfig
	engine   *engine.Engine
	hub      *pubsub.Hub
	registry *metric.Registry
	logger   *slog.Logger
	metrics  *gatewayMetrics

	mux        *http.ServeMux
	httpServer *http.Server
	upgrader   websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}

	events   chan types.Event
	hubToken string

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	group    *errgroup.Group
	started  bool
	stopped  bool
}

// wsClient is one connected WebSocket consumer. Writes are serialized
// per connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// NewServer creates a gateway over the given engine and hub. A nil
// metrics registry disables metrics and the /metrics endpoint.
func NewServer(
	cfg config.GatewayConfig,
	eng *engine.Engine,
	hub *pubsub.Hub,
	registry *metric.Registry,
	logger *slog.Logger,
) *Server {
	metrics, err := newGatewayMetrics(registry)
	if err != nil {
		logger.Error("Failed to initialize gateway metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &Server{
		cfg:      cfg,
		engine:   eng,
		hub:      hub,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// The UI is served from a different origin in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
		events:  make(chan types.Event, eventBufferSize),
	}
}

// Name identifies the gateway to the service manager.
func (s *Server) Name() string { return "gateway" }

// Initialize validates dependencies and wires up the routes.
func (s *Server) Initialize() error {
	if s.engine == nil {
		return errors.WrapFatal(errors.ErrMissingConfig,
			"gateway", "Initialize", "engine is required")
	}
	if s.hub == nil {
		return errors.WrapFatal(errors.ErrMissingConfig,
			"gateway", "Initialize", "hub is required")
	}
	if s.cfg.Addr == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"gateway", "Initialize", "listen address is required")
	}

	s.routes()

	s.httpServer = &http.Server{
		Handler:      s.corsMiddleware(s.mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/plants", s.handlePlants)
	s.mux.HandleFunc("GET /api/plants/{id}", s.handlePlant)
	s.mux.HandleFunc("GET /api/plants/{id}/sensors", s.handleSensors)
	s.mux.HandleFunc("GET /api/plants/{id}/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/plants/{id}/export", s.handleExport)
	s.mux.HandleFunc("POST /api/plants/{id}/water", s.handleWater)
	s.mux.HandleFunc("PATCH /api/plants/{id}/settings", s.handleSettings)
	s.mux.HandleFunc("GET /api/sensors", s.handleAllSensors)
	s.mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	s.mux.HandleFunc("POST /api/alerts/{id}/resolve", s.handleResolveAlert)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)

	if s.registry != nil {
		s.mux.Handle("GET /metrics", s.registry.Handler())
	}
}

// Start binds the listener and launches the serve and broadcast loops.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted,
			"gateway", "Start", "gateway already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.WrapFatal(err, "gateway", "Start", "bind listen address")
	}
	s.listener = listener
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.hubToken = s.hub.Subscribe(s.enqueueEvent)

	g, gctx := errgroup.WithContext(runCtx)
	s.group = g

	g.Go(func() error {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			return errors.WrapFatal(err, "gateway", "Start", "HTTP server failed")
		}
		return nil
	})

	g.Go(func() error {
		s.broadcastLoop(gctx)
		return nil
	})

	s.logger.Info("Gateway started", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound listen address, usable once Start has
// returned. Tests bind ":0" and read the port from here.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully, then closes any WebSocket
// clients still attached.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted,
			"gateway", "Stop", "gateway not started")
	}
	if s.stopped {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStopped,
			"gateway", "Stop", "gateway already stopped")
	}
	s.stopped = true
	cancel := s.cancel
	group := s.group
	s.mu.Unlock()

	s.hub.Unsubscribe(s.hubToken)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Gateway shutdown incomplete", "error", err)
	}

	cancel()

	s.clientsMu.Lock()
	for client := range s.clients {
		_ = client.conn.Close()
	}
	s.clients = make(map[*wsClient]struct{})
	s.clientsMu.Unlock()

	if err := group.Wait(); err != nil {
		return errors.Wrap(err, "gateway", "Stop", "serve loop failed")
	}

	s.logger.Info("Gateway stopped")
	return nil
}

// corsMiddleware allows the browser UI, served from a different origin
// in development, to reach the API.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
