// Package engine implements the telemetry engine: a simulated sensor
// field for a set of monitored plants. It advances readings on a tick
// schedule, raises alerts on threshold crossings, drives the watering
// actuation state machine, and exposes the query/command facade
// consumed by the gateway.
//
// The engine is an explicit, constructible service (no package-level
// singleton): build one with New, register it with service.Manager,
// and it follows the Initialize/Start/Stop lifecycle.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/c360/plantstream/component"
	"github.com/c360/plantstream/config"
	"github.com/c360/plantstream/errors"
	"github.com/c360/plantstream/metric"
	"github.com/c360/plantstream/pkg/sched"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/pubsub"
	"github.com/c360/plantstream/store"
	"github.com/c360/plantstream/types"
)

// Ensure Engine satisfies the lifecycle contract.
var _ component.Lifecycle = (*Engine)(nil)

// Engine owns the simulation loop and all mutations of the store.
type Engine struct {
	store   *store.Store
	hub     *pubsub.Hub
	sched   *sched.Scheduler
	cfg     config.EngineConfig
	logger  *slog.Logger
	metrics *engineMetrics

	// simMu serializes the read-modify-write cycles of ticks, watering
	// transitions, and command handlers against the store, so a tick is
	// atomic with respect to a pump-completion timer firing.
	simMu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand

	now func() int64

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithRand injects the random source driving sensor walks and watering
// targets. Tests pass a seeded source for reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock injects the time source, in Unix milliseconds.
func WithClock(now func() int64) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a telemetry engine over the given store and hub. A nil
// metrics registry disables metrics.
func New(
	st *store.Store,
	hub *pubsub.Hub,
	cfg config.EngineConfig,
	logger *slog.Logger,
	metricsRegistry *metric.Registry,
	opts ...Option,
) *Engine {
	metrics, err := newEngineMetrics(metricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize engine metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	e := &Engine{
		store:   st,
		hub:     hub,
		sched:   sched.New(),
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     timestamp.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the engine to the service manager.
func (e *Engine) Name() string { return "engine" }

// Initialize validates the engine's dependencies and configuration.
func (e *Engine) Initialize() error {
	if e.store == nil {
		return errors.WrapFatal(errors.ErrMissingConfig,
			"engine", "Initialize", "store is required")
	}
	if e.hub == nil {
		return errors.WrapFatal(errors.ErrMissingConfig,
			"engine", "Initialize", "hub is required")
	}
	if e.cfg.TickInterval.Std() <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"engine", "Initialize", "tick interval must be positive")
	}
	if e.cfg.WateringDuration.Std() <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"engine", "Initialize", "watering duration must be positive")
	}
	return nil
}

// Start launches the tick loop. The loop runs until ctx is cancelled
// or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted,
			"engine", "Start", "engine already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.started = true

	go e.run(runCtx)

	e.logger.Info("Telemetry engine started",
		"plants", len(e.store.PlantIDs()),
		"tick_interval", e.cfg.TickInterval.Std().String())
	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.TickInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Stop halts the tick loop and cancels any pending watering
// completions. It waits up to timeout for the loop to exit.
func (e *Engine) Stop(timeout time.Duration) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted,
			"engine", "Stop", "engine not started")
	}
	if e.stopped {
		e.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStopped,
			"engine", "Stop", "engine already stopped")
	}
	e.stopped = true
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	e.sched.Stop()

	select {
	case <-done:
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("tick loop did not exit within %s", timeout),
			"engine", "Stop", "shutdown timed out")
	}

	e.logger.Info("Telemetry engine stopped")
	return nil
}

// randFloat returns a uniform value in [0,1). The shared source is
// mutex-guarded because watering timers fire on their own goroutines.
func (e *Engine) randFloat() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

// publishPlantUpdate fans out one plant's post-transition state.
func (e *Engine) publishPlantUpdate(plantID string) {
	plant, ok := e.store.Plant(plantID)
	if !ok {
		return
	}
	reading, _ := e.store.Reading(plantID)
	e.hub.Publish(types.PlantUpdateEvent{
		PlantID: plantID,
		Plant:   plant,
		Reading: reading,
	})
}
