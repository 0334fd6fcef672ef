// Package service provides ordered lifecycle management for the
// process's components: start in registration order, stop in reverse.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/plantstream/component"
	"github.com/c360/plantstream/errors"
)

type managed struct {
	component component.Lifecycle
	state     component.State
	cancel    context.CancelFunc
}

// Manager owns the process's lifecycle components. Not safe for
// concurrent Register/Start/Stop; the entry point drives it from one
// goroutine.
type Manager struct {
	components []*managed
	logger     *slog.Logger
	started    bool
}

// NewManager creates an empty manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Register adds a component. Components start in registration order and
// stop in reverse order.
func (m *Manager) Register(c component.Lifecycle) {
	m.components = append(m.components, &managed{component: c, state: component.StateCreated})
}

// Start initializes and starts every component in order. Each component
// gets its own child context so it can be cancelled individually during
// shutdown. On failure, components already started are stopped in
// reverse before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	if m.started {
		return errors.ErrAlreadyStarted
	}

	for i, mc := range m.components {
		name := mc.component.Name()

		if err := mc.component.Initialize(); err != nil {
			mc.state = component.StateFailed
			m.stopStarted(i, 5*time.Second)
			return errors.Wrap(err, "Manager", "Start", "initialize "+name)
		}
		mc.state = component.StateInitialized

		childCtx, cancel := context.WithCancel(ctx)
		mc.cancel = cancel
		if err := mc.component.Start(childCtx); err != nil {
			cancel()
			mc.state = component.StateFailed
			m.stopStarted(i, 5*time.Second)
			return errors.Wrap(err, "Manager", "Start", "start "+name)
		}
		mc.state = component.StateStarted
		m.logger.Info("component started", "component", name)
	}

	m.started = true
	return nil
}

// Stop stops every started component in reverse registration order.
// Stop failures are logged and do not prevent the remaining components
// from stopping.
func (m *Manager) Stop(timeout time.Duration) error {
	if !m.started {
		return errors.ErrNotStarted
	}

	m.stopStarted(len(m.components), timeout)
	m.started = false
	return nil
}

// stopStarted stops components[0:n] in reverse order.
func (m *Manager) stopStarted(n int, timeout time.Duration) {
	for i := n - 1; i >= 0; i-- {
		mc := m.components[i]
		if mc.state != component.StateStarted {
			continue
		}

		if mc.cancel != nil {
			mc.cancel()
		}
		if err := mc.component.Stop(timeout); err != nil {
			mc.state = component.StateFailed
			m.logger.Error("component stop failed",
				"component", mc.component.Name(), "error", err)
			continue
		}
		mc.state = component.StateStopped
		m.logger.Info("component stopped", "component", mc.component.Name())
	}
}

// States returns each component's name and lifecycle state, in
// registration order.
func (m *Manager) States() map[string]component.State {
	out := make(map[string]component.State, len(m.components))
	for _, mc := range m.components {
		out[mc.component.Name()] = mc.state
	}
	return out
}
