// Package component defines the lifecycle contract shared by
// plantstream's long-running services (telemetry engine, channel
// client, gateway).
package component

import (
	"context"
	"time"
)

// State represents the current lifecycle state of a component
type State int

const (
	// StateCreated indicates the component was created but not initialized
	StateCreated State = iota
	// StateInitialized indicates the component was initialized but not started
	StateInitialized
	// StateStarted indicates the component is running
	StateStarted
	// StateStopped indicates the component was stopped
	StateStopped
	// StateFailed indicates the component failed during a lifecycle operation
	StateFailed
)

// String returns a string representation of the component state
func (cs State) String() string {
	switch cs {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Lifecycle is the unified pattern every service follows:
//   - Initialize() error                     // setup/create only, NO context
//   - Start(ctx context.Context) error       // start with context passed through
//   - Stop(timeout time.Duration) error      // graceful shutdown with timeout
//
// Components never store the context they receive; Start's context is
// cancelled by the owner to signal shutdown.
type Lifecycle interface {
	Name() string
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}
