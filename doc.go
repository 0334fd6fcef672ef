// Package plantstream provides a simulated plant-telemetry backend: an
// in-memory entity store, a time-stepped sensor simulation with alerting
// and timed pump actuation, an in-process pub/sub hub, and a resilient
// WebSocket channel client with exponential-backoff reconnection.
//
// # Architecture
//
// The engine drives everything from a discrete tick:
//
//	┌─────────────────────────────────────┐
//	│        Telemetry Engine             │  tick → random walks,
//	│  (engine: sim, actuation, alerts)   │  auto-irrigation, alerting
//	└─────────────────────────────────────┘
//	           ↓ mutates
//	┌─────────────────────────────────────┐
//	│         Entity Store                │  plants, readings, alerts
//	│        (store, in-memory)           │  (process-lifetime only)
//	└─────────────────────────────────────┘
//	           ↓ deltas fan out via
//	┌─────────────────────────────────────┐
//	│          Pub/Sub Hub                │  synchronous fanout,
//	│           (pubsub)                  │  per-callback isolation
//	└─────────────────────────────────────┘
//
// Consumers reach the engine through its facade methods (queries with a
// configurable simulated latency, commands that mutate the store) or
// through the HTTP/WebSocket gateway. The channel client (wsclient) is
// independent of the engine: it owns an outbound transport connection,
// retries with exponential backoff, and republishes decoded inbound
// messages through its own hub instance.
//
// # Lifecycle
//
// Long-running services (engine, wsclient, gateway) follow one pattern:
//
//   - Initialize() error                 // setup only, no context
//   - Start(ctx context.Context) error   // begin background work
//   - Stop(timeout time.Duration) error  // graceful shutdown
//
// service.Manager starts components in registration order and stops them
// in reverse. All state is local to one process instance; nothing here
// persists or coordinates across processes.
package plantstream
