package types

// EventType discriminates event variants on the wire and in the hub.
type EventType string

const (
	// EventSnapshot carries the full engine state after a tick.
	EventSnapshot EventType = "snapshot"
	// EventPlantUpdate carries one plant's state after a command or
	// actuation transition.
	EventPlantUpdate EventType = "plant_update"
	// EventConnection reports a transport connection status change.
	EventConnection EventType = "connection"
	// EventError reports a transport-level error.
	EventError EventType = "error"
	// EventData carries an application-defined payload received over
	// the transport.
	EventData EventType = "data"
)

// Event is the tagged union fanned out by pubsub.Hub. Scope returns the
// plant id the event concerns, or "" for global events; plant-scoped
// subscribers receive an event when its scope matches their plant or is
// global.
type Event interface {
	EventType() EventType
	Scope() string
}

// SnapshotEvent is the global state delta published after every
// simulation tick: all plants, all readings, and the unresolved alerts.
type SnapshotEvent struct {
	Plants     []Plant                  `json:"plants"`
	SensorData map[string]SensorReading `json:"sensorData"`
	Alerts     []Alert                  `json:"alerts"`
}

func (SnapshotEvent) EventType() EventType { return EventSnapshot }
func (SnapshotEvent) Scope() string        { return "" }

// PlantUpdateEvent is published when one plant changes outside the tick
// cycle: watering start, watering completion, settings update.
type PlantUpdateEvent struct {
	PlantID string        `json:"plantId"`
	Plant   Plant         `json:"plant"`
	Reading SensorReading `json:"reading"`
}

func (PlantUpdateEvent) EventType() EventType { return EventPlantUpdate }
func (e PlantUpdateEvent) Scope() string      { return e.PlantID }

// ConnectionEvent reports transport connectivity.
type ConnectionEvent struct {
	Status string `json:"status"` // "connected" or "disconnected"
}

func (ConnectionEvent) EventType() EventType { return EventConnection }
func (ConnectionEvent) Scope() string        { return "" }

// Connected reports whether the event signals an established connection.
func (e ConnectionEvent) Connected() bool { return e.Status == "connected" }

// ErrorEvent reports a transport error. Terminal is set once, when the
// reconnection budget is exhausted and no further automatic attempts
// will be made.
type ErrorEvent struct {
	Message  string `json:"error"`
	Terminal bool   `json:"terminal,omitempty"`
}

func (ErrorEvent) EventType() EventType { return EventError }
func (ErrorEvent) Scope() string        { return "" }

// DataEvent carries an application-defined payload keyed by its wire
// type tag.
type DataEvent struct {
	Kind    string `json:"type"`
	Payload []byte `json:"payload,omitempty"`
}

func (DataEvent) EventType() EventType { return EventData }
func (DataEvent) Scope() string        { return "" }
