// Package types defines the shared data model for plantstream: plants,
// sensor readings, alerts, and the event variants fanned out by the
// pub/sub hub.
//
// JSON field names follow the external contract consumed by the UI
// layer (camelCase). Timestamps are int64 Unix milliseconds UTC; see
// pkg/timestamp.
package types

import "time"

// Plant is a monitored plant. Status is deliberately absent: it is a
// presentational classification derived from the current reading (see
// the health package), never stored, so it cannot diverge from the
// readings it summarizes.
type Plant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Type     string `json:"type"`

	Settings PlantSettings `json:"settings"`

	// LastWatering is the completion timestamp of the most recent
	// watering cycle. Zero means never watered this session.
	LastWatering int64 `json:"lastWatering,omitempty"`
}

// PlantSettings controls auto-irrigation for one plant.
type PlantSettings struct {
	AutoMode bool `json:"autoMode"`

	// MoistureThreshold is the raw soil-moisture sensor value above
	// which the plant counts as dry (higher reading = drier soil).
	MoistureThreshold float64 `json:"moistureThreshold"`

	// WateringIntervalMs is the minimum spacing between automatic
	// waterings, in milliseconds.
	WateringIntervalMs int64 `json:"wateringInterval"`
}

// SettingsPatch is a partial settings update. Nil fields are left
// unchanged (shallow merge, not replace).
type SettingsPatch struct {
	AutoMode           *bool    `json:"autoMode,omitempty"`
	MoistureThreshold  *float64 `json:"moistureThreshold,omitempty"`
	WateringIntervalMs *int64   `json:"wateringInterval,omitempty"`
}

// SensorSnapshot is one point-in-time reading of all sensors on a plant.
type SensorSnapshot struct {
	Temperature  float64 `json:"temperature"`  // °C
	Humidity     float64 `json:"humidity"`     // % relative
	SoilMoisture float64 `json:"soilMoisture"` // raw sensor value, higher = drier
	Pressure     float64 `json:"pressure"`     // hPa
	AirQuality   float64 `json:"airQuality"`   // AQI
	DustPM25     float64 `json:"dustPM25"`     // µg/m³
	PumpStatus   bool    `json:"pumpStatus"`
	Timestamp    int64   `json:"timestamp"`
}

// SensorReading is a plant's current snapshot plus its bounded history,
// oldest first.
type SensorReading struct {
	Current SensorSnapshot   `json:"current"`
	History []SensorSnapshot `json:"history"`
}

// AlertType is the severity of an alert.
type AlertType string

const (
	AlertCritical AlertType = "critical"
	AlertWarning  AlertType = "warning"
	AlertInfo     AlertType = "info"
)

// AlertCategory identifies the condition family an alert reports.
// Watering resolves alerts by category rather than by matching title
// text, so titles stay presentational.
type AlertCategory string

const (
	CategorySoil        AlertCategory = "soil"
	CategoryTemperature AlertCategory = "temperature"
	CategoryAir         AlertCategory = "air"
	CategorySystem      AlertCategory = "system"
)

// Alert is a condition raised against a plant. At most one unresolved
// alert may exist per (PlantID, Title) pair.
type Alert struct {
	ID        string        `json:"id"`
	PlantID   string        `json:"plantId"`
	Type      AlertType     `json:"type"`
	Category  AlertCategory `json:"category"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Timestamp int64         `json:"timestamp"`
	Resolved  bool          `json:"resolved"`
}

// SensorDefaults are substituted for any sensor field missing from a
// partially seeded snapshot, so a reading never carries "missing" state
// forward through ticks.
var SensorDefaults = SensorSnapshot{
	Temperature:  25,
	Humidity:     65,
	SoilMoisture: 2000,
	Pressure:     1013,
	AirQuality:   150,
	DustPM25:     35,
	PumpStatus:   false,
}

// WateringInterval returns the watering spacing as a time.Duration.
func (s PlantSettings) WateringInterval() time.Duration {
	return time.Duration(s.WateringIntervalMs) * time.Millisecond
}

// Apply merges non-nil patch fields into the settings.
func (s PlantSettings) Apply(patch SettingsPatch) PlantSettings {
	if patch.AutoMode != nil {
		s.AutoMode = *patch.AutoMode
	}
	if patch.MoistureThreshold != nil {
		s.MoistureThreshold = *patch.MoistureThreshold
	}
	if patch.WateringIntervalMs != nil {
		s.WateringIntervalMs = *patch.WateringIntervalMs
	}
	return s
}
