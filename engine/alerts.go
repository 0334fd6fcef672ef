package engine

import (
	"fmt"

	"github.com/c360/plantstream/store"
	"github.com/c360/plantstream/types"
)

// Alert thresholds. Soil dryness is per-plant (settings); temperature
// and air quality are global.
const (
	criticalSoilMargin = 200.0
	highTemperature    = 28.0
	poorAirQuality     = 200.0
)

// evaluateAlerts runs the threshold rules against one plant's current
// reading. Each rule is independent; duplicates are absorbed by the
// store's unresolved-alert dedup, so firing every tick is harmless.
// Callers hold simMu.
func (e *Engine) evaluateAlerts(plant types.Plant, s types.SensorSnapshot, now int64) {
	if s.SoilMoisture > plant.Settings.MoistureThreshold {
		severity := types.AlertWarning
		title := "Dry Soil"
		if s.SoilMoisture > plant.Settings.MoistureThreshold+criticalSoilMargin {
			severity = types.AlertCritical
			title = "Very Dry Soil"
		}
		e.raise(store.AlertCandidate{
			PlantID:  plant.ID,
			Type:     severity,
			Category: types.CategorySoil,
			Title:    title,
			Message: fmt.Sprintf("Soil moisture: %.0f (threshold: %.0f)",
				s.SoilMoisture, plant.Settings.MoistureThreshold),
		}, now)
	}

	if s.Temperature > highTemperature {
		e.raise(store.AlertCandidate{
			PlantID:  plant.ID,
			Type:     types.AlertWarning,
			Category: types.CategoryTemperature,
			Title:    "High Temperature",
			Message:  fmt.Sprintf("Temperature: %.1f°C", s.Temperature),
		}, now)
	}

	if s.AirQuality > poorAirQuality {
		e.raise(store.AlertCandidate{
			PlantID:  plant.ID,
			Type:     types.AlertWarning,
			Category: types.CategoryAir,
			Title:    "Poor Air Quality",
			Message:  fmt.Sprintf("Air quality index: %.0f", s.AirQuality),
		}, now)
	}
}

func (e *Engine) raise(candidate store.AlertCandidate, now int64) {
	alert, added := e.store.AddAlert(candidate, now)
	if !added {
		return
	}
	e.metrics.recordAlert(string(alert.Type))
	e.logger.Warn("Alert raised",
		"plant_id", alert.PlantID,
		"type", string(alert.Type),
		"title", alert.Title)
}
