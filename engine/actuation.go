package engine

import (
	"github.com/c360/plantstream/types"
)

// Trigger records what initiated a watering cycle; it only feeds
// logging and metrics, the transition itself is identical.
type Trigger string

const (
	// TriggerManual is an explicit water command from the facade.
	TriggerManual Trigger = "manual"
	// TriggerAuto is the per-tick auto-irrigation rule.
	TriggerAuto Trigger = "auto"
)

// wateringKey namespaces the per-plant completion timer in the shared
// scheduler.
func wateringKey(plantID string) string {
	return "watering:" + plantID
}

// StartWatering moves a plant from IDLE to WATERING: the pump turns on
// synchronously and a completion fires after the configured duration.
// Returns false for an unknown plant or when a cycle is already in
// flight: at most one pending completion exists per plant, so a second
// trigger during WATERING is an explicit no-op rather than a timer
// reset.
func (e *Engine) StartWatering(plantID string, trigger Trigger) bool {
	e.simMu.Lock()
	started := e.startWatering(plantID, trigger)
	e.simMu.Unlock()

	if started {
		e.publishPlantUpdate(plantID)
	}
	return started
}

// startWatering is the locked transition; callers hold simMu and
// publish the plant update themselves after releasing it, so hub
// callbacks never run under the lock.
func (e *Engine) startWatering(plantID string, trigger Trigger) bool {
	current, ok := e.store.Current(plantID)
	if !ok {
		return false
	}

	scheduled := e.sched.Schedule(
		wateringKey(plantID),
		e.cfg.WateringDuration.Std(),
		func() { e.completeWatering(plantID) },
	)
	if !scheduled {
		return false // already WATERING
	}

	current.PumpStatus = true
	current.Timestamp = e.now()
	e.store.SetCurrent(plantID, current)

	e.metrics.recordWateringStart(string(trigger))
	e.logger.Info("Watering started",
		"plant_id", plantID,
		"trigger", string(trigger),
		"duration", e.cfg.WateringDuration.Std().String())
	return true
}

// completeWatering is the WATERING -> IDLE transition, fired by the
// scheduler after the watering duration: pump off, soil moisture reset
// into the just-watered band, lastWatering stamped, and open soil
// alerts for the plant resolved.
func (e *Engine) completeWatering(plantID string) {
	e.simMu.Lock()
	current, ok := e.store.Current(plantID)
	if !ok {
		e.simMu.Unlock()
		return
	}

	now := e.now()
	current.PumpStatus = false
	current.SoilMoisture = wateredSoilMin + e.randFloat()*wateredSoilRange
	current.Timestamp = now
	e.store.SetCurrent(plantID, current)
	e.store.SetLastWatering(plantID, now)

	resolved := e.store.ResolveByCategory(plantID, types.CategorySoil)
	e.simMu.Unlock()

	e.metrics.recordWateringComplete()
	e.logger.Info("Watering complete",
		"plant_id", plantID,
		"soil_moisture", current.SoilMoisture,
		"alerts_resolved", resolved)

	e.publishPlantUpdate(plantID)
}

// Just-watered soil moisture band: completion samples uniformly from
// [wateredSoilMin, wateredSoilMin+wateredSoilRange).
const (
	wateredSoilMin   = 1800.0
	wateredSoilRange = 200.0
)

// WateringActive reports whether a plant has a watering cycle in
// flight.
func (e *Engine) WateringActive(plantID string) bool {
	return e.sched.Pending(wateringKey(plantID))
}
