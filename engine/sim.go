package engine

import (
	"math"
	"time"

	"github.com/c360/plantstream/types"
)

// Random-walk step sizes per tick. Soil moisture only drifts upward
// (toward dryness); watering is the sole mechanism that lowers it.
const (
	tempStep     = 0.25
	humidityStep = 1.0
	pressureStep = 0.25
	airStep      = 5.0
	dustStep     = 2.5
	soilDriftMax = 50.0

	airMin  = 50.0
	airMax  = 300.0
	dustMin = 10.0
	dustMax = 100.0
	soilMax = 3000.0
)

// Tick advances every plant's reading by one simulation step: random
// walks on the sensor fields, a history append, alert evaluation, and
// the auto-irrigation check. Production calls it from the tick loop;
// tests call it directly to single-step the simulation.
func (e *Engine) Tick() {
	start := time.Now()

	e.simMu.Lock()
	now := e.now()
	var watered []string
	for _, id := range e.store.PlantIDs() {
		plant, ok := e.store.Plant(id)
		if !ok {
			continue
		}

		current, _ := e.store.Current(id)
		next := e.step(normalize(current), now)
		e.store.RecordSnapshot(id, next)

		e.evaluateAlerts(plant, next, now)

		// Auto-irrigation uses the post-walk moisture value.
		if plant.Settings.AutoMode && next.SoilMoisture > plant.Settings.MoistureThreshold {
			if e.startWatering(id, TriggerAuto) {
				watered = append(watered, id)
			}
		}
	}
	unresolved := len(e.store.UnresolvedAlerts())
	e.simMu.Unlock()

	e.metrics.recordTick(time.Since(start).Seconds())
	e.metrics.setUnresolvedAlerts(float64(unresolved))

	// Hub callbacks run outside simMu so a subscriber can issue
	// commands without deadlocking.
	for _, id := range watered {
		e.publishPlantUpdate(id)
	}
	e.publishSnapshot()
}

// step applies one random-walk increment to every sensor field and
// refreshes the timestamp. Pump status is owned by the actuation state
// machine and passes through untouched.
func (e *Engine) step(s types.SensorSnapshot, now int64) types.SensorSnapshot {
	s.Temperature += (e.randFloat() - 0.5) * 2 * tempStep
	s.Humidity += (e.randFloat() - 0.5) * 2 * humidityStep
	s.Pressure += (e.randFloat() - 0.5) * 2 * pressureStep
	s.AirQuality = clamp(s.AirQuality+(e.randFloat()-0.5)*2*airStep, airMin, airMax)
	s.DustPM25 = clamp(s.DustPM25+(e.randFloat()-0.5)*2*dustStep, dustMin, dustMax)
	s.SoilMoisture = math.Min(s.SoilMoisture+e.randFloat()*soilDriftMax, soilMax)
	s.Timestamp = now
	return s
}

// normalize substitutes defaults for zero-valued sensor fields so a
// partially seeded reading never walks from zero. A true zero is not a
// meaningful value for any of these sensors.
func normalize(s types.SensorSnapshot) types.SensorSnapshot {
	d := types.SensorDefaults
	if s.Temperature == 0 {
		s.Temperature = d.Temperature
	}
	if s.Humidity == 0 {
		s.Humidity = d.Humidity
	}
	if s.SoilMoisture == 0 {
		s.SoilMoisture = d.SoilMoisture
	}
	if s.Pressure == 0 {
		s.Pressure = d.Pressure
	}
	if s.AirQuality == 0 {
		s.AirQuality = d.AirQuality
	}
	if s.DustPM25 == 0 {
		s.DustPM25 = d.DustPM25
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// publishSnapshot fans out the full engine state after a tick. Only
// unresolved alerts ride along: resolved ones stay queryable through
// the facade but are history, not state to broadcast.
func (e *Engine) publishSnapshot() {
	e.hub.Publish(types.SnapshotEvent{
		Plants:     e.store.Plants(),
		SensorData: e.store.AllReadings(),
		Alerts:     e.store.UnresolvedAlerts(),
	})
}
