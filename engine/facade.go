package engine

import (
	"context"
	"time"

	"github.com/c360/plantstream/errors"
	"github.com/c360/plantstream/types"
)

// Facade methods: the query/command surface consumed by the gateway.
// Every call pays the configured simulated latency before touching the
// store, mirroring a remote backend. Unknown ids resolve to nil
// results, never errors; the only error these methods return is
// context cancellation during the latency wait.

// delay sleeps for the configured query latency, honoring ctx.
func (e *Engine) delay(ctx context.Context) error {
	d := e.cfg.QueryLatency.Std()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetPlants returns all plants in seed order.
func (e *Engine) GetPlants(ctx context.Context) ([]types.Plant, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "GetPlants", "query cancelled")
	}
	return e.store.Plants(), nil
}

// GetPlant returns one plant, or nil if the id is unknown.
func (e *Engine) GetPlant(ctx context.Context, plantID string) (*types.Plant, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "GetPlant", "query cancelled")
	}
	plant, ok := e.store.Plant(plantID)
	if !ok {
		return nil, nil
	}
	return &plant, nil
}

// GetSensorData returns a plant's current reading and history, or nil
// if the id is unknown.
func (e *Engine) GetSensorData(ctx context.Context, plantID string) (*types.SensorReading, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "GetSensorData", "query cancelled")
	}
	reading, ok := e.store.Reading(plantID)
	if !ok {
		return nil, nil
	}
	return &reading, nil
}

// GetAllSensorData returns every plant's reading keyed by plant id.
func (e *Engine) GetAllSensorData(ctx context.Context) (map[string]types.SensorReading, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "GetAllSensorData", "query cancelled")
	}
	return e.store.AllReadings(), nil
}

// GetAlerts returns alerts most-recent-first, filtered to plantID when
// non-empty.
func (e *Engine) GetAlerts(ctx context.Context, plantID string) ([]types.Alert, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "GetAlerts", "query cancelled")
	}
	return e.store.Alerts(plantID), nil
}

// WaterPlant triggers a watering cycle and resolves immediately with
// the plant's state after the pump turned on; it does not wait for
// the cycle to complete. A plant already watering is left alone (the
// trigger is idempotent). Returns nil for an unknown plant.
func (e *Engine) WaterPlant(ctx context.Context, plantID string) (*types.Plant, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "WaterPlant", "command cancelled")
	}

	plant, ok := e.store.Plant(plantID)
	if !ok {
		return nil, nil
	}
	e.StartWatering(plantID, TriggerManual)
	return &plant, nil
}

// UpdatePlantSettings applies a partial settings update (shallow merge;
// nil patch fields keep their current values) and returns the updated
// plant, or nil for an unknown id. The alert rules re-run against the
// new thresholds right away rather than waiting for the next tick.
func (e *Engine) UpdatePlantSettings(
	ctx context.Context, plantID string, patch types.SettingsPatch,
) (*types.Plant, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "UpdatePlantSettings", "command cancelled")
	}

	e.simMu.Lock()
	plant, ok := e.store.UpdateSettings(plantID, patch)
	if ok {
		if current, have := e.store.Current(plantID); have {
			e.evaluateAlerts(plant, current, e.now())
		}
	}
	e.simMu.Unlock()

	if !ok {
		return nil, nil
	}

	e.logger.Info("Plant settings updated", "plant_id", plantID)
	e.publishPlantUpdate(plantID)
	return &plant, nil
}

// ResolveAlert marks an alert resolved and returns it. An unknown id
// is a stale client reference, not an error: the result is nil and the
// alert list is untouched.
func (e *Engine) ResolveAlert(ctx context.Context, alertID string) (*types.Alert, error) {
	if err := e.delay(ctx); err != nil {
		return nil, errors.WrapTransient(err, "engine", "ResolveAlert", "command cancelled")
	}
	return e.store.ResolveAlert(alertID), nil
}
