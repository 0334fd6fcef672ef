package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsApply_ShallowMerge(t *testing.T) {
	base := PlantSettings{
		AutoMode:           true,
		MoistureThreshold:  2500,
		WateringIntervalMs: 3600000,
	}

	threshold := 2200.0
	merged := base.Apply(SettingsPatch{MoistureThreshold: &threshold})

	assert.Equal(t, 2200.0, merged.MoistureThreshold)
	// Unpatched fields untouched
	assert.True(t, merged.AutoMode)
	assert.Equal(t, int64(3600000), merged.WateringIntervalMs)
}

func TestSettingsApply_EmptyPatchIsIdentity(t *testing.T) {
	base := PlantSettings{AutoMode: false, MoistureThreshold: 2400, WateringIntervalMs: 1000}
	assert.Equal(t, base, base.Apply(SettingsPatch{}))
}

func TestWateringInterval(t *testing.T) {
	s := PlantSettings{WateringIntervalMs: 90000}
	assert.Equal(t, 90*time.Second, s.WateringInterval())
}

func TestPlantJSONContract(t *testing.T) {
	p := Plant{
		ID:       "p1",
		Name:     "Monstera",
		Location: "Living Room",
		Type:     "tropical",
		Settings: PlantSettings{AutoMode: true, MoistureThreshold: 2500, WateringIntervalMs: 3600000},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "settings")
	settings := decoded["settings"].(map[string]any)
	assert.Equal(t, true, settings["autoMode"])
	assert.Equal(t, 3600000.0, settings["wateringInterval"])
	// Never-watered plants omit the field entirely
	assert.NotContains(t, decoded, "lastWatering")
}

func TestEventScopes(t *testing.T) {
	assert.Equal(t, "", SnapshotEvent{}.Scope())
	assert.Equal(t, "p1", PlantUpdateEvent{PlantID: "p1"}.Scope())
	assert.Equal(t, EventPlantUpdate, PlantUpdateEvent{}.EventType())
	assert.Equal(t, EventConnection, ConnectionEvent{}.EventType())
}

func TestConnectionEventConnected(t *testing.T) {
	assert.True(t, ConnectionEvent{Status: "connected"}.Connected())
	assert.False(t, ConnectionEvent{Status: "disconnected"}.Connected())
}
