package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/plantstream/config"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/types"
)

func TestGetPlants(t *testing.T) {
	e, _ := newTestEngine(t, testSeed(), testConfig())

	plants, err := e.GetPlants(context.Background())
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "p1", plants[0].ID)
	assert.Equal(t, "p2", plants[1].ID)
}

func TestGetPlant_UnknownIsNil(t *testing.T) {
	e, _ := newTestEngine(t, testSeed(), testConfig())

	plant, err := e.GetPlant(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, plant)
}

func TestGetSensorData(t *testing.T) {
	e, _ := newTestEngine(t, testSeed(), testConfig())
	ctx := context.Background()

	reading, err := e.GetSensorData(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.NotEmpty(t, reading.History, "seeded store carries synthetic history")

	missing, err := e.GetSensorData(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := e.GetAllSensorData(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWaterPlant(t *testing.T) {
	e, st := newTestEngine(t, testSeed(), testConfig())
	ctx := context.Background()

	plant, err := e.WaterPlant(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, plant)

	current, _ := st.Current("p1")
	assert.True(t, current.PumpStatus, "command resolves after the pump is on")

	unknown, err := e.WaterPlant(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestUpdatePlantSettings_ShallowMerge(t *testing.T) {
	e, st := newTestEngine(t, testSeed(), testConfig())
	ctx := context.Background()

	auto := true
	plant, err := e.UpdatePlantSettings(ctx, "p1", types.SettingsPatch{AutoMode: &auto})
	require.NoError(t, err)
	require.NotNil(t, plant)

	assert.True(t, plant.Settings.AutoMode)
	assert.Equal(t, 2200.0, plant.Settings.MoistureThreshold, "untouched field keeps its value")

	stored, _ := st.Plant("p1")
	assert.True(t, stored.Settings.AutoMode)

	unknown, err := e.UpdatePlantSettings(ctx, "ghost", types.SettingsPatch{AutoMode: &auto})
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestUpdatePlantSettings_ReevaluatesAlerts(t *testing.T) {
	e, st := newTestEngine(t, testSeed(), testConfig())

	// Lowering the threshold below the current moisture raises a soil
	// alert without waiting for the next tick.
	threshold := 1500.0
	_, err := e.UpdatePlantSettings(context.Background(), "p1",
		types.SettingsPatch{MoistureThreshold: &threshold})
	require.NoError(t, err)

	var found bool
	for _, a := range st.Alerts("p1") {
		if a.Category == types.CategorySoil && !a.Resolved {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveAlert_UnknownIsNilAndHarmless(t *testing.T) {
	e, st := newTestEngine(t, testSeed(), testConfig())
	e.Tick()
	before := st.Alerts("")

	resolved, err := e.ResolveAlert(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, resolved)
	assert.Equal(t, before, st.Alerts(""), "alert list unchanged")
}

func TestFacade_SimulatedLatency(t *testing.T) {
	cfg := testConfig()
	cfg.QueryLatency = config.Duration(30 * time.Millisecond)
	e, _ := newTestEngine(t, testSeed(), cfg)

	start := time.Now()
	_, err := e.GetPlants(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestFacade_CancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.QueryLatency = config.Duration(time.Second)
	e, _ := newTestEngine(t, testSeed(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.GetPlants(ctx)
	assert.Error(t, err)
}

func TestExportData(t *testing.T) {
	e, st := newTestEngine(t, testSeed(), testConfig())
	ctx := context.Background()

	reading, _ := st.Reading("p1")
	history := reading.History
	require.NotEmpty(t, history)

	t.Run("inclusive range ascending", func(t *testing.T) {
		start := history[1].Timestamp
		end := history[len(history)-2].Timestamp

		out, err := e.ExportData(ctx, "p1", start, end)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		require.Equal(t, "Timestamp,Temperature,Humidity,Soil Moisture,Pressure,Air Quality,PM2.5", lines[0])
		assert.Len(t, lines[1:], len(history)-2, "endpoints are included, outside rows are not")

		var prev int64
		for _, line := range lines[1:] {
			fields := strings.Split(line, ",")
			ts := timestamp.Parse(fields[0])
			assert.GreaterOrEqual(t, ts, start)
			assert.LessOrEqual(t, ts, end)
			assert.GreaterOrEqual(t, ts, prev, "rows in ascending order")
			prev = ts
		}
	})

	t.Run("empty range keeps header", func(t *testing.T) {
		out, err := e.ExportData(ctx, "p1", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, "Timestamp,Temperature,Humidity,Soil Moisture,Pressure,Air Quality,PM2.5\n", out)
	})

	t.Run("unknown plant is empty", func(t *testing.T) {
		out, err := e.ExportData(ctx, "ghost", 0, timestamp.Now())
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
