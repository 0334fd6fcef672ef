package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/plantstream/config"
	"github.com/c360/plantstream/engine"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/pubsub"
	"github.com/c360/plantstream/store"
	"github.com/c360/plantstream/types"
)

func newTestGateway(t *testing.T) (*Server, *engine.Engine, *store.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rng := rand.New(rand.NewSource(7))

	seed := store.Seed{
		Plants: []types.Plant{
			{
				ID: "p1", Name: "Monstera", Location: "Living Room", Type: "tropical",
				Settings: types.PlantSettings{MoistureThreshold: 2200, WateringIntervalMs: 8 * 3600 * 1000},
			},
		},
		Readings: map[string]types.SensorSnapshot{
			"p1": {Temperature: 24, Humidity: 60, SoilMoisture: 1900, Pressure: 1012, AirQuality: 120, DustPM25: 30},
		},
	}
	st := store.New(seed, timestamp.Now(), rng)
	hub := pubsub.New(logger)

	eng := engine.New(st, hub, config.EngineConfig{
		TickInterval:     config.Duration(time.Hour), // ticks driven manually
		WateringDuration: config.Duration(20 * time.Millisecond),
		QueryLatency:     0,
	}, logger, nil, engine.WithRand(rng))
	require.NoError(t, eng.Initialize())

	srv := NewServer(config.GatewayConfig{Addr: "127.0.0.1:0"}, eng, hub, nil, logger)
	require.NoError(t, srv.Initialize())
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(2 * time.Second) })

	return srv, eng, st
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGateway_Plants(t *testing.T) {
	srv, _, _ := newTestGateway(t)
	base := "http://" + srv.Addr()

	var plants []types.Plant
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/plants", &plants))
	require.Len(t, plants, 1)
	assert.Equal(t, "p1", plants[0].ID)

	var plant types.Plant
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/plants/p1", &plant))
	assert.Equal(t, "Monstera", plant.Name)

	assert.Equal(t, http.StatusNotFound, getJSON(t, base+"/api/plants/ghost", nil))
}

func TestGateway_SensorsAndHealth(t *testing.T) {
	srv, _, _ := newTestGateway(t)
	base := "http://" + srv.Addr()

	var reading types.SensorReading
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/plants/p1/sensors", &reading))
	assert.NotEmpty(t, reading.History)

	var report struct {
		PlantID string `json:"plantId"`
		Health  struct {
			Score  int    `json:"score"`
			Status string `json:"status"`
		} `json:"health"`
		Stats map[string]struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"stats"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/plants/p1/health", &report))
	assert.Equal(t, "p1", report.PlantID)
	assert.NotEmpty(t, report.Health.Status)
	assert.Contains(t, report.Stats, "soilMoisture")

	var all map[string]types.SensorReading
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/sensors", &all))
	assert.Len(t, all, 1)
}

func TestGateway_WaterCommand(t *testing.T) {
	srv, _, st := newTestGateway(t)
	base := "http://" + srv.Addr()

	resp, err := http.Post(base+"/api/plants/p1/water", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	current, _ := st.Current("p1")
	assert.True(t, current.PumpStatus)

	resp, err = http.Post(base+"/api/plants/ghost/water", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGateway_UpdateSettings(t *testing.T) {
	srv, _, st := newTestGateway(t)
	base := "http://" + srv.Addr()

	body := bytes.NewBufferString(`{"autoMode":true}`)
	req, err := http.NewRequest(http.MethodPatch, base+"/api/plants/p1/settings", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	plant, _ := st.Plant("p1")
	assert.True(t, plant.Settings.AutoMode)
	assert.Equal(t, 2200.0, plant.Settings.MoistureThreshold)
}

func TestGateway_AlertsAndResolve(t *testing.T) {
	srv, _, st := newTestGateway(t)
	base := "http://" + srv.Addr()

	alert, added := st.AddAlert(store.AlertCandidate{
		PlantID: "p1", Type: types.AlertWarning,
		Category: types.CategorySoil, Title: "Dry Soil", Message: "test",
	}, timestamp.Now())
	require.True(t, added)

	var alerts []types.Alert
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/alerts?plantId=p1", &alerts))
	require.Len(t, alerts, 1)

	resp, err := http.Post(base+"/api/alerts/"+alert.ID+"/resolve", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(base+"/api/alerts/unknown/resolve", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGateway_Export(t *testing.T) {
	srv, _, _ := newTestGateway(t)
	base := "http://" + srv.Addr()

	resp, err := http.Get(base + "/api/plants/p1/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data),
		"Timestamp,Temperature,Humidity,Soil Moisture,Pressure,Air Quality,PM2.5"))

	status := getJSON(t, base+"/api/plants/p1/export?start=abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGateway_Healthz(t *testing.T) {
	srv, _, _ := newTestGateway(t)

	var out map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, "http://"+srv.Addr()+"/healthz", &out))
	assert.Equal(t, "ok", out["status"])
}

func TestGateway_WebSocketBroadcast(t *testing.T) {
	srv, eng, _ := newTestGateway(t)

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Give the server a beat to register the client, then publish.
	time.Sleep(20 * time.Millisecond)
	eng.Tick()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &envelope))
	assert.Equal(t, string(types.EventSnapshot), envelope.Type)
	assert.Contains(t, string(envelope.Data), `"plants"`)
}
