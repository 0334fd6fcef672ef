package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/c360/plantstream/health"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/types"
)

// trendPeriods is the history window the health endpoint uses for trend
// detection.
const trendPeriods = 5

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	plants, err := s.engine.GetPlants(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, plants)
}

func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	plant, err := s.engine.GetPlant(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if plant == nil {
		s.writeError(w, http.StatusNotFound, "plant not found")
		return
	}
	s.writeJSON(w, http.StatusOK, plant)
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	reading, err := s.engine.GetSensorData(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if reading == nil {
		s.writeError(w, http.StatusNotFound, "plant not found")
		return
	}
	s.writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleAllSensors(w http.ResponseWriter, r *http.Request) {
	readings, err := s.engine.GetAllSensorData(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, readings)
}

// healthReport is the /api/plants/{id}/health response: the scored
// health projection plus per-series stats and the soil trend.
type healthReport struct {
	PlantID string                  `json:"plantId"`
	Health  health.Health           `json:"health"`
	Stats   map[string]health.Stats `json:"stats"`
	Trend   health.Trend            `json:"soilTrend"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	reading, err := s.engine.GetSensorData(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if reading == nil {
		s.writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	s.writeJSON(w, http.StatusOK, healthReport{
		PlantID: id,
		Health:  health.ForSnapshot(reading.Current),
		Stats: map[string]health.Stats{
			"temperature":  health.ComputeStats(reading.History, health.Temperature),
			"humidity":     health.ComputeStats(reading.History, health.Humidity),
			"soilMoisture": health.ComputeStats(reading.History, health.SoilMoisture),
			"pressure":     health.ComputeStats(reading.History, health.Pressure),
			"airQuality":   health.ComputeStats(reading.History, health.AirQuality),
			"dustPM25":     health.ComputeStats(reading.History, health.DustPM25),
		},
		Trend: health.DetectTrend(reading.History, health.SoilMoisture, trendPeriods),
	})
}

// handleExport streams the CSV export. Range bounds are Unix
// milliseconds; start defaults to 0 and end to now.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	start, ok := queryInt(r, "start", 0)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, ok := queryInt(r, "end", timestamp.Now())
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid end")
		return
	}

	csvData, err := s.engine.ExportData(r.Context(), id, start, end)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if csvData == "" {
		s.writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.csv"`)
	_, _ = w.Write([]byte(csvData))
}

func queryInt(r *http.Request, key string, fallback int64) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *Server) handleWater(w http.ResponseWriter, r *http.Request) {
	plant, err := s.engine.WaterPlant(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if plant == nil {
		s.writeError(w, http.StatusNotFound, "plant not found")
		return
	}
	s.writeJSON(w, http.StatusAccepted, plant)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var patch types.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}

	plant, err := s.engine.UpdatePlantSettings(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if plant == nil {
		s.writeError(w, http.StatusNotFound, "plant not found")
		return
	}
	s.writeJSON(w, http.StatusOK, plant)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.engine.GetAlerts(r.Context(), r.URL.Query().Get("plantId"))
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.engine.ResolveAlert(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if alert == nil {
		s.writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	s.writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
