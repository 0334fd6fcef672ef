// Package health computes derived plant-health classifications from
// sensor snapshots. Everything here is a pure projection: plant status
// is computed on demand from the current reading, never stored, so it
// cannot diverge from the readings it summarizes.
package health

import "github.com/c360/plantstream/types"

// Status is the presentational health classification of a plant.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusCaution  Status = "caution"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

// Condition classifies a single sensor value.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionIdeal     Condition = "ideal"
	ConditionCaution   Condition = "caution"
	ConditionWarning   Condition = "warning"
	ConditionCritical  Condition = "critical"
)

// Health is the scored projection for one plant.
type Health struct {
	Score  int    `json:"score"` // 0-100
	Status Status `json:"status"`
}

// Soil moisture sensor range used for percentage conversion. Higher raw
// values mean drier soil.
const (
	soilRawMin = 1500
	soilRawMax = 3000
)

// SoilMoisturePercent converts a raw soil-moisture reading to a wetness
// percentage in [0,100].
func SoilMoisturePercent(raw float64) float64 {
	pct := (soilRawMax - raw) / (soilRawMax - soilRawMin) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ClassifySoilMoisture classifies a raw soil-moisture reading. Very wet
// soil (just after watering) reads as excellent and carries no score
// penalty.
func ClassifySoilMoisture(raw float64) Condition {
	pct := SoilMoisturePercent(raw)
	switch {
	case pct >= 80:
		return ConditionExcellent
	case pct >= 60:
		return ConditionGood
	case pct >= 40:
		return ConditionIdeal
	case pct >= 20:
		return ConditionWarning
	default:
		return ConditionCritical
	}
}

// ClassifyTemperature classifies a temperature in °C.
func ClassifyTemperature(c float64) Condition {
	switch {
	case c < 15:
		return ConditionWarning
	case c < 20:
		return ConditionCaution
	case c <= 28:
		return ConditionIdeal
	case c <= 32:
		return ConditionWarning
	default:
		return ConditionCritical
	}
}

// ClassifyHumidity classifies relative air humidity in percent.
func ClassifyHumidity(pct float64) Condition {
	switch {
	case pct < 30:
		return ConditionCritical
	case pct < 40:
		return ConditionWarning
	case pct <= 70:
		return ConditionIdeal
	case pct <= 80:
		return ConditionCaution
	default:
		return ConditionWarning
	}
}

// ClassifyAirQuality classifies an AQI value.
func ClassifyAirQuality(aqi float64) Condition {
	switch {
	case aqi <= 100:
		return ConditionGood
	case aqi <= 150:
		return ConditionCaution
	case aqi <= 200:
		return ConditionWarning
	default:
		return ConditionCritical
	}
}

// ClassifyPM25 classifies a PM2.5 concentration in µg/m³.
func ClassifyPM25(pm float64) Condition {
	switch {
	case pm <= 25:
		return ConditionGood
	case pm <= 50:
		return ConditionCaution
	case pm <= 100:
		return ConditionWarning
	default:
		return ConditionCritical
	}
}

// ForSnapshot scores a snapshot. The score starts at 100 and each
// non-ideal condition subtracts a penalty weighted by how much that
// sensor matters to plant health; the status bands the score.
func ForSnapshot(s types.SensorSnapshot) Health {
	score := 100

	switch ClassifySoilMoisture(s.SoilMoisture) {
	case ConditionWarning:
		score -= 15
	case ConditionCritical:
		score -= 30
	}

	switch ClassifyTemperature(s.Temperature) {
	case ConditionWarning:
		score -= 10
	case ConditionCritical:
		score -= 20
	}

	switch ClassifyHumidity(s.Humidity) {
	case ConditionWarning:
		score -= 10
	case ConditionCritical:
		score -= 15
	}

	switch ClassifyAirQuality(s.AirQuality) {
	case ConditionWarning:
		score -= 10
	case ConditionCritical:
		score -= 20
	}

	switch ClassifyPM25(s.DustPM25) {
	case ConditionWarning:
		score -= 5
	case ConditionCritical:
		score -= 10
	}

	if score < 0 {
		score = 0
	}

	return Health{Score: score, Status: statusForScore(score)}
}

func statusForScore(score int) Status {
	switch {
	case score >= 80:
		return StatusHealthy
	case score >= 60:
		return StatusCaution
	case score >= 40:
		return StatusWarning
	default:
		return StatusCritical
	}
}
