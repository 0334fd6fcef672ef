package health

import "github.com/c360/plantstream/types"

// Field selects one sensor value from a snapshot for stats and trend
// computation.
type Field func(types.SensorSnapshot) float64

// Field selectors for the six sensor series.
var (
	Temperature  Field = func(s types.SensorSnapshot) float64 { return s.Temperature }
	Humidity     Field = func(s types.SensorSnapshot) float64 { return s.Humidity }
	SoilMoisture Field = func(s types.SensorSnapshot) float64 { return s.SoilMoisture }
	Pressure     Field = func(s types.SensorSnapshot) float64 { return s.Pressure }
	AirQuality   Field = func(s types.SensorSnapshot) float64 { return s.AirQuality }
	DustPM25     Field = func(s types.SensorSnapshot) float64 { return s.DustPM25 }
)

// Stats summarizes one sensor series over a history window.
type Stats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Avg     float64 `json:"avg"`
	Current float64 `json:"current"`
}

// Trend describes the recent direction of a sensor series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// ComputeStats returns min/max/avg/current for a field over the history,
// oldest first. Empty history yields zero stats.
func ComputeStats(history []types.SensorSnapshot, field Field) Stats {
	if len(history) == 0 {
		return Stats{}
	}

	first := field(history[0])
	stats := Stats{Min: first, Max: first}
	sum := 0.0
	for _, snap := range history {
		v := field(snap)
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		sum += v
	}
	stats.Avg = sum / float64(len(history))
	stats.Current = field(history[len(history)-1])
	return stats
}

// DetectTrend inspects the last periods entries of the history. A series
// counts as increasing (or decreasing) when more than 60% of consecutive
// steps move in that direction.
func DetectTrend(history []types.SensorSnapshot, field Field, periods int) Trend {
	if periods < 2 || len(history) < periods {
		return TrendStable
	}

	recent := history[len(history)-periods:]
	increasing, decreasing := 0, 0
	for i := 1; i < len(recent); i++ {
		prev, cur := field(recent[i-1]), field(recent[i])
		if cur > prev {
			increasing++
		}
		if cur < prev {
			decreasing++
		}
	}

	threshold := float64(periods) * 0.6
	if float64(increasing) > threshold {
		return TrendIncreasing
	}
	if float64(decreasing) > threshold {
		return TrendDecreasing
	}
	return TrendStable
}
