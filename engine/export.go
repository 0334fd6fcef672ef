package engine

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/c360/plantstream/errors"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/types"
)

// exportHeader is the fixed column order of the CSV export.
var exportHeader = []string{
	"Timestamp", "Temperature", "Humidity", "Soil Moisture",
	"Pressure", "Air Quality", "PM2.5",
}

// ExportData serializes a plant's history within [start, end]
// (inclusive, Unix milliseconds) to CSV, oldest row first. The header
// row is always present, even for an empty range. Returns "" for an
// unknown plant.
func (e *Engine) ExportData(ctx context.Context, plantID string, start, end int64) (string, error) {
	if err := e.delay(ctx); err != nil {
		return "", errors.WrapTransient(err, "engine", "ExportData", "query cancelled")
	}

	rows, ok := e.store.HistoryRange(plantID, start, end)
	if !ok {
		return "", nil
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return "", errors.WrapInvalid(err, "engine", "ExportData", "write header")
	}
	for _, s := range rows {
		if err := w.Write(exportRow(s)); err != nil {
			return "", errors.WrapInvalid(err, "engine", "ExportData", "write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.WrapInvalid(err, "engine", "ExportData", "flush")
	}
	return buf.String(), nil
}

// exportRow renders one snapshot: RFC 3339 timestamp, numeric fields at
// full stored precision.
func exportRow(s types.SensorSnapshot) []string {
	return []string{
		timestamp.Format(s.Timestamp),
		formatValue(s.Temperature),
		formatValue(s.Humidity),
		formatValue(s.SoilMoisture),
		formatValue(s.Pressure),
		formatValue(s.AirQuality),
		formatValue(s.DustPM25),
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
