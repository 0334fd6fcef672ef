package store

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/plantstream/errors"
	"github.com/c360/plantstream/types"
)

//go:embed seeddata/*.json
var seedFS embed.FS

// Seed carries the three collaborator documents supplied at
// construction time: initial plants, per-plant current readings, and
// initial alerts.
type Seed struct {
	Plants   []types.Plant
	Readings map[string]types.SensorSnapshot
	Alerts   []AlertCandidate
}

type plantsDoc struct {
	Plants []types.Plant `json:"plants"`
}

type alertsDoc struct {
	Alerts []AlertCandidate `json:"alerts"`
}

// EmbeddedSeed loads and validates the seed documents embedded in the
// binary.
func EmbeddedSeed() (Seed, error) {
	plants, err := seedFS.ReadFile("seeddata/plants.json")
	if err != nil {
		return Seed{}, errors.WrapFatal(err, "store", "EmbeddedSeed", "read plants seed")
	}
	readings, err := seedFS.ReadFile("seeddata/readings.json")
	if err != nil {
		return Seed{}, errors.WrapFatal(err, "store", "EmbeddedSeed", "read readings seed")
	}
	alerts, err := seedFS.ReadFile("seeddata/alerts.json")
	if err != nil {
		return Seed{}, errors.WrapFatal(err, "store", "EmbeddedSeed", "read alerts seed")
	}
	return ParseSeed(plants, readings, alerts)
}

// ParseSeed validates the three seed documents against their schemas and
// decodes them. Validation failures are classified invalid: bad seed
// data is a packaging defect, not a runtime condition to retry.
func ParseSeed(plantsJSON, readingsJSON, alertsJSON []byte) (Seed, error) {
	if err := validateSeedDoc("plants", plantsSchema, plantsJSON); err != nil {
		return Seed{}, err
	}
	if err := validateSeedDoc("readings", readingsSchema, readingsJSON); err != nil {
		return Seed{}, err
	}
	if err := validateSeedDoc("alerts", alertsSchema, alertsJSON); err != nil {
		return Seed{}, err
	}

	var pd plantsDoc
	if err := json.Unmarshal(plantsJSON, &pd); err != nil {
		return Seed{}, errors.WrapInvalid(err, "store", "ParseSeed", "decode plants seed")
	}

	var readings map[string]types.SensorSnapshot
	if err := json.Unmarshal(readingsJSON, &readings); err != nil {
		return Seed{}, errors.WrapInvalid(err, "store", "ParseSeed", "decode readings seed")
	}

	var ad alertsDoc
	if err := json.Unmarshal(alertsJSON, &ad); err != nil {
		return Seed{}, errors.WrapInvalid(err, "store", "ParseSeed", "decode alerts seed")
	}

	seed := Seed{Plants: pd.Plants, Readings: readings, Alerts: ad.Alerts}

	// Every plant must arrive with a current reading; a plant without
	// one would violate the non-empty-history invariant.
	for _, p := range seed.Plants {
		if _, ok := seed.Readings[p.ID]; !ok {
			return Seed{}, errors.WrapInvalid(
				fmt.Errorf("plant %s has no seed reading", p.ID),
				"store", "ParseSeed", "seed consistency check")
		}
	}

	return seed, nil
}

func validateSeedDoc(name, schema string, doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return errors.WrapInvalid(err, "store", "validateSeedDoc", fmt.Sprintf("validate %s seed", name))
	}
	if !result.Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("%s seed invalid: %v", name, result.Errors()),
			"store", "validateSeedDoc", "schema validation")
	}
	return nil
}

const plantsSchema = `{
  "type": "object",
  "required": ["plants"],
  "properties": {
    "plants": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "settings"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "location": {"type": "string"},
          "type": {"type": "string"},
          "settings": {
            "type": "object",
            "required": ["autoMode", "moistureThreshold", "wateringInterval"],
            "properties": {
              "autoMode": {"type": "boolean"},
              "moistureThreshold": {"type": "number"},
              "wateringInterval": {"type": "integer", "minimum": 0}
            }
          }
        }
      }
    }
  }
}`

const readingsSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "properties": {
      "temperature": {"type": "number"},
      "humidity": {"type": "number"},
      "soilMoisture": {"type": "number"},
      "pressure": {"type": "number"},
      "airQuality": {"type": "number"},
      "dustPM25": {"type": "number"},
      "pumpStatus": {"type": "boolean"}
    }
  }
}`

const alertsSchema = `{
  "type": "object",
  "required": ["alerts"],
  "properties": {
    "alerts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["plantId", "type", "category", "title"],
        "properties": {
          "plantId": {"type": "string", "minLength": 1},
          "type": {"enum": ["critical", "warning", "info"]},
          "category": {"enum": ["soil", "temperature", "air", "system"]},
          "title": {"type": "string", "minLength": 1},
          "message": {"type": "string"}
        }
      }
    }
  }
}`
