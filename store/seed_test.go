package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/plantstream/errors"
)

func TestEmbeddedSeed(t *testing.T) {
	seed, err := EmbeddedSeed()
	require.NoError(t, err)

	assert.NotEmpty(t, seed.Plants)
	for _, p := range seed.Plants {
		_, ok := seed.Readings[p.ID]
		assert.True(t, ok, "plant %s has a seed reading", p.ID)
	}
	assert.NotEmpty(t, seed.Alerts)
}

func TestParseSeed_RejectsMissingSettings(t *testing.T) {
	plants := []byte(`{"plants": [{"id": "p1", "name": "X"}]}`)
	readings := []byte(`{"p1": {"temperature": 20}}`)
	alerts := []byte(`{"alerts": []}`)

	_, err := ParseSeed(plants, readings, alerts)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestParseSeed_RejectsUnknownAlertCategory(t *testing.T) {
	plants := []byte(`{"plants": []}`)
	readings := []byte(`{}`)
	alerts := []byte(`{"alerts": [{"plantId": "p1", "type": "warning", "category": "weather", "title": "T"}]}`)

	_, err := ParseSeed(plants, readings, alerts)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestParseSeed_RejectsPlantWithoutReading(t *testing.T) {
	plants := []byte(`{"plants": [{"id": "p1", "name": "X",
		"settings": {"autoMode": true, "moistureThreshold": 2500, "wateringInterval": 1000}}]}`)
	readings := []byte(`{}`)
	alerts := []byte(`{"alerts": []}`)

	_, err := ParseSeed(plants, readings, alerts)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
