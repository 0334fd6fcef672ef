// Package store holds the canonical in-memory collections: plants,
// per-plant sensor readings with bounded history, and alerts. All
// accessors and mutators are synchronous; simulated latency belongs to
// the engine facade, never here. One mutex guards the whole store so a
// tick's read-modify-write on a reading is atomic with respect to
// concurrent command handlers.
package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/plantstream/pkg/ring"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/types"
)

// HistoryCap bounds each plant's retained history; the oldest snapshot
// is evicted first.
const HistoryCap = 48

// AlertCap bounds the retained alert list; the oldest entries are
// dropped first.
const AlertCap = 50

// seedHistoryPoints is the number of synthetic history entries created
// at initialization, spanning the prior 24 hours at 1-hour spacing.
const seedHistoryPoints = 25

type reading struct {
	current types.SensorSnapshot
	history *ring.Ring[types.SensorSnapshot]
}

// Store owns the canonical entity collections. Entities never leave the
// store by reference: every read returns a copy.
type Store struct {
	mu       sync.Mutex
	plants   map[string]*types.Plant
	order    []string // plant iteration order (seed order)
	readings map[string]*reading
	alerts   []types.Alert // most-recent-first
}

// New builds a store from seed data. Initial readings get a synthetic
// 24-hour history so history is never empty after initialization; seed
// alerts get generated ids and the given timestamp.
func New(seed Seed, now int64, rng *rand.Rand) *Store {
	s := &Store{
		plants:   make(map[string]*types.Plant, len(seed.Plants)),
		readings: make(map[string]*reading, len(seed.Readings)),
	}

	for i := range seed.Plants {
		p := seed.Plants[i]
		s.plants[p.ID] = &p
		s.order = append(s.order, p.ID)
	}

	for plantID, current := range seed.Readings {
		current.Timestamp = now
		r := &reading{
			current: current,
			history: ring.New[types.SensorSnapshot](HistoryCap),
		}
		seedHistory(r.history, now, rng)
		s.readings[plantID] = r
	}

	for _, sa := range seed.Alerts {
		s.alerts = append([]types.Alert{{
			ID:        uuid.NewString(),
			PlantID:   sa.PlantID,
			Type:      sa.Type,
			Category:  sa.Category,
			Title:     sa.Title,
			Message:   sa.Message,
			Timestamp: now,
		}}, s.alerts...)
	}

	return s
}

func hourDuration(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

// seedHistory fills the ring with synthetic points at 1-hour spacing
// over the prior 24 hours, oldest first.
func seedHistory(h *ring.Ring[types.SensorSnapshot], now int64, rng *rand.Rand) {
	for i := seedHistoryPoints - 1; i >= 0; i-- {
		ts := timestamp.Sub(now, hourDuration(i))
		h.Append(types.SensorSnapshot{
			Temperature:  22 + rng.Float64()*6,
			Humidity:     55 + rng.Float64()*20,
			SoilMoisture: 1800 + rng.Float64()*1000,
			Pressure:     1010 + rng.Float64()*10,
			AirQuality:   100 + rng.Float64()*100,
			DustPM25:     20 + rng.Float64()*30,
			Timestamp:    ts,
		})
	}
}

// Plants returns all plants in seed order.
func (s *Store) Plants() []types.Plant {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Plant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.plants[id])
	}
	return out
}

// Plant returns one plant by id.
func (s *Store) Plant(id string) (types.Plant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plants[id]
	if !ok {
		return types.Plant{}, false
	}
	return *p, true
}

// PlantIDs returns plant ids in seed order.
func (s *Store) PlantIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// UpdateSettings shallow-merges the patch into the plant's settings and
// returns the updated plant. Unknown id returns ok=false.
func (s *Store) UpdateSettings(id string, patch types.SettingsPatch) (types.Plant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plants[id]
	if !ok {
		return types.Plant{}, false
	}
	p.Settings = p.Settings.Apply(patch)
	return *p, true
}

// SetLastWatering records the completion timestamp of a watering cycle.
func (s *Store) SetLastWatering(id string, ts int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plants[id]
	if !ok {
		return false
	}
	p.LastWatering = ts
	return true
}

// Reading returns a plant's current snapshot plus full history copy.
func (s *Store) Reading(plantID string) (types.SensorReading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readingLocked(plantID)
}

func (s *Store) readingLocked(plantID string) (types.SensorReading, bool) {
	r, ok := s.readings[plantID]
	if !ok {
		return types.SensorReading{}, false
	}
	return types.SensorReading{
		Current: r.current,
		History: r.history.Snapshot(),
	}, true
}

// AllReadings returns every plant's reading keyed by plant id.
func (s *Store) AllReadings() map[string]types.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]types.SensorReading, len(s.readings))
	for id := range s.readings {
		rd, _ := s.readingLocked(id)
		out[id] = rd
	}
	return out
}

// Current returns a plant's current snapshot.
func (s *Store) Current(plantID string) (types.SensorSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.readings[plantID]
	if !ok {
		return types.SensorSnapshot{}, false
	}
	return r.current, true
}

// SetCurrent replaces a plant's current snapshot without touching
// history. Used for actuation transitions (pump on/off), which are
// observable state changes but not sensor samples.
func (s *Store) SetCurrent(plantID string, snap types.SensorSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.readings[plantID]
	if !ok {
		return false
	}
	r.current = snap
	return true
}

// RecordSnapshot replaces the current snapshot and appends it to the
// history, enforcing the retention cap. Used once per simulation tick.
func (s *Store) RecordSnapshot(plantID string, snap types.SensorSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.readings[plantID]
	if !ok {
		return false
	}
	r.current = snap
	r.history.Append(snap)
	return true
}

// HistoryRange returns history entries with timestamps inside the
// inclusive [start, end] range, ascending. ok=false when the plant is
// unknown.
func (s *Store) HistoryRange(plantID string, start, end int64) ([]types.SensorSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.readings[plantID]
	if !ok {
		return nil, false
	}

	var out []types.SensorSnapshot
	for _, snap := range r.history.Snapshot() {
		if snap.Timestamp >= start && snap.Timestamp <= end {
			out = append(out, snap)
		}
	}
	return out, true
}
