package store

import (
	"github.com/google/uuid"

	"github.com/c360/plantstream/types"
)

// AlertCandidate is an alert before admission: no id, timestamp, or
// resolution state.
type AlertCandidate struct {
	PlantID  string              `json:"plantId"`
	Type     types.AlertType     `json:"type"`
	Category types.AlertCategory `json:"category"`
	Title    string              `json:"title"`
	Message  string              `json:"message"`
}

// AddAlert admits a candidate unless an unresolved alert with the same
// (PlantID, Title) already exists, in which case it is a no-op and the
// existing alert is returned with created=false. Admitted alerts get a
// generated id and the given timestamp, go to the front of the list
// (most-recent-first), and the list is truncated to AlertCap.
func (s *Store) AddAlert(candidate AlertCandidate, now int64) (types.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.alerts {
		if a.PlantID == candidate.PlantID && a.Title == candidate.Title && !a.Resolved {
			return a, false
		}
	}

	alert := types.Alert{
		ID:        uuid.NewString(),
		PlantID:   candidate.PlantID,
		Type:      candidate.Type,
		Category:  candidate.Category,
		Title:     candidate.Title,
		Message:   candidate.Message,
		Timestamp: now,
	}

	s.alerts = append([]types.Alert{alert}, s.alerts...)
	if len(s.alerts) > AlertCap {
		s.alerts = s.alerts[:AlertCap]
	}
	return alert, true
}

// Alerts returns alerts most-recent-first, optionally filtered by plant
// id ("" returns all).
func (s *Store) Alerts(plantID string) []types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if plantID == "" || a.PlantID == plantID {
			out = append(out, a)
		}
	}
	return out
}

// UnresolvedAlerts returns the open alerts, most-recent-first.
func (s *Store) UnresolvedAlerts() []types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

// ResolveAlert marks the matching alert resolved and returns it.
// Unknown ids return nil and leave the list unchanged: a stale client
// reference is an expected condition, not an error.
func (s *Store) ResolveAlert(id string) *types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Resolved = true
			resolved := s.alerts[i]
			return &resolved
		}
	}
	return nil
}

// ResolveByCategory resolves every unresolved alert for the plant in the
// given category and returns how many were resolved. Watering completion
// uses this to clear soil-dryness alerts.
func (s *Store) ResolveByCategory(plantID string, category types.AlertCategory) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := 0
	for i := range s.alerts {
		if s.alerts[i].PlantID == plantID && s.alerts[i].Category == category && !s.alerts[i].Resolved {
			s.alerts[i].Resolved = true
			resolved++
		}
	}
	return resolved
}

// AlertCount returns the total number of retained alerts.
func (s *Store) AlertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}
