// Package store holds the most recent tracking data in memory for
// readers. The scheduler writes one snapshot per cycle; HTTP handlers
// and the CLI read without touching the vendor API.
package store

import (
	"sync"
	"time"

	"github.com/jusunglee/subway-go/internal/models"
)

// Store manages the latest tracking snapshot and arrival board
type Store struct {
	mu         sync.RWMutex
	snapshot   models.TrackingSnapshot
	arrivals   []models.Arrival
	lastUpdate time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// UpdateSnapshot records the outcome of a tracking cycle
func (s *Store) UpdateSnapshot(snapshot models.TrackingSnapshot, arrivals []models.Arrival) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snapshot
	s.arrivals = arrivals
	s.lastUpdate = time.Now()
}

// Snapshot returns the latest tracking snapshot and when it was taken
func (s *Store) Snapshot() (models.TrackingSnapshot, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.snapshot
	snapshot.Trains = append([]models.TrackedTrain(nil), s.snapshot.Trains...)
	snapshot.Matches = append([]models.MatchedPosition(nil), s.snapshot.Matches...)
	return snapshot, s.lastUpdate
}

// Arrivals returns the latest full arrival board
func (s *Store) Arrivals() []models.Arrival {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Arrival, len(s.arrivals))
	copy(result, s.arrivals)
	return result
}

// LastUpdate returns the time of the last successful cycle
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}
