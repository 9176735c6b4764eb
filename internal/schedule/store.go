package schedule

import (
	"sync"
	"time"
)

// Store holds the current trip list in a thread-safe manner. The feed path
// writes it wholesale on every accepted schedule message; the renderer and
// the staleness watchdog read it. Readers always observe either the old
// complete list or the new complete list, never a mix.
type Store struct {
	mu         sync.RWMutex
	trips      []Trip
	lastUpdate time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new complete trip list. The caller hands over
// ownership of the slice.
func (s *Store) Replace(trips []Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = trips
	s.lastUpdate = time.Now()
}

// ForStop returns trips for the given stop in feed order, up to limit
// entries. A limit of zero or less means no limit.
func (s *Store) ForStop(stopID string, limit int) []Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Trip
	for _, t := range s.trips {
		if t.StopID != stopID {
			continue
		}
		result = append(result, t)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// All returns a copy of the full trip list.
func (s *Store) All() []Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Trip, len(s.trips))
	copy(out, s.trips)
	return out
}

// Len returns the number of trips.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trips)
}

// Empty reports whether no trips are held.
func (s *Store) Empty() bool {
	return s.Len() == 0
}

// HasStaleDepartures reports whether any trip's departure lies more than
// maxAge in the past. A connection that looks open but holds such trips
// has stopped delivering updates.
func (s *Store) HasStaleDepartures(now time.Time, maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := now.Unix() - int64(maxAge.Seconds())
	for _, t := range s.trips {
		if t.DepartureTime < cutoff {
			return true
		}
	}
	return false
}

// LastUpdate returns when the trip list was last replaced.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}
