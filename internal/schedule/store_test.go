package schedule

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func makeTrips(stopID string, n int) []Trip {
	trips := make([]Trip, n)
	for i := range trips {
		trips[i] = Trip{
			StopID:        stopID,
			RouteID:       fmt.Sprintf("r%d", i),
			RouteName:     fmt.Sprintf("Route %d", i),
			Headsign:      "Downtown",
			DepartureTime: int64(1000 + i*60),
		}
	}
	return trips
}

func TestStore_ReplaceAndRead(t *testing.T) {
	s := NewStore()

	if !s.Empty() {
		t.Fatal("new store should be empty")
	}

	s.Replace(makeTrips("A", 3))
	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if s.Empty() {
		t.Error("store should not be empty after Replace")
	}
	if s.LastUpdate().IsZero() {
		t.Error("LastUpdate should be set after Replace")
	}
}

func TestStore_ForStop_OrderAndLimit(t *testing.T) {
	s := NewStore()
	s.Replace([]Trip{
		{StopID: "A", RouteID: "1"},
		{StopID: "B", RouteID: "2"},
		{StopID: "A", RouteID: "3"},
		{StopID: "A", RouteID: "4"},
	})

	got := s.ForStop("A", 2)
	if len(got) != 2 {
		t.Fatalf("ForStop returned %d trips, want 2", len(got))
	}
	// Feed order preserved
	if got[0].RouteID != "1" || got[1].RouteID != "3" {
		t.Errorf("ForStop order = [%s %s], want [1 3]", got[0].RouteID, got[1].RouteID)
	}

	if got := s.ForStop("A", 0); len(got) != 3 {
		t.Errorf("ForStop with no limit returned %d trips, want 3", len(got))
	}
	if got := s.ForStop("C", 0); len(got) != 0 {
		t.Errorf("ForStop for unknown stop returned %d trips, want 0", len(got))
	}
}

// A reader racing a Replace must observe either the complete old list or
// the complete new list, never a partial one.
func TestStore_ReplaceIsAtomic(t *testing.T) {
	const oldCount, newCount = 3, 7
	const readers = 20

	s := NewStore()
	s.Replace(makeTrips("A", oldCount))

	start := make(chan struct{})
	var wg sync.WaitGroup

	counts := make([]int, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			counts[n] = len(s.All())
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		s.Replace(makeTrips("A", newCount))
	}()

	close(start)
	wg.Wait()

	for i, c := range counts {
		if c != oldCount && c != newCount {
			t.Errorf("reader %d observed %d trips, want %d or %d", i, c, oldCount, newCount)
		}
	}
}

func TestStore_HasStaleDepartures(t *testing.T) {
	now := time.Unix(1000, 0)
	maxAge := 60 * time.Second

	tests := []struct {
		name      string
		departure int64
		want      bool
	}{
		{"departure 61s past is stale", 939, true},
		{"departure exactly 60s past is not stale", 940, false},
		{"future departure is not stale", 1100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Replace([]Trip{{StopID: "A", DepartureTime: tt.departure}})
			if got := s.HasStaleDepartures(now, maxAge); got != tt.want {
				t.Errorf("HasStaleDepartures() = %v, want %v", got, tt.want)
			}
		})
	}

	s := NewStore()
	if s.HasStaleDepartures(now, maxAge) {
		t.Error("empty store should never report stale departures")
	}
}

func TestStore_AllReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Replace(makeTrips("A", 2))

	got := s.All()
	got[0].StopID = "mutated"

	if s.All()[0].StopID != "A" {
		t.Error("mutating the All() result should not affect the store")
	}
}
