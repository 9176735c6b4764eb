// Package schedule holds the in-memory trip list shared between the feed
// path and the renderer.
package schedule

import "transitboard/internal/display"

// Trip is one scheduled vehicle visit at a stop. Trips are immutable once
// constructed; updates replace the whole set, never individual entries.
type Trip struct {
	StopID        string
	RouteID       string
	RouteName     string
	RouteColor    display.Color
	Headsign      string
	ArrivalTime   int64 // unix seconds
	DepartureTime int64 // unix seconds
	IsRealtime    bool  // prediction-derived rather than static schedule
}
