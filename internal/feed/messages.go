// Package feed implements the wire protocol of the schedule feed: inbound
// message classification and decoding, and the outbound subscription
// request sent after each connection open.
package feed

import (
	"encoding/json"
	"fmt"
)

// Wire envelope shared by all feed messages.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type schedulePayload struct {
	Trips []tripRecord `json:"trips"`
}

type tripRecord struct {
	StopID        string  `json:"stopId"`
	RouteID       string  `json:"routeId"`
	RouteName     string  `json:"routeName"`
	RouteColor    *string `json:"routeColor"`
	Headsign      string  `json:"headsign"`
	ArrivalTime   int64   `json:"arrivalTime"`
	DepartureTime int64   `json:"departureTime"`
	IsRealtime    bool    `json:"isRealtime"`
}

// Subscription is the payload of the schedule:subscribe request.
type Subscription struct {
	FeedCode        string `json:"feedCode,omitempty"`
	RouteStopPairs  string `json:"routeStopPairs"`
	Limit           int    `json:"limit"`
	SortByDeparture bool   `json:"sortByDeparture"`
	ListMode        string `json:"listMode"`
}

type subscribeEnvelope struct {
	Event string       `json:"event"`
	Data  Subscription `json:"data"`
}

// EncodeSubscribe builds the subscription request sent on connection open.
func EncodeSubscribe(sub Subscription) ([]byte, error) {
	data, err := json.Marshal(subscribeEnvelope{Event: "schedule:subscribe", Data: sub})
	if err != nil {
		return nil, fmt.Errorf("encode subscribe: %w", err)
	}
	return data, nil
}
