package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"transitboard/internal/config"
	"transitboard/internal/display"
	"transitboard/internal/schedule"
)

// MaxPayloadSize bounds inbound message decoding. Messages beyond this are
// rejected before parsing.
const MaxPayloadSize = 48 << 10

// ErrPayloadTooLarge is returned for messages exceeding MaxPayloadSize.
var ErrPayloadTooLarge = errors.New("feed: payload exceeds maximum size")

// Kind classifies an accepted inbound message.
type Kind int

const (
	KindHeartbeat Kind = iota
	KindSchedule
)

// Message is a decoded inbound feed message. Trips is populated only for
// KindSchedule.
type Message struct {
	Kind  Kind
	Trips []schedule.Trip
}

// Decoder turns raw feed payloads into schedule updates, applying headsign
// abbreviations and route styling as records are mapped.
type Decoder struct {
	abbreviations []config.Abbreviation
	styles        map[string]config.RouteStyle
	defaultColor  display.Color
	logger        *slog.Logger
}

// NewDecoder creates a decoder from the configured styling tables.
func NewDecoder(cfg *config.Config, logger *slog.Logger) *Decoder {
	return &Decoder{
		abbreviations: cfg.AbbreviationList,
		styles:        cfg.RouteStyleTable,
		defaultColor:  cfg.DefaultColor,
		logger:        logger,
	}
}

// Decode classifies raw as heartbeat or schedule and maps schedule trips.
// Any parse failure returns an error and leaves no partial result.
func (d *Decoder) Decode(raw []byte) (Message, error) {
	if len(raw) > MaxPayloadSize {
		return Message{}, ErrPayloadTooLarge
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("feed: parse message: %w", err)
	}

	switch env.Event {
	case "heartbeat":
		return Message{Kind: KindHeartbeat}, nil
	case "schedule":
		trips, err := d.decodeTrips(env.Data)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindSchedule, Trips: trips}, nil
	default:
		return Message{}, fmt.Errorf("feed: unexpected event %q", env.Event)
	}
}

func (d *Decoder) decodeTrips(data json.RawMessage) ([]schedule.Trip, error) {
	if len(data) == 0 {
		return nil, errors.New("feed: schedule message missing data")
	}

	var payload schedulePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("feed: parse schedule data: %w", err)
	}

	trips := make([]schedule.Trip, 0, len(payload.Trips))
	for _, rec := range payload.Trips {
		name, color := d.resolveStyle(rec)
		trips = append(trips, schedule.Trip{
			StopID:        rec.StopID,
			RouteID:       rec.RouteID,
			RouteName:     name,
			RouteColor:    color,
			Headsign:      d.abbreviate(rec.Headsign),
			ArrivalTime:   rec.ArrivalTime,
			DepartureTime: rec.DepartureTime,
			IsRealtime:    rec.IsRealtime,
		})
	}
	return trips, nil
}

// abbreviate applies each abbreviation entry once, in configured order,
// replacing the first occurrence. Replaced text is not re-scanned.
func (d *Decoder) abbreviate(headsign string) string {
	for _, abbr := range d.abbreviations {
		if idx := strings.Index(headsign, abbr.From); idx >= 0 {
			headsign = headsign[:idx] + abbr.To + headsign[idx+len(abbr.From):]
		}
	}
	return headsign
}

// resolveStyle picks the display name and color for a trip record: exact
// route-style match, else the feed-provided color with the feed name, else
// the configured default color.
func (d *Decoder) resolveStyle(rec tripRecord) (string, display.Color) {
	if style, ok := d.styles[rec.RouteID]; ok {
		return style.Name, style.Color
	}
	if rec.RouteColor != nil {
		if color, err := display.ParseColor(*rec.RouteColor); err == nil {
			return rec.RouteName, color
		}
		d.logger.Warn("invalid route color in feed", "routeId", rec.RouteID, "color", *rec.RouteColor)
	}
	return rec.RouteName, d.defaultColor
}
