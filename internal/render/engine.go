// Package render cycles the configured stops across the display and draws
// the schedule page for the active stop.
package render

import (
	"log/slog"
	"time"

	"transitboard/internal/config"
	"transitboard/internal/device"
	"transitboard/internal/display"
	"transitboard/internal/schedule"
)

const (
	schedulePageDuration = 8 * time.Second
	namePageDuration     = 5 * time.Second
)

// Full-screen status colors.
var (
	statusDimColor   = display.Color(0x252627)
	statusErrorColor = display.Color(0xFE4C5C)
	stopNameColor    = display.Color(0x00AEEF)
	whiteColor       = display.Color(0xFFFFFF)

	realtimeTimeColor = display.Color(0x20FF00)
	staticTimeColor   = display.Color(0xA7A7A7)
)

// ConnectionStatus is the slice of connection state the renderer needs.
type ConnectionStatus interface {
	EverConnected() bool
}

// Config wires an Engine's collaborators.
type Config struct {
	Surface display.Surface // may be nil when no display is attached
	Store   *schedule.Store
	Clock   device.Clock
	Status  *device.Status
	Conn    ConnectionStatus

	// NetworkAvailable gates the "Connecting to Wi-Fi" screen; defaults
	// to device.NetworkAvailable.
	NetworkAvailable func() bool

	Stops                 []config.Stop
	BaseURL               string
	DisplayLimit          int
	DisplayDepartureTimes bool
	Unit                  config.UnitDisplay

	// Now is the monotonic time source for page timing and the icon
	// animation phase; defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Engine owns the pagination state machine and all drawing. Tick must only
// be called from the device loop.
type Engine struct {
	surface display.Surface
	store   *schedule.Store
	clock   device.Clock
	status  *device.Status
	conn    ConnectionStatus
	network func() bool
	logger  *slog.Logger

	stops            []config.Stop
	baseURL          string
	displayLimit     int
	displayDeparture bool
	unit             config.UnitDisplay

	now   func() time.Time
	start time.Time

	stopIndex         int
	subpageIndex      int
	totalSubpages     int
	lastDisplayedName string
	lastSwitch        time.Time
	pageDuration      time.Duration
}

// NewEngine creates an Engine positioned before the first stop; the first
// Tick advances onto it.
func NewEngine(cfg Config) *Engine {
	if cfg.NetworkAvailable == nil {
		cfg.NetworkAvailable = device.NetworkAvailable
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		surface:          cfg.Surface,
		store:            cfg.Store,
		clock:            cfg.Clock,
		status:           cfg.Status,
		conn:             cfg.Conn,
		network:          cfg.NetworkAvailable,
		logger:           cfg.Logger,
		stops:            cfg.Stops,
		baseURL:          cfg.BaseURL,
		displayLimit:     cfg.DisplayLimit,
		displayDeparture: cfg.DisplayDepartureTimes,
		unit:             cfg.Unit,
		now:              cfg.Now,
		start:            cfg.Now(),
		stopIndex:        -1,
		totalSubpages:    1,
	}
}

// Tick advances the page when its duration has expired and redraws the
// current page.
func (e *Engine) Tick() {
	now := e.now()
	if e.lastSwitch.IsZero() || now.Sub(e.lastSwitch) >= e.pageDuration {
		e.advance(now)
	}
	e.Draw()
}

func (e *Engine) advance(now time.Time) {
	e.subpageIndex++
	if e.subpageIndex >= e.totalSubpages {
		e.nextStop()
	}

	if e.totalSubpages == 1 || e.subpageIndex == 1 {
		e.pageDuration = schedulePageDuration
	} else {
		e.pageDuration = namePageDuration
	}
	e.lastSwitch = now
}

// nextStop moves to the next configured stop. A stop gets a name subpage
// only when its display name differs from the previously displayed one, so
// cycling among stops sharing a label skips redundant name screens.
func (e *Engine) nextStop() {
	if len(e.stops) == 0 {
		return
	}

	e.stopIndex = (e.stopIndex + 1) % len(e.stops)

	name := e.stops[e.stopIndex].Name
	if name == e.lastDisplayedName {
		e.totalSubpages = 1
	} else {
		e.totalSubpages = 2
		e.lastDisplayedName = name
	}
	e.subpageIndex = 0
}

// Draw renders the current page without advancing pagination.
func (e *Engine) Draw() {
	if e.surface == nil {
		e.logger.Warn("no display attached, cannot draw")
		return
	}
	if c, ok := e.surface.(interface{ Clear() }); ok {
		c.Clear()
	}

	if e.totalSubpages == 2 && e.subpageIndex == 0 {
		e.drawStopName()
		return
	}
	e.drawSchedule()
}

func (e *Engine) drawStopName() {
	if len(e.stops) == 0 || e.stopIndex < 0 {
		e.drawTextCentered("No Stops Configured", statusDimColor)
		return
	}

	x := e.surface.Width() / 2
	y := e.surface.Height() / 2
	e.surface.Print(x, y-6, stopNameColor, display.AlignCenter, e.stops[e.stopIndex].Name)

	subtitle := "Upcoming Bus Arrivals"
	if e.displayDeparture {
		subtitle = "Upcoming Bus Departures"
	}
	e.surface.Print(x, y+6, whiteColor, display.AlignCenter, subtitle)
}

// drawSchedule renders the trip rows for the active stop, or exactly one
// full-screen status message when a precondition is unmet. The checks run
// in strict precedence order.
func (e *Engine) drawSchedule() {
	if !e.network() {
		e.drawTextCentered("Connecting to Wi-Fi", statusDimColor)
		return
	}
	if _, valid := e.clock.Now(); !valid {
		e.drawTextCentered("Waiting for time sync", statusDimColor)
		return
	}
	if e.baseURL == "" {
		e.drawTextCentered("No base URL set", statusDimColor)
		return
	}
	if e.status.HasError() {
		e.drawTextCentered("Error loading schedule", statusErrorColor)
		return
	}
	if !e.conn.EverConnected() {
		e.drawTextCentered("Loading...", statusDimColor)
		return
	}
	if len(e.stops) == 0 || e.stopIndex < 0 {
		e.drawTextCentered("No Stops Configured", statusDimColor)
		return
	}

	stop := e.stops[e.stopIndex]
	trips := e.store.ForStop(stop.ID, e.displayLimit)

	if len(trips) == 0 {
		message := "No upcoming arrivals"
		if e.displayDeparture {
			message = "No upcoming departures"
		}
		e.drawTextCentered(message, statusDimColor)
		return
	}

	routeMaxWidth := 0
	for _, trip := range trips {
		w, _ := e.surface.Measure(trip.RouteName)
		if w > routeMaxWidth {
			routeMaxWidth = w
		}
	}

	y := 2
	for _, trip := range trips {
		e.surface.Print(0, y, trip.RouteColor, display.AlignTopLeft, trip.RouteName)
		_, rowHeight := e.surface.Measure(trip.RouteName)

		target := trip.ArrivalTime
		if e.displayDeparture {
			target = trip.DepartureTime
		}
		timeText := e.fromNow(target)
		timeWidth, timeHeight := e.surface.Measure(timeText)

		headsignClipEnd := e.surface.Width() - timeWidth - 4

		timeColor := staticTimeColor
		if trip.IsRealtime {
			timeColor = realtimeTimeColor
		}
		e.surface.Print(e.surface.Width()+1, y, timeColor, display.AlignTopRight, timeText)

		if trip.IsRealtime {
			iconX := e.surface.Width() - timeWidth - 2
			iconY := y + timeHeight - 6
			headsignClipEnd -= 8
			drawRealtimeIcon(e.surface, iconX, iconY, e.uptime())
		}

		e.surface.StartClipping(0, 0, headsignClipEnd, e.surface.Height())
		e.surface.Print(routeMaxWidth+3, y, whiteColor, display.AlignTopLeft, trip.Headsign)
		e.surface.EndClipping()

		y += rowHeight
	}
}

func (e *Engine) drawTextCentered(text string, c display.Color) {
	x := e.surface.Width() / 2
	y := e.surface.Height() / 2
	e.surface.Print(x, y, c, display.AlignCenter, text)
}

func (e *Engine) fromNow(target int64) string {
	now, valid := e.clock.Now()
	if !valid {
		return ""
	}
	return FromNow(target, now.Unix(), e.unit)
}

func (e *Engine) uptime() time.Duration {
	return e.now().Sub(e.start)
}
