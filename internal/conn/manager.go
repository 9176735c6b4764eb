// Package conn owns the feed connection lifecycle: connect, linear backoff,
// failure escalation, heartbeat and staleness watchdogs, and reconnects.
package conn

import (
	"log/slog"
	"sync"
	"time"

	"transitboard/internal/device"
	"transitboard/internal/feed"
	"transitboard/internal/schedule"
)

// State is the connection lifecycle state. StateClosed is terminal.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Event is a transport lifecycle notification delivered to HandleEvent.
type Event int

const (
	EventOpened Event = iota
	EventClosed
	EventPing
	EventPong
)

// Session is the duplex transport the manager drives. Open blocks until the
// connection is established or fails; inbound traffic arrives through the
// manager's HandleMessage/HandleEvent, wired up by the caller.
type Session interface {
	Open(url string) error
	Close() error
	Send(data []byte) error
	IsOpen() bool
}

const (
	errorThreshold   = 3  // consecutive failures before a visible error
	restartThreshold = 15 // consecutive failures before a device restart

	retryStep     = 5 * time.Second
	maxRetryDelay = 15 * time.Second

	staleCheckInterval = 10 * time.Second
	staleDepartureAge  = 60 * time.Second

	heartbeatCheckInterval = time.Second
	heartbeatTimeout       = 60 * time.Second
)

// Timer names registered with the scheduler.
const (
	timerReconnect  = "reconnect"
	timerStaleCheck = "check_stale_trips"
	timerHeartbeat  = "check_heartbeat"
)

// Config wires a Manager's collaborators.
type Config struct {
	Session      Session
	Scheduler    device.Scheduler
	Status       *device.Status
	Store        *schedule.Store
	Decoder      *feed.Decoder
	Clock        device.Clock
	Subscription feed.Subscription
	BaseURL      string

	// NetworkAvailable gates connect attempts; defaults to
	// device.NetworkAvailable.
	NetworkAvailable func() bool
	// Restart is invoked after restartThreshold consecutive failures.
	Restart func()
	// Now is the monotonic time source for heartbeat age; defaults to
	// time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Manager is the connection lifecycle state machine. Scheduled callbacks
// run on the device loop; the mutex covers the scalar state also read by
// the status server.
type Manager struct {
	session      Session
	scheduler    device.Scheduler
	status       *device.Status
	store        *schedule.Store
	decoder      *feed.Decoder
	clock        device.Clock
	subscription feed.Subscription
	baseURL      string
	network      func() bool
	restart      func()
	now          func() time.Time
	logger       *slog.Logger

	mu            sync.Mutex
	state         State
	failures      int
	everConnected bool
	lastHeartbeat time.Time // zero until the first heartbeat arrives
}

// NewManager creates a Manager; call Start to begin connecting.
func NewManager(cfg Config) *Manager {
	if cfg.NetworkAvailable == nil {
		cfg.NetworkAvailable = device.NetworkAvailable
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		session:      cfg.Session,
		scheduler:    cfg.Scheduler,
		status:       cfg.Status,
		store:        cfg.Store,
		decoder:      cfg.Decoder,
		clock:        cfg.Clock,
		subscription: cfg.Subscription,
		baseURL:      cfg.BaseURL,
		network:      cfg.NetworkAvailable,
		restart:      cfg.Restart,
		now:          cfg.Now,
		logger:       cfg.Logger,
	}
}

// Start schedules the initial connect and arms the watchdogs.
func (m *Manager) Start() {
	m.scheduler.Defer(m.Connect)
	m.scheduler.RunPeriodic(timerStaleCheck, staleCheckInterval, m.checkStaleTrips)
	m.scheduler.RunPeriodic(timerHeartbeat, heartbeatCheckInterval, m.checkHeartbeat)
}

// Shutdown cancels the watchdogs and permanently closes the connection.
func (m *Manager) Shutdown() {
	m.scheduler.Cancel(timerStaleCheck)
	m.scheduler.Cancel(timerHeartbeat)
	m.scheduler.Cancel(timerReconnect)
	m.Close(true)
}

// Connect attempts to open the session. It is a no-op when already
// connected or permanently closed. When the network is unavailable the
// attempt is skipped without counting as a failure, and a plain retry is
// scheduled so connectivity recovery is picked up.
func (m *Manager) Connect() {
	if m.baseURL == "" {
		m.logger.Warn("no base URL set, not connecting")
		return
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		m.logger.Warn("connection fully closed, not reconnecting")
		return
	}
	if m.session.IsOpen() {
		m.state = StateConnected
		m.mu.Unlock()
		m.logger.Debug("not reconnecting, already connected")
		return
	}
	m.lastHeartbeat = time.Time{}
	if !m.network() {
		m.mu.Unlock()
		m.logger.Warn("network unavailable, skipping connection attempt")
		m.scheduler.RunAfterDelay(timerReconnect, retryStep, m.Connect)
		return
	}
	m.state = StateConnecting
	attempt := m.failures
	m.mu.Unlock()

	m.logger.Debug("connecting to feed", "attempt", attempt, "url", m.baseURL)

	if err := m.session.Open(m.baseURL); err != nil {
		m.connectFailed(err)
		return
	}

	m.mu.Lock()
	m.state = StateConnected
	m.failures = 0
	m.everConnected = true
	m.mu.Unlock()
	m.status.ClearError()
}

func (m *Manager) connectFailed(err error) {
	m.mu.Lock()
	m.state = StateDisconnected
	m.failures++
	failures := m.failures
	m.mu.Unlock()

	if failures >= errorThreshold {
		m.status.SetError("Failed to connect to server")
	}
	if failures >= restartThreshold {
		m.logger.Error("could not connect within attempt limit, restarting device",
			"attempts", failures, "error", err)
		m.restart()
		return
	}

	delay := time.Duration(failures) * retryStep
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	m.logger.Warn("failed to connect, retrying", "error", err, "retry_in", delay)
	m.scheduler.RunAfterDelay(timerReconnect, delay, m.Connect)
}

// Reconnect closes the session and connects again.
func (m *Manager) Reconnect() {
	m.Close(false)
	m.Connect()
}

// Close closes the session. With fully set, the manager enters its terminal
// state and all future Connect calls are no-ops.
func (m *Manager) Close(fully bool) {
	if fully {
		m.mu.Lock()
		m.state = StateClosed
		m.mu.Unlock()
	}
	if err := m.session.Close(); err != nil {
		m.logger.Debug("session close", "error", err)
	}
}

// HandleMessage processes one inbound feed payload. Parse failures surface
// as a recoverable status error and leave the store untouched.
func (m *Manager) HandleMessage(raw []byte) {
	msg, err := m.decoder.Decode(raw)
	if err != nil {
		m.logger.Warn("failed to decode feed message", "error", err)
		m.status.SetError("Failed to parse schedule data")
		return
	}

	switch msg.Kind {
	case feed.KindHeartbeat:
		m.logger.Debug("received heartbeat")
		m.mu.Lock()
		m.lastHeartbeat = m.now()
		m.mu.Unlock()
	case feed.KindSchedule:
		m.logger.Debug("received schedule update", "trips", len(msg.Trips))
		m.store.Replace(msg.Trips)
		m.status.ClearError()
	}
}

// HandleEvent processes a transport lifecycle event.
func (m *Manager) HandleEvent(ev Event) {
	switch ev {
	case EventOpened:
		m.logger.Debug("connection opened")
		payload, err := feed.EncodeSubscribe(m.subscription)
		if err != nil {
			m.logger.Error("failed to encode subscribe request", "error", err)
			return
		}
		// Send failures are not retried here; the reconnect path
		// re-subscribes on the next open.
		if err := m.session.Send(payload); err != nil {
			m.logger.Warn("failed to send subscribe request", "error", err)
		}
	case EventClosed:
		// A watchdog reconnect can queue the old session's close event
		// behind the new open; acting on it would misreport a live
		// connection as disconnected.
		if m.session.IsOpen() {
			m.logger.Debug("ignoring close event for superseded session")
			return
		}
		m.logger.Debug("connection closed")
		m.mu.Lock()
		closed := m.state == StateClosed
		if !closed {
			m.state = StateDisconnected
		}
		retryPending := m.failures != 0
		m.mu.Unlock()
		// An unexpected drop: reconnect on the next loop iteration rather
		// than inline, to avoid reentering the transport from its own
		// callback.
		if !closed && !retryPending {
			m.scheduler.Defer(m.Connect)
		}
	case EventPing:
		m.logger.Debug("received ping")
	case EventPong:
		m.logger.Debug("received pong")
	}
}

// checkStaleTrips forces a reconnect when the session looks open but the
// store holds departures well in the past.
func (m *Manager) checkStaleTrips() {
	if !m.session.IsOpen() || m.store.Empty() {
		return
	}
	now, valid := m.clock.Now()
	if !valid {
		return
	}
	if m.store.HasStaleDepartures(now, staleDepartureAge) {
		m.logger.Info("stale trips detected, reconnecting")
		m.Reconnect()
	}
}

// checkHeartbeat forces a reconnect when heartbeats stop arriving.
func (m *Manager) checkHeartbeat() {
	m.mu.Lock()
	last := m.lastHeartbeat
	m.mu.Unlock()

	if !last.IsZero() && m.now().Sub(last) > heartbeatTimeout {
		m.logger.Warn("heartbeat timeout, reconnecting")
		m.Reconnect()
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EverConnected reports whether any connection has succeeded since startup.
func (m *Manager) EverConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.everConnected
}

// Failures returns the consecutive connection failure count.
func (m *Manager) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}
