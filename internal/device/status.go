package device

import "sync"

// Status is the device-level recoverable error flag. The feed path sets it
// on parse or connect failures and clears it on recovery; the renderer
// reads it to decide between schedule rows and a full-screen error message.
type Status struct {
	mu  sync.Mutex
	msg string
}

// NewStatus creates a clear status.
func NewStatus() *Status {
	return &Status{}
}

// SetError records a recoverable error message.
func (s *Status) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
}

// ClearError clears any recorded error.
func (s *Status) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = ""
}

// HasError reports whether an error is active.
func (s *Status) HasError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg != ""
}

// Error returns the active error message, or "" when clear.
func (s *Status) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}
