package device

import "time"

// Clock provides the current wall-clock time together with a validity flag.
// On embedded hardware the clock is invalid until the first time sync; the
// renderer and staleness checks must tolerate that window.
type Clock interface {
	Now() (time.Time, bool)
}

// SystemClock reads the OS clock, which is always considered valid.
type SystemClock struct{}

func (SystemClock) Now() (time.Time, bool) {
	return time.Now(), true
}
