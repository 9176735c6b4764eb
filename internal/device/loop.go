package device

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs periodic and deferred work on a single goroutine so that
// timers, watchdogs, page switches, and reconnect callbacks never race each
// other. Named entries re-arm: scheduling under an existing name cancels
// the previous timer first.
type Scheduler interface {
	RunPeriodic(name string, every time.Duration, fn func())
	RunAfterDelay(name string, delay time.Duration, fn func())
	Cancel(name string)
	// Defer queues fn for the next loop iteration. Used to break out of
	// transport callbacks before touching the session again.
	Defer(fn func())
}

// Loop is the Scheduler implementation. Run must be called exactly once;
// all scheduled callbacks execute on the Run goroutine.
type Loop struct {
	logger *slog.Logger
	tasks  chan func()

	mu    sync.Mutex
	named map[string]func() // cancel funcs by timer name
}

// NewLoop creates a loop ready to accept work.
func NewLoop(logger *slog.Logger) *Loop {
	return &Loop{
		logger: logger,
		tasks:  make(chan func(), 256),
		named:  make(map[string]func()),
	}
}

// Run executes queued tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-ctx.Done():
			l.cancelAll()
			return nil
		}
	}
}

// RunPeriodic invokes fn on the loop every interval until cancelled.
func (l *Loop) RunPeriodic(name string, every time.Duration, fn func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(every)
	l.replace(name, func() {
		close(done)
		ticker.Stop()
	})
	go func() {
		for {
			select {
			case <-ticker.C:
				l.enqueue(fn)
			case <-done:
				return
			}
		}
	}()
}

// RunAfterDelay invokes fn on the loop once after delay.
func (l *Loop) RunAfterDelay(name string, delay time.Duration, fn func()) {
	timer := time.AfterFunc(delay, func() {
		l.enqueue(fn)
	})
	l.replace(name, func() { timer.Stop() })
}

// Cancel stops the named timer, if armed.
func (l *Loop) Cancel(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cancel, ok := l.named[name]; ok {
		cancel()
		delete(l.named, name)
	}
}

// Defer queues fn for the next loop iteration.
func (l *Loop) Defer(fn func()) {
	l.enqueue(fn)
}

func (l *Loop) replace(name string, cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.named[name]; ok {
		prev()
	}
	l.named[name] = cancel
}

func (l *Loop) cancelAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, cancel := range l.named {
		cancel()
		delete(l.named, name)
	}
}

func (l *Loop) enqueue(fn func()) {
	select {
	case l.tasks <- fn:
	default:
		// Queue full. Hand off from a goroutine rather than blocking a
		// caller that may itself be the loop goroutine.
		l.logger.Warn("task queue full, deferring enqueue")
		go func() { l.tasks <- fn }()
	}
}
