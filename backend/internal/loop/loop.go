// Package loop provides the single-threaded cooperative scheduler every
// graph component runs on. Callbacks never overlap: timers and cross-goroutine
// completions are posted back into the loop rather than run where they fire.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Cancel stops a pending timer. Calling it more than once is harmless.
type Cancel func()

// Scheduler is the event loop surface components depend on.
type Scheduler interface {
	// Post queues fn to run on the loop. Safe from any goroutine.
	Post(fn func())
	// After runs fn on the loop once d has elapsed.
	After(d time.Duration, fn func()) Cancel
	// Every runs fn on the loop each d until cancelled. A tick that is still
	// queued when the next one fires is coalesced, like an animation frame.
	Every(d time.Duration, fn func()) Cancel
	// Now reports the scheduler clock.
	Now() time.Time
}

// Loop is the real scheduler backed by one goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	logger *zap.Logger
}

// New creates a loop. Nothing runs until Run is called.
func New(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Run processes posted tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			if ctx.Err() != nil {
				break
			}
			l.run(fn)
		}

		if len(batch) > 0 && ctx.Err() == nil {
			continue
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.queue = nil
			l.mu.Unlock()
			return ctx.Err()
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Loop task panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Post queues fn. Tasks posted after the loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After schedules fn once.
func (l *Loop) After(d time.Duration, fn func()) Cancel {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// Every schedules fn repeatedly.
func (l *Loop) Every(d time.Duration, fn func()) Cancel {
	var cancelled, pending atomic.Bool
	ticker := time.NewTicker(d)
	stop := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				l.Post(func() {
					pending.Store(false)
					if !cancelled.Load() {
						fn()
					}
				})
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		cancelled.Store(true)
		once.Do(func() { close(stop) })
	}
}

// Now returns wall-clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}
