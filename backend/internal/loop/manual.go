package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual-clock scheduler. Time only moves through Advance, and
// tasks only run inside Drain/Advance, on the caller's goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []*manualTimer
	seq    int
	posted chan struct{}
}

type manualTimer struct {
	at        time.Time
	every     time.Duration
	fn        func()
	seq       int
	cancelled bool
}

// NewManual creates a manual scheduler starting at the Unix epoch.
func NewManual() *Manual {
	return &Manual{
		now:    time.Unix(0, 0),
		posted: make(chan struct{}, 1),
	}
}

// Post queues fn. Safe from any goroutine.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.posted <- struct{}{}:
	default:
	}
}

// After registers a one-shot timer.
func (m *Manual) After(d time.Duration, fn func()) Cancel {
	return m.add(d, 0, fn)
}

// Every registers a repeating timer.
func (m *Manual) Every(d time.Duration, fn func()) Cancel {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{at: m.now.Add(d), every: every, fn: fn, seq: m.seq}
	m.timers = append(m.timers, t)
	return func() {
		m.mu.Lock()
		t.cancelled = true
		m.mu.Unlock()
	}
}

// Now reports the virtual clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Drain runs queued tasks, including ones they post, until the queue is empty.
func (m *Manual) Drain() int {
	ran := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return ran
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		ran++
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.Drain()

		m.mu.Lock()
		t := m.nextDue(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			break
		}
		m.now = t.at
		if t.every > 0 {
			t.at = t.at.Add(t.every)
		} else {
			t.cancelled = true
		}
		fn := t.fn
		m.mu.Unlock()

		fn()
	}
	m.Drain()
}

// nextDue must be called with mu held.
func (m *Manual) nextDue(limit time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.timers = live

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	if len(m.timers) == 0 || m.timers[0].at.After(limit) {
		return nil
	}
	return m.timers[0]
}

// PendingTimers counts timers that have not fired or been cancelled.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// WaitPosted blocks until some goroutine posts a task or timeout elapses,
// then drains. It reports whether anything ran.
func (m *Manual) WaitPosted(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if m.Drain() > 0 {
			return true
		}
		select {
		case <-m.posted:
		case <-deadline:
			return false
		}
	}
}
