package layout

import (
	"time"

	"go.uber.org/zap"

	"garden-graph/backend/internal/loop"
	"garden-graph/backend/pkg/logger"
)

// Runner drives a Simulation from the scheduler, one tick per frame, and
// disarms itself once the simulation settles.
type Runner struct {
	sim       *Simulation
	sched     loop.Scheduler
	interval  time.Duration
	cancel    loop.Cancel
	listeners []func()
	disposed  bool
	logger    *zap.Logger
}

// NewRunner binds a runner to sim. Simulation.Restart re-arms it.
func NewRunner(sim *Simulation, sched loop.Scheduler, interval time.Duration, log *zap.Logger) *Runner {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	r := &Runner{
		sim:      sim,
		sched:    sched,
		interval: interval,
		logger:   logger.OrNop(log),
	}
	sim.OnRestart(r.Start)
	return r
}

// OnTick registers fn to run after every tick.
func (r *Runner) OnTick(fn func()) {
	r.listeners = append(r.listeners, fn)
}

// Start arms the frame timer if it is not already armed.
func (r *Runner) Start() {
	if r.disposed || r.cancel != nil {
		return
	}
	r.cancel = r.sched.Every(r.interval, r.frame)
}

// Active reports whether the frame timer is armed.
func (r *Runner) Active() bool {
	return r.cancel != nil
}

// Stop disarms the frame timer. It can be re-armed with Start.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.sim.Stop()
}

// Dispose stops the runner for good and drops its listeners.
func (r *Runner) Dispose() {
	r.Stop()
	r.disposed = true
	r.listeners = nil
}

func (r *Runner) frame() {
	if r.cancel == nil {
		return
	}
	r.sim.Tick()
	for _, fn := range r.listeners {
		fn()
	}
	if r.sim.Settled() {
		r.logger.Debug("Layout settled", zap.Int("ticks", r.sim.Ticks()))
		r.Stop()
	}
}
