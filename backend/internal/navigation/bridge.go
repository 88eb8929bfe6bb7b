package navigation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/dom"
	"garden-graph/backend/internal/fragment"
	"garden-graph/backend/internal/loop"
	"garden-graph/backend/pkg/logger"
)

// Transport fetches and applies fragments. Fetch runs off the loop; Swap runs
// on it.
type Transport interface {
	Fetch(ctx context.Context, req fragment.Request) (fragment.Response, error)
	Swap(w *dom.Window, resp fragment.Response) error
	// SignalsSettle reports whether Swap announces the settled swap itself.
	SignalsSettle() bool
}

var _ Transport = (*fragment.Client)(nil)

// Options configures a Bridge.
type Options struct {
	Window    *dom.Window
	Scheduler loop.Scheduler
	// Transport is nil when fragment navigation is unavailable; clicks then
	// fall back to a full page load.
	Transport Transport
	Resolver  RouteResolver
	Target    string
	Timeout   time.Duration
	Logger    *zap.Logger

	// OnNavigate runs after a successful swap and history push.
	OnNavigate func(route string)
	// OnError receives fetch and swap failures.
	OnError func(route string, err error)
}

// Bridge handles node clicks. Only the latest navigation may apply: each click
// bumps a generation and cancels the fetch before it, and completions from an
// older generation are dropped.
type Bridge struct {
	opts Options

	ctx        context.Context
	stop       context.CancelFunc
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	logger *zap.Logger
}

// NewBridge creates a bridge. Call Close to abandon in-flight fetches.
func NewBridge(opts Options) *Bridge {
	if opts.Target == "" {
		opts.Target = constants.ContentSectionID
	}
	if opts.Resolver == (RouteResolver{}) {
		opts.Resolver = DefaultResolver
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Bridge{
		opts:   opts,
		ctx:    ctx,
		stop:   stop,
		logger: logger.OrNop(opts.Logger),
	}
}

// HandleClick is the node-marker click handler. The event never reaches the
// surface's pan handling.
func (b *Bridge) HandleClick(e *dom.Event, filePath string) bool {
	if e != nil {
		e.StopPropagation()
	}
	return b.Navigate(filePath)
}

// Navigate starts a navigation to the route for filePath. It reports whether
// anything was started.
func (b *Bridge) Navigate(filePath string) bool {
	if b.closed {
		return false
	}
	route, ok := b.opts.Resolver.Resolve(filePath)
	if !ok {
		return false
	}

	w := b.opts.Window
	if b.opts.Transport == nil {
		b.logger.Debug("No fragment transport, navigating page", zap.String("route", route))
		w.Location.Assign(route)
		return true
	}

	b.generation++
	gen := b.generation
	if b.cancel != nil {
		b.cancel()
	}
	ctx, cancel := context.WithTimeout(b.ctx, b.opts.Timeout)
	b.cancel = cancel

	req := fragment.Request{
		URL:        w.Location.Resolve(route),
		Target:     b.opts.Target,
		Swap:       dom.SwapInnerHTML,
		CurrentURL: w.Origin() + route,
	}
	transport := b.opts.Transport
	sched := b.opts.Scheduler

	go func() {
		resp, err := transport.Fetch(ctx, req)
		sched.Post(func() {
			cancel()
			b.complete(gen, route, resp, err)
		})
	}()
	return true
}

func (b *Bridge) complete(gen uint64, route string, resp fragment.Response, err error) {
	if b.closed || gen != b.generation {
		b.logger.Debug("Discarding stale navigation",
			zap.String("route", route),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", b.generation),
		)
		return
	}
	b.cancel = nil

	if err != nil {
		b.fail(route, err)
		return
	}

	apply := func() {
		w := b.opts.Window
		if err := b.opts.Transport.Swap(w, resp); err != nil {
			b.fail(route, err)
			return
		}
		w.History.PushState(nil, route)
		if b.opts.OnNavigate != nil {
			b.opts.OnNavigate(route)
		}
		if !b.opts.Transport.SignalsSettle() {
			w.Events.Dispatch(dom.NewEvent(constants.EventGraphUpdate))
		}
		b.logger.Info("Navigated", zap.String("route", route))
	}

	if tr := b.opts.Window.Transition; tr != nil {
		tr.StartViewTransition(apply)
	} else {
		apply()
	}
}

func (b *Bridge) fail(route string, err error) {
	b.logger.Error("Fragment navigation failed", zap.String("route", route), zap.Error(err))
	if b.opts.OnError != nil {
		b.opts.OnError(route, err)
	}
}

// Generation returns the number of fragment navigations started.
func (b *Bridge) Generation() uint64 {
	return b.generation
}

// Pending reports whether a fetch is in flight.
func (b *Bridge) Pending() bool {
	return b.cancel != nil
}

// Close cancels any in-flight fetch. Later completions and clicks are ignored.
func (b *Bridge) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.stop()
}
