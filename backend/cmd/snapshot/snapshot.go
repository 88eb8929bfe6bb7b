package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"garden-graph/backend/internal/dom"
	"garden-graph/backend/internal/fragment"
	"garden-graph/backend/internal/lifecycle"
	"garden-graph/backend/internal/loop"
	"garden-graph/backend/pkg/config"
	"garden-graph/backend/pkg/logger"
)

// Options configures one snapshot.
type Options struct {
	Server    string
	Path      string
	Container string
	Timeout   time.Duration
	Frame     time.Duration
	Width     float64
	Height    float64
	Graph     config.GraphConfig
}

// Result describes the written graph.
type Result struct {
	Nodes   int
	Links   int
	Ticks   int
	Settled bool
}

const pollInterval = 20 * time.Millisecond

// Snapshot loads opts.Path, waits for the container's graph to appear and its
// layout to settle, then writes it as SVG. A layout still moving at the
// deadline is written as it stands.
func Snapshot(ctx context.Context, opts Options, out io.Writer, log *zap.Logger) (Result, error) {
	log = logger.OrNop(log)
	if opts.Graph == (config.GraphConfig{}) {
		opts.Graph = config.DefaultGraphConfig()
	}
	if opts.Frame > 0 {
		opts.Graph.FrameInterval = opts.Frame
	}
	if opts.Width <= 0 {
		opts.Width = opts.Graph.ViewportWidth
	}
	if opts.Height <= 0 {
		opts.Height = opts.Graph.ViewportHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	l := loop.New(log)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = l.Run(ctx)
	}()
	defer func() {
		cancel()
		<-loopDone
	}()

	client := fragment.NewClient(l, opts.Graph.FetchTimeout, log)
	pageURL := strings.TrimRight(opts.Server, "/") + "/" + strings.TrimLeft(opts.Path, "/")
	body, err := client.Page(ctx, pageURL)
	if err != nil {
		return Result{}, err
	}

	doc, err := dom.ParseDocument(body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	w, err := dom.NewWindow(doc, pageURL, opts.Width, opts.Height)
	if err != nil {
		return Result{}, err
	}

	m := lifecycle.NewManager(&lifecycle.Context{
		Window:    w,
		Scheduler: l,
		Config:    opts.Graph,
		Transport: client,
		Logger:    log.With(zap.String("component", "lifecycle")),
	})
	if err := l.Call(ctx, m.Start); err != nil {
		return Result{}, err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		_ = l.Call(stopCtx, m.Stop)
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var (
			res   Result
			found bool
			werr  error
		)
		err := l.Call(ctx, func() {
			inst, ok := m.Instance(opts.Container)
			if !ok {
				return
			}
			found = true
			res = Result{
				Nodes:   len(inst.Simulation().Nodes()),
				Links:   len(inst.Simulation().Links()),
				Ticks:   inst.Simulation().Ticks(),
				Settled: !inst.Runner().Active(),
			}
			if res.Settled || deadlineNear(ctx) {
				werr = inst.Surface().WriteSVG(out)
			}
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return Result{}, fmt.Errorf("no graph in #%s before timeout", opts.Container)
			}
			return Result{}, err
		}
		if found && (res.Settled || deadlineNear(ctx)) {
			return res, werr
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if !found {
				return Result{}, fmt.Errorf("no graph in #%s before timeout", opts.Container)
			}
			return res, ctx.Err()
		}
	}
}

// deadlineNear reports whether another poll would overrun ctx.
func deadlineNear(ctx context.Context) bool {
	d, ok := ctx.Deadline()
	return ok && time.Until(d) < 2*pollInterval
}
