package lifecycle

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/dom"
	"garden-graph/backend/internal/drag"
	"garden-graph/backend/internal/graph"
	"garden-graph/backend/internal/layout"
	"garden-graph/backend/internal/navigation"
	"garden-graph/backend/internal/render"
	"garden-graph/backend/internal/viewport"
)

// Instance is one live graph bound to one container.
type Instance struct {
	ID          string
	ContainerID string

	container *dom.Element
	events    *dom.EventTarget
	subs      dom.Subscriptions

	sim     *layout.Simulation
	runner  *layout.Runner
	surface *render.Surface
	view    *viewport.Controller
	drag    *drag.Controller
	nav     *navigation.Bridge

	resizes  int
	disposed bool
	logger   *zap.Logger
}

func newInstance(ctx *Context, containerID string, container *dom.Element, data graph.Data, nav *navigation.Bridge) *Instance {
	cfg := ctx.Config
	w := ctx.Window
	width, height := container.ClientSize(w.Width, w.Height)

	id := uuid.New().String()
	log := ctx.Logger.With(zap.String("container", containerID), zap.String("instance_id", id))

	inst := &Instance{
		ID:          id,
		ContainerID: containerID,
		container:   container,
		events:      dom.NewEventTarget(),
		nav:         nav,
		logger:      log,
	}

	inst.sim = layout.New(data, layout.Options{
		LinkDistance:   cfg.LinkDistance,
		ChargeStrength: cfg.ChargeStrength,
		CollideRadius:  cfg.CollideRadius,
		CenterX:        width / 2,
		CenterY:        height / 2,
	}, log)

	inst.surface = render.NewSurface(container, width, height, ctx.Style, log)
	inst.surface.Clear()

	inst.view = viewport.NewController(cfg.ZoomMin, cfg.ZoomMax)
	inst.view.OnChange(func(t viewport.Transform) {
		inst.surface.SetTransform(t)
		inst.paint()
	})

	inst.drag = drag.NewController(inst.sim, log)
	inst.drag.ScreenScale = func() float64 { return inst.view.Transform().K }

	inst.runner = layout.NewRunner(inst.sim, ctx.Scheduler, cfg.FrameInterval, log)
	inst.runner.OnTick(inst.tick)

	inst.subs.Listen(inst.events, constants.EventPointerDown, inst.onPointerDown)
	inst.subs.Listen(inst.events, constants.EventPointerMove, inst.onPointerMove)
	inst.subs.Listen(inst.events, constants.EventPointerUp, inst.onPointerUp)
	inst.subs.Listen(inst.events, constants.EventClick, inst.onClick)
	inst.subs.Listen(inst.events, constants.EventWheel, inst.onWheel)
	inst.subs.Listen(inst.events, constants.EventMouseOver, inst.onMouseOver)
	inst.subs.Listen(inst.events, constants.EventMouseOut, inst.onMouseOut)

	inst.surface.Update(inst.sim)
	inst.paint()
	inst.runner.Start()

	log.Info("Graph initialized",
		zap.Int("nodes", len(inst.sim.Nodes())),
		zap.Int("links", len(inst.sim.Links())),
		zap.Int("dropped_links", len(inst.sim.Dropped())),
	)
	return inst
}

// Events is the surface event target pointer input is dispatched to.
func (i *Instance) Events() *dom.EventTarget { return i.events }

// Simulation exposes the layout.
func (i *Instance) Simulation() *layout.Simulation { return i.sim }

// Surface exposes the render surface.
func (i *Instance) Surface() *render.Surface { return i.surface }

// Viewport exposes the pan/zoom controller.
func (i *Instance) Viewport() *viewport.Controller { return i.view }

// Drag exposes the drag controller.
func (i *Instance) Drag() *drag.Controller { return i.drag }

// Runner exposes the tick driver.
func (i *Instance) Runner() *layout.Runner { return i.runner }

// Disposed reports whether Dispose ran.
func (i *Instance) Disposed() bool { return i.disposed }

// Resizes counts applied resizes.
func (i *Instance) Resizes() int { return i.resizes }

// Dispose stops the simulation, detaches every listener and clears the
// rendered primitives. Safe to call more than once.
func (i *Instance) Dispose() {
	if i.disposed {
		return
	}
	i.disposed = true
	i.drag.Cancel()
	i.runner.Dispose()
	i.subs.Close()
	i.surface.Clear()
	i.logger.Debug("Graph disposed")
}

// Resize re-centres the layout on the container's size within the new
// viewport and reheats it a little. Node positions are kept.
func (i *Instance) Resize(viewportW, viewportH float64) {
	if i.disposed {
		return
	}
	width, height := i.container.ClientSize(viewportW, viewportH)
	i.resizes++
	i.surface.Resize(width, height)
	i.sim.SetCenter(width/2, height/2)
	i.sim.SetAlpha(math.Max(i.sim.Alpha(), constants.ResizeReheatAlpha))
	i.sim.Restart()
	i.paint()
}

func (i *Instance) tick() {
	if !i.container.Connected() {
		// Swapped out without a settle for this container.
		i.logger.Debug("Container detached, disposing graph")
		i.Dispose()
		return
	}
	i.surface.Update(i.sim)
	i.paint()
}

func (i *Instance) paint() {
	if i.disposed {
		return
	}
	if err := i.surface.Paint(); err != nil {
		i.logger.Warn("Paint failed", zap.Error(err))
	}
}

func (i *Instance) onPointerDown(e *dom.Event) {
	if id, ok := i.surface.HitTest(e.X, e.Y); ok {
		x, y := i.view.Transform().Invert(e.X, e.Y)
		if err := i.drag.Start(id, x, y); err != nil {
			i.logger.Debug("Drag start rejected", zap.Error(err))
		}
		e.StopPropagation()
		return
	}
	i.view.PanStart(e.X, e.Y)
}

func (i *Instance) onPointerMove(e *dom.Event) {
	if i.drag.State() == drag.Dragging {
		x, y := i.view.Transform().Invert(e.X, e.Y)
		_ = i.drag.Move(x, y)
		return
	}
	if i.view.PanMove(e.X, e.Y) {
		return
	}
	id, _ := i.surface.HitTest(e.X, e.Y)
	if i.surface.SetHover(id) {
		i.paint()
	}
}

func (i *Instance) onPointerUp(*dom.Event) {
	if i.drag.State() == drag.Dragging {
		_, _ = i.drag.End()
		return
	}
	i.view.PanEnd()
}

func (i *Instance) onClick(e *dom.Event) {
	id := e.TargetID
	if id == "" {
		id, _ = i.surface.HitTest(e.X, e.Y)
	}
	node, ok := i.sim.Node(id)
	if !ok {
		return
	}
	if !i.drag.ConsumeClick() {
		e.StopPropagation()
		return
	}
	if i.nav == nil {
		e.StopPropagation()
		return
	}
	i.nav.HandleClick(e, node.FilePath)
}

func (i *Instance) onWheel(e *dom.Event) {
	i.view.Wheel(e.DeltaY, e.DeltaMode, e.X, e.Y)
}

func (i *Instance) onMouseOver(e *dom.Event) {
	if i.surface.SetHover(e.TargetID) {
		i.paint()
	}
}

func (i *Instance) onMouseOut(e *dom.Event) {
	if e.TargetID != "" && e.TargetID != i.surface.Hover() {
		return
	}
	if i.surface.SetHover("") {
		i.paint()
	}
}
