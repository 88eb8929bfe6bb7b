package lifecycle

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/dom"
	"garden-graph/backend/internal/fragment"
	"garden-graph/backend/internal/graph"
	"garden-graph/backend/internal/loop"
	"garden-graph/backend/internal/navigation"
	"garden-graph/backend/pkg/config"
	apperrors "garden-graph/backend/pkg/errors"
)

// loadedMarker flags elements whose load trigger already fired.
const loadedMarker = "data-hx-loaded"

// sectionContainers maps a settled section to the graph container inside it.
var sectionContainers = map[string]string{
	constants.GraphSectionID:  constants.GraphContainerID,
	constants.GardenSectionID: constants.GardenContainerID,
}

// Manager owns the Context, the navigation bridge and every container
// binding of one window.
type Manager struct {
	ctx    *Context
	loader *graph.Loader
	bridge *navigation.Bridge

	instances map[string]*Instance
	subs      dom.Subscriptions

	resizeCancel  loop.Cancel
	refreshQueued bool
	loads         singleflight.Group
	loadGen       map[string]uint64

	base    context.Context
	stop    context.CancelFunc
	started bool

	logger *zap.Logger
}

// NewManager creates a manager. Nothing is subscribed until Start.
func NewManager(ctx *Context) *Manager {
	ctx = ctx.withDefaults()
	base, stop := context.WithCancel(context.Background())
	m := &Manager{
		ctx:       ctx,
		loader:    graph.NewLoader(ctx.Logger),
		instances: make(map[string]*Instance),
		loadGen:   make(map[string]uint64),
		base:      base,
		stop:      stop,
		logger:    ctx.Logger,
	}
	m.bridge = navigation.NewBridge(navigation.Options{
		Window:     ctx.Window,
		Scheduler:  ctx.Scheduler,
		Transport:  ctx.Transport,
		Resolver:   ctx.resolver(),
		Target:     ctx.Config.ContentTarget,
		Timeout:    ctx.Config.FetchTimeout,
		Logger:     ctx.Logger,
		OnNavigate: func(route string) { ctx.CurrentPath = route },
	})
	return m
}

// Context returns the shared context.
func (m *Manager) Context() *Context { return m.ctx }

// Bridge returns the navigation bridge shared by all instances.
func (m *Manager) Bridge() *navigation.Bridge { return m.bridge }

// Start subscribes to the window signals and fires pending load triggers.
// A stopped manager cannot be started again.
func (m *Manager) Start() {
	if m.started || m.base.Err() != nil {
		return
	}
	m.started = true
	events := m.ctx.Window.Events
	m.subs.Listen(events, constants.EventAfterSettle, m.onAfterSettle)
	m.subs.Listen(events, constants.EventGraphUpdate, m.onContentSignal)
	m.subs.Listen(events, constants.EventContentUpdated, m.onContentSignal)
	m.subs.Listen(events, constants.EventResize, m.onResize)

	m.processLoadTriggers()
	for section, container := range sectionContainers {
		// Graphs rendered into the initial page have no settle to wait for.
		if m.ctx.Window.Document.GetElementByID(section) != nil &&
			m.ctx.Window.Document.GetElementByID(container) != nil {
			m.Init(container)
		}
	}
}

// Stop detaches every listener, disposes every instance and abandons
// in-flight fetches.
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	m.started = false
	m.subs.Close()
	m.subs = dom.Subscriptions{}
	if m.resizeCancel != nil {
		m.resizeCancel()
		m.resizeCancel = nil
	}
	for id, inst := range m.instances {
		inst.Dispose()
		delete(m.instances, id)
	}
	m.bridge.Close()
	m.stop()
	m.logger.Info("Graph lifecycle stopped")
}

// Init (re)binds a graph to containerID. A missing container is logged and
// ignored. Any previous instance on the container is disposed first.
func (m *Manager) Init(containerID string) *Instance {
	el := m.ctx.Window.Document.GetElementByID(containerID)
	if el == nil {
		m.logger.Warn("Graph container missing, skipping init",
			zap.Error(apperrors.NewContainerNotFound(containerID)),
		)
		return nil
	}

	if old, ok := m.instances[containerID]; ok {
		old.Dispose()
		delete(m.instances, containerID)
	}

	data := m.loader.Load(el)
	inst := newInstance(m.ctx, containerID, el, data, m.bridge)
	m.instances[containerID] = inst
	return inst
}

// Dispose tears down the binding on containerID, if any.
func (m *Manager) Dispose(containerID string) {
	if inst, ok := m.instances[containerID]; ok {
		inst.Dispose()
		delete(m.instances, containerID)
	}
}

// Instance returns the live instance on containerID.
func (m *Manager) Instance(containerID string) (*Instance, bool) {
	inst, ok := m.instances[containerID]
	if ok && inst.Disposed() {
		delete(m.instances, containerID)
		return nil, false
	}
	return inst, ok
}

// Instances counts live bindings.
func (m *Manager) Instances() int {
	n := 0
	for id, inst := range m.instances {
		if inst.Disposed() {
			delete(m.instances, id)
			continue
		}
		n++
	}
	return n
}

func (m *Manager) onAfterSettle(e *dom.Event) {
	target := e.DetailValue(constants.DetailTarget)
	switch target {
	case m.ctx.Config.ContentTarget:
		events := m.ctx.Window.Events
		events.Dispatch(dom.NewEvent(constants.EventContentUpdated))
		events.Dispatch(dom.NewEvent(constants.EventGraphUpdate))
	default:
		if container, ok := sectionContainers[target]; ok {
			m.Init(container)
		}
	}
	m.processLoadTriggers()
}

// onContentSignal queues one graph refresh per loop turn however many
// signals arrive in it.
func (m *Manager) onContentSignal(*dom.Event) {
	if m.refreshQueued || m.ctx.Transport == nil {
		return
	}
	m.refreshQueued = true
	m.ctx.Scheduler.Post(func() {
		m.refreshQueued = false
		if !m.started {
			return
		}
		m.RefreshGraph()
	})
}

// RefreshGraph reloads the related-posts graph for the current page.
func (m *Manager) RefreshGraph() {
	if m.ctx.Window.Document.GetElementByID(constants.GraphSectionID) == nil {
		return
	}
	m.load(constants.GraphRoute, constants.GraphSectionID, dom.SwapInnerHTML)
}

func (m *Manager) onResize(*dom.Event) {
	if m.resizeCancel != nil {
		m.resizeCancel()
	}
	m.resizeCancel = m.ctx.Scheduler.After(m.ctx.Config.ResizeDebounce, func() {
		m.resizeCancel = nil
		w := m.ctx.Window
		for _, inst := range m.instances {
			inst.Resize(w.Width, w.Height)
		}
		m.logger.Debug("Resize applied",
			zap.Float64("width", w.Width),
			zap.Float64("height", w.Height),
		)
	})
}

// processLoadTriggers fetches every hx-get element with a load trigger once.
func (m *Manager) processLoadTriggers() {
	if m.ctx.Transport == nil {
		return
	}
	doc := m.ctx.Window.Document
	var pending []*dom.Element
	for _, el := range doc.Query("[hx-get][hx-trigger]") {
		if _, done := el.Attr(loadedMarker); done {
			continue
		}
		trigger, _ := el.Attr("hx-trigger")
		if !hasLoadTrigger(trigger) || el.ID() == "" {
			continue
		}
		pending = append(pending, el)
	}

	for _, el := range pending {
		el.SetAttr(loadedMarker, "true")
		route, _ := el.Attr("hx-get")
		target := strings.TrimPrefix(attrOr(el, "hx-target", "#"+el.ID()), "#")
		mode := dom.SwapMode(attrOr(el, "hx-swap", string(dom.SwapInnerHTML)))
		m.load(route, target, mode)
	}
}

func hasLoadTrigger(trigger string) bool {
	for _, part := range strings.Split(trigger, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 && fields[0] == "load" {
			return true
		}
	}
	return false
}

func attrOr(el *dom.Element, name, def string) string {
	if v, ok := el.Attr(name); ok && v != "" {
		return v
	}
	return def
}

// load fetches route into target. Overlapping identical requests share one
// fetch, and only the latest load per target is applied.
func (m *Manager) load(route, target string, mode dom.SwapMode) {
	transport := m.ctx.Transport
	if transport == nil {
		return
	}
	w := m.ctx.Window
	req := fragment.Request{
		URL:        w.Location.Resolve(route),
		Target:     target,
		Swap:       mode,
		CurrentURL: w.Location.Href(),
	}

	m.loadGen[target]++
	gen := m.loadGen[target]
	key := target + "|" + req.URL + "|" + req.CurrentURL
	sched := m.ctx.Scheduler
	timeout := m.ctx.Config.FetchTimeout
	if timeout <= 0 {
		timeout = config.DefaultGraphConfig().FetchTimeout
	}
	ctx, cancel := context.WithTimeout(m.base, timeout)

	go func() {
		defer cancel()
		v, err, shared := m.loads.Do(key, func() (any, error) {
			return transport.Fetch(ctx, req)
		})
		sched.Post(func() {
			if !m.started || gen != m.loadGen[target] {
				return
			}
			if err != nil {
				m.logger.Error("Fragment load failed",
					zap.String("route", route),
					zap.String("target", target),
					zap.Error(err),
				)
				return
			}
			if shared {
				m.logger.Debug("Fragment load coalesced", zap.String("target", target))
			}
			resp := v.(fragment.Response)
			resp.Request.Swap = mode
			if err := transport.Swap(w, resp); err != nil {
				m.logger.Error("Fragment swap failed", zap.String("target", target), zap.Error(err))
				return
			}
			if !transport.SignalsSettle() {
				w.Events.Dispatch(dom.NewCustomEvent(constants.EventAfterSettle, map[string]string{
					constants.DetailTarget: target,
				}))
			}
		})
	}()
}
