// Package lifecycle binds graph instances to page containers and keeps them in
// step with fragment swaps: every rebuild disposes the previous instance
// first, so no simulation or listener outlives its container.
package lifecycle

import (
	"go.uber.org/zap"

	"garden-graph/backend/internal/dom"
	"garden-graph/backend/internal/loop"
	"garden-graph/backend/internal/navigation"
	"garden-graph/backend/internal/render"
	"garden-graph/backend/pkg/config"
	"garden-graph/backend/pkg/logger"
)

// Context is everything the graph stack shares for one window. It is owned by
// the Manager and handed to each instance at construction.
type Context struct {
	Window    *dom.Window
	Scheduler loop.Scheduler
	Config    config.GraphConfig
	Style     render.Style
	Logger    *zap.Logger

	// Transport is nil when fragment navigation is unavailable.
	Transport navigation.Transport

	// CurrentPath is the route of the page currently shown.
	CurrentPath string
}

func (c *Context) withDefaults() *Context {
	if c.Logger == nil {
		c.Logger = logger.Component("lifecycle")
	}
	c.Config = c.Config.WithDefaults()
	if c.Style == (render.Style{}) {
		c.Style = render.DefaultStyle()
	}
	if c.CurrentPath == "" && c.Window != nil {
		c.CurrentPath = c.Window.Location.Pathname()
	}
	return c
}

func (c *Context) resolver() navigation.RouteResolver {
	return navigation.RouteResolver{Suffix: c.Config.ContentSuffix, Segment: c.Config.RouteSegment}
}
