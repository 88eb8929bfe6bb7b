// Package drag implements the per-graph node drag state machine. At most one
// node is held at a time; while held it is pinned to the pointer and the
// simulation is kept warm.
package drag

import (
	"math"

	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

// State of the controller.
type State int

const (
	Free State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "free"
}

// Simulation is the part of the layout a drag needs.
type Simulation interface {
	Pin(id string, x, y float64) error
	Unpin(id string) error
	SetAlphaTarget(target float64)
	Restart()
}

// Controller tracks which node, if any, is held.
type Controller struct {
	// ScreenScale converts data-space travel to screen pixels for the click
	// slop. Nil means 1.
	ScreenScale func() float64

	sim    Simulation
	state  State
	nodeID string

	startX, startY float64
	travel         float64
	suppressClick  bool

	logger *zap.Logger
}

// NewController creates a free controller.
func NewController(sim Simulation, log *zap.Logger) *Controller {
	return &Controller{sim: sim, logger: logger.OrNop(log)}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// NodeID returns the held node, or "" when free.
func (c *Controller) NodeID() string { return c.nodeID }

// Start grabs a node at a data-space point.
func (c *Controller) Start(id string, x, y float64) error {
	if c.state == Dragging {
		return apperrors.NewAlreadyDragging(c.nodeID, id)
	}
	if err := c.sim.Pin(id, x, y); err != nil {
		return err
	}
	c.sim.SetAlphaTarget(constants.DragAlphaTarget)
	c.sim.Restart()

	c.state = Dragging
	c.nodeID = id
	c.startX, c.startY = x, y
	c.travel = 0
	c.suppressClick = false
	return nil
}

// Move drags the held node's pin to a data-space point.
func (c *Controller) Move(x, y float64) error {
	if c.state != Dragging {
		return apperrors.ErrNotDragging
	}
	c.travel = math.Max(c.travel, math.Hypot(x-c.startX, y-c.startY))
	return c.sim.Pin(c.nodeID, x, y)
}

// End releases the held node back to the simulation. moved reports whether
// the pointer travelled far enough that the press was a drag, not a click.
func (c *Controller) End() (moved bool, err error) {
	if c.state != Dragging {
		return false, apperrors.ErrNotDragging
	}
	id := c.nodeID
	scale := 1.0
	if c.ScreenScale != nil {
		scale = c.ScreenScale()
	}
	moved = c.travel*scale > constants.ClickSlop

	c.state = Free
	c.nodeID = ""
	c.suppressClick = moved
	c.sim.SetAlphaTarget(0)
	if err := c.sim.Unpin(id); err != nil {
		c.logger.Warn("Released node vanished", zap.String("node_id", id), zap.Error(err))
		return moved, err
	}
	return moved, nil
}

// Cancel releases any held node without reporting. Used on dispose.
func (c *Controller) Cancel() {
	if c.state == Dragging {
		_, _ = c.End()
	}
	c.suppressClick = false
}

// ConsumeClick reports whether a click that follows the last release should
// be handled, clearing the suppression either way.
func (c *Controller) ConsumeClick() bool {
	ok := !c.suppressClick
	c.suppressClick = false
	return ok
}
