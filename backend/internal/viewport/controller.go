package viewport

import "math"

// Wheel delta modes.
const (
	DeltaPixel = 0
	DeltaLine  = 1
	DeltaPage  = 2
)

// Controller owns the surface transform. Scale is always within [min, max].
type Controller struct {
	min, max float64
	t        Transform

	panning      bool
	lastX, lastY float64

	listeners []func(Transform)
}

// NewController creates a controller at the identity transform.
func NewController(minScale, maxScale float64) *Controller {
	if minScale <= 0 {
		minScale = 0.1
	}
	if maxScale < minScale {
		maxScale = minScale
	}
	return &Controller{min: minScale, max: maxScale, t: Identity}
}

// Transform returns the current transform.
func (c *Controller) Transform() Transform {
	return c.t
}

// Extent returns the scale bounds.
func (c *Controller) Extent() (float64, float64) {
	return c.min, c.max
}

// OnChange registers fn to run whenever the transform changes.
func (c *Controller) OnChange(fn func(Transform)) {
	c.listeners = append(c.listeners, fn)
}

// WheelDelta converts a wheel event into a log2 zoom step.
func WheelDelta(deltaY float64, deltaMode int) float64 {
	var unit float64
	switch deltaMode {
	case DeltaPixel:
		unit = 0.002
	case DeltaLine:
		unit = 0.05
	default:
		unit = 1
	}
	return -deltaY * unit
}

// Wheel zooms around the pointer.
func (c *Controller) Wheel(deltaY float64, deltaMode int, px, py float64) {
	c.ZoomBy(math.Pow(2, WheelDelta(deltaY, deltaMode)), px, py)
}

// ZoomBy multiplies the scale by factor, keeping the point under (px, py) fixed.
func (c *Controller) ZoomBy(factor, px, py float64) {
	c.ScaleTo(c.t.K*factor, px, py)
}

// ScaleTo sets the scale, clamped, keeping the point under (px, py) fixed.
func (c *Controller) ScaleTo(k, px, py float64) {
	k = c.clamp(k)
	if k == c.t.K {
		return
	}
	dx, dy := c.t.Invert(px, py)
	c.set(Transform{K: k, X: px - dx*k, Y: py - dy*k})
}

// PanStart begins a background drag at a screen point.
func (c *Controller) PanStart(x, y float64) {
	c.panning = true
	c.lastX, c.lastY = x, y
}

// PanMove translates by the pointer travel since the last event. It reports
// whether a pan is in progress.
func (c *Controller) PanMove(x, y float64) bool {
	if !c.panning {
		return false
	}
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y
	if dx != 0 || dy != 0 {
		c.set(c.t.Translate(dx, dy))
	}
	return true
}

// PanEnd finishes a background drag.
func (c *Controller) PanEnd() {
	c.panning = false
}

// Panning reports whether a background drag is in progress.
func (c *Controller) Panning() bool {
	return c.panning
}

// Reset returns to the identity transform.
func (c *Controller) Reset() {
	c.panning = false
	c.set(Identity)
}

func (c *Controller) set(t Transform) {
	c.t = t
	for _, fn := range c.listeners {
		fn(t)
	}
}

func (c *Controller) clamp(k float64) float64 {
	if math.IsNaN(k) {
		return c.t.K
	}
	return math.Max(c.min, math.Min(c.max, k))
}
