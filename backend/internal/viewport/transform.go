// Package viewport turns wheel and drag gestures on the graph surface into a
// single pan/zoom transform. It never touches node positions.
package viewport

import (
	"math"
	"strconv"
)

// Transform maps data coordinates to screen coordinates:
// screen = data*K + (X, Y).
type Transform struct {
	K float64
	X float64
	Y float64
}

// Identity is the unit transform.
var Identity = Transform{K: 1}

// Apply maps a data point to the screen.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a screen point back to data coordinates.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// Scale returns t with scale k, keeping the translation.
func (t Transform) Scale(k float64) Transform {
	return Transform{K: k, X: t.X, Y: t.Y}
}

// Translate returns t shifted by dx, dy screen pixels.
func (t Transform) Translate(dx, dy float64) Transform {
	return Transform{K: t.K, X: t.X + dx, Y: t.Y + dy}
}

// String renders the SVG transform attribute.
func (t Transform) String() string {
	return "translate(" + num(t.X) + "," + num(t.Y) + ") scale(" + num(t.K) + ")"
}

func num(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
