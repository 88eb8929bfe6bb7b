// Package render mirrors simulation state into drawable primitives. BuildScene
// is a pure function from layout state to a Scene; Surface is the only type
// that writes presentation markup into the document.
package render

import (
	"strconv"

	"garden-graph/backend/internal/layout"
)

// Style holds the fixed presentation values.
type Style struct {
	MarkerRadius float64
	MarkerFill   string
	HoverRadius  float64
	HoverFill    string

	LinkStroke  string
	LinkOpacity float64
	LinkWidth   float64

	LabelSize float64
	LabelFill string
	LabelDX   float64
	LabelDY   float64
}

// DefaultStyle returns the garden palette.
func DefaultStyle() Style {
	return Style{
		MarkerRadius: 8,
		MarkerFill:   "#F58A07",
		HoverRadius:  10,
		HoverFill:    "#bc6c25",
		LinkStroke:   "#999",
		LinkOpacity:  0.6,
		LinkWidth:    1,
		LabelSize:    12,
		LabelFill:    "#DBDFE5",
		LabelDX:      12,
		LabelDY:      4,
	}
}

// Line is one drawn link.
type Line struct {
	ID             string
	Source, Target string
	X1, Y1, X2, Y2 float64
}

// Marker is one drawn node.
type Marker struct {
	ID   string
	X, Y float64
	R    float64
	Fill string
}

// Label is one node caption. X, Y is the node position; the style offset is
// applied when painted.
type Label struct {
	ID   string
	Text string
	X, Y float64
}

// Scene is everything drawn for one frame, keyed by stable identity.
type Scene struct {
	Lines   []Line
	Markers []Marker
	Labels  []Label
}

// State is the read side of a simulation.
type State interface {
	Nodes() []*layout.Node
	Links() []*layout.Link
}

// BuildScene produces the primitives for state. hover names the node under
// the pointer, or "".
func BuildScene(state State, hover string, style Style) Scene {
	nodes := state.Nodes()
	links := state.Links()

	scene := Scene{
		Lines:   make([]Line, 0, len(links)),
		Markers: make([]Marker, 0, len(nodes)),
		Labels:  make([]Label, 0, len(nodes)),
	}

	ids := LinkIDs(links)
	for i, l := range links {
		scene.Lines = append(scene.Lines, Line{
			ID:     ids[i],
			Source: l.Source.ID,
			Target: l.Target.ID,
			X1:     l.Source.X,
			Y1:     l.Source.Y,
			X2:     l.Target.X,
			Y2:     l.Target.Y,
		})
	}

	for _, n := range nodes {
		m := Marker{ID: n.ID, X: n.X, Y: n.Y, R: style.MarkerRadius, Fill: style.MarkerFill}
		if n.ID == hover {
			m.R, m.Fill = style.HoverRadius, style.HoverFill
		}
		scene.Markers = append(scene.Markers, m)
		scene.Labels = append(scene.Labels, Label{ID: n.ID, Text: n.DisplayLabel(), X: n.X, Y: n.Y})
	}

	return scene
}

// LinkIDs keys links as "source->target"; repeats of the same pair get a
// "#n" suffix in order of appearance.
func LinkIDs(links []*layout.Link) []string {
	seen := make(map[string]int, len(links))
	ids := make([]string, len(links))
	for i, l := range links {
		key := l.Source.ID + "->" + l.Target.ID
		seen[key]++
		if n := seen[key]; n > 1 {
			key += "#" + strconv.Itoa(n)
		}
		ids[i] = key
	}
	return ids
}
