package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"go.uber.org/zap"

	"garden-graph/backend/internal/viewport"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

// Container is the element the surface paints into.
type Container interface {
	SetInnerHTML(fragment string)
	Empty()
}

// JoinStats counts what a Join changed.
type JoinStats struct {
	Entered int
	Updated int
	Exited  int
}

type keyed[T any] struct {
	order []string
	items map[string]*T
}

func newKeyed[T any]() keyed[T] {
	return keyed[T]{items: make(map[string]*T)}
}

// join applies enter/update/exit by key and keeps the incoming order.
func join[T any](k *keyed[T], incoming []T, key func(*T) string, stats *JoinStats) {
	next := make(map[string]*T, len(incoming))
	order := make([]string, 0, len(incoming))
	for i := range incoming {
		item := incoming[i]
		id := key(&item)
		if cur, ok := k.items[id]; ok {
			*cur = item
			next[id] = cur
			stats.Updated++
		} else {
			next[id] = &item
			stats.Entered++
		}
		order = append(order, id)
	}
	stats.Exited += len(k.items) - stats.Updated
	k.items = next
	k.order = order
}

// Surface owns the rendered primitives of one container.
type Surface struct {
	container Container
	width     float64
	height    float64
	style     Style

	lines   keyed[Line]
	markers keyed[Marker]
	labels  keyed[Label]

	hover     string
	transform viewport.Transform
	paints    int

	logger *zap.Logger
}

// NewSurface creates an empty surface over container.
func NewSurface(container Container, width, height float64, style Style, log *zap.Logger) *Surface {
	return &Surface{
		container: container,
		width:     width,
		height:    height,
		style:     style,
		lines:     newKeyed[Line](),
		markers:   newKeyed[Marker](),
		labels:    newKeyed[Label](),
		transform: viewport.Identity,
		logger:    logger.OrNop(log),
	}
}

// Join reconciles the primitives with scene by identity.
func (s *Surface) Join(scene Scene) JoinStats {
	var lineStats, markerStats, labelStats JoinStats
	join(&s.lines, scene.Lines, func(l *Line) string { return l.ID }, &lineStats)
	join(&s.markers, scene.Markers, func(m *Marker) string { return m.ID }, &markerStats)
	join(&s.labels, scene.Labels, func(l *Label) string { return l.ID }, &labelStats)
	return JoinStats{
		Entered: lineStats.Entered + markerStats.Entered + labelStats.Entered,
		Updated: lineStats.Updated + markerStats.Updated + labelStats.Updated,
		Exited:  lineStats.Exited + markerStats.Exited + labelStats.Exited,
	}
}

// Update rebuilds the scene from state and joins it.
func (s *Surface) Update(state State) JoinStats {
	return s.Join(BuildScene(state, s.hover, s.style))
}

// Render updates from state and paints.
func (s *Surface) Render(state State) error {
	s.Update(state)
	return s.Paint()
}

// SetHover marks a node as hovered, or clears hover with "". It reports
// whether anything changed. Unknown ids clear hover.
func (s *Surface) SetHover(id string) bool {
	if _, ok := s.markers.items[id]; !ok {
		id = ""
	}
	if id == s.hover {
		return false
	}
	if prev, ok := s.markers.items[s.hover]; ok {
		prev.R, prev.Fill = s.style.MarkerRadius, s.style.MarkerFill
	}
	if cur, ok := s.markers.items[id]; ok {
		cur.R, cur.Fill = s.style.HoverRadius, s.style.HoverFill
	}
	s.hover = id
	return true
}

// Hover returns the hovered node id.
func (s *Surface) Hover() string { return s.hover }

// SetTransform sets the viewport transform applied to the whole scene.
func (s *Surface) SetTransform(t viewport.Transform) {
	s.transform = t
}

// Transform returns the viewport transform.
func (s *Surface) Transform() viewport.Transform { return s.transform }

// Resize changes the drawing size.
func (s *Surface) Resize(width, height float64) {
	s.width, s.height = width, height
}

// Size returns the drawing size.
func (s *Surface) Size() (float64, float64) { return s.width, s.height }

// Counts returns the number of lines, markers and labels held.
func (s *Surface) Counts() (lines, markers, labels int) {
	return len(s.lines.order), len(s.markers.order), len(s.labels.order)
}

// Marker returns a held marker by node id.
func (s *Surface) Marker(id string) (Marker, bool) {
	m, ok := s.markers.items[id]
	if !ok {
		return Marker{}, false
	}
	return *m, true
}

// Line returns a held line by link id.
func (s *Surface) Line(id string) (Line, bool) {
	l, ok := s.lines.items[id]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

// Paints counts Paint calls since the last Clear.
func (s *Surface) Paints() int { return s.paints }

// HitTest finds the topmost marker under a screen point.
func (s *Surface) HitTest(screenX, screenY float64) (string, bool) {
	x, y := s.transform.Invert(screenX, screenY)
	for i := len(s.markers.order) - 1; i >= 0; i-- {
		m := s.markers.items[s.markers.order[i]]
		if math.Hypot(m.X-x, m.Y-y) <= m.R {
			return m.ID, true
		}
	}
	return "", false
}

// Paint writes the held primitives into the container as SVG.
func (s *Surface) Paint() error {
	var buf bytes.Buffer
	if err := s.WriteSVG(&buf); err != nil {
		return apperrors.NewBaseError(apperrors.ErrorTypeRender, "paint failed", err)
	}
	s.container.SetInnerHTML(buf.String())
	s.paints++
	return nil
}

// WriteSVG writes the scene as an embeddable <svg> element.
func (s *Surface) WriteSVG(w io.Writer) error {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(px(s.width), px(s.height))

	canvas.Group(`class="viewport"`, attr("transform", s.transform.String()))

	canvas.Group(`class="links"`)
	linkStyle := fmt.Sprintf("stroke:%s;stroke-opacity:%s;stroke-width:%s",
		s.style.LinkStroke, fnum(s.style.LinkOpacity), fnum(s.style.LinkWidth))
	for _, id := range s.lines.order {
		l := s.lines.items[id]
		canvas.Line(px(l.X1), px(l.Y1), px(l.X2), px(l.Y2), attr("data-id", l.ID), linkStyle)
	}
	canvas.Gend()

	canvas.Group(`class="nodes"`)
	for _, id := range s.markers.order {
		m := s.markers.items[id]
		canvas.Circle(px(m.X), px(m.Y), px(m.R), attr("data-id", m.ID), "fill:"+m.Fill+";cursor:pointer")
	}
	canvas.Gend()

	canvas.Group(`class="labels"`)
	labelStyle := fmt.Sprintf("font-size:%spx;fill:%s;pointer-events:none;user-select:none",
		fnum(s.style.LabelSize), s.style.LabelFill)
	for _, id := range s.labels.order {
		l := s.labels.items[id]
		canvas.Text(px(l.X), px(l.Y), l.Text,
			attr("data-id", l.ID), attr("dx", fnum(s.style.LabelDX)), attr("dy", fnum(s.style.LabelDY)), labelStyle)
	}
	canvas.Gend()

	canvas.Gend()
	canvas.End()

	// Drop the XML prolog; the markup is embedded in an HTML document.
	out := buf.String()
	if i := strings.Index(out, "<svg"); i > 0 {
		out = out[i:]
	}
	_, err := io.WriteString(w, out)
	return err
}

// Clear removes every primitive and empties the container.
func (s *Surface) Clear() {
	s.lines = newKeyed[Line]()
	s.markers = newKeyed[Marker]()
	s.labels = newKeyed[Label]()
	s.hover = ""
	s.paints = 0
	s.container.Empty()
}

func px(v float64) int {
	return int(math.Round(v))
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}
