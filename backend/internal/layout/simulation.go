// Package layout computes node positions with an iterative force simulation.
// Each Tick decays the temperature (alpha), applies every force to node
// velocities and integrates positions. Pinned nodes ignore the integration
// and sit at their pin.
package layout

import (
	"math"

	"go.uber.org/zap"

	"garden-graph/backend/internal/graph"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

const (
	initialRadius = 10.0
	alphaMin      = 0.001
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Node is a graph node with simulation state.
type Node struct {
	graph.Node
	Index int

	X, Y   float64
	VX, VY float64

	// Pinned nodes are held at FX, FY.
	Pinned bool
	FX, FY float64
}

// Link is a graph link with both endpoints resolved.
type Link struct {
	Index  int
	Source *Node
	Target *Node
}

// Options configures the forces. Zero distance and radius take defaults; a
// zero ChargeStrength disables repulsion.
type Options struct {
	LinkDistance   float64
	ChargeStrength float64
	CollideRadius  float64
	CenterX        float64
	CenterY        float64
}

func (o Options) withDefaults() Options {
	d := o
	if d.LinkDistance == 0 {
		d.LinkDistance = 100
	}
	if d.CollideRadius == 0 {
		d.CollideRadius = 30
	}
	return d
}

// Simulation holds a fixed set of nodes and links and the forces acting on
// them. Topology never changes after New; rebuild to change it.
type Simulation struct {
	nodes   []*Node
	links   []*Link
	byID    map[string]*Node
	dropped []graph.Link

	forces []namedForce

	alpha         float64
	alphaTarget   float64
	alphaDecay    float64
	velocityDecay float64

	running   bool
	ticks     int
	onRestart []func()

	random func() float64
	logger *zap.Logger
}

type namedForce struct {
	name  string
	force Force
}

// New builds a simulation over data. Links that name an unknown node are
// dropped and logged; they are available through Dropped.
func New(data graph.Data, opts Options, log *zap.Logger) *Simulation {
	opts = opts.withDefaults()
	s := &Simulation{
		byID:          make(map[string]*Node, len(data.Nodes)),
		alpha:         1,
		alphaDecay:    1 - math.Pow(alphaMin, 1.0/300),
		velocityDecay: 0.6,
		running:       true,
		random:        lcg(),
		logger:        logger.OrNop(log),
	}

	for _, n := range data.Nodes {
		if _, dup := s.byID[n.ID]; dup {
			s.logger.Warn("Duplicate node id ignored", zap.String("node_id", n.ID))
			continue
		}
		node := &Node{Node: n, Index: len(s.nodes)}
		s.nodes = append(s.nodes, node)
		s.byID[n.ID] = node
	}
	s.initializeNodes()

	for _, l := range data.Links {
		src, okS := s.byID[l.Source]
		tgt, okT := s.byID[l.Target]
		if !okS || !okT {
			missing := l.Source
			if okS {
				missing = l.Target
			}
			s.dropped = append(s.dropped, l)
			s.logger.Warn("Dropping dangling link",
				zap.Error(apperrors.NewDanglingLink(l.Source, l.Target, missing)),
			)
			continue
		}
		s.links = append(s.links, &Link{Index: len(s.links), Source: src, Target: tgt})
	}

	s.AddForce("link", NewLinkForce(s.links, opts.LinkDistance))
	s.AddForce("charge", NewManyBodyForce(opts.ChargeStrength))
	s.AddForce("center", NewCenterForce(opts.CenterX, opts.CenterY))
	s.AddForce("collide", NewCollideForce(opts.CollideRadius))

	return s
}

// initializeNodes places nodes without a position on a phyllotaxis spiral.
func (s *Simulation) initializeNodes() {
	for i, n := range s.nodes {
		if n.X == 0 && n.Y == 0 {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			n.X = radius * math.Cos(angle)
			n.Y = radius * math.Sin(angle)
		}
	}
}

// AddForce registers or replaces a named force.
func (s *Simulation) AddForce(name string, f Force) {
	f.Initialize(s.nodes, s.random)
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces[i].force = f
			return
		}
	}
	s.forces = append(s.forces, namedForce{name: name, force: f})
}

// Force returns a named force or nil.
func (s *Simulation) Force(name string) Force {
	for _, nf := range s.forces {
		if nf.name == name {
			return nf.force
		}
	}
	return nil
}

// Tick advances the simulation one step.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	for _, nf := range s.forces {
		nf.force.Apply(s.alpha)
	}
	for _, n := range s.nodes {
		if n.Pinned {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= s.velocityDecay
		n.VY *= s.velocityDecay
		n.X += n.VX
		n.Y += n.VY
	}
	s.ticks++
}

// Step runs n ticks.
func (s *Simulation) Step(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// Settled reports whether alpha has decayed below the minimum.
func (s *Simulation) Settled() bool {
	return s.alpha < alphaMin
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha overrides the temperature.
func (s *Simulation) SetAlpha(alpha float64) {
	s.alpha = clamp01(alpha)
}

// AlphaTarget returns the temperature alpha decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the temperature alpha decays toward.
func (s *Simulation) SetAlphaTarget(target float64) {
	s.alphaTarget = clamp01(target)
}

// AlphaMin returns the settle threshold.
func (s *Simulation) AlphaMin() float64 { return alphaMin }

// Restart marks the simulation running and notifies whatever drives it.
func (s *Simulation) Restart() {
	s.running = true
	for _, fn := range s.onRestart {
		fn()
	}
}

// Stop marks the simulation idle. Positions are kept.
func (s *Simulation) Stop() {
	s.running = false
}

// Running reports whether the simulation wants ticks.
func (s *Simulation) Running() bool { return s.running }

// OnRestart registers fn to run on every Restart.
func (s *Simulation) OnRestart(fn func()) {
	s.onRestart = append(s.onRestart, fn)
}

// Ticks counts ticks run since New.
func (s *Simulation) Ticks() int { return s.ticks }

// Nodes returns the live nodes in payload order.
func (s *Simulation) Nodes() []*Node { return s.nodes }

// Links returns the resolved links. Dangling ones are not included.
func (s *Simulation) Links() []*Link { return s.links }

// Dropped returns links discarded for naming an unknown node.
func (s *Simulation) Dropped() []graph.Link { return s.dropped }

// Node looks up a node by id.
func (s *Simulation) Node(id string) (*Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Pin holds a node at x, y until Unpin.
func (s *Simulation) Pin(id string, x, y float64) error {
	n, ok := s.byID[id]
	if !ok {
		return apperrors.NewUnknownNode(id)
	}
	n.Pinned = true
	n.FX, n.FY = x, y
	return nil
}

// Unpin releases a node back to the forces.
func (s *Simulation) Unpin(id string) error {
	n, ok := s.byID[id]
	if !ok {
		return apperrors.NewUnknownNode(id)
	}
	n.Pinned = false
	n.FX, n.FY = 0, 0
	return nil
}

// SetCenter moves the centering force target.
func (s *Simulation) SetCenter(x, y float64) {
	if c, ok := s.Force("center").(*CenterForce); ok {
		c.X, c.Y = x, y
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// lcg is a small deterministic source for jiggle so layouts are repeatable.
func lcg() func() float64 {
	const (
		a = 1664525
		c = 1013904223
		m = 4294967296
	)
	var state uint64 = 1
	return func() float64 {
		state = (a*state + c) % m
		return float64(state) / m
	}
}
