package layout

import "math"

// Force contributes velocity (or, for centering, position) changes each tick.
type Force interface {
	// Initialize binds the force to the node set. random is used to separate
	// coincident nodes.
	Initialize(nodes []*Node, random func() float64)
	// Apply runs the force once at the given temperature.
	Apply(alpha float64)
}

func jiggle(random func() float64) float64 {
	return (random() - 0.5) * 1e-6
}

// ============================================================================
// Link
// ============================================================================

// LinkForce pulls linked nodes toward Distance apart. Each link's strength is
// 1/min(degree) so hubs are not yanked around, and the correction is split
// between the endpoints by degree.
type LinkForce struct {
	Distance   float64
	Iterations int

	links     []*Link
	strengths []float64
	bias      []float64
	random    func() float64
}

// NewLinkForce creates a link force over resolved links.
func NewLinkForce(links []*Link, distance float64) *LinkForce {
	return &LinkForce{Distance: distance, Iterations: 1, links: links}
}

func (f *LinkForce) Initialize(nodes []*Node, random func() float64) {
	f.random = random
	count := make([]int, len(nodes))
	for _, l := range f.links {
		count[l.Source.Index]++
		count[l.Target.Index]++
	}
	f.strengths = make([]float64, len(f.links))
	f.bias = make([]float64, len(f.links))
	for i, l := range f.links {
		cs, ct := count[l.Source.Index], count[l.Target.Index]
		f.strengths[i] = 1 / float64(min(cs, ct))
		f.bias[i] = float64(cs) / float64(cs+ct)
	}
}

func (f *LinkForce) Apply(alpha float64) {
	for k := 0; k < f.Iterations; k++ {
		for i, l := range f.links {
			src, tgt := l.Source, l.Target
			x := tgt.X + tgt.VX - src.X - src.VX
			if x == 0 {
				x = jiggle(f.random)
			}
			y := tgt.Y + tgt.VY - src.Y - src.VY
			if y == 0 {
				y = jiggle(f.random)
			}
			d := math.Sqrt(x*x + y*y)
			d = (d - f.Distance) / d * alpha * f.strengths[i]
			x *= d
			y *= d

			b := f.bias[i]
			tgt.VX -= x * b
			tgt.VY -= y * b
			b = 1 - b
			src.VX += x * b
			src.VY += y * b
		}
	}
}

// ============================================================================
// Many-body
// ============================================================================

// ManyBodyForce makes every node repel (negative Strength) or attract every
// other node with strength falling off with distance.
type ManyBodyForce struct {
	Strength    float64
	DistanceMin float64

	nodes  []*Node
	random func() float64
}

// NewManyBodyForce creates a pairwise charge force.
func NewManyBodyForce(strength float64) *ManyBodyForce {
	return &ManyBodyForce{Strength: strength, DistanceMin: 1}
}

func (f *ManyBodyForce) Initialize(nodes []*Node, random func() float64) {
	f.nodes = nodes
	f.random = random
}

func (f *ManyBodyForce) Apply(alpha float64) {
	if f.Strength == 0 {
		return
	}
	min2 := f.DistanceMin * f.DistanceMin
	for _, node := range f.nodes {
		for _, other := range f.nodes {
			if other == node {
				continue
			}
			x := other.X - node.X
			y := other.Y - node.Y
			if x == 0 {
				x = jiggle(f.random)
			}
			if y == 0 {
				y = jiggle(f.random)
			}
			l := x*x + y*y
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := f.Strength * alpha / l
			node.VX += x * w
			node.VY += y * w
		}
	}
}

// ============================================================================
// Center
// ============================================================================

// CenterForce translates all nodes so their centroid sits at X, Y. It moves
// positions directly and does not change the relative layout.
type CenterForce struct {
	X, Y     float64
	Strength float64

	nodes []*Node
}

// NewCenterForce creates a centering force.
func NewCenterForce(x, y float64) *CenterForce {
	return &CenterForce{X: x, Y: y, Strength: 1}
}

func (f *CenterForce) Initialize(nodes []*Node, _ func() float64) {
	f.nodes = nodes
}

func (f *CenterForce) Apply(float64) {
	n := len(f.nodes)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, node := range f.nodes {
		sx += node.X
		sy += node.Y
	}
	sx = (sx/float64(n) - f.X) * f.Strength
	sy = (sy/float64(n) - f.Y) * f.Strength
	for _, node := range f.nodes {
		node.X -= sx
		node.Y -= sy
	}
}

// ============================================================================
// Collide
// ============================================================================

// CollideForce pushes apart nodes closer than the sum of their radii, using
// next-tick positions so it resolves after the other forces.
type CollideForce struct {
	Radius     float64
	Strength   float64
	Iterations int

	nodes  []*Node
	random func() float64
}

// NewCollideForce creates a collision force with a uniform radius.
func NewCollideForce(radius float64) *CollideForce {
	return &CollideForce{Radius: radius, Strength: 1, Iterations: 1}
}

func (f *CollideForce) Initialize(nodes []*Node, random func() float64) {
	f.nodes = nodes
	f.random = random
}

func (f *CollideForce) Apply(float64) {
	ri := f.Radius
	r := ri + ri
	for k := 0; k < f.Iterations; k++ {
		for i, node := range f.nodes {
			xi := node.X + node.VX
			yi := node.Y + node.VY
			for _, other := range f.nodes[i+1:] {
				x := xi - (other.X + other.VX)
				y := yi - (other.Y + other.VY)
				l := x*x + y*y
				if l >= r*r {
					continue
				}
				if x == 0 {
					x = jiggle(f.random)
					l += x * x
				}
				if y == 0 {
					y = jiggle(f.random)
					l += y * y
				}
				l = math.Sqrt(l)
				l = (r - l) / l * f.Strength
				x *= l
				y *= l
				// Equal radii split the correction evenly.
				node.VX += x * 0.5
				node.VY += y * 0.5
				other.VX -= x * 0.5
				other.VY -= y * 0.5
			}
		}
	}
}
