package layout

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-graph/backend/internal/graph"
	"garden-graph/backend/internal/loop"
	apperrors "garden-graph/backend/pkg/errors"
)

func nodes(ids ...string) []graph.Node {
	out := make([]graph.Node, len(ids))
	for i, id := range ids {
		out[i] = graph.Node{ID: id}
	}
	return out
}

func distance(a, b *Node) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func settle(s *Simulation) {
	for !s.Settled() {
		s.Tick()
	}
}

func TestNew_PhyllotaxisPlacement(t *testing.T) {
	s := New(graph.Data{Nodes: nodes("a", "b", "c")}, Options{}, nil)

	for i, n := range s.Nodes() {
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		assert.InDelta(t, radius, math.Hypot(n.X, n.Y), 1e-9)
		assert.Equal(t, i, n.Index)
	}
}

func TestNew_DropsDanglingLinks(t *testing.T) {
	data := graph.Data{
		Nodes: nodes("a", "b"),
		Links: []graph.Link{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "ghost"},
			{Source: "nobody", Target: "b"},
		},
	}
	s := New(data, Options{}, nil)

	require.Len(t, s.Links(), 1)
	assert.Equal(t, "a", s.Links()[0].Source.ID)
	assert.Equal(t, "b", s.Links()[0].Target.ID)
	assert.Len(t, s.Dropped(), 2)
}

func TestNew_DuplicateNodeIgnored(t *testing.T) {
	s := New(graph.Data{Nodes: nodes("a", "a", "b")}, Options{}, nil)
	assert.Len(t, s.Nodes(), 2)
}

func TestTick_AlphaDecaysToSettle(t *testing.T) {
	s := New(graph.Data{Nodes: nodes("a", "b")}, Options{}, nil)
	assert.Equal(t, 1.0, s.Alpha())

	s.Tick()
	assert.Less(t, s.Alpha(), 1.0)

	settle(s)
	// alphaDecay is chosen so alpha reaches alphaMin in about 300 ticks
	assert.InDelta(t, 300, s.Ticks(), 2)
}

func TestTick_AlphaTargetKeepsSimulationWarm(t *testing.T) {
	s := New(graph.Data{Nodes: nodes("a", "b")}, Options{}, nil)
	s.SetAlphaTarget(0.3)
	s.Step(1000)

	assert.False(t, s.Settled())
	assert.InDelta(t, 0.3, s.Alpha(), 0.01)
}

func TestLinkForce_ConvergesToDistance(t *testing.T) {
	data := graph.Data{
		Nodes: nodes("a", "b"),
		Links: []graph.Link{{Source: "a", Target: "b"}},
	}
	s := New(data, Options{LinkDistance: 100}, nil)
	settle(s)

	a, _ := s.Node("a")
	b, _ := s.Node("b")
	assert.InDelta(t, 100, distance(a, b), 1)
}

func TestManyBodyForce_PushesNodesApart(t *testing.T) {
	s := New(graph.Data{Nodes: nodes("a", "b")}, Options{ChargeStrength: -300}, nil)
	a, _ := s.Node("a")
	b, _ := s.Node("b")
	before := distance(a, b)

	s.Step(50)
	assert.Greater(t, distance(a, b), before)
}

func TestCollideForce_SeparatesMarkers(t *testing.T) {
	s := New(graph.Data{Nodes: nodes("a", "b", "c")}, Options{CollideRadius: 30}, nil)
	settle(s)

	ns := s.Nodes()
	for i := range ns {
		for j := i + 1; j < len(ns); j++ {
			assert.Greater(t, distance(ns[i], ns[j]), 55.0, "%s-%s", ns[i].ID, ns[j].ID)
		}
	}
}

func TestCenterForce_CentroidFollowsCenter(t *testing.T) {
	data := graph.Data{
		Nodes: nodes("a", "b", "c", "d"),
		Links: []graph.Link{{Source: "a", Target: "b"}, {Source: "c", Target: "d"}},
	}
	s := New(data, Options{ChargeStrength: -300, CenterX: 400, CenterY: 300}, nil)
	settle(s)

	cx, cy := centroid(s)
	assert.InDelta(t, 400, cx, 1)
	assert.InDelta(t, 300, cy, 1)

	s.SetCenter(512, 384)
	s.SetAlpha(0.1)
	settle(s)

	cx, cy = centroid(s)
	assert.InDelta(t, 512, cx, 1)
	assert.InDelta(t, 384, cy, 1)
}

func centroid(s *Simulation) (float64, float64) {
	var x, y float64
	for _, n := range s.Nodes() {
		x += n.X
		y += n.Y
	}
	k := float64(len(s.Nodes()))
	return x / k, y / k
}

func TestPin_HoldsNodeUntilUnpinned(t *testing.T) {
	data := graph.Data{
		Nodes: nodes("a", "b"),
		Links: []graph.Link{{Source: "a", Target: "b"}},
	}
	s := New(data, Options{ChargeStrength: -300}, nil)

	require.NoError(t, s.Pin("a", 42, 24))
	s.Step(10)

	a, _ := s.Node("a")
	assert.Equal(t, 42.0, a.X)
	assert.Equal(t, 24.0, a.Y)
	assert.Zero(t, a.VX)

	require.NoError(t, s.Unpin("a"))
	assert.False(t, a.Pinned)
	s.Step(10)
	assert.False(t, a.X == 42 && a.Y == 24)
}

func TestPin_UnknownNode(t *testing.T) {
	s := New(graph.Data{Nodes: nodes("a")}, Options{}, nil)

	err := s.Pin("zzz", 0, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeLayout))
	assert.Error(t, s.Unpin("zzz"))
}

func TestSimulation_Deterministic(t *testing.T) {
	data := graph.Data{
		Nodes: nodes("a", "b", "c", "d", "e"),
		Links: []graph.Link{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}, {Source: "a", Target: "e"}},
	}
	s1 := New(data, Options{ChargeStrength: -300}, nil)
	s2 := New(data, Options{ChargeStrength: -300}, nil)
	s1.Step(120)
	s2.Step(120)

	for i := range s1.Nodes() {
		assert.Equal(t, s1.Nodes()[i].X, s2.Nodes()[i].X)
		assert.Equal(t, s1.Nodes()[i].Y, s2.Nodes()[i].Y)
	}
}

func TestSimulation_EmptyGraphTicks(t *testing.T) {
	s := New(graph.Data{}, Options{}, nil)
	assert.NotPanics(t, func() { s.Step(5) })
	assert.Empty(t, s.Nodes())
}

func TestRunner_StopsWhenSettled(t *testing.T) {
	sched := loop.NewManual()
	s := New(graph.Data{Nodes: nodes("a", "b")}, Options{}, nil)
	r := NewRunner(s, sched, 16*time.Millisecond, nil)

	frames := 0
	r.OnTick(func() { frames++ })
	r.Start()
	assert.True(t, r.Active())

	sched.Advance(16 * time.Millisecond * 400)
	assert.False(t, r.Active())
	assert.False(t, s.Running())
	assert.InDelta(t, 300, frames, 2)
	assert.Equal(t, 0, sched.PendingTimers())

	sched.Advance(time.Second)
	assert.InDelta(t, 300, frames, 2)
}

func TestRunner_RestartRearms(t *testing.T) {
	sched := loop.NewManual()
	s := New(graph.Data{Nodes: nodes("a", "b")}, Options{}, nil)
	r := NewRunner(s, sched, 16*time.Millisecond, nil)
	r.Start()
	sched.Advance(16 * time.Millisecond * 400)
	require.False(t, r.Active())

	s.SetAlphaTarget(0.3)
	s.Restart()
	assert.True(t, r.Active())

	before := s.Ticks()
	sched.Advance(160 * time.Millisecond)
	assert.Equal(t, before+10, s.Ticks())
}

func TestRunner_StartIsIdempotent(t *testing.T) {
	sched := loop.NewManual()
	s := New(graph.Data{Nodes: nodes("a")}, Options{}, nil)
	r := NewRunner(s, sched, 16*time.Millisecond, nil)

	r.Start()
	r.Start()
	assert.Equal(t, 1, sched.PendingTimers())

	sched.Advance(16 * time.Millisecond)
	assert.Equal(t, 1, s.Ticks())
}

func TestRunner_DisposeIgnoresRestart(t *testing.T) {
	sched := loop.NewManual()
	s := New(graph.Data{Nodes: nodes("a")}, Options{}, nil)
	r := NewRunner(s, sched, 16*time.Millisecond, nil)
	r.Start()

	r.Dispose()
	s.Restart()
	assert.False(t, r.Active())
	assert.Equal(t, 0, sched.PendingTimers())
}
