package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-graph/backend/internal/graph"
	apperrors "garden-graph/backend/pkg/errors"
)

const testSeed = `
posts:
  - path: welcome.md
    title: Welcome
    body: "<h1>Welcome</h1>"
    links: [posts/a.md, posts/missing.md, welcome.md]
  - path: posts/a.md
    title: A
    links: [posts/b.md, welcome.md]
  - path: posts/b.md
    links: [posts/a.md, posts/a.md]
  - path: posts/c.md
    title: C
    links: [posts/b.md]
  - path: notes/alone.md
`

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "garden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o644))

	s, err := LoadSeed(path, nil)
	require.NoError(t, err)
	return s
}

func nodeIDs(d graph.Data) []string {
	out := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		out[i] = n.ID
	}
	return out
}

func TestNodeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"welcome.md", "welcome"},
		{"/posts/example.md", "posts/example"},
		{"notes/plain", "notes/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NodeID(tt.in))
		})
	}
}

func TestParseSeed_RejectsPathlessPost(t *testing.T) {
	_, err := ParseSeed([]byte("posts:\n  - title: nameless\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("posts: [unclosed"))
	assert.Error(t, err)
}

func TestLoadSeed_MissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestMemoryStore_Post(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Post(ctx, "welcome.md")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", p.Title)
	assert.Equal(t, "<h1>Welcome</h1>", p.Body)

	p, err = s.Post(ctx, "/posts/b.md")
	require.NoError(t, err)
	assert.Equal(t, "posts/b", p.Title, "title defaults to the node id")

	_, err = s.Post(ctx, "posts/zzz.md")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContent))
	var notFound *apperrors.ErrPostNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryStore_PostsSorted(t *testing.T) {
	s := newTestStore(t)

	posts, err := s.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 5)
	assert.Equal(t, "notes/alone.md", posts[0].FilePath)
	assert.Equal(t, "welcome.md", posts[4].FilePath)
}

func TestMemoryStore_RelatedGraph(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d, err := s.RelatedGraph(ctx, "posts/a.md")
	require.NoError(t, err)
	// a links to b and welcome; welcome and b link back; c is two hops out.
	assert.Equal(t, []string{"posts/a", "posts/b", "welcome"}, nodeIDs(d))
	assert.ElementsMatch(t, []graph.Link{
		{Source: "posts/a", Target: "posts/b"},
		{Source: "posts/a", Target: "welcome"},
		{Source: "posts/b", Target: "posts/a"},
		{Source: "welcome", Target: "posts/a"},
	}, d.Links)

	for _, n := range d.Nodes {
		assert.True(t, n.HasContent())
	}

	d, err = s.RelatedGraph(ctx, "notes/alone.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/alone"}, nodeIDs(d))
	assert.Empty(t, d.Links)

	_, err = s.RelatedGraph(ctx, "nowhere.md")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContent))
}

func TestMemoryStore_OverallGraphDropsUnresolvableLinks(t *testing.T) {
	s := newTestStore(t)

	d, err := s.OverallGraph(context.Background())
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 5)

	for _, l := range d.Links {
		assert.NotEqual(t, "posts/missing", l.Target)
		assert.NotEqual(t, l.Source, l.Target)
	}
	// welcome->a, a->b, a->welcome, b->a (deduped), c->b
	assert.Len(t, d.Links, 5)
}

func TestMemoryStore_Put(t *testing.T) {
	s := NewMemoryStore(nil, nil)
	s.Put(Post{FilePath: "/fresh.md", Title: "Fresh"})

	p, err := s.Post(context.Background(), "fresh.md")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", p.Title)
}
