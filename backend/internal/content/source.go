// Package content serves the garden's posts and the link graph between them,
// either from a YAML seed held in memory or from Neo4j.
package content

import (
	"context"
	"sort"
	"strings"

	"garden-graph/backend/internal/graph"
)

// Post is one page of the garden. FilePath is its identity, e.g.
// "posts/example.md".
type Post struct {
	FilePath string   `yaml:"path"`
	Title    string   `yaml:"title"`
	Topic    string   `yaml:"topic,omitempty"`
	Body     string   `yaml:"body"`
	Links    []string `yaml:"links,omitempty"`
}

// Source is anything that can answer post and graph queries.
type Source interface {
	Post(ctx context.Context, filePath string) (Post, error)
	Posts(ctx context.Context) ([]Post, error)
	// RelatedGraph is the post, every post it links to or is linked from,
	// and the links among them.
	RelatedGraph(ctx context.Context, filePath string) (graph.Data, error)
	// OverallGraph is every post and every resolvable link.
	OverallGraph(ctx context.Context) (graph.Data, error)
}

// NodeID derives a graph node id from a post path.
func NodeID(filePath string) string {
	return strings.TrimSuffix(strings.TrimPrefix(filePath, "/"), ".md")
}

func (p Post) node() graph.Node {
	return graph.Node{ID: NodeID(p.FilePath), Label: p.Title, FilePath: p.FilePath}
}

// buildGraph projects posts into graph data. Links to posts outside the set
// are left out, as are self links and repeats.
func buildGraph(posts []Post) graph.Data {
	data := graph.Data{Nodes: make([]graph.Node, 0, len(posts)), Links: []graph.Link{}}
	present := make(map[string]bool, len(posts))
	for _, p := range posts {
		present[p.FilePath] = true
		data.Nodes = append(data.Nodes, p.node())
	}

	seen := make(map[graph.Link]bool)
	for _, p := range posts {
		for _, target := range p.Links {
			if !present[target] || target == p.FilePath {
				continue
			}
			l := graph.Link{Source: NodeID(p.FilePath), Target: NodeID(target)}
			if seen[l] {
				continue
			}
			seen[l] = true
			data.Links = append(data.Links, l)
		}
	}
	return data
}

func sortPosts(posts []Post) {
	sort.Slice(posts, func(i, j int) bool { return posts[i].FilePath < posts[j].FilePath })
}
