package content

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"garden-graph/backend/internal/graph"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

// Seed is the on-disk shape of a garden.
type Seed struct {
	Posts []Post `yaml:"posts"`
}

// MemoryStore is a Source over an in-memory set of posts.
type MemoryStore struct {
	mu     sync.RWMutex
	posts  map[string]Post
	logger *zap.Logger
}

// NewMemoryStore creates a store holding posts.
func NewMemoryStore(posts []Post, log *zap.Logger) *MemoryStore {
	s := &MemoryStore{
		posts:  make(map[string]Post, len(posts)),
		logger: logger.OrNop(log),
	}
	for _, p := range posts {
		s.Put(p)
	}
	return s
}

// LoadSeed reads a YAML seed file into a new store.
func LoadSeed(path string, log *zap.Logger) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed %s: %w", path, err)
	}
	seed, err := ParseSeed(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	s := NewMemoryStore(seed.Posts, log)
	s.logger.Info("Content seed loaded",
		zap.String("path", path),
		zap.Int("posts", len(seed.Posts)),
	)
	return s, nil
}

// ParseSeed decodes seed YAML. Posts without a path are rejected.
func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, err
	}
	for i, p := range seed.Posts {
		if strings.TrimSpace(p.FilePath) == "" {
			return Seed{}, fmt.Errorf("post %d has no path", i)
		}
	}
	return seed, nil
}

// Put adds or replaces a post.
func (s *MemoryStore) Put(p Post) {
	p.FilePath = strings.TrimPrefix(p.FilePath, "/")
	if p.Title == "" {
		p.Title = NodeID(p.FilePath)
	}
	s.mu.Lock()
	s.posts[p.FilePath] = p
	s.mu.Unlock()
}

// Post returns the post at filePath.
func (s *MemoryStore) Post(_ context.Context, filePath string) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[strings.TrimPrefix(filePath, "/")]
	if !ok {
		return Post{}, apperrors.NewPostNotFound(filePath)
	}
	return p, nil
}

// Posts returns every post ordered by path.
func (s *MemoryStore) Posts(_ context.Context) ([]Post, error) {
	s.mu.RLock()
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sortPosts(out)
	return out, nil
}

// RelatedGraph returns the one-hop neighbourhood of filePath.
func (s *MemoryStore) RelatedGraph(ctx context.Context, filePath string) (graph.Data, error) {
	center, err := s.Post(ctx, filePath)
	if err != nil {
		return graph.Data{}, err
	}

	s.mu.RLock()
	related := map[string]Post{center.FilePath: center}
	for _, target := range center.Links {
		if p, ok := s.posts[target]; ok {
			related[p.FilePath] = p
		}
	}
	for _, p := range s.posts {
		for _, target := range p.Links {
			if target == center.FilePath {
				related[p.FilePath] = p
				break
			}
		}
	}
	s.mu.RUnlock()

	posts := make([]Post, 0, len(related))
	for _, p := range related {
		posts = append(posts, p)
	}
	sortPosts(posts)
	return buildGraph(posts), nil
}

// OverallGraph returns the whole garden.
func (s *MemoryStore) OverallGraph(ctx context.Context) (graph.Data, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return graph.Data{}, err
	}
	return buildGraph(posts), nil
}
