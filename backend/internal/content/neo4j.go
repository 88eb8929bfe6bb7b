package content

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"garden-graph/backend/internal/graph"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

// Neo4jRepository is a Source backed by (:Post)-[:LINKS_TO]->(:Post).
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jRepository creates a repository on an open driver.
func NewNeo4jRepository(driver neo4j.DriverWithContext, log *zap.Logger) *Neo4jRepository {
	return &Neo4jRepository{
		driver: driver,
		logger: logger.OrNop(log),
	}
}

// Close closes the Neo4j driver connection
func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// EnsureSchema creates the unique constraint on post paths.
func (r *Neo4jRepository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `CREATE CONSTRAINT post_path IF NOT EXISTS FOR (p:Post) REQUIRE p.path IS UNIQUE`
	if _, err := session.Run(ctx, query, nil); err != nil {
		return apperrors.NewContentQueryFailed("ensure_schema", err)
	}
	return nil
}

// Import merges posts and their links. Links to posts that do not exist yet
// are created once the target is imported.
func (r *Neo4jRepository) Import(ctx context.Context, posts []Post) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	rows := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		links := p.Links
		if links == nil {
			links = []string{}
		}
		rows = append(rows, map[string]interface{}{
			"path":  p.FilePath,
			"title": p.Title,
			"topic": p.Topic,
			"body":  p.Body,
			"links": links,
		})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		merge := `
			UNWIND $posts AS post
			MERGE (p:Post {path: post.path})
			SET p.title = post.title,
			    p.topic = post.topic,
			    p.body = post.body,
			    p.updated_at = datetime()
		`
		if _, err := tx.Run(ctx, merge, map[string]interface{}{"posts": rows}); err != nil {
			return nil, err
		}

		link := `
			UNWIND $posts AS post
			MATCH (p:Post {path: post.path})
			UNWIND post.links AS target
			MATCH (t:Post {path: target})
			WHERE t <> p
			MERGE (p)-[:LINKS_TO]->(t)
		`
		if _, err := tx.Run(ctx, link, map[string]interface{}{"posts": rows}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return apperrors.NewContentQueryFailed("import", err)
	}

	r.logger.Info("Posts imported", zap.Int("posts", len(posts)))
	return nil
}

// Post returns the post at filePath with its outgoing links.
func (r *Neo4jRepository) Post(ctx context.Context, filePath string) (Post, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (p:Post {path: $path})
		OPTIONAL MATCH (p)-[:LINKS_TO]->(t:Post)
		RETURN
			p.path as path,
			p.title as title,
			p.topic as topic,
			p.body as body,
			collect(t.path) as links
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"path": filePath,
	})
	if err != nil {
		return Post{}, apperrors.NewContentQueryFailed("post", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return Post{}, apperrors.NewContentQueryFailed("post", err)
		}
		return Post{}, apperrors.NewPostNotFound(filePath)
	}
	return postFromRecord(result.Record()), nil
}

// Posts returns every post ordered by path.
func (r *Neo4jRepository) Posts(ctx context.Context) ([]Post, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (p:Post)
		OPTIONAL MATCH (p)-[:LINKS_TO]->(t:Post)
		WITH p, collect(t.path) as links
		RETURN
			p.path as path,
			p.title as title,
			p.topic as topic,
			p.body as body,
			links
		ORDER BY path
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewContentQueryFailed("posts", err)
	}

	var posts []Post
	for result.Next(ctx) {
		posts = append(posts, postFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewContentQueryFailed("posts", err)
	}
	return posts, nil
}

// RelatedGraph returns the one-hop neighbourhood of filePath.
func (r *Neo4jRepository) RelatedGraph(ctx context.Context, filePath string) (graph.Data, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (c:Post {path: $path})
		OPTIONAL MATCH (c)-[:LINKS_TO]-(n:Post)
		WITH c, collect(DISTINCT n) as neighbours
		WITH [c] + neighbours as related
		UNWIND related as p
		OPTIONAL MATCH (p)-[:LINKS_TO]->(t:Post)
		WHERE t IN related
		RETURN
			p.path as path,
			p.title as title,
			p.topic as topic,
			collect(DISTINCT t.path) as links
		ORDER BY path
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"path": filePath,
	})
	if err != nil {
		return graph.Data{}, apperrors.NewContentQueryFailed("related_graph", err)
	}

	var posts []Post
	for result.Next(ctx) {
		posts = append(posts, postFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return graph.Data{}, apperrors.NewContentQueryFailed("related_graph", err)
	}
	if len(posts) == 0 {
		return graph.Data{}, apperrors.NewPostNotFound(filePath)
	}
	return buildGraph(posts), nil
}

// OverallGraph returns the whole garden.
func (r *Neo4jRepository) OverallGraph(ctx context.Context) (graph.Data, error) {
	posts, err := r.Posts(ctx)
	if err != nil {
		return graph.Data{}, err
	}
	return buildGraph(posts), nil
}

func postFromRecord(record *neo4j.Record) Post {
	path := getString(record, "path", "")
	return Post{
		FilePath: path,
		Title:    getString(record, "title", NodeID(path)),
		Topic:    getString(record, "topic", ""),
		Body:     getString(record, "body", ""),
		Links:    getStringSlice(record, "links"),
	}
}

// Helper functions

func getString(record *neo4j.Record, key string, defaultValue string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok && str != "" {
		return str
	}
	return defaultValue
}

func getStringSlice(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}
