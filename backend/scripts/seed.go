package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"garden-graph/backend/internal/content"
	"garden-graph/backend/pkg/config"
	"garden-graph/backend/pkg/logger"
)

func main() {
	seedPath := flag.String("seed", "", "YAML seed to import (defaults to SEED_PATH)")
	reset := flag.Bool("reset", false, "Delete every post before importing")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if !cfg.UseNeo4j() {
		log.Fatal("NEO4J_URI is not set")
	}
	if *seedPath == "" {
		*seedPath = cfg.SeedPath
	}

	store, err := content.LoadSeed(*seedPath, log)
	if err != nil {
		log.Fatal("Failed to load seed", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := content.NewNeo4jRepository(driver, log)

	if *reset {
		log.Warn("Deleting existing posts...")
		if err := deletePosts(ctx, driver); err != nil {
			log.Fatal("Failed to delete posts", zap.Error(err))
		}
	}

	log.Info("Creating constraints...")
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Warn("Failed to create constraint (may already exist)", zap.Error(err))
	}

	posts, err := store.Posts(ctx)
	if err != nil {
		log.Fatal("Failed to read seed posts", zap.Error(err))
	}
	if err := repo.Import(ctx, posts); err != nil {
		log.Fatal("Failed to import posts", zap.Error(err))
	}

	log.Info("Database seeding completed successfully",
		zap.String("seed", *seedPath),
		zap.Int("posts", len(posts)),
	)
}

func deletePosts(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, "MATCH (p:Post) DETACH DELETE p", nil)
	return err
}
