package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"garden-graph/backend/internal/content"
	"garden-graph/backend/internal/navigation"
	"garden-graph/backend/internal/site"
	"garden-graph/backend/pkg/config"
	"garden-graph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting garden server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open content source", zap.Error(err))
	}
	defer closeSource()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	resolver := navigation.RouteResolver{Suffix: cfg.Graph.ContentSuffix, Segment: cfg.Graph.RouteSegment}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           site.New(source, resolver, log.With(zap.String("component", "site"))).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited")
}

// openSource connects to Neo4j when configured and falls back to the YAML
// seed otherwise.
func openSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (content.Source, func(), error) {
	if !cfg.UseNeo4j() {
		store, err := content.LoadSeed(cfg.SeedPath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	repo := content.NewNeo4jRepository(driver, log.With(zap.String("component", "content")))
	log.Info("Serving content from Neo4j", zap.String("uri", cfg.Neo4jURI))
	return repo, func() { _ = repo.Close(context.Background()) }, nil
}
