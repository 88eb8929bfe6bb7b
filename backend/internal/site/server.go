// Package site is the fragment server the graph talks to: full pages for
// direct visits, bare fragments for HX requests, and the graph payloads for
// the related-posts and garden views.
package site

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/content"
	"garden-graph/backend/internal/graph"
	"garden-graph/backend/internal/navigation"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

const (
	graphStyle  = template.CSS("width: 100%; height: 100%;")
	gardenStyle = template.CSS("width: 100%; min-height: 80vh;")
)

// Server renders pages and fragments from a content source.
type Server struct {
	source   content.Source
	resolver navigation.RouteResolver
	router   *gin.Engine
	logger   *zap.Logger
}

// New builds the router. Content routes are "/<path>/page" for a post at
// "<path>.md", per resolver.
func New(source content.Source, resolver navigation.RouteResolver, log *zap.Logger) *Server {
	s := &Server{
		source:   source,
		resolver: resolver,
		logger:   logger.OrNop(log),
	}

	router := gin.New()
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", s.handleIndex)
	router.GET(constants.GraphRoute, s.handleGraph)
	router.GET(constants.GraphRoute+"/*path", s.handleGraphPath)
	router.GET(constants.GardenDispatcherRoute, s.handleGardenDispatcher)
	router.GET(constants.GardenRoute, s.handleGarden)
	router.NoRoute(s.handleContent)

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func isHXRequest(c *gin.Context) bool {
	return c.GetHeader(constants.HeaderRequest) != ""
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderPost(c, constants.DefaultPost+s.resolver.Suffix)
}

func (s *Server) handleContent(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.Status(http.StatusMethodNotAllowed)
		return
	}
	filePath, ok := s.resolver.ContentPath(c.Request.URL.Path)
	if !ok {
		s.respond(c, http.StatusNotFound, "Not found", s.fragment("missing", c.Request.URL.Path))
		return
	}
	s.renderPost(c, filePath)
}

func (s *Server) renderPost(c *gin.Context, filePath string) {
	post, err := s.source.Post(c.Request.Context(), filePath)
	if err != nil {
		var notFound *apperrors.ErrPostNotFound
		if errors.As(err, &notFound) {
			s.respond(c, http.StatusNotFound, "Not found", s.fragment("missing", filePath))
			return
		}
		s.logger.Error("Failed to fetch post", zap.String("file_path", filePath), zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to fetch post")
		return
	}

	body := s.fragment("post", postView{
		FilePath: post.FilePath,
		Topic:    post.Topic,
		Body:     template.HTML(post.Body),
	})
	s.respond(c, http.StatusOK, post.Title, body)
}

// handleGraph serves the related-posts graph for the page named by
// HX-Current-URL.
func (s *Server) handleGraph(c *gin.Context) {
	filePath := s.currentFilePath(c.GetHeader(constants.HeaderCurrentURL))
	s.renderRelated(c, filePath)
}

func (s *Server) handleGraphPath(c *gin.Context) {
	p := strings.Trim(c.Param("path"), "/")
	if p == "" {
		p = constants.DefaultPost
	}
	s.renderRelated(c, p+s.resolver.Suffix)
}

// currentFilePath maps the browser's current URL to a post path. Routes the
// resolver does not recognise are taken as the post path itself.
func (s *Server) currentFilePath(currentURL string) string {
	def := constants.DefaultPost + s.resolver.Suffix
	if currentURL == "" {
		return def
	}
	u, err := url.Parse(currentURL)
	if err != nil {
		return def
	}
	if filePath, ok := s.resolver.ContentPath(u.Path); ok {
		return filePath
	}
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return def
	}
	return p + s.resolver.Suffix
}

func (s *Server) renderRelated(c *gin.Context, filePath string) {
	data, err := s.source.RelatedGraph(c.Request.Context(), filePath)
	if err != nil {
		// An unknown page still gets a graph container, just an empty one.
		s.logger.Warn("Related graph unavailable", zap.String("file_path", filePath), zap.Error(err))
		data = graph.Data{}
	}
	s.renderGraph(c, constants.GraphContainerID, graphStyle, data)
}

func (s *Server) handleGardenDispatcher(c *gin.Context) {
	s.respond(c, http.StatusOK, "Garden", s.fragment("dispatcher", nil))
}

func (s *Server) handleGarden(c *gin.Context) {
	data, err := s.source.OverallGraph(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to build garden graph", zap.Error(err))
		data = graph.Data{}
	}
	s.renderGraph(c, constants.GardenContainerID, gardenStyle, data)
}

func (s *Server) renderGraph(c *gin.Context, id string, style template.CSS, data graph.Data) {
	nodes, edges, err := graph.Encode(data)
	if err != nil {
		s.logger.Error("Failed to encode graph", zap.String("container", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to encode graph")
		return
	}
	html := s.fragment("graph", graphView{ID: id, Style: style, Nodes: nodes, Edges: edges})
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// respond writes a bare fragment to HX requests and a full page otherwise.
func (s *Server) respond(c *gin.Context, status int, title string, fragment template.HTML) {
	out := fragment
	if !isHXRequest(c) {
		out = s.fragment("page", pageView{Site: siteName, Title: title, Content: fragment})
	}
	c.Data(status, "text/html; charset=utf-8", []byte(out))
}

func (s *Server) fragment(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Template failed", zap.String("template", name), zap.Error(err))
		return ""
	}
	return template.HTML(buf.String())
}
