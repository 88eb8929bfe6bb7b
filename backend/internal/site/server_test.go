package site

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/content"
	"garden-graph/backend/internal/graph"
	"garden-graph/backend/internal/navigation"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := content.NewMemoryStore([]content.Post{
		{FilePath: "welcome.md", Title: "Welcome", Body: "<h1>Hello</h1>", Links: []string{"posts/example.md"}},
		{FilePath: "posts/example.md", Title: "Example", Topic: "writing", Body: "<h1>Example</h1>", Links: []string{"posts/other.md"}},
		{FilePath: "posts/other.md", Title: "Other", Body: "<p>other</p>"},
	}, nil)
	return New(store, navigation.DefaultResolver, nil)
}

func get(t *testing.T, s *Server, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

// payload decodes the graph container in a fragment the same way the
// client-side loader does.
func payload(t *testing.T, body, id string) graph.Data {
	t.Helper()
	sel := parse(t, body).Find("#" + id)
	require.Equal(t, 1, sel.Length(), "container %s", id)
	return graph.NewLoader(nil).Load(sel)
}

func ids(d graph.Data) []string {
	out := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		out[i] = n.ID
	}
	return out
}

var hx = map[string]string{constants.HeaderRequest: "true"}

func TestHealthEndpoint(t *testing.T) {
	w := get(t, newTestServer(t), "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIndex_FullPageShell(t *testing.T) {
	w := get(t, newTestServer(t), "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	doc := parse(t, w.Body.String())
	assert.Equal(t, 1, doc.Find("#content-section h1").Length())
	section := doc.Find("#" + constants.GraphSectionID)
	require.Equal(t, 1, section.Length())
	route, _ := section.Attr("hx-get")
	trigger, _ := section.Attr("hx-trigger")
	assert.Equal(t, constants.GraphRoute, route)
	assert.Equal(t, "load", trigger)
}

func TestContent_FragmentVersusPage(t *testing.T) {
	s := newTestServer(t)

	frag := get(t, s, "/posts/example/page", hx)
	require.Equal(t, http.StatusOK, frag.Code)
	assert.NotContains(t, frag.Body.String(), "<html")
	assert.Contains(t, frag.Body.String(), "<h1>Example</h1>")
	assert.Contains(t, frag.Body.String(), `data-file-path="posts/example.md"`)

	page := get(t, s, "/posts/example/page", nil)
	require.Equal(t, http.StatusOK, page.Code)
	doc := parse(t, page.Body.String())
	assert.Equal(t, "Example · Garden", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("#content-section article h1").Length())
}

func TestContent_Missing(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/posts/nope/page", hx).Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/not-a-route", hx).Code)
}

func TestGraph_FromCurrentURL(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		currentURL string
		want       []string
	}{
		{"content route", "http://garden.local/posts/example/page", []string{"posts/example", "posts/other", "welcome"}},
		{"bare path", "http://garden.local/posts/other", []string{"posts/example", "posts/other"}},
		{"root defaults to welcome", "http://garden.local/", []string{"posts/example", "welcome"}},
		{"no header defaults to welcome", "", []string{"posts/example", "welcome"}},
		{"unknown page is empty", "http://garden.local/posts/nope/page", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{constants.HeaderRequest: "true"}
			if tt.currentURL != "" {
				headers[constants.HeaderCurrentURL] = tt.currentURL
			}
			w := get(t, s, constants.GraphRoute, headers)
			require.Equal(t, http.StatusOK, w.Code)

			d := payload(t, w.Body.String(), constants.GraphContainerID)
			assert.Equal(t, tt.want, ids(d))
		})
	}
}

func TestGraph_PathVariant(t *testing.T) {
	w := get(t, newTestServer(t), "/graph/posts/example", hx)
	require.Equal(t, http.StatusOK, w.Code)

	d := payload(t, w.Body.String(), constants.GraphContainerID)
	assert.Len(t, d.Nodes, 3)
	assert.ElementsMatch(t, []graph.Link{
		{Source: "welcome", Target: "posts/example"},
		{Source: "posts/example", Target: "posts/other"},
	}, d.Links)

	node := d.Nodes[0]
	assert.Equal(t, "posts/example.md", node.FilePath)
	assert.Equal(t, "Example", node.Label)

	style, _ := parse(t, w.Body.String()).Find("#" + constants.GraphContainerID).Attr("style")
	assert.Equal(t, "width: 100%; height: 100%;", style)
}

func TestGarden_DispatcherAndView(t *testing.T) {
	s := newTestServer(t)

	frag := get(t, s, constants.GardenDispatcherRoute, hx)
	require.Equal(t, http.StatusOK, frag.Code)
	sel := parse(t, frag.Body.String()).Find("#" + constants.GardenSectionID)
	require.Equal(t, 1, sel.Length())
	route, _ := sel.Attr("hx-get")
	assert.Equal(t, constants.GardenRoute, route)
	assert.NotContains(t, frag.Body.String(), "<html")

	page := get(t, s, constants.GardenDispatcherRoute, nil)
	assert.Equal(t, 1, parse(t, page.Body.String()).Find("#content-section #"+constants.GardenSectionID).Length())

	view := get(t, s, constants.GardenRoute, hx)
	d := payload(t, view.Body.String(), constants.GardenContainerID)
	assert.Len(t, d.Nodes, 3)
	assert.Len(t, d.Links, 2)
}
