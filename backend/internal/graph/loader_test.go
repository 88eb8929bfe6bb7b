package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/dom"
)

type attrs map[string]string

func (a attrs) Attr(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

func TestLoader_Load(t *testing.T) {
	tests := []struct {
		name      string
		container attrs
		wantNodes []Node
		wantLinks []Link
		wantWarn  bool
	}{
		{
			name: "valid payload",
			container: attrs{
				constants.NodesAttribute: `[{"id":"a","label":"Alpha","file_path":"posts/a.md"},{"id":"b"}]`,
				constants.EdgesAttribute: `[{"source":"a","target":"b"}]`,
			},
			wantNodes: []Node{{ID: "a", Label: "Alpha", FilePath: "posts/a.md"}, {ID: "b"}},
			wantLinks: []Link{{Source: "a", Target: "b"}},
		},
		{
			name:      "missing attributes",
			container: attrs{},
			wantNodes: []Node{},
			wantLinks: []Link{},
		},
		{
			name: "malformed nodes keeps edges",
			container: attrs{
				constants.NodesAttribute: `[{"id":`,
				constants.EdgesAttribute: `[{"source":"a","target":"b"}]`,
			},
			wantNodes: []Node{},
			wantLinks: []Link{{Source: "a", Target: "b"}},
			wantWarn:  true,
		},
		{
			name: "wrong shape",
			container: attrs{
				constants.NodesAttribute: `{"id":"a"}`,
				constants.EdgesAttribute: `[]`,
			},
			wantNodes: []Node{},
			wantLinks: []Link{},
			wantWarn:  true,
		},
		{
			name: "null payload",
			container: attrs{
				constants.NodesAttribute: `null`,
				constants.EdgesAttribute: `null`,
			},
			wantNodes: []Node{},
			wantLinks: []Link{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			loader := NewLoader(zap.New(core))

			data := loader.Load(tt.container)
			assert.Equal(t, tt.wantNodes, data.Nodes)
			assert.Equal(t, tt.wantLinks, data.Links)
			assert.Equal(t, tt.wantWarn, logs.FilterLevelExact(zapcore.WarnLevel).Len() > 0)
		})
	}
}

func TestLoader_NilContainer(t *testing.T) {
	data := NewLoader(nil).Load(nil)
	assert.True(t, data.Empty())
	assert.NotNil(t, data.Links)
}

func TestLoader_DoesNotMutateElement(t *testing.T) {
	nodes := `[{"id":"a"}]`
	doc, err := dom.ParseDocument(`<div id="graph-container" data-nodes='` + nodes + `' data-edges='[]'></div>`)
	require.NoError(t, err)
	el := doc.GetElementByID(constants.GraphContainerID)
	before := el.InnerHTML()

	data := NewLoader(nil).Load(el)
	require.Len(t, data.Nodes, 1)

	got, _ := el.Attr(constants.NodesAttribute)
	assert.Equal(t, nodes, got)
	assert.Equal(t, before, el.InnerHTML())
}

func TestEncode_RoundTripsThroughLoader(t *testing.T) {
	in := Data{
		Nodes: []Node{{ID: "x", Label: "X", FilePath: "x.md"}},
		Links: nil,
	}
	nodes, edges, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "[]", edges)

	out := NewLoader(nil).Load(attrs{
		constants.NodesAttribute: nodes,
		constants.EdgesAttribute: edges,
	})
	assert.Equal(t, in.Nodes, out.Nodes)
	assert.Empty(t, out.Links)
}

func TestNode_DisplayLabel(t *testing.T) {
	assert.Equal(t, "id-only", Node{ID: "id-only"}.DisplayLabel())
	assert.Equal(t, "Pretty", Node{ID: "x", Label: "Pretty"}.DisplayLabel())
	assert.False(t, Node{ID: "x"}.HasContent())
	assert.True(t, Node{ID: "x", FilePath: "x.md"}.HasContent())
}
