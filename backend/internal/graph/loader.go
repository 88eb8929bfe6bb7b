package graph

import (
	"encoding/json"

	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/dom"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

// AttributeSource is the read side of a container element.
type AttributeSource interface {
	Attr(name string) (string, bool)
}

var _ AttributeSource = (*dom.Element)(nil)

// Loader parses the node and edge attributes of a graph container.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(log *zap.Logger) *Loader {
	return &Loader{logger: logger.OrNop(log)}
}

// Load reads both payloads. A missing or malformed attribute yields an empty
// set for that attribute and a diagnostic; Load itself never fails. The
// container is only read.
func (l *Loader) Load(container AttributeSource) Data {
	if container == nil {
		l.logger.Warn("No graph container to load from")
		return Data{Nodes: []Node{}, Links: []Link{}}
	}

	nodes := decodeAttr[Node](l, container, constants.NodesAttribute)
	links := decodeAttr[Link](l, container, constants.EdgesAttribute)

	l.logger.Debug("Graph payload loaded",
		zap.Int("nodes", len(nodes)),
		zap.Int("links", len(links)),
	)
	return Data{Nodes: nodes, Links: links}
}

func decodeAttr[T any](l *Loader, container AttributeSource, attr string) []T {
	raw, ok := container.Attr(attr)
	if !ok || raw == "" {
		l.logger.Debug("Graph attribute missing, treating as empty", zap.String("attribute", attr))
		return []T{}
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		l.logger.Warn("Graph attribute malformed, treating as empty",
			zap.Error(apperrors.NewMalformedPayload(attr, err)),
		)
		return []T{}
	}
	if out == nil {
		// "null"
		return []T{}
	}
	return out
}

// Encode serializes data into the two attribute values a container carries.
func Encode(data Data) (nodes, edges string, err error) {
	if data.Nodes == nil {
		data.Nodes = []Node{}
	}
	if data.Links == nil {
		data.Links = []Link{}
	}
	n, err := json.Marshal(data.Nodes)
	if err != nil {
		return "", "", err
	}
	e, err := json.Marshal(data.Links)
	if err != nil {
		return "", "", err
	}
	return string(n), string(e), nil
}
