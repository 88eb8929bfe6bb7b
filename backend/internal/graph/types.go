package graph

// ============================================================================
// Graph Payload Types
// ============================================================================

// Node is one content item as serialized on a graph container.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

// DisplayLabel falls back to the id when no label was given.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// HasContent reports whether clicking the node can navigate anywhere.
func (n Node) HasContent() bool {
	return n.FilePath != ""
}

// Link is an ordered pair of node ids. Endpoints are resolved by the layout.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Data is the parsed payload of one container.
type Data struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"edges"`
}

// Empty reports whether there is nothing to draw.
func (d Data) Empty() bool {
	return len(d.Nodes) == 0
}
