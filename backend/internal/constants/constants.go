package constants

// Page regions
const (
	// ContentSectionID is the region node clicks swap post fragments into
	ContentSectionID = "content-section"
	// GraphSectionID wraps the related-posts graph fragment
	GraphSectionID = "graph-section"
	// GraphContainerID carries the related-posts payload attributes
	GraphContainerID = "graph-container"
	// GardenSectionID wraps the overall garden graph fragment
	GardenSectionID = "garden-view-section"
	// GardenContainerID carries the overall garden payload attributes
	GardenContainerID = "garden-view-content"
)

// Payload attributes set by the server on a graph container
const (
	NodesAttribute = "data-nodes"
	EdgesAttribute = "data-edges"
)

// DOM signals
const (
	// EventAfterSettle is fired by the fragment transport once a swap has settled.
	// Its detail carries the swapped target id under DetailTarget.
	EventAfterSettle = "htmx:afterSettle"
	// EventContentUpdated is fired whenever the content section changed
	EventContentUpdated = "contentUpdated"
	// EventGraphUpdate asks the graph section to refresh for the current page
	EventGraphUpdate = "graphUpdate"
	// EventResize is the native viewport resize
	EventResize = "resize"

	DetailTarget = "target"
)

// Pointer events routed through the render surface
const (
	EventPointerDown = "pointerdown"
	EventPointerMove = "pointermove"
	EventPointerUp   = "pointerup"
	EventClick       = "click"
	EventWheel       = "wheel"
	EventMouseOver   = "mouseover"
	EventMouseOut    = "mouseout"
)

// Fragment request headers
const (
	HeaderRequest    = "HX-Request"
	HeaderTarget     = "HX-Target"
	HeaderCurrentURL = "HX-Current-URL"
)

// Routes served by the site
const (
	GraphRoute            = "/graph"
	GardenDispatcherRoute = "/garden-view-dispatcher"
	GardenRoute           = "/garden-view"
	DefaultPost           = "welcome"
)

// Drag constants
const (
	// DragAlphaTarget keeps the simulation warm while a node is held
	DragAlphaTarget = 0.3
	// ClickSlop is the pointer travel (px) above which a press counts as a drag
	ClickSlop = 3.0
)

// ResizeReheatAlpha is the energy given back to a settled layout after a resize
const ResizeReheatAlpha = 0.1
