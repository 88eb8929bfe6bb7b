package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/loop"
	apperrors "garden-graph/backend/pkg/errors"
)

const testPage = `<!DOCTYPE html><html><body>
<div id="content-section"><p>welcome</p></div>
<div id="graph-section"><div id="graph-container" data-nodes='[{"id":"a"}]' data-edges='[]'></div></div>
</body></html>`

func newTestWindow(t *testing.T) *Window {
	t.Helper()
	doc, err := ParseDocument(testPage)
	require.NoError(t, err)
	w, err := NewWindow(doc, "http://garden.local/posts/welcome/page", 800, 600)
	require.NoError(t, err)
	return w
}

func TestEventTarget_AddRemoveDispatch(t *testing.T) {
	target := NewEventTarget()
	calls := 0

	id := target.AddEventListener("ping", func(*Event) { calls++ })
	target.AddEventListener("pong", func(*Event) { calls += 10 })
	assert.Equal(t, 2, target.ListenerCount())

	target.Dispatch(NewEvent("ping"))
	assert.Equal(t, 1, calls)

	assert.True(t, target.RemoveEventListener(id))
	assert.False(t, target.RemoveEventListener(id))

	target.Dispatch(NewEvent("ping"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, target.ListenerCountFor("ping"))
	assert.Equal(t, 1, target.ListenerCountFor("pong"))
}

func TestEventTarget_ListenerRemovedDuringDispatchStillRuns(t *testing.T) {
	target := NewEventTarget()
	var second ListenerID
	ran := false

	target.AddEventListener("x", func(*Event) { target.RemoveEventListener(second) })
	second = target.AddEventListener("x", func(*Event) { ran = true })

	target.Dispatch(NewEvent("x"))
	assert.True(t, ran)
	assert.Equal(t, 1, target.ListenerCount())
}

func TestSubscriptions_CloseDetachesEverything(t *testing.T) {
	a, b := NewEventTarget(), NewEventTarget()
	var subs Subscriptions

	subs.Listen(a, "one", func(*Event) {})
	subs.Listen(a, "two", func(*Event) {})
	subs.Listen(b, "one", func(*Event) {})
	assert.Equal(t, 3, subs.Len())

	subs.Close()
	assert.Equal(t, 0, a.ListenerCount())
	assert.Equal(t, 0, b.ListenerCount())

	subs.Listen(a, "late", func(*Event) {})
	assert.Equal(t, 0, a.ListenerCount())
}

func TestEvent_Detail(t *testing.T) {
	e := NewCustomEvent(constants.EventAfterSettle, map[string]string{constants.DetailTarget: "graph-section"})
	assert.Equal(t, "graph-section", e.DetailValue(constants.DetailTarget))
	assert.Equal(t, "", NewEvent("x").DetailValue(constants.DetailTarget))

	assert.False(t, e.PropagationStopped())
	e.StopPropagation()
	assert.True(t, e.PropagationStopped())
}

func TestDocument_GetElementAndAttributes(t *testing.T) {
	w := newTestWindow(t)

	el := w.Document.GetElementByID("graph-container")
	require.NotNil(t, el)
	assert.Equal(t, "graph-container", el.ID())

	nodes, ok := el.Attr(constants.NodesAttribute)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, nodes)

	assert.Nil(t, w.Document.GetElementByID("missing"))
}

func TestDocument_SwapInnerHTML(t *testing.T) {
	w := newTestWindow(t)
	old := w.Document.GetElementByID("graph-container")

	err := w.Document.Swap("graph-section", `<div id="graph-container" data-nodes="[]"></div>`, SwapInnerHTML)
	require.NoError(t, err)

	assert.False(t, old.Connected())
	fresh := w.Document.GetElementByID("graph-container")
	require.NotNil(t, fresh)
	assert.True(t, fresh.Connected())
	assert.Equal(t, 1, w.Document.Count("#graph-container"))
}

func TestDocument_SwapOuterHTML(t *testing.T) {
	w := newTestWindow(t)

	err := w.Document.Swap("content-section", `<div id="content-section"><h1>next</h1></div>`, SwapOuterHTML)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Document.Count("#content-section h1"))
}

func TestDocument_SwapMissingTarget(t *testing.T) {
	w := newTestWindow(t)

	err := w.Document.Swap("nowhere", "<p></p>", SwapInnerHTML)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeTransport))
}

func TestElement_InnerHTMLRoundTrip(t *testing.T) {
	w := newTestWindow(t)
	el := w.Document.GetElementByID("content-section")

	el.SetInnerHTML("<span>x</span>")
	assert.Equal(t, "<span>x</span>", el.InnerHTML())
	assert.Equal(t, 1, el.ChildCount())

	el.Empty()
	assert.Equal(t, 0, el.ChildCount())
}

func TestHistory_PushStateMovesLocation(t *testing.T) {
	w := newTestWindow(t)

	assert.Equal(t, "", w.History.Current())
	w.History.PushState(nil, "/posts/example/page")

	assert.Equal(t, 1, w.History.Len())
	assert.Equal(t, "/posts/example/page", w.History.Current())
	assert.Equal(t, "/posts/example/page", w.Location.Pathname())
	assert.Equal(t, "http://garden.local", w.Origin())
	assert.Empty(t, w.Location.Assignments())
}

func TestLocation_Assign(t *testing.T) {
	w := newTestWindow(t)

	w.Location.Assign("/posts/other/page")
	assert.Equal(t, []string{"http://garden.local/posts/other/page"}, w.Location.Assignments())
	assert.Equal(t, "http://garden.local/posts/other/page", w.Location.Href())
}

func TestWindow_ResizeDispatches(t *testing.T) {
	w := newTestWindow(t)
	fired := 0
	w.Events.AddEventListener(constants.EventResize, func(*Event) { fired++ })

	w.Resize(1024, 768)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1024.0, w.Width)
	assert.Equal(t, 768.0, w.Height)
}

func TestAttributeTransition(t *testing.T) {
	w := newTestWindow(t)
	sched := loop.NewManual()
	tr := &AttributeTransition{Document: w.Document, Scheduler: sched}

	var during string
	tr.StartViewTransition(func() {
		during, _ = w.Document.Root().Attr("data-view-transition")
	})
	assert.Equal(t, "active", during)
	assert.Equal(t, 1, tr.Started())

	sched.Advance(0)
	_, still := w.Document.Root().Attr("data-view-transition")
	assert.False(t, still)
}

func TestDocument_Query(t *testing.T) {
	w := newTestWindow(t)

	els := w.Document.Query("div[id]")
	require.Len(t, els, 3)
	assert.Equal(t, []string{"content-section", "graph-section", "graph-container"},
		[]string{els[0].ID(), els[1].ID(), els[2].ID()})
	assert.Empty(t, w.Document.Query("section"))
}

func TestElement_ClientSize(t *testing.T) {
	doc, err := ParseDocument(`<html><body>
<div id="attrs" data-width="320" data-height="240" style="width: 900px"></div>
<div id="pixels" style="width: 500px; height: 300px;"></div>
<div id="percent" style="width: 100%; height: 50%;"></div>
<div id="mixed" data-width="bogus" style="height: 120px"></div>
<div id="bare"></div>
</body></html>`)
	require.NoError(t, err)

	tests := []struct {
		id   string
		w, h float64
	}{
		{"attrs", 320, 240},
		{"pixels", 500, 300},
		{"percent", 800, 300},
		{"mixed", 800, 120},
		{"bare", 800, 600},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			el := doc.GetElementByID(tt.id)
			require.NotNil(t, el)
			w, h := el.ClientSize(800, 600)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}
