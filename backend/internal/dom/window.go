package dom

import (
	"net/url"
	"strings"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/loop"
)

// Window is the browser host: one document, its history and location, and the
// document-level event target the graph components listen on.
type Window struct {
	Document *Document
	Events   *EventTarget
	History  *History
	Location *Location

	Width, Height float64

	// Transition is nil when the host has no view-transition support.
	Transition ViewTransition
}

// NewWindow wraps doc as a page loaded from href.
func NewWindow(doc *Document, href string, width, height float64) (*Window, error) {
	loc, err := NewLocation(href)
	if err != nil {
		return nil, err
	}
	return &Window{
		Document: doc,
		Events:   NewEventTarget(),
		History:  &History{location: loc},
		Location: loc,
		Width:    width,
		Height:   height,
	}, nil
}

// Resize updates the viewport size and fires the native resize event.
func (w *Window) Resize(width, height float64) {
	w.Width, w.Height = width, height
	w.Events.Dispatch(NewEvent(constants.EventResize))
}

// Origin returns scheme://host of the current location.
func (w *Window) Origin() string {
	return w.Location.Origin()
}

// HistoryEntry is one pushState call.
type HistoryEntry struct {
	State any
	URL   string
}

// History records pushState calls.
type History struct {
	entries  []HistoryEntry
	location *Location
}

// PushState appends an entry and moves the location without navigating.
func (h *History) PushState(state any, url string) {
	h.entries = append(h.entries, HistoryEntry{State: state, URL: url})
	if h.location != nil {
		h.location.replace(url)
	}
}

// Len returns the number of pushed entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of every pushed entry.
func (h *History) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

// Current returns the last pushed URL, or "" when nothing was pushed.
func (h *History) Current() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1].URL
}

// Location is the address bar.
type Location struct {
	u           *url.URL
	assignments []string
}

// NewLocation parses an absolute href.
func NewLocation(href string) (*Location, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	return &Location{u: u}, nil
}

// Href returns the full URL.
func (l *Location) Href() string {
	return l.u.String()
}

// Pathname returns the path component.
func (l *Location) Pathname() string {
	if l.u.Path == "" {
		return "/"
	}
	return l.u.Path
}

// Origin returns scheme://host.
func (l *Location) Origin() string {
	return l.u.Scheme + "://" + l.u.Host
}

// Resolve turns a route into an absolute URL on this origin.
func (l *Location) Resolve(route string) string {
	ref, err := url.Parse(route)
	if err != nil {
		return l.Origin() + "/" + strings.TrimPrefix(route, "/")
	}
	return l.u.ResolveReference(ref).String()
}

// Assign performs a full top-level navigation to route.
func (l *Location) Assign(route string) {
	l.assignments = append(l.assignments, l.Resolve(route))
	l.replace(route)
}

func (l *Location) replace(route string) {
	if u, err := url.Parse(l.Resolve(route)); err == nil {
		l.u = u
	}
}

// Assignments lists every full navigation performed.
func (l *Location) Assignments() []string {
	return append([]string(nil), l.assignments...)
}

// ViewTransition is the optional smooth-update capability. The update runs
// inside the transition; the host interpolates the before and after states.
type ViewTransition interface {
	StartViewTransition(update func())
}

// AttributeTransition marks the document root for the duration of an update
// so a stylesheet can animate it. The marker is cleared on a later loop turn.
type AttributeTransition struct {
	Document  *Document
	Scheduler loop.Scheduler
	Attribute string

	started int
}

// StartViewTransition runs update synchronously between the marker being set
// and cleared.
func (t *AttributeTransition) StartViewTransition(update func()) {
	t.started++
	root := t.Document.Root()
	attr := t.Attribute
	if attr == "" {
		attr = "data-view-transition"
	}
	if root != nil {
		root.SetAttr(attr, "active")
	}
	update()
	if root == nil {
		return
	}
	t.Scheduler.After(0, func() {
		// The update may have replaced the root.
		if r := t.Document.Root(); r != nil {
			r.RemoveAttr(attr)
		}
	})
}

// Started counts transitions run.
func (t *AttributeTransition) Started() int {
	return t.started
}
