package dom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	apperrors "garden-graph/backend/pkg/errors"
)

// SwapMode selects how a fragment replaces its target.
type SwapMode string

const (
	SwapInnerHTML SwapMode = "innerHTML"
	SwapOuterHTML SwapMode = "outerHTML"
)

// Document is the page tree, backed by goquery.
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses a full HTML page.
func ParseDocument(page string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// GetElementByID returns the element with the given id, or nil.
func (d *Document) GetElementByID(id string) *Element {
	sel := d.doc.Find("#" + cssEscape(id)).First()
	if sel.Length() == 0 {
		return nil
	}
	return &Element{sel: sel}
}

// Swap replaces the target's content (or the target itself) with fragment.
func (d *Document) Swap(targetID, fragment string, mode SwapMode) error {
	el := d.GetElementByID(targetID)
	if el == nil {
		return apperrors.NewSwapTargetNotFound(targetID)
	}
	switch mode {
	case SwapOuterHTML:
		el.sel.ReplaceWithHtml(fragment)
	default:
		el.sel.SetHtml(fragment)
	}
	return nil
}

// Find runs a CSS selector over the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Query returns every element matching selector in document order.
func (d *Document) Query(selector string) []*Element {
	var out []*Element
	d.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &Element{sel: sel})
	})
	return out
}

// Count returns how many elements match selector.
func (d *Document) Count(selector string) int {
	return d.doc.Find(selector).Length()
}

// HTML serializes the document.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Root returns the <html> element.
func (d *Document) Root() *Element {
	sel := d.doc.Find("html").First()
	if sel.Length() == 0 {
		return nil
	}
	return &Element{sel: sel}
}

// Element wraps one node of the document.
type Element struct {
	sel *goquery.Selection
}

// ID returns the element id attribute.
func (e *Element) ID() string {
	id, _ := e.sel.Attr("id")
	return id
}

// Attr reads an attribute without modifying it.
func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

// SetAttr writes an attribute.
func (e *Element) SetAttr(name, value string) {
	e.sel.SetAttr(name, value)
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	e.sel.RemoveAttr(name)
}

// InnerHTML serializes the element's children.
func (e *Element) InnerHTML() string {
	h, _ := e.sel.Html()
	return h
}

// SetInnerHTML replaces the element's children.
func (e *Element) SetInnerHTML(fragment string) {
	e.sel.SetHtml(fragment)
}

// Empty removes every child.
func (e *Element) Empty() {
	e.sel.Empty()
}

// Find runs a CSS selector under this element.
func (e *Element) Find(selector string) *goquery.Selection {
	return e.sel.Find(selector)
}

// ChildCount returns the number of element children.
func (e *Element) ChildCount() int {
	return e.sel.Children().Length()
}

// Connected reports whether the element is still attached to a document, i.e.
// it has not been swapped out by a fragment.
func (e *Element) Connected() bool {
	if e.sel.Length() == 0 {
		return false
	}
	n := e.sel.Get(0)
	for n.Parent != nil {
		n = n.Parent
	}
	return n.Type == html.DocumentNode
}

// ClientSize is the element's drawing size. Each axis comes from
// data-width/data-height, then the inline style's width/height in px or %,
// and otherwise the given viewport size. Percentages resolve against the
// viewport since there is no layout pass.
func (e *Element) ClientSize(viewportW, viewportH float64) (float64, float64) {
	style := parseStyle(e.sel.AttrOr("style", ""))
	return e.axis("data-width", style["width"], viewportW),
		e.axis("data-height", style["height"], viewportH)
}

func (e *Element) axis(attr, styleValue string, viewport float64) float64 {
	if v, ok := e.Attr(attr); ok {
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && n > 0 {
			return n
		}
	}
	if n, ok := cssLength(styleValue, viewport); ok {
		return n
	}
	return viewport
}

func parseStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return out
}

func cssLength(v string, viewport float64) (float64, bool) {
	scale := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "%"):
		v = strings.TrimSuffix(v, "%")
		scale = viewport / 100
	default:
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n * scale, true
}

func cssEscape(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
