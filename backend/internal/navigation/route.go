// Package navigation turns node clicks into fragment navigations.
package navigation

import "strings"

// RouteResolver maps a node's content reference to a site route:
// "posts/example.md" becomes "/posts/example/page".
type RouteResolver struct {
	Suffix  string
	Segment string
}

// DefaultResolver strips ".md" and appends "/page".
var DefaultResolver = RouteResolver{Suffix: ".md", Segment: "page"}

// Resolve returns the route for filePath, or false when there is nothing to
// navigate to.
func (r RouteResolver) Resolve(filePath string) (string, bool) {
	p := strings.TrimSpace(filePath)
	p = strings.Trim(p, "/")
	if r.Suffix != "" {
		p = strings.TrimSuffix(p, r.Suffix)
	}
	if p == "" {
		return "", false
	}
	route := "/" + p
	if r.Segment != "" {
		route += "/" + strings.Trim(r.Segment, "/")
	}
	return route, true
}

// ContentPath is the inverse of Resolve: it recovers the content reference a
// route points at, or false when the route is not a content route.
func (r RouteResolver) ContentPath(route string) (string, bool) {
	p := strings.Trim(route, "/")
	if r.Segment != "" {
		seg := "/" + strings.Trim(r.Segment, "/")
		if !strings.HasSuffix("/"+p, seg) {
			return "", false
		}
		p = strings.TrimSuffix("/"+p, seg)
		p = strings.TrimPrefix(p, "/")
	}
	if p == "" {
		return "", false
	}
	return p + r.Suffix, true
}
