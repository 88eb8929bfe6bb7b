package site

import "html/template"

// siteName titles every full page.
const siteName = "Garden"

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · {{.Site}}</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
</head>
<body>
<main>
<div id="content-section">{{.Content}}</div>
<aside>
<div id="graph-section" style="width: 100%; height: 24rem;"
 hx-get="/graph" hx-target="#graph-section" hx-trigger="load" hx-swap="innerHTML"></div>
</aside>
</main>
</body>
</html>`

const postTemplate = `<article class="post" data-file-path="{{.FilePath}}">
{{if .Topic}}<p class="topic">{{.Topic}}</p>{{end}}
{{.Body}}
</article>`

const missingTemplate = `<article class="post missing"><h1>Not found</h1><p>No post at {{.}}.</p></article>`

const graphTemplate = `<div id="{{.ID}}" style="{{.Style}}" data-nodes="{{.Nodes}}" data-edges="{{.Edges}}"></div>`

const dispatcherTemplate = `<div id="garden-view-section" style="width: 100%; min-height: 90vh;"
 hx-get="/garden-view" hx-target="#garden-view-section" hx-trigger="load" hx-swap="innerHTML"></div>`

var templates = template.Must(template.New("page").Parse(pageTemplate))

func init() {
	template.Must(templates.New("post").Parse(postTemplate))
	template.Must(templates.New("missing").Parse(missingTemplate))
	template.Must(templates.New("graph").Parse(graphTemplate))
	template.Must(templates.New("dispatcher").Parse(dispatcherTemplate))
}

type pageView struct {
	Site    string
	Title   string
	Content template.HTML
}

type postView struct {
	FilePath string
	Topic    string
	Body     template.HTML
}

type graphView struct {
	ID    string
	Style template.CSS
	Nodes string
	Edges string
}
