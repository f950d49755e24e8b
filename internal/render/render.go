// Package render turns post listings and markdown sources into HTML pages.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/Borgerr/blogthing/internal/model"
)

// NotFoundBody is the literal body of every 404 response.
const NotFoundBody = "Guh!"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// CommonMark only; no extensions are enabled.
var md = goldmark.New()

// Markdown converts src to an HTML fragment.
func Markdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Renderer composes full pages. Every page starts with the same header
// carrying the site title, or PostTitle on post pages.
type Renderer struct {
	SiteTitle string
	PostTitle string
	WithCSS   bool
}

func (r Renderer) header(title string) model.PageHeader {
	return model.PageHeader{Title: title, WithCSS: r.WithCSS}
}

// Index renders the post listing.
func (r Renderer) Index(entries []model.PostEntry) ([]byte, error) {
	return execute("index", model.IndexPage{Header: r.header(r.SiteTitle), Entries: entries})
}

// Post wraps an already converted fragment in a page. An empty PostTitle
// falls back to SiteTitle.
func (r Renderer) Post(content template.HTML) ([]byte, error) {
	title := r.PostTitle
	if title == "" {
		title = r.SiteTitle
	}
	return execute("post", model.PostPage{Header: r.header(title), Content: content})
}

func execute(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", name, err)
	}
	return buf.Bytes(), nil
}
