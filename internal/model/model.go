package model

import (
	"html/template"
	"time"
)

// PostFile is one markdown source found in the content directory.
type PostFile struct {
	Path    string
	Name    string
	ModTime time.Time
}

// PostEntry is a titled link on the index page.
type PostEntry struct {
	Title string
	Slug  string
	Href  string
}

// PageHeader is the data shared by every page's <head>.
type PageHeader struct {
	Title   string
	WithCSS bool
}

// IndexPage is the view model for the post listing.
type IndexPage struct {
	Header  PageHeader
	Entries []PostEntry
}

// PostPage is the view model for a single rendered post.
type PostPage struct {
	Header  PageHeader
	Content template.HTML
}
