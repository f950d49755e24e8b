// Package blog ties the content pipeline together into the index and post
// flows served for each request.
package blog

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/Borgerr/blogthing/internal/config"
	"github.com/Borgerr/blogthing/internal/content"
	"github.com/Borgerr/blogthing/internal/logger"
	"github.com/Borgerr/blogthing/internal/model"
	"github.com/Borgerr/blogthing/internal/render"
)

// Outcome is what a handler hands back to the dispatcher.
type Outcome struct {
	Status int
	Body   []byte
}

// Stats receives per-page counters. *metrics.Metrics satisfies it.
type Stats interface {
	EntryDropped(reason string)
	PageServed(page string, status int)
}

type nopStats struct{}

func (nopStats) EntryDropped(string)    {}
func (nopStats) PageServed(string, int) {}

// Service renders pages straight from the content directory. It holds no
// mutable state, so one Service is shared by all requests.
type Service struct {
	cfg      config.Config
	log      *logger.Logger
	stats    Stats
	renderer render.Renderer
}

// NewService builds a Service. A nil stats disables counting.
func NewService(cfg config.Config, log *logger.Logger, stats Stats) *Service {
	if stats == nil {
		stats = nopStats{}
	}
	return &Service{
		cfg:      cfg,
		log:      log.WithComponent("blog"),
		stats:    stats,
		renderer: render.Renderer{SiteTitle: cfg.SiteTitle, PostTitle: cfg.PostPageTitle(), WithCSS: cfg.WithCSS},
	}
}

// Entries scans, sorts and titles the posts. Posts without a title are left
// out.
func (s *Service) Entries() ([]model.PostEntry, error) {
	files, err := content.Scan(s.cfg.ContentDir)
	if err != nil {
		return nil, err
	}
	content.SortByFreshness(files)

	entries := make([]model.PostEntry, 0, len(files))
	for _, f := range files {
		res := content.ExtractTitle(f.Path)
		if !res.OK() {
			s.log.Debugw("Dropping index entry", "file", f.Name, "reason", res.Reason.String(), "error", res.Err)
			s.stats.EntryDropped(res.Reason.String())
			continue
		}
		slug := content.Slug(f.Name)
		entries = append(entries, model.PostEntry{
			Title: res.Title,
			Slug:  slug,
			Href:  s.href(slug),
		})
	}
	return entries, nil
}

// href links an entry to its post. Relative links start with "./" so a
// colon in the file name is never read as a URL scheme.
func (s *Service) href(slug string) string {
	escaped := url.PathEscape(slug)
	if s.cfg.AbsoluteLinks {
		if base := s.cfg.BaseURL(); base != "" {
			return base + "/" + escaped
		}
	}
	return "./" + escaped
}

// IndexPage renders the listing of every titled post.
func (s *Service) IndexPage() ([]byte, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	return s.renderer.Index(entries)
}

// PostPage renders the post requested as segment. Resolution failures wrap
// content.ErrNotFound.
func (s *Service) PostPage(segment string) ([]byte, error) {
	source, err := content.Resolve(s.cfg.ContentDir, segment)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", source, err)
	}
	fragment, err := render.Markdown(src)
	if err != nil {
		return nil, err
	}
	return s.renderer.Post(fragment)
}

// Index is the outcome for GET /.
func (s *Service) Index() Outcome {
	page, err := s.IndexPage()
	if err != nil {
		s.log.Errorw("Failed to render index", "error", err)
		return s.done("index", internalError())
	}
	return s.done("index", Outcome{Status: http.StatusOK, Body: page})
}

// Post is the outcome for GET /{segment}.
func (s *Service) Post(segment string) Outcome {
	page, err := s.PostPage(segment)
	switch {
	case errors.Is(err, content.ErrNotFound):
		s.log.Debugw("Post not found", "segment", segment, "reason", err)
		return s.done("post", NotFound())
	case err != nil:
		s.log.Errorw("Failed to render post", "segment", segment, "error", err)
		return s.done("post", internalError())
	}
	return s.done("post", Outcome{Status: http.StatusOK, Body: page})
}

func (s *Service) done(page string, out Outcome) Outcome {
	s.stats.PageServed(page, out.Status)
	return out
}

// NotFound is the placeholder 404 outcome.
func NotFound() Outcome {
	return Outcome{Status: http.StatusNotFound, Body: []byte(render.NotFoundBody)}
}

func internalError() Outcome {
	return Outcome{
		Status: http.StatusInternalServerError,
		Body:   []byte(http.StatusText(http.StatusInternalServerError)),
	}
}
