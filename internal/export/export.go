// Package export renders every blog page to a directory of static files.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Borgerr/blogthing/internal/blog"
	"github.com/Borgerr/blogthing/internal/config"
	"github.com/Borgerr/blogthing/internal/content"
	"github.com/Borgerr/blogthing/internal/logger"
)

const (
	indexFile      = "index.html"
	stylesheetFile = "style.css"
)

// ErrIndexCollision is returned when a post would be written over the index.
var ErrIndexCollision = errors.New("post collides with the index page")

// Exporter writes the index, each post and the optional stylesheet to
// cfg.OutputDir.
type Exporter struct {
	cfg config.Config
	svc *blog.Service
	log *logger.Logger
}

func New(cfg config.Config, svc *blog.Service, log *logger.Logger) *Exporter {
	return &Exporter{cfg: cfg, svc: svc, log: log.WithComponent("export")}
}

// Build cleans the output directory and renders the whole site into it.
// It returns the number of post pages written.
func (x *Exporter) Build(ctx context.Context) (int, error) {
	outputDir := x.cfg.OutputDir
	if err := x.checkDirs(); err != nil {
		return 0, err
	}

	entries, err := x.svc.Entries()
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.Slug == indexFile {
			src := filepath.Join(x.cfg.ContentDir, "index"+content.SourceExt)
			return 0, fmt.Errorf("'%s' would overwrite %s: %w", src, indexFile, ErrIndexCollision)
		}
	}

	x.log.Infow("Cleaning output directory", "dir", outputDir)
	if err := os.RemoveAll(outputDir); err != nil {
		return 0, fmt.Errorf("failed to remove output directory '%s': %w", outputDir, err)
	}
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return 0, fmt.Errorf("failed to create output directory '%s': %w", outputDir, err)
	}

	index, err := x.svc.IndexPage()
	if err != nil {
		return 0, fmt.Errorf("failed to render index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, indexFile), index, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write index: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, entry := range entries {
		slug := entry.Slug
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := x.svc.PostPage(slug)
			if err != nil {
				return fmt.Errorf("failed to render '%s': %w", slug, err)
			}
			if err := os.WriteFile(filepath.Join(outputDir, slug), page, 0o644); err != nil {
				return fmt.Errorf("failed to write '%s': %w", slug, err)
			}
			x.log.Debugw("Generated page", "slug", slug)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	if x.cfg.WithCSS {
		src := filepath.Join(x.cfg.ContentDir, stylesheetFile)
		if err := copyFile(src, filepath.Join(outputDir, stylesheetFile)); err != nil {
			return 0, fmt.Errorf("failed to copy stylesheet: %w", err)
		}
	}

	x.log.Infow("Build completed", "posts", len(entries), "dir", outputDir)
	return len(entries), nil
}

// checkDirs refuses output directories that would delete the content
// directory when cleaned.
func (x *Exporter) checkDirs() error {
	out, err := filepath.Abs(x.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	src, err := filepath.Abs(x.cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("failed to resolve content directory: %w", err)
	}
	if rel, err := filepath.Rel(out, src); err == nil && !content.Escapes(rel) {
		return fmt.Errorf("output directory '%s' must not contain the content directory '%s'", x.cfg.OutputDir, x.cfg.ContentDir)
	}
	return nil
}

// copyFile copies a single file from srcFile to dstFile.
func copyFile(srcFile, dstFile string) error {
	srcF, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer srcF.Close()

	dstF, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstFile, err)
	}

	if _, err := io.Copy(dstF, srcF); err != nil {
		dstF.Close()
		return fmt.Errorf("failed to copy data from %s to %s: %w", srcFile, dstFile, err)
	}
	if err := dstF.Close(); err != nil {
		return fmt.Errorf("failed to close destination file %s: %w", dstFile, err)
	}
	return nil
}
