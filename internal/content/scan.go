// Package content reads the blog's markdown sources from a flat directory.
package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Borgerr/blogthing/internal/model"
)

const (
	SourceExt = ".md"
	PageExt   = ".html"
)

// Scan lists the markdown sources directly inside dir. Subdirectories and
// files with any other extension are skipped. The result is unordered.
func Scan(dir string) ([]model.PostFile, error) {
	return scanFS(os.DirFS(dir), dir)
}

// scanFS lists the sources at the root of fsys. Paths are joined onto dir.
func scanFS(fsys fs.FS, dir string) ([]model.PostFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory '%s': %w", dir, err)
	}

	var files []model.PostFile
	for _, d := range entries {
		if d.IsDir() || !isSource(d.Name()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat '%s': %w", d.Name(), err)
		}
		files = append(files, model.PostFile{
			Path:    filepath.Join(dir, d.Name()),
			Name:    d.Name(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

func isSource(name string) bool {
	return filepath.Ext(name) == SourceExt && strings.TrimSuffix(name, SourceExt) != ""
}

// SortByFreshness orders files most recently modified first. Equal
// modification times fall back to file name ascending.
func SortByFreshness(files []model.PostFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
}

// Slug is the public route segment for a source file name.
func Slug(name string) string {
	return strings.TrimSuffix(name, SourceExt) + PageExt
}
