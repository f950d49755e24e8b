package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is wrapped by every resolution failure.
	ErrNotFound = errors.New("post not found")

	ErrBadExtension  = fmt.Errorf("%w: extension is not %s", ErrNotFound, PageExt)
	ErrUnsafeSegment = fmt.Errorf("%w: unsafe path segment", ErrNotFound)
	ErrNoSource      = fmt.Errorf("%w: no markdown source", ErrNotFound)
)

// Resolve maps a requested segment such as "hello.html" to the markdown
// source "hello.md" inside dir. Only single, plain file names are accepted.
func Resolve(dir, segment string) (string, error) {
	if !safeSegment(segment) {
		return "", ErrUnsafeSegment
	}
	if filepath.Ext(segment) != PageExt {
		return "", ErrBadExtension
	}
	stem := strings.TrimSuffix(segment, PageExt)
	if stem == "" {
		return "", ErrBadExtension
	}

	source := filepath.Join(dir, stem+SourceExt)
	if rel, err := filepath.Rel(dir, source); err != nil || Escapes(rel) || rel != stem+SourceExt {
		return "", ErrUnsafeSegment
	}

	info, err := os.Stat(source)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrNoSource
	}
	return source, nil
}

func safeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if strings.ContainsAny(s, "/\\\x00") || filepath.IsAbs(s) {
		return false
	}
	return filepath.Base(s) == s
}

// Escapes reports whether a relative path produced by filepath.Rel leaves its
// base directory.
func Escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel)
}
