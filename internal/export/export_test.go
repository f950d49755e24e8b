package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Borgerr/blogthing/internal/blog"
	"github.com/Borgerr/blogthing/internal/config"
	"github.com/Borgerr/blogthing/internal/logger"
)

func writeFile(t *testing.T, path, body string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func newExporter(cfg config.Config) *Exporter {
	log := logger.Nop()
	return New(cfg, blog.NewService(cfg, log, nil), log)
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "posts")
	out := filepath.Join(root, "public")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	now := time.Now().Truncate(time.Second)
	writeFile(t, filepath.Join(src, "a.md"), "# A\nbody", now.Add(-time.Hour))
	writeFile(t, filepath.Join(src, "b.md"), "# B\n*body*", now)
	writeFile(t, filepath.Join(src, "empty.md"), "", now)
	writeFile(t, filepath.Join(src, "style.css"), "body{}", now)

	if err := os.MkdirAll(filepath.Join(out, "stale"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{ContentDir: src, OutputDir: out, SiteTitle: "blog", WithCSS: true}
	n, err := newExporter(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n != 2 {
		t.Errorf("Build() wrote %d posts, want 2", n)
	}

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	b := strings.Index(string(index), `href="./b.html"`)
	a := strings.Index(string(index), `href="./a.html"`)
	if b < 0 || a < 0 || b > a {
		t.Errorf("index order wrong:\n%s", index)
	}

	page, err := os.ReadFile(filepath.Join(out, "b.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "<h1>B</h1>") || !strings.Contains(string(page), "<em>body</em>") {
		t.Errorf("b.html not rendered:\n%s", page)
	}

	for _, name := range []string{"a.html", "style.css"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	for _, name := range []string{"empty.html", "stale"} {
		if _, err := os.Stat(filepath.Join(out, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not exist", name)
		}
	}
}

func TestBuildRefusesContentInsideOutput(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A", time.Now())

	for _, out := range []string{root, filepath.Dir(root)} {
		cfg := config.Config{ContentDir: root, OutputDir: out, SiteTitle: "blog"}
		if _, err := newExporter(cfg).Build(context.Background()); err == nil {
			t.Errorf("Build with output %q succeeded", out)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "a.md")); err != nil {
		t.Fatalf("content was removed: %v", err)
	}
}

func TestBuildMissingContentDirectory(t *testing.T) {
	root := t.TempDir()
	cfg := config.Config{
		ContentDir: filepath.Join(root, "gone"),
		OutputDir:  filepath.Join(root, "public"),
		SiteTitle:  "blog",
	}
	if _, err := newExporter(cfg).Build(context.Background()); err == nil {
		t.Fatal("expected error for missing content directory")
	}
}

func TestBuildRefusesPostNamedIndex(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "posts")
	out := filepath.Join(root, "public")
	for _, dir := range []string{src, out} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Now()
	writeFile(t, filepath.Join(src, "index.md"), "# Welcome\nhi", now)
	writeFile(t, filepath.Join(src, "other.md"), "# Other", now)
	writeFile(t, filepath.Join(out, "index.html"), "previous build", now)

	cfg := config.Config{ContentDir: src, OutputDir: out, SiteTitle: "blog"}
	_, err := newExporter(cfg).Build(context.Background())
	if !errors.Is(err, ErrIndexCollision) {
		t.Fatalf("Build() error = %v, want ErrIndexCollision", err)
	}
	prev, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil || string(prev) != "previous build" {
		t.Errorf("previous output was touched: %q, %v", prev, err)
	}
}

func TestBuildIgnoresUntitledIndexSource(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "posts")
	out := filepath.Join(root, "public")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(src, "index.md"), "", time.Now())
	writeFile(t, filepath.Join(src, "other.md"), "# Other", time.Now())

	cfg := config.Config{ContentDir: src, OutputDir: out, SiteTitle: "blog"}
	if _, err := newExporter(cfg).Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), `href="./other.html"`) {
		t.Errorf("index lost its listing:\n%s", index)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "style.css")
	writeFile(t, src, "body{color:red}", time.Now())

	dst := filepath.Join(dir, "copy.css")
	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "body{color:red}" {
		t.Errorf("copied %q", got)
	}

	tests := []struct {
		name     string
		src, dst string
	}{
		{"missing source", filepath.Join(dir, "gone.css"), filepath.Join(dir, "out.css")},
		{"destination is a directory", src, dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := copyFile(tt.src, tt.dst); err == nil {
				t.Error("expected error")
			}
		})
	}
}
