package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags undoes flag values left behind by an earlier Execute.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommandAppliesFlags(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "config", "--markdown-dir", dir, "--with-css", "--log-level", "debug")
	if err != nil {
		t.Fatalf("config: %v\n%s", err, out)
	}
	for _, want := range []string{
		"contentDir: " + dir,
		"withCSS: true",
		"siteTitle: blog",
		"level: debug",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommandReadsEnv(t *testing.T) {
	t.Setenv("BLOGTHING_SITETITLE", "notes")
	out, err := run(t, "config")
	if err != nil {
		t.Fatalf("config: %v\n%s", err, out)
	}
	if !strings.Contains(out, "siteTitle: notes") {
		t.Errorf("env override not applied:\n%s", out)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	if err := os.WriteFile(path, []byte("siteTitle: from file\nabsoluteLinks: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "config", "--config", path)
	if err != nil {
		t.Fatalf("config: %v\n%s", err, out)
	}
	if !strings.Contains(out, "siteTitle: from file") || !strings.Contains(out, "absoluteLinks: true") {
		t.Errorf("config file not applied:\n%s", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	if _, err := run(t, "config", "--log-level", "loud"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildCommand(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "posts")
	out := filepath.Join(root, "public")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "hello.md"), []byte("# Hello\nworld"), 0o644); err != nil {
		t.Fatal(err)
	}

	if msg, err := run(t, "build", "-m", src, "-o", out); err != nil {
		t.Fatalf("build: %v\n%s", err, msg)
	}
	for _, name := range []string{"index.html", "hello.html"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestServeRequiresExternalAddr(t *testing.T) {
	if _, err := run(t, "serve", "-m", t.TempDir()); err == nil {
		t.Fatal("expected error without external address")
	}
}
