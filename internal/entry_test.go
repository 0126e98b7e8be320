package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func cliConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"old.md":   "---\ntitle: Old post\ndate: 2020-01-01\n---\nold",
		"new.md":   "---\ntitle: New post\ndate: 2024-01-01\n---\nHello **world**",
		"draft.md": "undated",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := NewDefaultConfig()
	cfg.Posts.Path = dir
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "folio.db")
	return cfg
}

func TestRunList(t *testing.T) {
	var out bytes.Buffer
	if err := RunList(context.Background(), WithConfig(cliConfig(t)), WithOutput(&out)); err != nil {
		t.Fatalf("RunList: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("output = %q", out.String())
	}
	for i, want := range []string{"DATE", "2024-01-01", "2020-01-01", "-"} {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
}

func TestRunRender(t *testing.T) {
	var out bytes.Buffer
	if err := RunRender(context.Background(), "new", WithConfig(cliConfig(t)), WithOutput(&out)); err != nil {
		t.Fatalf("RunRender: %v", err)
	}
	if got := out.String(); got != "<p>Hello <strong>world</strong></p>\n" {
		t.Errorf("html = %q", got)
	}
}

func TestRunRender_NotFound(t *testing.T) {
	err := RunRender(context.Background(), "missing", WithConfig(cliConfig(t)), WithOutput(&bytes.Buffer{}))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("Run without config should fail")
	}
}

func TestRunList_MissingPostsDir(t *testing.T) {
	cfg := cliConfig(t)
	cfg.Posts.Path = filepath.Join(t.TempDir(), "gone")
	err := RunList(context.Background(), WithConfig(cfg), WithOutput(&bytes.Buffer{}))
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
	err = RunRender(context.Background(), "new", WithConfig(cfg), WithOutput(&bytes.Buffer{}))
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("render err = %v, want ErrStoreUnavailable", err)
	}
}
