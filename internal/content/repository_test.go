package content

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

func postsDir(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

// failingStore reports the store as unreachable.
type failingStore struct {
	listErr error
	readErr error
	files   []models.FileInfo
}

func (f failingStore) List(string) ([]models.FileInfo, error) { return f.files, f.listErr }
func (f failingStore) Read(string) ([]byte, error)            { return nil, f.readErr }
func (f failingStore) Root() string                           { return "" }

func TestLoadOne_Scenario(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"a.md": "---\ntitle: First\ndate: 2023-01-01\n---\nHello **world**",
	})
	repo := NewRepository(store)

	p, err := repo.LoadOne(context.Background(), "a")
	if err != nil {
		t.Fatalf("LoadOne: %v", err)
	}
	if p.ID != "a" || p.Title != "First" || p.Date != "2023-01-01" || p.Body != "Hello **world**" {
		t.Errorf("post = %+v", p)
	}
	if p.Checksum == "" || p.ModTime.IsZero() {
		t.Errorf("checksum/modtime not set: %+v", p)
	}
}

func TestListAll_SortedByDateDescending(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2023-01-01\n---\nbody a",
		"b.md": "---\ntitle: B\ndate: 2024-05-01\n---\nbody b",
		"c.md": "---\ntitle: C\ndate: 2022-12-31\n---\nbody c",
	})
	posts, err := NewRepository(store).ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if got := strings.Join(ids(posts), ","); got != "b,a,c" {
		t.Errorf("order = %s, want b,a,c", got)
	}
	for _, p := range posts {
		if p.Body != "" {
			t.Errorf("listing must omit body, got %q for %s", p.Body, p.ID)
		}
	}
}

func TestListAll_TiesKeepStoreOrder(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"x.md": "---\ndate: 2023-01-01\n---\n",
		"m.md": "---\ndate: 2023-01-01\n---\n",
		"b.md": "---\ndate: 2023-01-01\n---\n",
		"z.md": "---\ndate: 2024-01-01\n---\n",
	})
	posts, err := NewRepository(store).ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(ids(posts), ","); got != "z,b,m,x" {
		t.Errorf("order = %s, want z,b,m,x", got)
	}
}

func TestListAll_MissingDateSortsLast(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"a.md":      "no front matter at all",
		"b.md":      "---\ntitle: Dated\ndate: 2020-01-01\n---\n",
		"draft.md":  "---\ntitle: Draft\n---\n",
		"notes.txt": "ignored",
	})
	posts, err := NewRepository(store).ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(ids(posts), ","); got != "b,a,draft" {
		t.Errorf("order = %s, want b,a,draft", got)
	}
	if posts[1].Title != "" {
		t.Errorf("post without front matter should have empty title, got %q", posts[1].Title)
	}
}

func TestListAll_Empty(t *testing.T) {
	_, store := postsDir(t, nil)
	posts, err := NewRepository(store).ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Errorf("expected empty listing, got %v", ids(posts))
	}
}

func TestListAll_NonISODateWarns(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"a.md": "---\ndate: 1/2/2023\n---\n",
	})
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	if _, err := NewRepository(store, WithLogger(logger)).ListAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "ordering is lexical") || !strings.Contains(buf.String(), "id=a") {
		t.Errorf("expected warning for non-ISO date, log = %q", buf.String())
	}
}

func TestListAll_MalformedPropagates(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"good.md": "---\ntitle: ok\n---\n",
		"bad.md":  "---\ntitle: never closed\n",
	})
	_, err := NewRepository(store).ListAll(context.Background())
	if !errors.Is(err, apperr.ErrMalformedMetadata) {
		t.Fatalf("err = %v, want ErrMalformedMetadata", err)
	}
	if !strings.Contains(err.Error(), "bad.md") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestListAll_DuplicateID(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"a.md":       "one",
		"a.markdown": "two",
	})
	repo := NewRepository(store, WithPattern("*.{md,markdown}"))

	if _, err := repo.ListAll(context.Background()); !errors.Is(err, apperr.ErrDuplicateID) {
		t.Errorf("ListAll err = %v, want ErrDuplicateID", err)
	}
	if _, err := repo.LoadOne(context.Background(), "a"); !errors.Is(err, apperr.ErrDuplicateID) {
		t.Errorf("LoadOne err = %v, want ErrDuplicateID", err)
	}
}

func TestListAll_StoreUnavailable(t *testing.T) {
	dir, store := postsDir(t, map[string]string{"a.md": "x"})
	repo := NewRepository(store)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ListAll(context.Background()); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("ListAll err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := repo.LoadOne(context.Background(), "a"); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("LoadOne err = %v, want ErrStoreUnavailable", err)
	}
}

func TestListAll_ReadFailure(t *testing.T) {
	store := failingStore{
		files:   []models.FileInfo{{Name: "a.md"}},
		readErr: errors.New("i/o error"),
	}
	_, err := NewRepository(store).ListAll(context.Background())
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestListAll_ContextCancelled(t *testing.T) {
	_, store := postsDir(t, map[string]string{"a.md": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRepository(store).ListAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoadOne_NotFound(t *testing.T) {
	_, store := postsDir(t, map[string]string{"a.md": "x"})
	repo := NewRepository(store)

	for _, id := range []string{"missing", "", "../a", "sub/a", `sub\a`, ".", ".."} {
		if _, err := repo.LoadOne(context.Background(), id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("LoadOne(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestLoadOne_MalformedPropagates(t *testing.T) {
	_, store := postsDir(t, map[string]string{"bad.md": "---\ntitle: [unterminated\n---\n"})
	_, err := NewRepository(store).LoadOne(context.Background(), "bad")
	if !errors.Is(err, apperr.ErrMalformedMetadata) {
		t.Errorf("err = %v, want ErrMalformedMetadata", err)
	}
}

func TestRefreshAlways_SeesChanges(t *testing.T) {
	dir, store := postsDir(t, map[string]string{"a.md": "---\ntitle: Old\n---\n"})
	repo := NewRepository(store)

	if p, _ := repo.LoadOne(context.Background(), "a"); p.Title != "Old" {
		t.Fatalf("title = %q", p.Title)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\ntitle: New\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := repo.LoadOne(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "New" {
		t.Errorf("title = %q, want New", p.Title)
	}
}

func TestRefreshTTL_ServesCachedUntilInvalidated(t *testing.T) {
	dir, store := postsDir(t, map[string]string{"a.md": "---\ntitle: Old\n---\n"})
	repo := NewRepository(store, WithRefresh(RefreshTTL, time.Hour, 8))
	ctx := context.Background()

	if _, err := repo.ListAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.LoadOne(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\ntitle: New\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.md"), []byte("---\ntitle: B\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	posts, _ := repo.ListAll(ctx)
	if len(posts) != 1 {
		t.Errorf("cached listing should still have 1 post, got %v", ids(posts))
	}
	if p, _ := repo.LoadOne(ctx, "a"); p.Title != "Old" {
		t.Errorf("cached title = %q, want Old", p.Title)
	}

	repo.Invalidate()

	posts, _ = repo.ListAll(ctx)
	if len(posts) != 2 {
		t.Errorf("after invalidate want 2 posts, got %v", ids(posts))
	}
	if p, _ := repo.LoadOne(ctx, "a"); p.Title != "New" {
		t.Errorf("title after invalidate = %q, want New", p.Title)
	}
}

func TestRefreshTTL_Expires(t *testing.T) {
	dir, store := postsDir(t, map[string]string{"a.md": "---\ntitle: Old\n---\n"})
	repo := NewRepository(store, WithRefresh(RefreshTTL, 20*time.Millisecond, 8))
	ctx := context.Background()

	if _, err := repo.LoadOne(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\ntitle: New\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)

	p, err := repo.LoadOne(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "New" {
		t.Errorf("title = %q, want New after expiry", p.Title)
	}
}

func TestListingIsACopy(t *testing.T) {
	_, store := postsDir(t, map[string]string{"a.md": "---\ntitle: A\n---\n"})
	repo := NewRepository(store, WithRefresh(RefreshTTL, time.Hour, 8))

	posts, _ := repo.ListAll(context.Background())
	posts[0].Title = "mutated"

	again, _ := repo.ListAll(context.Background())
	if again[0].Title != "A" {
		t.Errorf("cached listing was mutated through a returned slice")
	}
}

func TestIDFor(t *testing.T) {
	_, store := postsDir(t, nil)
	repo := NewRepository(store)

	cases := []struct {
		name string
		id   string
		ok   bool
	}{
		{"hello.md", "hello", true},
		{"v1.2.md", "v1.2", true},
		{"notes.txt", "", false},
		{".hidden.md", "", false},
		{"sub/a.md", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		id, ok := repo.IDFor(tc.name)
		if id != tc.id || ok != tc.ok {
			t.Errorf("IDFor(%q) = %q,%v want %q,%v", tc.name, id, ok, tc.id, tc.ok)
		}
	}
}

func TestListAll_TimestampsKeepPrecision(t *testing.T) {
	_, store := postsDir(t, map[string]string{
		"a.md": "---\ndate: 2023-01-01T09:30:00.200Z\n---\n",
		"b.md": "---\ndate: 2023-01-01T09:30:00.500Z\n---\n",
		"c.md": "---\ndate: 2023-01-02 08:00:00\n---\n",
	})
	posts, err := NewRepository(store).ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if got := strings.Join(ids(posts), ","); got != "c,b,a" {
		t.Errorf("order = %s, want c,b,a", got)
	}
	if posts[0].Date != "2023-01-02 08:00:00" {
		t.Errorf("date = %q, want the text as written", posts[0].Date)
	}
}
