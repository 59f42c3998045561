package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/kbukum/apifykit/storage"
)

func TestStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := s.Upload(ctx, "a/b/items.json", strings.NewReader(`[1,2]`)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	rc, err := s.Download(ctx, "a/b/items.json")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != `[1,2]` {
		t.Errorf("data = %s", data)
	}

	u, _ := s.URL(ctx, "a/b/items.json")
	if !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/a/b/items.json") {
		t.Errorf("url = %s", u)
	}

	if err := s.Delete(ctx, "a/b/items.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "a/b/items.json"); err != nil {
		t.Errorf("deleting a missing file should be a no-op, got %v", err)
	}
	if _, err := s.Download(ctx, "a/b/items.json"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestStorage_FailedUploadLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewStorage(dir)

	r := iotest.ErrReader(io.ErrUnexpectedEOF)
	if err := s.Upload(context.Background(), "broken.json", r); err == nil {
		t.Fatal("expected write error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestStorage_StaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewStorage(filepath.Join(dir, "root"))
	if err := s.Upload(context.Background(), "../../escape.json", strings.NewReader("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "root", "escape.json")); err != nil {
		t.Errorf("expected object to be stored under base: %v", err)
	}
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	st, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: dir}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.(*Storage); !ok {
		t.Errorf("expected *local.Storage, got %T", st)
	}

	if _, err := storage.New(storage.Config{Provider: storage.ProviderLocal}, "wrong", nil); err == nil {
		t.Error("expected error for wrong provider config type")
	}
}

func TestStorage_FileMode(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{BasePath: dir, FileMode: 0o600})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Upload(context.Background(), "items.json", strings.NewReader("[]")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "items.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	if _, err := New(Config{BasePath: dir, FileMode: 0o200}); err == nil {
		t.Error("expected error for unreadable file mode")
	}
}

func TestProvidersIncludesLocal(t *testing.T) {
	found := false
	for _, p := range storage.Providers() {
		if p == storage.ProviderLocal {
			found = true
		}
	}
	if !found {
		t.Errorf("local not in %v", storage.Providers())
	}
}
