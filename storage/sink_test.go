package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/apifykit/storage"
	"github.com/kbukum/apifykit/storage/memory"
)

func TestSink_StoreAndOpen(t *testing.T) {
	mem := memory.NewStorage()
	sink := storage.NewSink(mem, "/exports/")

	h, err := sink.Store(context.Background(), strings.NewReader(`[{"a":1}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(h.Path, "exports/") {
		t.Errorf("path %q should start with exports/", h.Path)
	}
	if h.URI != "mem://"+h.Path {
		t.Errorf("uri = %q", h.URI)
	}

	rc, err := sink.Open(context.Background(), h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != `[{"a":1}]` {
		t.Errorf("data = %s", data)
	}
}

func TestSink_UniqueKeys(t *testing.T) {
	mem := memory.NewStorage()
	sink := storage.NewSink(mem, "p").WithExtension(".csv")

	a, _ := sink.Store(context.Background(), strings.NewReader("a"))
	b, _ := sink.Store(context.Background(), strings.NewReader("b"))
	if a.Path == b.Path {
		t.Fatal("expected distinct keys")
	}
	if !strings.HasSuffix(a.Path, ".csv") {
		t.Errorf("path %q should end with .csv", a.Path)
	}
	if len(mem.Paths()) != 2 {
		t.Errorf("expected 2 objects, got %v", mem.Paths())
	}
}

func TestSink_UploadError(t *testing.T) {
	mem := memory.NewStorage()
	mem.FailUpload = errors.New("quota exceeded")
	sink := storage.NewSink(mem, "")

	_, err := sink.Store(context.Background(), strings.NewReader("x"))
	if !errors.Is(err, mem.FailUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
}

// unresolvable stores objects but cannot produce URLs for them.
type unresolvable struct {
	*memory.Storage
}

func (unresolvable) URL(context.Context, string) (string, error) {
	return "", errors.New("no public endpoint")
}

func TestSink_URLErrorRemovesObject(t *testing.T) {
	mem := memory.NewStorage()
	sink := storage.NewSink(unresolvable{mem}, "exports")

	h, err := sink.Store(context.Background(), strings.NewReader("[1]"))
	if err == nil {
		t.Fatal("expected url error")
	}
	if h.Path != "" {
		t.Errorf("expected empty handle, got %+v", h)
	}
	if paths := mem.Paths(); len(paths) != 0 {
		t.Errorf("uploaded object should be removed, found %v", paths)
	}
}

func TestSink_Discard(t *testing.T) {
	mem := memory.NewStorage()
	sink := storage.NewSink(mem, "")
	h, _ := sink.Store(context.Background(), strings.NewReader("[]"))

	if err := sink.Discard(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := mem.Bytes(h.Path); ok {
		t.Error("object should be gone")
	}
	if _, err := sink.Open(context.Background(), h); err == nil {
		t.Error("expected error opening a discarded object")
	}
}

func TestNew_Memory(t *testing.T) {
	st, err := storage.New(storage.Config{Provider: storage.ProviderMemory}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.(*memory.Storage); !ok {
		t.Errorf("expected *memory.Storage, got %T", st)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := storage.New(storage.Config{Provider: "gcs"}, nil, nil); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
