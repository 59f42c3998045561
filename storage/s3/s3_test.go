package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestStorage_UploadAgainstEndpoint(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
		paths   []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewStorage(context.Background(), &Config{
		Bucket:    "exports",
		Region:    "us-east-1",
		Endpoint:  srv.URL + "/",
		AccessKey: "AKID",
		SecretKey: "SECRET",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a non-seekable reader goes through the spool file
	if err := s.Upload(context.Background(), "datasets/x.json", io.MultiReader(strings.NewReader(`[1]`))); err != nil {
		t.Fatalf("upload: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(methods) != 1 || methods[0] != http.MethodPut || paths[0] != "/exports/datasets/x.json" {
		t.Errorf("unexpected requests: %v %v", methods, paths)
	}

	u, _ := s.URL(context.Background(), "datasets/x.json")
	if u != srv.URL+"/exports/datasets/x.json" {
		t.Errorf("url = %s", u)
	}
}

func TestSeekable(t *testing.T) {
	br := bytes.NewReader([]byte("abc"))
	rs, cleanup, err := seekable(br)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cleanup()
	if rs != br {
		t.Error("seekable readers should pass through")
	}

	rs, cleanup, err = seekable(io.MultiReader(strings.NewReader("abc")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()
	data, _ := io.ReadAll(rs)
	if string(data) != "abc" {
		t.Errorf("data = %s", data)
	}
}

func TestConfig_Validate(t *testing.T) {
	c := &Config{}
	c.ApplyDefaults()
	if c.Region != "us-east-1" {
		t.Errorf("expected default region, got %q", c.Region)
	}
	if err := c.Validate(); err == nil {
		t.Error("expected error without bucket")
	}
}
