package httpclient

import (
	"context"
	"io"
	"net/http"
	"testing"
)

func newTestBuilder(tokens TokenSource) *RequestBuilder {
	return NewRequestBuilder(Config{
		BaseURL: "https://api.apify.com/v2/",
		Headers: map[string]string{"X-Apify-Integration-Platform": "apifykit"},
	}, tokens)
}

func TestRequestBuilder_Get(t *testing.T) {
	b := newTestBuilder(StaticToken("secret"))
	req, err := b.Get(context.Background(), "/datasets/DATASET_ID/items",
		WithQuery(QueryParams{"offset": 0, "cleanValue": true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://api.apify.com/v2/datasets/DATASET_ID/items?cleanValue=true&offset=0"
	if got := req.URL.String(); got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer secret")
	}
	if got := req.Header.Get("Content-Type"); got != "" {
		t.Errorf("GET without body should have no Content-Type, got %q", got)
	}
	if got := req.Header.Get("X-Apify-Integration-Platform"); got != "apifykit" {
		t.Errorf("default header missing, got %q", got)
	}
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
}

func TestRequestBuilder_ExplicitAuthorizationKept(t *testing.T) {
	called := false
	tokens := TokenFunc(func(context.Context) (string, error) {
		called = true
		return "resolved", nil
	})
	b := newTestBuilder(tokens)

	req, err := b.Get(context.Background(), "/acts/a/runs/last", WithHeader("authorization", "Bearer caller"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.Header.Values("Authorization"); len(got) != 1 || got[0] != "Bearer caller" {
		t.Errorf("Authorization = %v, want [Bearer caller]", got)
	}
	if called {
		t.Error("token source should not be consulted when Authorization is supplied")
	}
}

func TestRequestBuilder_FailsFastWithoutToken(t *testing.T) {
	b := newTestBuilder(nil)
	builders := map[string]func() (*http.Request, error){
		"GET":    func() (*http.Request, error) { return b.Get(context.Background(), "/x") },
		"POST":   func() (*http.Request, error) { return b.Post(context.Background(), "/x", map[string]int{"a": 1}) },
		"PATCH":  func() (*http.Request, error) { return b.Patch(context.Background(), "/x", nil) },
		"DELETE": func() (*http.Request, error) { return b.Delete(context.Background(), "/x") },
	}
	for method, build := range builders {
		req, err := build()
		if !IsCredential(err) {
			t.Errorf("%s: got %v, want credential error", method, err)
		}
		if req != nil {
			t.Errorf("%s: expected no request", method)
		}
	}
}

func TestRequestBuilder_PostJSON(t *testing.T) {
	b := newTestBuilder(StaticToken("secret"))
	req, err := b.Post(context.Background(), "acts/my~actor/runs", map[string]string{"url": "https://example.com"},
		WithQueryParam("memory", 1024))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.Header.Get("Content-Type"); got != JSONContentType {
		t.Errorf("Content-Type = %q, want %q", got, JSONContentType)
	}
	if got := req.URL.String(); got != "https://api.apify.com/v2/acts/my~actor/runs?memory=1024" {
		t.Errorf("url = %q", got)
	}
	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"url":"https://example.com"}` {
		t.Errorf("body = %s", body)
	}
	if req.GetBody == nil {
		t.Error("expected a replayable body")
	}
}

func TestRequestBuilder_CallerContentTypeWins(t *testing.T) {
	b := newTestBuilder(StaticToken("secret"))
	req, err := b.Post(context.Background(), "/x", []byte("a,b"), WithHeader("Content-Type", "text/csv"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.Header.Get("Content-Type"); got != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", got)
	}
}

func TestRequestBuilder_AbsolutePath(t *testing.T) {
	b := newTestBuilder(StaticToken("secret"))
	req, err := b.Get(context.Background(), "http://127.0.0.1:9999/items")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.URL.String(); got != "http://127.0.0.1:9999/items" {
		t.Errorf("url = %q", got)
	}
}

func TestRequestBuilder_UnencodableBody(t *testing.T) {
	b := newTestBuilder(StaticToken("secret"))
	_, err := b.Post(context.Background(), "/x", map[string]any{"ch": make(chan int)})
	if err == nil {
		t.Fatal("expected encode error")
	}
	if IsCredential(err) || IsApplication(err) {
		t.Errorf("unexpected classification: %v", err)
	}
}
