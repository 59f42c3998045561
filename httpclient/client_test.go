package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithTokenSource(StaticToken("secret"))}, opts...)
	c, err := New(Config{BaseURL: srv.URL, Name: "test"}, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestInvoke_DecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.RawQuery != "limit=1&offset=0" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"key":"value"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	req, err := c.Builder().Get(context.Background(), "/items", WithQuery(QueryParams{"offset": 0, "limit": 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := Invoke[[]map[string]string](context.Background(), c, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0]["key"] != "value" {
		t.Errorf("items = %v", items)
	}
}

func TestInvoke_ApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"record-not-found"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	req, _ := c.Builder().Get(context.Background(), "/datasets/missing/items")
	_, err := Invoke[[]any](context.Background(), c, req)
	if !IsApplication(err) || StatusCode(err) != 404 {
		t.Fatalf("got %v, want application error with status 404", err)
	}
	var herr *Error
	if !errors.As(err, &herr) || !strings.Contains(string(herr.Body), "record-not-found") {
		t.Errorf("error should carry the response body, got %v", err)
	}
}

func TestInvoke_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	req, _ := c.Builder().Get(context.Background(), "/x")
	_, err := Invoke[[]any](context.Background(), c, req)
	if !hasCode(err, ErrCodeDecode) {
		t.Fatalf("got %v, want decode error", err)
	}
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv)
	req, _ := c.Builder().Get(context.Background(), "/x")
	srv.Close()

	_, err := c.Do(context.Background(), req)
	if !IsTransport(err) {
		t.Fatalf("got %v, want transport error", err)
	}
}

func TestClient_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, _ := c.Builder().Get(ctx, "/slow")
	_, err := c.Do(ctx, req)
	if !IsTimeout(err) {
		t.Fatalf("got %v, want timeout error", err)
	}
}

func TestClient_TransportRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Errorf("attempt %d body = %s", calls.Load()+1, body)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	retry.Jitter = 0
	c, err := New(Config{BaseURL: srv.URL, Retry: retry}, WithTokenSource(StaticToken("secret")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, _ := c.Builder().Post(context.Background(), "/x", map[string]int{"a": 1})
	out, err := Invoke[map[string]bool](context.Background(), c, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out["ok"] || calls.Load() != 3 {
		t.Errorf("out = %v after %d calls", out, calls.Load())
	}
}

func TestClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Send(context.Background(), Request{Method: http.MethodDelete, Path: "/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent || !resp.IsSuccess() || resp.IsError() {
		t.Errorf("unexpected response %+v", resp)
	}
}

type memorySink struct {
	data  []byte
	calls int
	err   error
}

func (s *memorySink) Store(_ context.Context, r io.Reader) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.data = b
	return "mem://1", nil
}

func TestInvokeStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"a":1}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	sink := &memorySink{}
	req, _ := c.Builder().Get(context.Background(), "/items")
	h, err := InvokeStreaming[string](context.Background(), c, req, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != "mem://1" || string(sink.data) != `[{"a":1}]` {
		t.Errorf("handle = %q, data = %s", h, sink.data)
	}
}

func TestInvokeStreaming_NonOKSkipsSink(t *testing.T) {
	for _, status := range []int{http.StatusAccepted, http.StatusUnauthorized, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		c := newTestClient(t, srv)
		sink := &memorySink{}
		req, _ := c.Builder().Get(context.Background(), "/items")
		_, err := InvokeStreaming[string](context.Background(), c, req, sink)
		srv.Close()

		if !IsApplication(err) || StatusCode(err) != status {
			t.Errorf("status %d: got %v, want application error", status, err)
		}
		if sink.calls != 0 {
			t.Errorf("status %d: sink should not be called", status)
		}
	}
}

func TestInvokeStreaming_SinkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	diskFull := errors.New("disk full")
	sink := SinkFunc[string](func(context.Context, io.Reader) (string, error) { return "", diskFull })
	req, _ := c.Builder().Get(context.Background(), "/items")
	_, err := InvokeStreaming[string](context.Background(), c, req, sink)
	if !IsStorage(err) || IsApplication(err) {
		t.Fatalf("got %v, want storage error", err)
	}
	if !errors.Is(err, diskFull) {
		t.Error("storage error should wrap the sink error")
	}
}
