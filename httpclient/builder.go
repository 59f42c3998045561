package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// JSONContentType is sent with every request that carries a body.
const JSONContentType = "application/json; charset=UTF-8"

const headerAuthorization = "Authorization"

// RequestBuilder constructs authenticated requests against a base URL.
// It performs no network I/O; the only fallible step besides encoding is
// token resolution.
type RequestBuilder struct {
	baseURL string
	headers map[string]string
	tokens  TokenSource
}

// NewRequestBuilder creates a builder from the client config and a token source.
func NewRequestBuilder(cfg Config, tokens TokenSource) *RequestBuilder {
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	return &RequestBuilder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		tokens:  tokens,
	}
}

// BaseURL returns the origin requests are resolved against.
func (b *RequestBuilder) BaseURL() string {
	return b.baseURL
}

// Get builds a GET request.
func (b *RequestBuilder) Get(ctx context.Context, path string, opts ...RequestOption) (*http.Request, error) {
	return b.build(ctx, http.MethodGet, path, nil, opts)
}

// Post builds a POST request with a JSON body.
func (b *RequestBuilder) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*http.Request, error) {
	return b.build(ctx, http.MethodPost, path, body, opts)
}

// Patch builds a PATCH request with a JSON body.
func (b *RequestBuilder) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*http.Request, error) {
	return b.build(ctx, http.MethodPatch, path, body, opts)
}

// Delete builds a DELETE request.
func (b *RequestBuilder) Delete(ctx context.Context, path string, opts ...RequestOption) (*http.Request, error) {
	return b.build(ctx, http.MethodDelete, path, nil, opts)
}

func (b *RequestBuilder) build(ctx context.Context, method, path string, body any, opts []RequestOption) (*http.Request, error) {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return b.Build(ctx, req)
}

// Build turns a Request into an *http.Request.
//
// The bearer token is resolved first unless the request already carries an
// Authorization header; a resolution failure is returned as a credential
// error before anything else happens. A JSON content type is added when a
// body is present and the caller did not set one.
func (b *RequestBuilder) Build(ctx context.Context, req Request) (*http.Request, error) {
	var token string
	if !hasHeader(req.Headers, headerAuthorization) {
		tok, err := resolveToken(ctx, b.tokens)
		if err != nil {
			return nil, err
		}
		token = tok
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, b.resolveURL(req.Path, req.Query), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	for k, v := range b.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if token != "" && httpReq.Header.Get(headerAuthorization) == "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+token)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", JSONContentType)
	}

	return httpReq, nil
}

// resolveURL joins path onto the base URL and appends the canonical query.
func (b *RequestBuilder) resolveURL(path string, query QueryParams) string {
	target := AppendQuery(path, query)
	if b.baseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return target
	}
	return b.baseURL + "/" + strings.TrimLeft(target, "/")
}

func hasHeader(headers map[string]string, name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for k := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return true
		}
	}
	return false
}

// encodeBody converts a body value into an io.Reader.
func encodeBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, nil
	case []byte:
		return bytes.NewReader(v), nil
	case json.RawMessage:
		return bytes.NewReader(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}
