package httpclient

import (
	"context"
	"io"
)

// Request describes an outbound HTTP request before it is built.
type Request struct {
	// Method is the HTTP method (GET, POST, PATCH, DELETE).
	Method string
	// Path is resolved against the builder's BaseURL. A full URL is used as is.
	Path string
	// Query are URL query parameters, encoded canonically.
	Query QueryParams
	// Headers are request-specific headers. They override builder defaults;
	// an explicit Authorization header suppresses token injection.
	Headers map[string]string
	// Body is the request body. Accepts io.Reader, []byte, or any value
	// that will be JSON-encoded. Nil sends no body.
	Body any
}

// RequestOption configures a single request.
type RequestOption func(*Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithQuery merges params into the request query.
func WithQuery(params QueryParams) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(QueryParams, len(params))
		}
		for k, v := range params {
			r.Query[k] = v
		}
	}
}

// WithQueryParam adds a query parameter to the request.
func WithQueryParam(key string, value any) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(QueryParams)
		}
		r.Query[key] = value
	}
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// Sink persists a streamed response body and returns a handle to it.
type Sink[H any] interface {
	Store(ctx context.Context, r io.Reader) (H, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[H any] func(ctx context.Context, r io.Reader) (H, error)

// Store calls f(ctx, r).
func (f SinkFunc[H]) Store(ctx context.Context, r io.Reader) (H, error) {
	return f(ctx, r)
}
