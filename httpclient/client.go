package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apifykit/logger"
	"github.com/kbukum/apifykit/resilience"
)

const tracerName = "github.com/kbukum/apifykit/httpclient"

// Client executes built requests with optional transport retry, tracing
// and structured logging.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	config       Config
	builder      *RequestBuilder
	log          *logger.Logger
	tracer       trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request failures.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracer sets the tracer used for per-exchange spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client. Streaming requests
// reuse its transport without the client-level timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource sets the credential used by the client's RequestBuilder.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.builder.tokens = ts
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config:  cfg,
		builder: NewRequestBuilder(cfg, nil),
		log:     logger.Get(defaultName),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Streaming bodies can outlive any fixed timeout; the context bounds them.
	c.streamClient = &http.Client{
		Transport:     c.httpClient.Transport,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}

	return c, nil
}

// Builder returns the RequestBuilder bound to this client's config and credential.
func (c *Client) Builder() *RequestBuilder {
	return c.builder
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// Send builds req and executes it.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.builder.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, httpReq)
}

// Do executes an HTTP request and returns the complete response. Non-2xx
// statuses are returned as *Error alongside the response.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	if c.config.Retry == nil {
		return c.doOnce(ctx, req)
	}
	return resilience.Retry(ctx, *c.config.Retry, func(ctx context.Context, attempt int) (*Response, error) {
		r := req
		if attempt > 1 {
			var err error
			if r, err = rewind(ctx, req); err != nil {
				return nil, err
			}
		}
		return c.doOnce(ctx, r)
	})
}

func (c *Client) doOnce(ctx context.Context, req *http.Request) (*Response, error) {
	ctx, span := c.startSpan(ctx, req)
	defer span.End()

	start := time.Now()
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		err = classifyTransport(ctx, err)
		c.fail(span, req, err, start)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = NewConnectionError(fmt.Errorf("read response body: %w", err))
		c.fail(span, req, err, start)
		return nil, err
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		c.fail(span, req, classErr, start)
		return result, classErr
	}
	return result, nil
}

// Invoke executes req and decodes a 2xx JSON body into T.
func Invoke[T any](ctx context.Context, c *Client, req *http.Request) (T, error) {
	var zero T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return zero, NewDecodeError(resp.StatusCode, resp.Body, err)
	}
	return out, nil
}

// InvokeStreaming executes req and forwards a 200 body straight into sink.
// Any other status fails without touching the sink. A sink failure is
// returned as a storage error. Transport retry is not applied.
func InvokeStreaming[H any](ctx context.Context, c *Client, req *http.Request, sink Sink[H]) (H, error) {
	var zero H

	ctx, span := c.startSpan(ctx, req)
	defer span.End()

	start := time.Now()
	resp, err := c.streamClient.Do(req.WithContext(ctx))
	if err != nil {
		err = classifyTransport(ctx, err)
		c.fail(span, req, err, start)
		return zero, err
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		classErr := ClassifyStatusCode(resp.StatusCode, body)
		if classErr == nil {
			classErr = NewUnexpectedStatusError(resp.StatusCode, body)
		}
		c.fail(span, req, classErr, start)
		return zero, classErr
	}

	handle, err := sink.Store(ctx, resp.Body)
	if err != nil {
		serr := NewStorageError(err)
		c.fail(span, req, serr, start)
		return zero, serr
	}
	return handle, nil
}

func (c *Client) startSpan(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, c.config.Name+".http "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.String("server.address", req.URL.Host),
		),
	)
}

// fail records err on the span and logs it at debug level. Callers decide
// how loudly to report the failure.
func (c *Client) fail(span trace.Span, req *http.Request, err error, start time.Time) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fields := logger.MergeWithDuration(logger.Fields(
		"client", c.config.Name,
		"method", req.Method,
		"path", req.URL.Path,
		"status_code", StatusCode(err),
	), time.Since(start))
	c.log.Debug("http exchange failed", logger.MergeWithError(fields, err))
}

// classifyTransport maps a failed round trip to a timeout or connection error.
func classifyTransport(ctx context.Context, err error) *Error {
	if ctx.Err() != nil {
		return NewTimeoutError(err)
	}
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// rewind clones req with a fresh body for another attempt.
func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, NewValidationError("request body cannot be replayed for retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("rewind body: %v", err))
	}
	clone.Body = body
	return clone, nil
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
