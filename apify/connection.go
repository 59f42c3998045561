package apify

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apifykit/httpclient"
	"github.com/kbukum/apifykit/logger"
	"github.com/kbukum/apifykit/observability"
	"github.com/kbukum/apifykit/resilience"
	"github.com/kbukum/apifykit/version"
)

const serviceName = "apify"

// Header names sent with every request.
const (
	HeaderIntegrationPlatform = "X-Apify-Integration-Platform"
	HeaderUserAgent           = "User-Agent"
)

// TimeoutMessage is the error text returned when a dataset is still empty
// at the polling deadline.
const TimeoutMessage = "Timeout reached before dataset was available, please try again later or increase the timeout duration of the task."

// RunTimeoutMessage is the error text returned by WaitForRun at the deadline.
const RunTimeoutMessage = "Timeout reached before the actor run finished, please try again later or increase the timeout duration of the task."

// Log messages for failed calls.
const (
	msgRequestFailed    = "Error making request to Apify API"
	msgStorageFailed    = "Error saving Apify response to storage"
	msgCredentialFailed = "Error getting API key for Apify"
	msgEmptyDataset     = "Received empty dataset."
	msgRunInProgress    = "Actor run still in progress."
)

// Connection talks to the Apify API. It is immutable after construction
// and safe for concurrent use; each call polls with its own state.
type Connection struct {
	cfg     Config
	client  *httpclient.Client
	log     *logger.Logger
	metrics *observability.Metrics
	clock   resilience.Clock
}

type options struct {
	tokens     httpclient.TokenSource
	log        *logger.Logger
	httpClient *http.Client
	tracer     trace.Tracer
	metrics    *observability.Metrics
	clock      resilience.Clock
}

// Option configures a Connection.
type Option func(*options)

// WithTokenSource overrides the token taken from Config.
func WithTokenSource(ts httpclient.TokenSource) Option {
	return func(o *options) { o.tokens = ts }
}

// WithLogger sets the logger. Defaults to the "apify" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTracer sets the tracer used for per-exchange spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics records operation and poll metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces the clock used for poll and retry waits.
func WithClock(c resilience.Clock) Option {
	return func(o *options) { o.clock = c }
}

// NewConnection creates a Connection from cfg. The token is not resolved
// here; a missing token fails the first request with a credential error.
func NewConnection(cfg Config, opts ...Option) (*Connection, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		log:   logger.Get(serviceName),
		clock: resilience.SystemClock,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tokens == nil {
		o.tokens = httpclient.FirstToken(httpclient.StaticToken(cfg.Token), httpclient.EnvToken(cfg.TokenEnv))
	}

	headers := make(map[string]string, len(cfg.Headers)+2)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	headers[HeaderIntegrationPlatform] = cfg.IntegrationPlatform
	headers[HeaderUserAgent] = version.UserAgent()

	hcfg := httpclient.Config{
		Name:    serviceName,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: headers,
	}
	if cfg.TransportRetries > 0 {
		hcfg.Retry = httpclient.DefaultRetryConfig()
		hcfg.Retry.MaxAttempts = cfg.TransportRetries + 1
		hcfg.Retry.Clock = o.clock
	}

	client, err := httpclient.New(hcfg,
		httpclient.WithTokenSource(o.tokens),
		httpclient.WithLogger(o.log),
		httpclient.WithHTTPClient(o.httpClient),
		httpclient.WithTracer(o.tracer),
	)
	if err != nil {
		return nil, err
	}

	cfg.Poll.Clock = o.clock
	return &Connection{
		cfg:     cfg,
		client:  client,
		log:     o.log,
		metrics: o.metrics,
		clock:   o.clock,
	}, nil
}

// BaseURL returns the API origin requests are sent to.
func (c *Connection) BaseURL() string {
	return c.client.Builder().BaseURL()
}

// Builder returns the request builder bound to this connection.
func (c *Connection) Builder() *httpclient.RequestBuilder {
	return c.client.Builder()
}

// pollConfig returns the connection's poll policy for one call. A positive
// timeout overrides the configured one.
func (c *Connection) pollConfig(ctx context.Context, operation string, timeout time.Duration, timeoutMessage string) resilience.PollConfig {
	pc := c.cfg.Poll
	pc.TimeoutMessage = timeoutMessage
	if timeout > 0 {
		pc.Timeout = timeout
	}
	pc.OnDone = func(state resilience.PollState, _ error) {
		observability.SetSpanAttribute(ctx, observability.AttrPollAttempts, state.Attempts)
	}
	return c.metrics.InstrumentPoll(ctx, operation, pc)
}

// track runs fn inside an operation span with metrics and logs failures.
func (c *Connection) track(ctx context.Context, operation, resourceID string, fn func(context.Context) error) error {
	oc := observability.NewOperationContext(serviceName, operation, resourceID, correlationID(ctx), c.metrics)
	ctx, span := oc.StartSpanForOperation(ctx)

	err := fn(ctx)
	if err != nil {
		c.logFailure(ctx, operation, resourceID, err)
	}
	oc.EndOperation(ctx, span, err, errorType(err))
	return err
}

// logFailure reports a failed call at error level. Storage and credential
// failures get their own messages.
func (c *Connection) logFailure(ctx context.Context, operation, resourceID string, err error) {
	msg := msgRequestFailed
	switch {
	case httpclient.IsStorage(err):
		msg = msgStorageFailed
	case httpclient.IsCredential(err):
		msg = msgCredentialFailed
	case isPollTimeout(err):
		return
	}
	fields := logger.ResourceFields(operation, resourceID)
	if code := httpclient.StatusCode(err); code != 0 {
		fields[logger.FieldStatusCode] = code
	}
	c.log.WithContext(ctx).Error(msg, logger.MergeWithError(fields, err))
}

type correlationKey struct{}

// WithCorrelationID attaches an ID that is added to spans and log lines
// of every call made with ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, correlationKey{}, id)
	return logger.ContextWithCorrelationID(ctx, id)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
