package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/apifykit/logger"
	"github.com/kbukum/apifykit/resilience"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// Enabled turns on metric export.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Poll outcomes reported by RecordPollOutcome.
const (
	PollOutcomeReady    = "ready"
	PollOutcomeTimeout  = "timeout"
	PollOutcomeError    = "error"
	PollOutcomeCanceled = "canceled"
)

// Metrics holds the connector's metric instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	operationActive   metric.Int64UpDownCounter
	pollAttempts      metric.Int64Counter
	pollBackoff       metric.Float64Histogram
	pollOutcomes      metric.Int64Counter
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operationTotal, err := meter.Int64Counter("apify.operation.total",
		metric.WithDescription("Total number of connector operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apify.operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("apify.operation.duration",
		metric.WithDescription("Duration of connector operations including polling"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apify.operation.duration histogram: %w", err)
	}

	operationActive, err := meter.Int64UpDownCounter("apify.operation.active",
		metric.WithDescription("Number of operations in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apify.operation.active gauge: %w", err)
	}

	pollAttempts, err := meter.Int64Counter("apify.poll.attempts",
		metric.WithDescription("Requests issued by pollers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apify.poll.attempts counter: %w", err)
	}

	pollBackoff, err := meter.Float64Histogram("apify.poll.backoff",
		metric.WithDescription("Waits between poll attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apify.poll.backoff histogram: %w", err)
	}

	pollOutcomes, err := meter.Int64Counter("apify.poll.outcomes",
		metric.WithDescription("Finished polls by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apify.poll.outcomes counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("apify.error.total",
		metric.WithDescription("Errors by type and operation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating apify.error.total counter: %w", err)
	}

	return &Metrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		operationActive:   operationActive,
		pollAttempts:      pollAttempts,
		pollBackoff:       pollBackoff,
		pollOutcomes:      pollOutcomes,
		errorTotal:        errorTotal,
	}, nil
}

// RecordOperationStart increments the in-flight count.
func (m *Metrics) RecordOperationStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.operationActive.Add(ctx, 1)
}

// RecordOperationEnd decrements the in-flight count and records the completed operation.
func (m *Metrics) RecordOperationEnd(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationActive.Add(ctx, -1)
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordError records an error by type and operation.
func (m *Metrics) RecordError(ctx context.Context, errType, operation string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("operation", operation),
	))
}

// RecordPollOutcome records a finished poll and the attempts it made.
func (m *Metrics) RecordPollOutcome(ctx context.Context, operation, outcome string, attempts int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.pollAttempts.Add(ctx, int64(attempts), attrs)
	m.pollOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

// RecordBackoff records one wait between poll attempts.
func (m *Metrics) RecordBackoff(ctx context.Context, operation string, wait time.Duration) {
	if m == nil {
		return
	}
	m.pollBackoff.Record(ctx, wait.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// InstrumentPoll returns cfg with hooks that feed these metrics. Hooks
// already set on cfg still run first.
func (m *Metrics) InstrumentPoll(ctx context.Context, operation string, cfg resilience.PollConfig) resilience.PollConfig {
	if m == nil {
		return cfg
	}

	prevBackoff, prevDone := cfg.OnBackoff, cfg.OnDone
	cfg.OnBackoff = func(state resilience.PollState, wait time.Duration) {
		if prevBackoff != nil {
			prevBackoff(state, wait)
		}
		m.RecordBackoff(ctx, operation, wait)
	}
	cfg.OnDone = func(state resilience.PollState, err error) {
		if prevDone != nil {
			prevDone(state, err)
		}
		m.RecordPollOutcome(ctx, operation, PollOutcome(err), state.Attempts)
	}
	return cfg
}

// PollOutcome classifies the error returned by resilience.Poll.
func PollOutcome(err error) string {
	switch {
	case err == nil:
		return PollOutcomeReady
	case errors.Is(err, resilience.ErrPollTimeout):
		return PollOutcomeTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return PollOutcomeCanceled
	default:
		return PollOutcomeError
	}
}
