package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// OperationContext tracks one connector operation for tracing and metrics.
type OperationContext struct {
	ServiceName   string
	OperationName string
	ResourceID    string
	RequestID     string
	StartTime     time.Time
	Metrics       *Metrics
}

// NewOperationContext creates a new operation context.
// If metrics is nil, metric recording is silently skipped.
func NewOperationContext(serviceName, operationName, resourceID, requestID string, metrics *Metrics) *OperationContext {
	return &OperationContext{
		ServiceName:   serviceName,
		OperationName: operationName,
		ResourceID:    resourceID,
		RequestID:     requestID,
		StartTime:     time.Now(),
		Metrics:       metrics,
	}
}

// StartSpanForOperation starts a span named after the operation and records
// the operation start. The returned context carries the span.
func (oc *OperationContext) StartSpanForOperation(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, oc.ServiceName+"."+oc.OperationName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrServiceName, oc.ServiceName),
			attribute.String(AttrOperationName, oc.OperationName),
		),
	)
	if oc.ResourceID != "" {
		span.SetAttributes(attribute.String(AttrResourceID, oc.ResourceID))
	}
	if oc.RequestID != "" {
		span.SetAttributes(attribute.String(AttrRequestID, oc.RequestID))
	}

	oc.Metrics.RecordOperationStart(ctx)
	return ctx, span
}

// EndOperation ends the span and records operation-end metrics. errType
// classifies err for the error counter and is ignored when err is nil.
func (oc *OperationContext) EndOperation(ctx context.Context, span trace.Span, err error, errType string) {
	duration := time.Since(oc.StartTime)

	status := StatusOK
	if err != nil {
		status = StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		oc.Metrics.RecordError(ctx, errType, oc.OperationName)
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	oc.Metrics.RecordOperationEnd(ctx, oc.OperationName, status, duration)
}
