package logger

import (
	"time"
)

// Field keys shared by every component.
const (
	FieldService       = "service"
	FieldComponent     = "component"
	FieldTraceID       = "trace_id"
	FieldSpanID        = "span_id"
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldOperation     = "operation"
	FieldResourceID    = "resource_id"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldElapsed       = "elapsed"
	FieldAttempt       = "attempt"
	FieldStatusCode    = "status_code"
	FieldPath          = "path"
)

// Fields builds a field map from alternating key-value pairs. Pairs with a
// non-string key and a trailing odd value are dropped.
//
//	logger.Info("saved", logger.Fields("path", key, "bytes", n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return MergeWithError(Fields(FieldOperation, op), err)
}

// ResourceFields tags an API operation with the resource it acts on.
func ResourceFields(op, resourceID string) map[string]interface{} {
	return Fields(FieldOperation, op, FieldResourceID, resourceID)
}

// AttemptFields describes one round of a retry or poll loop.
func AttemptFields(resourceID string, attempt int, elapsed time.Duration) map[string]interface{} {
	return Fields(FieldResourceID, resourceID, FieldAttempt, attempt, FieldElapsed, elapsed.String())
}

// MergeWithError adds an error field to fields, allocating when nil.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration adds d in milliseconds to fields, allocating when nil.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
