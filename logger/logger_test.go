package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func captureLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := New(&Config{Level: level, Format: "json", Output: "stdout", Writer: &buf}, "apify")
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if i := strings.LastIndex(line, "\n"); i >= 0 {
		line = line[i+1:]
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNew_WritesServiceField(t *testing.T) {
	l, buf := captureLogger(t, "debug")
	l.Info("hello", Fields("k", "v"))

	m := decodeLine(t, buf)
	if m["service"] != "apify" {
		t.Errorf("service = %v", m["service"])
	}
	if m["message"] != "hello" || m["k"] != "v" {
		t.Errorf("unexpected line %v", m)
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := captureLogger(t, "invalid-level")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", buf.String())
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Fatal("expected info line")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("nothing")
	if l.logger.GetLevel().String() != "disabled" {
		t.Errorf("nop logger level = %s", l.logger.GetLevel())
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := captureLogger(t, "info")
	cl := l.WithComponent("dataset")
	if cl.service != "apify" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
	cl.Info("x")
	if m := decodeLine(t, buf); m["component"] != "dataset" {
		t.Errorf("component = %v", m["component"])
	}
}

func TestWithContext_SpanAndCorrelation(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithRequestID(ctx, "req-2")

	l, buf := captureLogger(t, "info")
	l.WithContext(ctx).Info("traced")

	m := decodeLine(t, buf)
	if m[FieldTraceID] != traceID.String() {
		t.Errorf("trace_id = %v", m[FieldTraceID])
	}
	if m[FieldSpanID] != spanID.String() {
		t.Errorf("span_id = %v", m[FieldSpanID])
	}
	if m[FieldCorrelationID] != "corr-1" || m[FieldRequestID] != "req-2" {
		t.Errorf("ids missing: %v", m)
	}
}

func TestWithContext_Empty(t *testing.T) {
	l, buf := captureLogger(t, "info")
	l.WithContext(context.Background()).Info("plain")
	m := decodeLine(t, buf)
	if _, ok := m[FieldTraceID]; ok {
		t.Error("trace_id should be absent without a span")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Writer: &buf})
	defer SetGlobalLogger(nil)

	Info("dropped")
	Warn("kept")
	if strings.Contains(buf.String(), "dropped") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn line missing")
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestSetGlobalLogger(t *testing.T) {
	l := NewDefault("custom")
	SetGlobalLogger(l)
	defer SetGlobalLogger(nil)
	if GetGlobalLogger() != l {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("timestamp should default to true")
	}

	cfg = Config{Level: "debug", Format: "json", Output: "stdout"}
	cfg.ApplyDefaults()
	if cfg.Level != "debug" || cfg.Format != "json" || cfg.Output != "stdout" {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "info", Format: "json", Output: "stdout"}, false},
		{"text is console", Config{Level: "debug", Format: "text", Output: "stderr"}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConsoleFormat_NoColor(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "info", Format: "text", NoColor: true, Writer: &buf}, "apify")
	l.Info("console line")
	out := buf.String()
	if !strings.Contains(out, "[API][INF]") {
		t.Errorf("expected tagged level prefix, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no color codes, got %q", out)
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := NewDefault("registered")
	Register("svc-a", l)
	t.Cleanup(func() { Unregister("svc-a") })
	if Get("svc-a") != l {
		t.Error("expected registered logger")
	}
	Init(Config{Level: "warn", Format: "json"})
	if Get("svc-a") != l {
		t.Error("expected registered logger to survive Init")
	}
}

func TestGetDerivedFollowsInit(t *testing.T) {
	var first, second bytes.Buffer
	Init(Config{Level: "info", Format: "json", Writer: &first})
	Get("poller").Info("one")
	if Get("poller") != Get("poller") {
		t.Error("expected derived logger to be cached")
	}

	Init(Config{Level: "info", Format: "json", Writer: &second})
	Get("poller").Info("two")
	if !strings.Contains(first.String(), `"one"`) || strings.Contains(first.String(), `"two"`) {
		t.Errorf("unexpected first output %q", first.String())
	}
	if !strings.Contains(second.String(), `"component":"poller"`) {
		t.Errorf("expected component tag after re-init, got %q", second.String())
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(m) != 2 {
		t.Fatalf("len = %d, want 2", len(m))
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("save", errors.New("disk full"))
	if m[FieldOperation] != "save" || m[FieldError] != "disk full" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestResourceAndAttemptFields(t *testing.T) {
	m := ResourceFields("get_dataset", "ds1")
	if m[FieldOperation] != "get_dataset" || m[FieldResourceID] != "ds1" {
		t.Errorf("unexpected fields %v", m)
	}
	m = AttemptFields("ds1", 3, 1500*time.Millisecond)
	if m[FieldAttempt] != 3 || m[FieldElapsed] != "1.5s" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestMergeWithError(t *testing.T) {
	m := MergeWithError(nil, errors.New("x"))
	if m[FieldError] != "x" {
		t.Errorf("error = %v", m[FieldError])
	}
	existing := map[string]interface{}{"k": "v"}
	m = MergeWithError(existing, errors.New("y"))
	if m["k"] != "v" || m[FieldError] != "y" {
		t.Errorf("unexpected merge %v", m)
	}
}

func TestMergeWithDuration(t *testing.T) {
	m := MergeWithDuration(Fields(FieldAttempt, 2), 250*time.Millisecond)
	if m[FieldDuration] != int64(250) || m[FieldAttempt] != 2 {
		t.Errorf("unexpected merge %v", m)
	}
}
