package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Component: ComponentLedger, Output: &buf})
	return l, &buf
}

func TestLoggerStampsComponent(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	l.Info("hello", "k", "v")
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentStorage).Info("other")
	if !strings.Contains(buf.String(), "component=storage") {
		t.Fatalf("expected storage component, got %s", buf.String())
	}
}

func TestLoggerDoesNotDuplicateComponent(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	l.Info("explicit", FieldComponent, ComponentHTTP)
	if strings.Count(buf.String(), "component=") != 1 {
		t.Fatalf("expected a single component field, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	ctx := WithLogger(context.Background(), l.With(FieldRequestID, "req-1"))

	FromContext(ctx).Info("inside")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("expected request id in log, got %s", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelDebug)
	sl := NewStructuredLogger(l)
	r := httptest.NewRequest(http.MethodGet, "/api/balance", nil)

	sl.LogHTTPEnd(context.Background(), r, 500, 3)
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status_code=500") {
		t.Fatalf("expected error level for 500, got %s", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("bad"), ComponentStorage, OpList, nil)
	if !strings.Contains(buf.String(), "error=bad") || !strings.Contains(buf.String(), "operation=list") {
		t.Fatalf("unexpected error log: %s", buf.String())
	}
}
