package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Component: "test", Handler: slog.NewTextHandler(buf, nil)})
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
	})

	chain := Middleware(captureLogger(&buf))(inner)
	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	if !strings.Contains(out, "inside handler") {
		t.Fatalf("handler log line missing: %q", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Fatalf("component attribute missing: %q", out)
	}
}

func TestRequestIDMiddlewareTagsHandlerLogs(t *testing.T) {
	var buf bytes.Buffer
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
	})

	chain := Middleware(captureLogger(&buf))(
		RequestIDMiddleware(func(*http.Request) string { return "req_42" })(inner))
	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_42") {
		t.Fatalf("request id missing from handler log: %q", buf.String())
	}
}

func TestWithComponentRebinds(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf).WithComponent("mailer")
	if logger.Component() != "mailer" {
		t.Fatalf("component = %q, want mailer", logger.Component())
	}
	logger.Info("hello")
	if !strings.Contains(buf.String(), "component=mailer") {
		t.Fatalf("log output = %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("expected a usable fallback logger")
	}
	if logger.Component() != ComponentApp {
		t.Fatalf("fallback component = %q, want %q", logger.Component(), ComponentApp)
	}
}
