package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("json format writes to configured output", func(t *testing.T) {
		var buf bytes.Buffer
		Init(&Config{Level: "info", Format: "json", Output: &buf})

		slog.Info("hello", "k", "v")
		if !strings.Contains(buf.String(), `"msg":"hello"`) {
			t.Errorf("output = %q, want json message", buf.String())
		}
	})

	t.Run("level filters lower records", func(t *testing.T) {
		var buf bytes.Buffer
		Init(&Config{Level: "warn", Format: "text", Output: &buf})

		slog.Info("hidden")
		slog.Warn("shown")
		if strings.Contains(buf.String(), "hidden") {
			t.Error("info record written at warn level")
		}
		if !strings.Contains(buf.String(), "shown") {
			t.Error("warn record missing")
		}
	})
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: "text", Output: &buf})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	ctx = context.WithValue(ctx, SessionIDKey, "sess-1")

	WithContext(ctx).Info("processing")
	out := buf.String()
	if !strings.Contains(out, "request_id=req-123") {
		t.Errorf("output = %q, want request_id", out)
	}
	if !strings.Contains(out, "session_id=sess-1") {
		t.Errorf("output = %q, want session_id", out)
	}
}

func TestWithContextEmpty(t *testing.T) {
	Init(&Config{Level: "info", Format: "text", Output: &bytes.Buffer{}})

	if WithContext(context.Background()) == nil {
		t.Error("Expected non-nil logger")
	}
}

func TestLogFunctions(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")

	Info(ctx, "info message", "key", "value")
	if !strings.Contains(buf.String(), "info message") {
		t.Error("Expected info message in log")
	}

	buf.Reset()
	Debug(ctx, "debug message")
	if !strings.Contains(buf.String(), "debug message") {
		t.Error("Expected debug message in log")
	}

	buf.Reset()
	Warn(ctx, "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("Expected warn message in log")
	}

	buf.Reset()
	Error(ctx, "error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Error("Expected error message in log")
	}
}
