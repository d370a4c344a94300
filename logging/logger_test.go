package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newBufLogger(level slog.Level, format string) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(Config{Level: level, Format: format, Output: &buf}), &buf
}

func TestNewLoggerTextFormat(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "text")
	logger.Info("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected 'test message' in output, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected 'key=value' in output, got: %s", output)
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "json")
	logger.Info("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, `"msg":"test message"`) {
		t.Errorf("expected msg field in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Errorf("expected key field in JSON output, got: %s", output)
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelWarn, "text")

	logger.Info("info message")
	if strings.Contains(buf.String(), "info message") {
		t.Error("info message should be filtered at Warn level")
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("warn message should pass at Warn level")
	}
}

func TestWithThread(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "text")
	WithThread(logger, 0xcafe0001).Info("thread message")

	if !strings.Contains(buf.String(), "thread_handle=0xcafe0001") {
		t.Errorf("expected thread_handle in output, got: %s", buf.String())
	}
}

func TestWithSession(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "text")
	WithSession(logger, 0x1001).Info("session message")

	if !strings.Contains(buf.String(), "session_handle=0x00001001") {
		t.Errorf("expected session_handle in output, got: %s", buf.String())
	}
}

func TestWithCommand(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "text")
	WithCommand(logger, 5).Info("command message")

	if !strings.Contains(buf.String(), "command_id=5") {
		t.Errorf("expected command_id in output, got: %s", buf.String())
	}
}

func TestWithOperation(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "text")
	WithOperation(logger, "create").Info("operation message")

	if !strings.Contains(buf.String(), "operation=create") {
		t.Errorf("expected operation in output, got: %s", buf.String())
	}
}

func TestChainedWith(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "json")
	WithSession(WithOperation(WithThread(logger, 1234), "send_sync_request"), 0x1001).Info("chained message")

	output := buf.String()
	if !strings.Contains(output, `"session_handle":"0x00001001"`) {
		t.Errorf("missing session_handle in output: %s", output)
	}
	if !strings.Contains(output, `"operation":"send_sync_request"`) {
		t.Errorf("missing operation in output: %s", output)
	}
}

func TestContextWithLogger(t *testing.T) {
	logger, buf := newBufLogger(slog.LevelInfo, "text")

	ctx := ContextWithLogger(context.Background(), logger)
	retrieved := FromContext(ctx)
	if retrieved != logger {
		t.Error("expected the same logger back from the context")
	}

	retrieved.Info("context message")
	if !strings.Contains(buf.String(), "context message") {
		t.Error("expected message to reach the context logger's output")
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
	if logger != Default() {
		t.Error("expected the default logger for a bare context")
	}
}

func TestSetDefault(t *testing.T) {
	logger, _ := newBufLogger(slog.LevelInfo, "text")

	prev := Default()
	SetDefault(logger)
	defer SetDefault(prev)

	if Default() != logger {
		t.Error("SetDefault did not change the default logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
