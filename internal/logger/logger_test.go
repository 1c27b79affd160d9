package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewProvidesJSONLogger(t *testing.T) {
	l := New()
	if l == nil {
		t.Fatal("expected logger, got nil")
	}

	if !l.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("expected info level to be enabled")
	}
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("did not expect debug level to be enabled")
	}

	if _, ok := l.Handler().(*slog.JSONHandler); !ok {
		t.Fatalf("expected JSON handler, got %T", l.Handler())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextAttributesAreThreaded(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithLevel(&buf, "info")

	ctx := With(context.Background(), slog.String("command", "CreateLoyaltyBank"))
	ctx = With(ctx, slog.String("correlation_id", "c-1"))
	FromContext(ctx, base).Info("handled")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if line["command"] != "CreateLoyaltyBank" || line["correlation_id"] != "c-1" {
		t.Fatalf("expected threaded attributes, got %v", line)
	}

	if FromContext(context.Background(), base) != base {
		t.Fatal("expected base logger for bare context")
	}
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	parent := With(context.Background(), slog.String("a", "1"))
	_ = With(parent, slog.String("b", "2"))
	if got := len(attrsFrom(parent)); got != 1 {
		t.Fatalf("expected parent to keep one attribute, got %d", got)
	}
}
