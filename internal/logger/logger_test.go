package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Init(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info("dropped")
	l.Warn("kept", "k", "v")

	if strings.Contains(buf.String(), "dropped") {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %v: %s", err, buf.String())
	}
	if rec["msg"] != "kept" || rec["k"] != "v" {
		t.Fatalf("record = %v", rec)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithRequestID(context.Background(), "req-123")
	FromContext(ctx, base).Info("generated")
	if !strings.Contains(buf.String(), "request_id=req-123") {
		t.Fatalf("missing request id: %s", buf.String())
	}

	buf.Reset()
	FromContext(context.Background(), base).Info("plain")
	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("unexpected request id: %s", buf.String())
	}
}
