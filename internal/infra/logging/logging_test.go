package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"serial-codegen/internal/config"
)

func TestNewWithWriter_LevelAndContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)

	ctx := WithCommand(WithTraceID(context.Background(), "01TESTTRACE"), "codegen")
	l := With(ctx, base)

	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	l.Warn().Int("produced", 26).Msg("short batch")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if entry["trace_id"] != "01TESTTRACE" || entry["command"] != "codegen" {
		t.Errorf("missing context fields: %v", entry)
	}
	if entry["level"] != "warn" || entry["message"] != "short batch" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewWithWriter_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.LogConfig{Level: "loud"}, false)
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) || bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("ABCDEF", false); got != "***" {
		t.Errorf("short value: got %q", got)
	}
	if got := Redact("postgres://user:pw@db", false); got != "post...db" {
		t.Errorf("long value: got %q", got)
	}
	if got := Redact("ABCDEF", true); got != "ABCDEF" {
		t.Errorf("dev mode must not redact, got %q", got)
	}
}

func TestNewTraceID(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if len(a) != 26 || a == b {
		t.Fatalf("expected distinct 26-char ids, got %q %q", a, b)
	}
}
