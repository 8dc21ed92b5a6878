package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.Info().Str("user_id", "u1").Msg("analysis saved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["message"] != "analysis saved" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["user_id"] != "u1" {
		t.Errorf("user_id = %v", entry["user_id"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected a timestamp field")
	}
}

func TestFromContext(t *testing.T) {
	var fallbackBuf, ctxBuf bytes.Buffer
	fallback := NewWithWriter(&fallbackBuf)
	reqLog := NewWithWriter(&ctxBuf).With().Str("request_id", "abc").Logger()

	l := FromContext(context.Background(), fallback)
	l.Info().Msg("no context logger")
	if fallbackBuf.Len() == 0 {
		t.Error("expected fallback logger to be used")
	}

	ctx := WithContext(context.Background(), reqLog)
	l = FromContext(ctx, fallback)
	l.Info().Msg("with context logger")
	if !bytes.Contains(ctxBuf.Bytes(), []byte(`"request_id":"abc"`)) {
		t.Errorf("expected request_id in context logger output, got %s", ctxBuf.String())
	}
}
