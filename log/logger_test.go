package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/justapithecus/hessian/types"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogger_SessionFieldsAndTopLevelKeys(t *testing.T) {
	var buf bytes.Buffer
	meta := &types.SessionMeta{SessionID: "s-1", Source: "capture.bin", Scope: "message"}
	logger := NewLoggerWithWriter(meta, &buf)

	logger.Error("decode error", map[string]any{"offset": 12, "error_kind": "unknown_tag"})

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	want := map[string]any{
		"level":      "error",
		"message":    "decode error",
		"session_id": "s-1",
		"source":     "capture.bin",
		"scope":      "message",
		"error_kind": "unknown_tag",
		"offset":     float64(12),
	}
	for k, v := range want {
		if e[k] != v {
			t.Errorf("%s = %v, want %v", k, e[k], v)
		}
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestLogger_OmitsEmptySource(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter(&types.SessionMeta{SessionID: "s-1", Scope: "stream"}, &buf).Info("x", nil)

	if _, ok := decodeLines(t, &buf)[0]["source"]; ok {
		t.Error("source should be omitted when empty")
	}
}

func TestLogger_WithLevel(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"warn", []string{"warn", "error"}},
		{"error", []string{"error"}},
		{"bogus", []string{"debug", "info", "warn", "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(nil, &buf).WithLevel(tt.level)
			logger.Debug("m", nil)
			logger.Info("m", nil)
			logger.Warn("m", nil)
			logger.Error("m", nil)

			var got []string
			for _, e := range decodeLines(t, &buf) {
				got = append(got, e["level"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("levels = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Error("discarded", map[string]any{"k": "v"})
	_ = logger.Sync()
}
