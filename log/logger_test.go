package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/utf8conv/types"
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
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	meta := &types.RunMeta{RunID: "run-1", Source: "in.txt", From: types.FormatUTF8, To: types.FormatUTF32LE}
	l := newLoggerWithWriter(meta, &buf, zapcore.DebugLevel)

	l.Info("chunk decoded", map[string]any{"seq": 3})

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	for key, want := range map[string]string{
		"run_id":  "run-1",
		"source":  "in.txt",
		"from":    "utf8",
		"to":      "utf32le",
		"level":   "info",
		"message": "chunk decoded",
	} {
		if e[key] != want {
			t.Errorf("%s = %v, want %q", key, e[key], want)
		}
	}
	fields, ok := e["fields"].(map[string]any)
	if !ok || fields["seq"] != float64(3) {
		t.Errorf("fields = %v, want seq=3", e["fields"])
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerWithWriter(&types.RunMeta{RunID: "r", Source: "s"}, &buf, zapcore.WarnLevel)
	l.Info("hidden", nil)
	l.Warn("shown", nil)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["message"] != "shown" {
		t.Errorf("entries = %v, want only the warning", entries)
	}
}

func TestLogger_WithOutput(t *testing.T) {
	var first, second bytes.Buffer
	l := newLoggerWithWriter(&types.RunMeta{RunID: "r", Source: "s"}, &first, zapcore.DebugLevel)
	l.WithOutput(&second).With(map[string]any{"stage": "flush"}).Debug("moved", nil)

	if first.Len() != 0 {
		t.Errorf("original writer received %q", first.String())
	}
	entries := decodeLines(t, &second)
	if len(entries) != 1 || entries[0]["run_id"] != "r" || entries[0]["stage"] != "flush" {
		t.Errorf("entries = %v, want run_id and stage", entries)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("dropped", map[string]any{"k": "v"})
	l.Sugar().Infof("dropped %d", 1)
}

func TestLogger_SugarAndEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerWithWriter(&types.RunMeta{RunID: "r", Source: "s"}, &buf, zapcore.InfoLevel)
	l.Info("plain", nil)
	l.Sugar().With("adapter", "redis").Warnf("publish failed: %d attempts", 3)
	l.Sugar().Debugf("below level")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if _, ok := entries[0]["fields"]; ok {
		t.Errorf("empty fields were encoded: %v", entries[0])
	}
	if entries[1]["adapter"] != "redis" || entries[1]["message"] != "publish failed: 3 attempts" || entries[1]["run_id"] != "r" {
		t.Errorf("sugared entry = %v", entries[1])
	}
}
