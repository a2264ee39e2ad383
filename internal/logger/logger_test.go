package logger

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(b *bytes.Buffer) string {
	return ansi.ReplaceAllString(b.String(), "")
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}
	log.Warn("shown", "key", "value")
	out := buf.String()
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Fatalf("unexpected JSON output: %s", out)
	}
}

func TestFromFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		level  string
		debug  bool
		want   string
	}{
		{"json", "info", false, `"msg":"hello"`},
		{"text", "info", false, "msg=hello"},
		{"pretty", "info", false, "INF hello"},
		{"", "", false, "INF hello"},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		FromFlags(&buf, tc.format, tc.level, tc.debug).Info("hello")
		if got := plain(&buf); !strings.Contains(got, tc.want) {
			t.Errorf("FromFlags(%q): want %q in %q", tc.format, tc.want, got)
		}
	}
}

func TestFromFlagsDebugOverridesLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	FromFlags(&buf, "text", "error", true).Debug("dbg")
	if !strings.Contains(buf.String(), "dbg") {
		t.Fatalf("expected debug output, got %q", buf.String())
	}
}

func TestPrettyAttrsAndGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug).With("component", "api").WithGroup("req")
	log.Debug("served", "path", "/v1/step", "note", "two words")

	got := plain(&buf)
	for _, want := range []string{"DBG served", "component=api", "req.path=/v1/step", `req.note="two words"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("want %q in %q", want, got)
		}
	}
}

func TestPrettyEmptyGroupIsIdentity(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != slog.Handler(h) {
		t.Fatal("WithGroup(\"\") should return the receiver")
	}
}

func TestPrettyEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("roundtrip")
	if !strings.Contains(buf.String(), "roundtrip") {
		t.Fatalf("expected message via context logger, got %q", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()
	for s, want := range map[string]bool{"simple": false, "": false, "a b": true, "a=b": true, "q\"": true} {
		if got := needsQuoting(s); got != want {
			t.Errorf("needsQuoting(%q) = %v", s, got)
		}
	}
}
