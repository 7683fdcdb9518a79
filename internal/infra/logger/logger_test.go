package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

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
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "info", "json"))
	log.Info("message deleted", "chat_id", int64(-100))

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") || !strings.Contains(buf.String(), `"chat_id":-100`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")

	log, closer, err := New("debug", "text", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Debug("hello", "user_id", 7)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "user_id=7") {
		t.Fatalf("unexpected log file content: %q", data)
	}
}
