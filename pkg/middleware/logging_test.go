package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggingLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mw := Logging(logger)

	sentinel := errors.New("boom")
	err := mw(testCtx("save"), func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}

	out := buf.String()
	if !strings.Contains(out, "event failed") || !strings.Contains(out, "save") {
		t.Errorf("log output missing failure record: %s", out)
	}
}

func TestLoggingLogsSuccessAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mw := Logging(logger)
	if err := mw(testCtx("save"), func() error { return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}

	if !strings.Contains(buf.String(), "event handled") {
		t.Errorf("log output missing success record: %s", buf.String())
	}
}

func TestLoggingNilLoggerUsesDefault(t *testing.T) {
	mw := Logging(nil)
	if err := mw(testCtx("save"), func() error { return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}
}
