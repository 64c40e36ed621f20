package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	// Test that it can log
	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	if prog == nil {
		t.Fatal("newProgress() returned nil")
	}

	// Small delay to ensure measurable duration
	time.Sleep(10 * time.Millisecond)

	prog.done("test completed")

	output := buf.String()
	if output == "" {
		t.Error("progress.done() should produce output")
	}

	// Should contain the message
	if !bytes.Contains(buf.Bytes(), []byte("test completed")) {
		t.Error("progress.done() output should contain message")
	}
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	logger := log.Default()

	ctxWithLogger := withLogger(ctx, logger)

	// Should be able to retrieve the logger
	retrieved := loggerFromContext(ctxWithLogger)
	if retrieved != logger {
		t.Error("loggerFromContext should return the same logger")
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	ctx := context.Background()

	// Without logger in context, should return default
	logger := loggerFromContext(ctx)
	if logger == nil {
		t.Error("loggerFromContext should return default logger when none set")
	}
}

func TestLoggerFromContextWithValue(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	customLogger := newLogger(&buf, log.InfoLevel)

	ctx = withLogger(ctx, customLogger)
	retrieved := loggerFromContext(ctx)

	if retrieved != customLogger {
		t.Error("loggerFromContext should return the custom logger")
	}

	// Verify it works by logging
	retrieved.Info("test")
	if buf.Len() == 0 {
		t.Error("custom logger should write to buffer")
	}
}

func TestPipelineLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := newPipelineLogHooks(newLogger(&buf, log.DebugLevel))
	ctx := context.Background()

	hooks.OnParseStart(ctx, 1024)
	hooks.OnParseComplete(ctx, 42, time.Millisecond, nil)
	hooks.OnTransformStart(ctx, 4)
	hooks.OnTransformComplete(ctx, 7, time.Millisecond)
	hooks.OnEmitComplete(ctx, 2048, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"parse started", "parse complete", "transform started", "transform complete", "emit complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("hook output missing %q:\n%s", want, out)
		}
	}
}

func TestPipelineLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	hooks := newPipelineLogHooks(newLogger(&buf, log.InfoLevel))
	hooks.OnParseStart(context.Background(), 1)
	if buf.Len() != 0 {
		t.Errorf("debug hooks should not log at info level, got %q", buf.String())
	}
}

func TestCacheLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := newCacheLogHooks(newLogger(&buf, log.DebugLevel))
	ctx := context.Background()

	hooks.OnCacheHit(ctx, "output")
	hooks.OnCacheMiss(ctx, "marker")
	hooks.OnCacheSet(ctx, "original", 10)

	out := buf.String()
	for _, want := range []string{"cache hit", "cache miss", "cache set", "kind=marker"} {
		if !strings.Contains(out, want) {
			t.Errorf("hook output missing %q:\n%s", want, out)
		}
	}
}
