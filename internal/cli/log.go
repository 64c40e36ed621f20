package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Analyzed 120 layers (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// pipelineLogHooks logs pipeline events at debug level. Warnings are
// already logged by the runner.
type pipelineLogHooks struct {
	logger *log.Logger
}

func newPipelineLogHooks(l *log.Logger) observability.PipelineHooks {
	return pipelineLogHooks{logger: l}
}

func (h pipelineLogHooks) OnParseStart(_ context.Context, size int) {
	h.logger.Debug("parse started", "bytes", size)
}

func (h pipelineLogHooks) OnParseComplete(_ context.Context, lines int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("parse failed", "error", err, "duration", d)
		return
	}
	h.logger.Debug("parse complete", "lines", lines, "duration", d)
}

func (h pipelineLogHooks) OnTransformStart(_ context.Context, layers int) {
	h.logger.Debug("transform started", "layers", layers)
}

func (h pipelineLogHooks) OnTransformComplete(_ context.Context, changed int, d time.Duration) {
	h.logger.Debug("transform complete", "changed", changed, "duration", d)
}

func (h pipelineLogHooks) OnEmitComplete(_ context.Context, size int, d time.Duration) {
	h.logger.Debug("emit complete", "bytes", size, "duration", d)
}

func (pipelineLogHooks) OnWarning(context.Context, errors.Warning) {}

// cacheLogHooks logs cache events at debug level.
type cacheLogHooks struct {
	logger *log.Logger
}

func newCacheLogHooks(l *log.Logger) observability.CacheHooks {
	return cacheLogHooks{logger: l}
}

func (h cacheLogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h cacheLogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h cacheLogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}
