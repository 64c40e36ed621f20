// Package observability provides hooks for metrics, tracing and logging.
//
// The pipeline and the runner report what they do through hook interfaces
// instead of depending on an observability backend. The defaults do
// nothing; the command line registers logging hooks when run with
// --verbose, and other embedders can register their own.
//
// Register hooks at startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnParseStart(ctx, len(data))
//	// ... parse ...
//	observability.Pipeline().OnParseComplete(ctx, lines, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the processing pipeline.
type PipelineHooks interface {
	// Parse events
	OnParseStart(ctx context.Context, size int)
	OnParseComplete(ctx context.Context, lines int, duration time.Duration, err error)

	// Transform events (segmenting, classifying and rewriting layers)
	OnTransformStart(ctx context.Context, layers int)
	OnTransformComplete(ctx context.Context, changed int, duration time.Duration)

	// Emit events
	OnEmitComplete(ctx context.Context, size int, duration time.Duration)

	// OnWarning receives every recoverable problem found during a run.
	OnWarning(ctx context.Context, w errors.Warning)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations. keyType is one of
// "output", "marker" or "original".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, int)                          {}
func (NoopPipelineHooks) OnParseComplete(context.Context, int, time.Duration, error) {}
func (NoopPipelineHooks) OnTransformStart(context.Context, int)                      {}
func (NoopPipelineHooks) OnTransformComplete(context.Context, int, time.Duration)    {}
func (NoopPipelineHooks) OnEmitComplete(context.Context, int, time.Duration)         {}
func (NoopPipelineHooks) OnWarning(context.Context, errors.Warning)                  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
