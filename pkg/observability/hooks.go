// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about the flame engine, headless runs and the preset store.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the engine never imports
// a metrics or logging backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	hits := flame.Accumulate(...)
//	observability.Engine().OnStep(iteration, hits, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from a flame engine.
// Engines run on the host's frame loop, so these calls carry no context.
type EngineHooks interface {
	// OnRestart fires when transforms are reseeded. directed is true for
	// control-point reseeds.
	OnRestart(directed bool)

	// OnRerender fires after bounds estimation with the number of samples
	// that landed in the bounds and whether the bounds stayed empty.
	OnRerender(samples int, empty bool, duration time.Duration)

	// OnStep fires after each accumulation step.
	OnStep(iteration, hits int, duration time.Duration)

	// OnFrozen fires once when the engine stops accumulating.
	OnFrozen(iterations int)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from headless runs.
type PipelineHooks interface {
	OnRunStart(ctx context.Context, width, height int, quality string)
	OnRunComplete(ctx context.Context, iterations int, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from preset store operations.
type StoreHooks interface {
	// OnHit records a successful lookup.
	OnHit(ctx context.Context, backend string)

	// OnMiss records a lookup that found nothing.
	OnMiss(ctx context.Context, backend string)

	// OnSet records a write.
	OnSet(ctx context.Context, backend string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnRestart(bool)                      {}
func (NoopEngineHooks) OnRerender(int, bool, time.Duration) {}
func (NoopEngineHooks) OnStep(int, int, time.Duration)      {}
func (NoopEngineHooks) OnFrozen(int)                        {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, int, int, string)             {}
func (NoopPipelineHooks) OnRunComplete(context.Context, int, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnHit(context.Context, string)      {}
func (NoopStoreHooks) OnMiss(context.Context, string)     {}
func (NoopStoreHooks) OnSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks   EngineHooks   = NoopEngineHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	hooksMu       sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any engine is created.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	pipelineHooks = NoopPipelineHooks{}
	storeHooks = NoopStoreHooks{}
}
