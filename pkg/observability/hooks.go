// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about layout runs, controller transitions, storage access and
// cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [Prometheus] implements every hook interface on top of a private
// prometheus registry. The serve command registers it and exposes the
// registry on /metrics.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewPrometheus()
//	    observability.SetLayoutHooks(m)
//	    observability.SetControllerHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(ctx, "layered", "RL", nodeCount)
//	// ... place nodes ...
//	observability.Layout().OnLayoutComplete(ctx, "layered", "RL", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout orchestrator.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, engine, direction string, nodeCount int)
	OnLayoutComplete(ctx context.Context, engine, direction string, duration time.Duration, err error)
}

// =============================================================================
// Controller Hooks
// =============================================================================

// ControllerHooks receives events from the view controller.
type ControllerHooks interface {
	// OnParse records one document parse.
	OnParse(ctx context.Context, nodeCount int, duration time.Duration, err error)

	// OnTransition records a processed event and the resulting state change.
	// from and to are equal when the event left the state unchanged.
	OnTransition(ctx context.Context, event, from, to string)

	// OnPublish records a frame handed to the render surface.
	OnPublish(ctx context.Context, state string, nodeCount int)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document storage backends.
type StoreHooks interface {
	// OnOperation records a Get or Set against a backend.
	OnOperation(ctx context.Context, backend, op string, duration time.Duration, err error)

	// OnChange records a change notification delivered to a watcher.
	OnChange(ctx context.Context, backend string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, string, int) {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, string, time.Duration, error) {
}

// NoopControllerHooks is a no-op implementation of ControllerHooks.
type NoopControllerHooks struct{}

func (NoopControllerHooks) OnParse(context.Context, int, time.Duration, error)   {}
func (NoopControllerHooks) OnTransition(context.Context, string, string, string) {}
func (NoopControllerHooks) OnPublish(context.Context, string, int)               {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnOperation(context.Context, string, string, time.Duration, error) {}
func (NoopStoreHooks) OnChange(context.Context, string)                                  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks     LayoutHooks     = NoopLayoutHooks{}
	controllerHooks ControllerHooks = NoopControllerHooks{}
	storeHooks      StoreHooks      = NoopStoreHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout runs.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetControllerHooks registers custom controller hooks.
func SetControllerHooks(h ControllerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		controllerHooks = h
	}
}

// SetStoreHooks registers custom storage hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
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

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Controller returns the registered controller hooks.
func Controller() ControllerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return controllerHooks
}

// Store returns the registered storage hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
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
	layoutHooks = NoopLayoutHooks{}
	controllerHooks = NoopControllerHooks{}
	storeHooks = NoopStoreHooks{}
	cacheHooks = NoopCacheHooks{}
}
