// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about scans, package-manager commands, and cache lookups.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetScanHooks(&myScanHooks{})
//	    observability.SetCommandHooks(&myCommandHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scan().OnScanStart(ctx, root)
//	// ... scan ...
//	observability.Scan().OnScanComplete(ctx, root, files, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scan Hooks
// =============================================================================

// ScanHooks receives events from full scans and per-file updates.
type ScanHooks interface {
	OnScanStart(ctx context.Context, root string)
	OnScanComplete(ctx context.Context, root string, fileCount int, duration time.Duration, err error)

	// OnFileParsed fires once per parsed file, with the number of registry
	// modules it references. err is the parse error, if any.
	OnFileParsed(ctx context.Context, path string, moduleCount int, err error)
}

// =============================================================================
// Command Hooks
// =============================================================================

// CommandHooks receives events from package-manager invocations.
type CommandHooks interface {
	OnCommandStart(ctx context.Context, runID, command string)
	OnCommandComplete(ctx context.Context, runID, command string, duration time.Duration, err error)
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

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnScanStart(context.Context, string)                                {}
func (NoopScanHooks) OnScanComplete(context.Context, string, int, time.Duration, error) {}
func (NoopScanHooks) OnFileParsed(context.Context, string, int, error)                  {}

// NoopCommandHooks is a no-op implementation of CommandHooks.
type NoopCommandHooks struct{}

func (NoopCommandHooks) OnCommandStart(context.Context, string, string) {}
func (NoopCommandHooks) OnCommandComplete(context.Context, string, string, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	scanHooks    ScanHooks    = NoopScanHooks{}
	commandHooks CommandHooks = NoopCommandHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetScanHooks registers custom scan hooks.
// This should be called once at application startup before any scan.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// SetCommandHooks registers custom command hooks.
func SetCommandHooks(h CommandHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		commandHooks = h
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

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Command returns the registered command hooks.
func Command() CommandHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return commandHooks
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
	scanHooks = NoopScanHooks{}
	commandHooks = NoopCommandHooks{}
	cacheHooks = NoopCacheHooks{}
}
