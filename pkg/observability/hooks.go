// Package observability provides hooks for tracing, metrics and logging.
//
// Libraries emit events through the registered hooks; binaries decide what
// receives them. The defaults are no-ops, so nothing is recorded unless a
// main package registers an implementation.
//
// # Usage
//
// Register hooks at startup:
//
//	tp, _ := observability.InitTracing(ctx, cfg)
//	defer tp.Shutdown(ctx)
//	observability.SetStageHooks(observability.NewTracingHooks(tp.Tracer()))
//
// The detection runner brackets every stage:
//
//	ctx = observability.Stages().OnStageStart(ctx, "reduction")
//	// ... run the detector ...
//	observability.Stages().OnStageComplete(ctx, "reduction", len(results), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// StageHooks receives events for each stage of a detection run.
type StageHooks interface {
	// OnStageStart is called before a stage runs. The returned context is
	// passed to the stage and to OnStageComplete.
	OnStageStart(ctx context.Context, stage string) context.Context
	// OnStageComplete is called after the stage returns.
	OnStageComplete(ctx context.Context, stage string, results int, duration time.Duration, err error)
}

// CacheHooks receives events from report caching.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopStageHooks ignores all events.
type NoopStageHooks struct{}

func (NoopStageHooks) OnStageStart(ctx context.Context, _ string) context.Context { return ctx }
func (NoopStageHooks) OnStageComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks ignores all events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	stageHooks StageHooks = NoopStageHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetStageHooks registers stage hooks. Nil is ignored.
func SetStageHooks(h StageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		stageHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Stages returns the registered stage hooks.
func Stages() StageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return stageHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	stageHooks = NoopStageHooks{}
	cacheHooks = NoopCacheHooks{}
}
