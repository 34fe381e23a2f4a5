package lfmap

import (
	"runtime"
	"sync/atomic"

	"github.com/semihalev/zlog/v2"
)

// Handle is the per-goroutine facade onto a map: it owns an epoch counter
// and a pair of private defer-lists, and is the unit of concurrent access.
// A Handle must not be shared across goroutines or migrated between them
// while in use — use Clone to hand each goroutine its own Handle onto the
// same underlying map (spec.md §5, §7).
type Handle[K any, V any] struct {
	core     *mapCore[K, V]
	epoch    *atomic.Uint64
	deferred deferLists[K, V]
	ops      int
	closed   bool
}

// New constructs a map with the given fixed bucket count and returns its
// first handle. hasher and less are the map's external collaborators
// (spec.md §1): hasher routes keys to buckets, less gives the total order
// each bucket's list is maintained under.
func New[K any, V any](nbuckets int, hasher Hasher[K], less func(a, b K) bool, opts ...Option[K, V]) *Handle[K, V] {
	core := newCore[K, V](nbuckets, hasher, less)
	for _, opt := range opts {
		opt(core)
	}
	return newHandle(core)
}

func newHandle[K any, V any](core *mapCore[K, V]) *Handle[K, V] {
	return &Handle[K, V]{
		core:  core,
		epoch: core.registry.register(),
	}
}

// Clone returns an additional handle sharing the same underlying map, with
// its own fresh epoch counter and empty defer-lists.
func (h *Handle[K, V]) Clone() *Handle[K, V] {
	return newHandle[K, V](h.core)
}

// Insert binds key to value, returning the previous value if key was
// already bound.
func (h *Handle[K, V]) Insert(key K, value V) (old V, hadOld bool) {
	h.enter()
	old, hadOld = h.core.insert(key, value, &h.deferred)
	h.exit()
	return old, hadOld
}

// Get returns a copy of the value currently bound to key.
func (h *Handle[K, V]) Get(key K) (value V, ok bool) {
	h.enter()
	value, ok = h.core.get(key, &h.deferred)
	h.exit()
	return value, ok
}

// Remove unbinds key, returning the value that was bound to it.
func (h *Handle[K, V]) Remove(key K) (value V, ok bool) {
	h.enter()
	value, ok = h.core.remove(key, &h.deferred)
	h.exit()
	return value, ok
}

// Len returns a best-effort count of distinct bound keys.
func (h *Handle[K, V]) Len() int {
	return h.core.len()
}

// IsEmpty is a best-effort emptiness check.
func (h *Handle[K, V]) IsEmpty() bool {
	return h.Len() == 0
}

// enter and exit bracket a public operation with the epoch bump that makes
// this handle's activity visible to peers running cleanup: odd == active,
// even == quiescent (spec.md §4.4).
func (h *Handle[K, V]) enter() {
	if h.closed {
		panic("lfmap: use of handle after Close")
	}
	h.epoch.Add(1)
}

func (h *Handle[K, V]) exit() {
	h.epoch.Add(1)
	h.ops++
	if h.ops >= h.core.refreshRate {
		h.ops = 0
		h.cleanup()
	}
}

// cleanup waits for every other registered handle to pass a quiescent
// point that started no earlier than this call, then reclaims everything
// this handle has deferred. See spec.md §4.4 for why this is safe: any
// peer that was active when we snapshotted its epoch cannot have entered a
// *new* critical section before the unlinks we're about to reclaim — those
// unlinks all happened-before this very call, on this very handle.
func (h *Handle[K, V]) cleanup() {
	peers := h.core.registry.snapshot(h.epoch)
	started := make([]uint64, len(peers))
	for i, p := range peers {
		started[i] = p.Load()
	}

	waited := 0
	for i, p := range peers {
		if started[i]%2 == 0 {
			continue // already quiescent at snapshot time
		}
		waited++
		for iter := 0; ; iter++ {
			cur := p.Load()
			if cur%2 == 0 || cur != started[i] {
				break
			}
			if iter%4 == 3 {
				runtime.Gosched()
			}
		}
	}

	nodes, values := h.deferred.reclaim(h.core)

	if h.core.metrics != nil {
		h.core.metrics.ObserveCleanup(waited, nodes, values)
	}
	if nodes > 0 || values > 0 || waited > 0 {
		zlog.Debug("lfmap: cleanup round complete",
			"waited_peers", waited, "reclaimed_nodes", nodes, "reclaimed_values", values)
	}
}

// Close runs one last cleanup and then deregisters this handle's epoch
// counter. Only a handle's own cleanup reclaims its defer-lists, so without
// this final round its deferred memory would wait for a refresh boundary a
// closed handle never reaches. A closed handle must not be used again.
func (h *Handle[K, V]) Close() {
	if h.closed {
		return
	}
	h.cleanup()
	h.core.registry.deregister(h.epoch)
	h.closed = true
}
