package lfmap

import "sync/atomic"

// Recorder receives operationally interesting events from a map's internals
// (bucket binding counts, cleanup rounds). It is implemented by
// metrics.Recorder; the interface lives here, not in the metrics package,
// so this package does not need to import Prometheus to define its hook.
type Recorder interface {
	ObserveBinding(delta int)
	ObserveCleanup(waitedPeers, reclaimedNodes, reclaimedValues int)
}

// mapCore is the state shared by every Handle cloned from the same map:
// the bucket array, the handle registry, and the allocation counters used
// to verify the "no leaks" property (spec.md §8, invariant 4). It has no
// public surface of its own — all public operations go through Handle.
type mapCore[K any, V any] struct {
	buckets []*orderedList[K, V]
	nitems  atomic.Int64

	hasher Hasher[K]
	less   func(a, b K) bool

	registry    *registry
	refreshRate int
	metrics     Recorder

	liveNodes  atomic.Int64
	liveValues atomic.Int64
}

func newCore[K any, V any](nbuckets int, hasher Hasher[K], less func(a, b K) bool) *mapCore[K, V] {
	if nbuckets <= 0 {
		panic("lfmap: nbuckets must be positive")
	}
	core := &mapCore[K, V]{
		hasher:      hasher,
		less:        less,
		registry:    newRegistry(),
		refreshRate: defaultRefreshRate,
	}
	core.buckets = make([]*orderedList[K, V], nbuckets)
	for i := range core.buckets {
		core.buckets[i] = newOrderedList(core, less)
	}
	return core
}

func (c *mapCore[K, V]) bucketFor(key K) *orderedList[K, V] {
	h := c.hasher.Hash(key)
	return c.buckets[h%uint64(len(c.buckets))]
}

func (c *mapCore[K, V]) allocSentinel() *node[K, V] {
	c.liveNodes.Add(1)
	return newSentinel[K, V]()
}

func (c *mapCore[K, V]) allocNode(key K, value V, next *node[K, V]) *node[K, V] {
	c.liveNodes.Add(1)
	c.liveValues.Add(1)
	return newNode(key, value, next)
}

// allocValue accounts for a value cell allocated outside allocNode, i.e.
// the fresh cell an update-in-place insert swaps into an existing node's
// value pointer. Without this, liveValues undercounts every update-in-place
// binding relative to the cell freeValue later decrements for it.
func (c *mapCore[K, V]) allocValue() {
	c.liveValues.Add(1)
}

// freeNode is the reclamation-time counterpart of allocNode/allocSentinel:
// it is called only once a cleanup round has proven no handle can still
// observe n, at which point dropping Go's own reference to it is all that
// "freeing" means here (see DESIGN.md, core.go section, for why).
func (c *mapCore[K, V]) freeNode(n *node[K, V]) {
	c.liveNodes.Add(-1)
	_ = n
}

func (c *mapCore[K, V]) freeValue(v *V) {
	if v == nil {
		return
	}
	c.liveValues.Add(-1)
}

func (c *mapCore[K, V]) insert(key K, value V, dl *deferLists[K, V]) (old V, hadOld bool) {
	old, hadOld = c.bucketFor(key).insert(key, value, dl)
	if !hadOld {
		c.nitems.Add(1)
		if c.metrics != nil {
			c.metrics.ObserveBinding(1)
		}
	}
	return old, hadOld
}

func (c *mapCore[K, V]) get(key K, dl *deferLists[K, V]) (V, bool) {
	return c.bucketFor(key).get(key, dl)
}

func (c *mapCore[K, V]) remove(key K, dl *deferLists[K, V]) (old V, ok bool) {
	old, ok = c.bucketFor(key).delete(key, dl)
	if ok {
		c.nitems.Add(-1)
		if c.metrics != nil {
			c.metrics.ObserveBinding(-1)
		}
	}
	return old, ok
}

func (c *mapCore[K, V]) len() int {
	n := c.nitems.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
