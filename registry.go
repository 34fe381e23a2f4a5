package lfmap

import (
	"sync"
	"sync/atomic"
)

// registry is the shared set of per-handle epoch counters backing the
// quiescent-state reclamation scheme. Writers (handle registration and,
// unlike the literal spec, de-registration — see SPEC_FULL.md §4.3)
// acquire the exclusive lock; readers (cleanup snapshots) acquire the
// shared lock.
type registry struct {
	mu     sync.RWMutex
	epochs []*atomic.Uint64
}

func newRegistry() *registry {
	return &registry{}
}

// register adds a fresh, zeroed epoch counter and returns it. The epoch's
// value is monotonically non-decreasing from here on; only its parity
// (even == quiescent, odd == active) and forward movement matter.
func (r *registry) register() *atomic.Uint64 {
	epoch := new(atomic.Uint64)
	r.mu.Lock()
	r.epochs = append(r.epochs, epoch)
	r.mu.Unlock()
	return epoch
}

// deregister removes epoch from the registry. Implements the
// de-registration spec.md §9 flags as a known limitation to fix.
func (r *registry) deregister(epoch *atomic.Uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.epochs {
		if e == epoch {
			r.epochs[i] = r.epochs[len(r.epochs)-1]
			r.epochs = r.epochs[:len(r.epochs)-1]
			return
		}
	}
}

// snapshot returns every currently-registered epoch counter except self.
// The caller's own epoch is excluded: a handle never waits on itself, and
// its own epoch is already even (quiescent) whenever it runs cleanup, which
// happens after an operation's exit bump or from Close.
func (r *registry) snapshot(self *atomic.Uint64) []*atomic.Uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peers := make([]*atomic.Uint64, 0, len(r.epochs))
	for _, e := range r.epochs {
		if e != self {
			peers = append(peers, e)
		}
	}
	return peers
}
