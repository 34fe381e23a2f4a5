package lfmap

import "testing"

func TestRegistryRegisterSnapshotDeregister(t *testing.T) {
	r := newRegistry()
	a := r.register()
	b := r.register()
	c := r.register()

	peers := r.snapshot(a)
	if len(peers) != 2 {
		t.Fatalf("snapshot(a) returned %d peers, want 2", len(peers))
	}
	for _, p := range peers {
		if p == a {
			t.Fatalf("snapshot(a) included a itself")
		}
	}

	r.deregister(b)
	peers = r.snapshot(a)
	if len(peers) != 1 || peers[0] != c {
		t.Fatalf("snapshot(a) after deregister(b) = %v, want [c]", peers)
	}

	// Deregistering an already-removed or unknown epoch is a no-op.
	r.deregister(b)
}

func TestOptionsValidation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("WithRefreshRate(0) did not panic")
		}
	}()
	New[int, int](1, IntHasher(), intLess, WithRefreshRate[int, int](0))
}
