package lfmap

import (
	"math/rand"
	"sync"
	"testing"
	"testing/quick"
)

// S1: a fixed sequence of inserts against an empty 8-bucket map, checked
// against the exact len() and get() results spec.md prescribes.
func TestHandleScenarioS1(t *testing.T) {
	h := New[int, int](8, IntHasher(), intLess)
	defer h.Close()

	type step struct {
		key, value int
		wantOld    int
		wantHad    bool
	}
	steps := []step{
		{1, 1, 0, false},
		{2, 5, 0, false},
		{12, 5, 0, false},
		{13, 7, 0, false},
		{0, 0, 0, false},
		{20, 3, 0, false},
		{3, 2, 0, false},
		{4, 1, 0, false},
		{20, 5, 3, true},
		{3, 8, 2, true},
		{5, 5, 0, false},
	}
	for _, s := range steps {
		old, had := h.Insert(s.key, s.value)
		if had != s.wantHad || (had && old != s.wantOld) {
			t.Fatalf("insert(%d,%d) = (%d, %v), want (%d, %v)", s.key, s.value, old, had, s.wantOld, s.wantHad)
		}
	}

	if got := h.Len(); got != 9 {
		t.Fatalf("len() = %d, want 9", got)
	}
	if v, ok := h.Get(20); !ok || v != 5 {
		t.Fatalf("get(20) = (%d, %v), want (5, true)", v, ok)
	}
	if v, ok := h.Get(3); !ok || v != 8 {
		t.Fatalf("get(3) = (%d, %v), want (8, true)", v, ok)
	}
}

// S2: populate keys 1..=16, then a sequence of get/remove calls checked
// against spec.md's exact results.
func TestHandleScenarioS2(t *testing.T) {
	h := New[int, int](8, IntHasher(), intLess)
	defer h.Close()

	values := []int{3, 5, 8, 3, 4, 5, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}
	for i, v := range values {
		h.Insert(i+1, v)
	}

	if v, ok := h.Get(1); !ok || v != 3 {
		t.Fatalf("get(1) = (%d, %v), want (3, true)", v, ok)
	}
	if v, ok := h.Remove(1); !ok || v != 3 {
		t.Fatalf("remove(1) = (%d, %v), want (3, true)", v, ok)
	}
	if _, ok := h.Get(1); ok {
		t.Fatalf("get(1) after remove(1) still found a binding")
	}
	if v, ok := h.Remove(2); !ok || v != 5 {
		t.Fatalf("remove(2) = (%d, %v), want (5, true)", v, ok)
	}
	if v, ok := h.Remove(16); !ok || v != 3 {
		t.Fatalf("remove(16) = (%d, %v), want (3, true)", v, ok)
	}
	if _, ok := h.Get(16); ok {
		t.Fatalf("get(16) after remove(16) still found a binding")
	}
}

// S6: a freshly constructed map is empty.
func TestHandleScenarioS6(t *testing.T) {
	h := New[int, int](8, IntHasher(), intLess)
	defer h.Close()

	if !h.IsEmpty() {
		t.Fatalf("IsEmpty() = false on a fresh map")
	}
	if got := h.Len(); got != 0 {
		t.Fatalf("len() = %d, want 0", got)
	}
}

// Invariant #3 (functional set semantics): against a random sequence of
// insert/get/remove calls over a small key space, the map's observable
// behavior matches a plain Go map used as the reference model.
func TestHandleMatchesReferenceMap(t *testing.T) {
	const keySpace = 12

	check := func(ops []uint8) bool {
		h := New[int, int](4, IntHasher(), intLess)
		defer h.Close()
		ref := map[int]int{}

		for i, op := range ops {
			key := int(op) % keySpace
			switch (op / keySpace) % 3 {
			case 0:
				val := i
				wantOld, wantHad := ref[key], false
				if _, had := ref[key]; had {
					wantHad = true
				}
				old, had := h.Insert(key, val)
				if had != wantHad || (had && old != wantOld) {
					return false
				}
				ref[key] = val
			case 1:
				wantVal, wantOk := ref[key]
				v, ok := h.Get(key)
				if ok != wantOk || (ok && v != wantVal) {
					return false
				}
			case 2:
				wantVal, wantOk := ref[key]
				v, ok := h.Remove(key)
				if ok != wantOk || (ok && v != wantVal) {
					return false
				}
				delete(ref, key)
			}
		}

		if h.Len() != len(ref) {
			return false
		}
		return true
	}

	if err := quick.Check(check, &quick.Config{MaxCount: 200}); err != nil {
		t.Fatal(err)
	}
}

// Invariant #5 (every handle's epoch parity ends even) and invariant #4
// (no leaked nodes/values once every handle closes and a final cleanup
// runs), exercised under concurrent load: a scaled-down S5. The small
// key space and heavy goroutine count guarantee frequent races between an
// update-in-place Insert and a concurrent Remove on the same key, so this
// also covers the value-tombstone handoff between insert and delete.
func TestHandleConcurrentNoLeaks(t *testing.T) {
	const (
		goroutines = 8
		opsEach    = 2000
		keySpace   = 8
		nbuckets   = 8
	)

	root := New[int, int](nbuckets, IntHasher(), intLess, WithRefreshRate[int, int](97))

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			h := root.Clone()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < opsEach; i++ {
				key := rng.Intn(keySpace)
				switch rng.Intn(3) {
				case 0:
					h.Insert(key, key)
				case 1:
					if v, ok := h.Get(key); ok && v != key {
						t.Errorf("get(%d) = %d, want %d (only insert(k,k) ever writes key k)", key, v, key)
					}
				case 2:
					h.Remove(key)
				}
			}
			epochBefore := h.epoch.Load()
			if epochBefore%2 != 0 {
				t.Errorf("handle epoch %d is odd after its last operation's exit bump", epochBefore)
			}
			h.Close()
		}(int64(g) + 1)
	}
	wg.Wait()

	// Drain whatever keys the random workload left bound, so the final
	// leak check has a well-defined target: an empty map.
	for key := 0; key < keySpace; key++ {
		root.Remove(key)
	}

	root.cleanup()
	root.Close()

	core := root.core
	if got := core.liveNodes.Load(); got != int64(2*nbuckets) {
		t.Fatalf("liveNodes = %d after final cleanup, want %d (2 sentinels per bucket)", got, 2*nbuckets)
	}
	if got := core.liveValues.Load(); got != 0 {
		t.Fatalf("liveValues = %d after final cleanup, want 0", got)
	}
}
