package lfmap

// orderedList is a lock-free set ordered by less, implementing the
// Harris–Michael algorithm: CAS-based insert and physical unlink, logical
// deletion (node.mark) before physical unlink, and opportunistic splicing
// of marked runs inside search.
//
// less must define a strict total order over K: less(a, b) is true iff a
// sorts strictly before b. Two keys for which neither is less than the
// other are considered equal.
type orderedList[K any, V any] struct {
	head, tail *node[K, V]
	less       func(a, b K) bool
	core       *mapCore[K, V]
}

func newOrderedList[K any, V any](core *mapCore[K, V], less func(a, b K) bool) *orderedList[K, V] {
	tail := core.allocSentinel()
	head := core.allocSentinel()
	head.next.Store(&markedNext[K, V]{next: tail})
	return &orderedList[K, V]{head: head, tail: tail, less: less, core: core}
}

func (l *orderedList[K, V]) equal(a, b K) bool {
	return !l.less(a, b) && !l.less(b, a)
}

// search returns the live predecessor/successor pair bracketing key:
// right is the first unmarked node with key >= key, or tail; left is the
// live node immediately preceding it. Any run of marked nodes encountered
// between them is physically spliced out and handed to dl for reclamation.
//
// This is the shared traversal primitive for insert and delete; see
// SPEC_FULL.md §4.1 for the algorithm this follows.
func (l *orderedList[K, V]) search(key K, dl *deferLists[K, V]) (left, right *node[K, V]) {
restart:
	left = l.head
	t := l.head
	tNext, tMarked := t.loadNext()
	leftNext := tNext

	for {
		if !tMarked {
			left = t
			leftNext = tNext
		}
		t = tNext
		if t == l.tail {
			break
		}
		nextNext, nextMarked := t.loadNext()
		tNext, tMarked = nextNext, nextMarked
		if !tMarked && !l.less(t.key, key) {
			break
		}
	}
	right = t

	if leftNext == right {
		if right != l.tail {
			if _, marked := right.loadNext(); marked {
				goto restart
			}
		}
		return left, right
	}

	if left.casNext(leftNext, right) {
		l.spliceDeferred(leftNext, right, dl)
		if right != l.tail {
			if _, marked := right.loadNext(); marked {
				goto restart
			}
		}
		return left, right
	}
	goto restart
}

// spliceDeferred hands every node in [start, end) to dl for reclamation.
// Every node in this range must already be marked — it was, by
// construction, unreachable via any live link the instant the splicing CAS
// above succeeded.
func (l *orderedList[K, V]) spliceDeferred(start, end *node[K, V], dl *deferLists[K, V]) {
	for n := start; n != end; {
		next, marked := n.loadNext()
		invariant(marked, "search: spliced node %p was not marked", n)
		dl.deferNode(n)
		n = next
	}
}

// insert binds key to value. If key was already bound, the binding is
// updated in place and the prior value is returned with hadOld == true.
//
// search only guarantees right is unmarked at the instant it returns it; a
// concurrent delete may mark right and claim its value (see delete, below)
// before this update-in-place branch gets to write. The value swap is
// therefore a CAS against the value pointer search observed, not a blind
// Swap: a delete that wins the race tombstones the value to nil first, so
// our CAS fails cleanly and we retry the whole operation against whatever
// the key resolves to next, instead of writing a value onto a node that is
// being (or was just) logically deleted.
func (l *orderedList[K, V]) insert(key K, value V, dl *deferLists[K, V]) (old V, hadOld bool) {
	for {
		left, right := l.search(key, dl)
		if right != l.tail && l.equal(key, right.key) {
			newVal := value
			l.core.allocValue()
			curPtr := right.value.Load()
			if curPtr == nil || !right.value.CompareAndSwap(curPtr, &newVal) {
				// right was concurrently claimed by a delete (its value
				// tombstoned to nil) or raced with another update; this
				// allocation never landed, so defer it unused and retry.
				dl.deferValue(&newVal)
				continue
			}
			dl.deferValue(curPtr)
			old = *curPtr
			return old, true
		}

		newNode := l.core.allocNode(key, value, right)
		if left.casNext(right, newNode) {
			var zero V
			return zero, false
		}
		// newNode was never published, so no peer can hold it: release it
		// and its value cell now rather than leaving them counted as live.
		l.core.freeValue(newNode.value.Load())
		l.core.freeNode(newNode)
	}
}

// get returns a copy of the value bound to key, if any.
func (l *orderedList[K, V]) get(key K, dl *deferLists[K, V]) (value V, ok bool) {
	_, right := l.search(key, dl)
	if right == l.tail || !l.equal(key, right.key) {
		return value, false
	}
	ptr := right.value.Load()
	if ptr == nil {
		return value, false
	}
	return *ptr, true
}

// delete removes key's binding, if any, returning the removed value.
//
// The value is claimed via Swap(nil), not Load: this atomically hands
// exclusive ownership of the old value pointer to this delete and leaves a
// nil tombstone behind. A concurrent insert's update-in-place CAS (see
// insert, above) can then never succeed against an already-marked node —
// it either observes the tombstone directly, or loses its CAS to this
// Swap — so the same value pointer is never deferred by both an insert and
// a delete racing on one node.
func (l *orderedList[K, V]) delete(key K, dl *deferLists[K, V]) (old V, ok bool) {
	for {
		left, right := l.search(key, dl)
		if right == l.tail || !l.equal(key, right.key) {
			return old, false
		}

		rightNext, marked := right.mark()
		if !marked {
			continue
		}

		valPtr := right.value.Swap(nil)
		if valPtr != nil {
			old = *valPtr
		}
		dl.deferValue(valPtr)

		if left.casNext(right, rightNext) {
			dl.deferNode(right)
		} else {
			l.search(key, dl)
		}
		return old, true
	}
}
