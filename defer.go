package lfmap

// deferLists is a handle's private buffer of nodes and values unlinked by
// operations that handle performed, awaiting reclamation once cleanup
// proves no other handle can still be holding a reference. Never shared
// across handles.
type deferLists[K any, V any] struct {
	nodes  []*node[K, V]
	values []*V
}

func (dl *deferLists[K, V]) deferNode(n *node[K, V]) {
	dl.nodes = append(dl.nodes, n)
}

func (dl *deferLists[K, V]) deferValue(v *V) {
	if v == nil {
		return
	}
	dl.values = append(dl.values, v)
}

// reclaim frees every deferred node and value, then clears both lists. It
// must only be called once the caller has proven quiescence of every peer
// handle, per the protocol in Handle.cleanup.
func (dl *deferLists[K, V]) reclaim(core *mapCore[K, V]) (nodes, values int) {
	for _, n := range dl.nodes {
		// delete never frees the value of the node it unlinks (the value
		// was already taken into the defer list directly), but guard here
		// in case a future caller starts deferring nodes some other way.
		dl.deferValue(n.value.Swap(nil))
		core.freeNode(n)
	}
	nodes = len(dl.nodes)
	for _, v := range dl.values {
		core.freeValue(v)
	}
	values = len(dl.values)
	dl.nodes = dl.nodes[:0]
	dl.values = dl.values[:0]
	return nodes, values
}
