// Package lfmap implements a concurrent, lock-free hash map.
//
// Each bucket is a lock-free ordered singly-linked list (Harris–Michael
// style: CAS-based insert/delete, logical deletion before physical unlink).
// Memory unlinked from a list is not freed immediately — it is deferred on
// the handle that unlinked it and reclaimed once every other registered
// handle has passed through a quiescent point, using a small epoch-based
// (quiescent-state) reclamation scheme. There is no garbage collector
// dependency beyond Go's own: reclamation here means "safe to drop the last
// Go-visible reference to", which lets old nodes and values actually leave
// the heap instead of lingering for the lifetime of the map.
//
// The map does not resize, does not support iteration, and treats values as
// small, cheaply-copyable data — see the package-level Non-goals in the
// design notes shipped alongside this repository.
package lfmap
