package lfmap

import "fmt"

// invariant panics if cond is false. Invariant violations indicate a logic
// bug in the CAS protocol itself (a marked node escaping search, an
// unmarked node inside a splice range, ...), never a caller mistake, so
// they are not recoverable errors — see spec section 7.
func invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("lfmap: invariant violated: "+format, args...))
	}
}
