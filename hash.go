package lfmap

import "github.com/cespare/xxhash/v2"

// Hasher produces a stable, machine-word-sized digest for a key. Per
// spec.md §1, the hashing function is an external collaborator of this
// map, not part of its core algorithm — callers supply one to New. The
// constructors below cover the common cases; anything else is a one-line
// HasherFunc away.
type Hasher[K any] interface {
	Hash(k K) uint64
}

type funcHasher[K any] struct {
	fn func(K) uint64
}

func (f funcHasher[K]) Hash(k K) uint64 { return f.fn(k) }

// HasherFunc adapts a plain function to a Hasher.
func HasherFunc[K any](fn func(K) uint64) Hasher[K] {
	return funcHasher[K]{fn: fn}
}

// StringHasher hashes string keys with xxhash, the same hasher the wider
// example ecosystem (e.g. the DNS resolver's client rate limiter) reaches
// for on the hot path.
func StringHasher() Hasher[string] {
	return HasherFunc(func(k string) uint64 {
		return xxhash.Sum64String(k)
	})
}

// BytesHasher hashes []byte keys with xxhash.
func BytesHasher() Hasher[[]byte] {
	return HasherFunc(func(k []byte) uint64 {
		return xxhash.Sum64(k)
	})
}

// Int64Hasher hashes int64 keys. Integer keys are already uniformly
// distributed bit patterns far more often than they are adversarial input,
// so a cheap avalanche finalizer (the 64-bit MurmurHash3 finalizer) is used
// directly instead of round-tripping through a byte-oriented hash library —
// there is no third-party dependency in the example pack purpose-built for
// mixing a single machine word, so this one function stays on the standard
// library. See DESIGN.md.
func Int64Hasher() Hasher[int64] {
	return HasherFunc(func(k int64) uint64 {
		return mix64(uint64(k))
	})
}

// Uint64Hasher hashes uint64 keys directly.
func Uint64Hasher() Hasher[uint64] {
	return HasherFunc(mix64)
}

// IntHasher hashes platform int keys.
func IntHasher() Hasher[int] {
	return HasherFunc(func(k int) uint64 {
		return mix64(uint64(k))
	})
}

func mix64(u uint64) uint64 {
	u ^= u >> 33
	u *= 0xff51afd7ed558ccd
	u ^= u >> 33
	u *= 0xc4ceb9fe1a85ec53
	u ^= u >> 33
	return u
}
