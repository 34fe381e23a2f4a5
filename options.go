package lfmap

// defaultRefreshRate is the spec's REFRESH_RATE: a handle runs cleanup
// every this-many completed public operations.
const defaultRefreshRate = 1000

// Option configures a map at construction time.
type Option[K any, V any] func(*mapCore[K, V])

// WithRefreshRate overrides how many operations a handle performs between
// cleanup rounds. Lower values reclaim memory sooner at the cost of more
// frequent registry scans; higher values amortize cleanup further.
func WithRefreshRate[K any, V any](n int) Option[K, V] {
	return func(c *mapCore[K, V]) {
		if n <= 0 {
			panic("lfmap: refresh rate must be positive")
		}
		c.refreshRate = n
	}
}

// WithMetrics attaches a Recorder that observes binding-count changes and
// cleanup rounds. Nil-safe: without this option the map records nothing.
func WithMetrics[K any, V any](r Recorder) Option[K, V] {
	return func(c *mapCore[K, V]) {
		c.metrics = r
	}
}
