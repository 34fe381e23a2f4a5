// Package metrics exposes the map's operationally interesting counters as
// Prometheus collectors, following the same New(cfg)-plus-registered-
// collectors shape the example pack's DNS server uses for its own query
// counters (middleware/metrics).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder implements lfmap.Recorder. It satisfies that interface
// structurally; this package does not import lfmap, to keep the
// dependency edge one-directional (lfmap -> metrics is optional, via the
// Option the caller passes in, not a hard import).
type Recorder struct {
	bindings       prometheus.Gauge
	cleanupRounds  prometheus.Counter
	waitedPeers    prometheus.Counter
	reclaimedNodes prometheus.Counter
	reclaimedVals  prometheus.Counter
}

// New creates a Recorder and registers its collectors against reg. Pass
// prometheus.DefaultRegisterer to expose on the default /metrics handler.
func New(reg prometheus.Registerer, namespace string) *Recorder {
	r := &Recorder{
		bindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bindings",
			Help:      "Approximate number of distinct keys currently bound.",
		}),
		cleanupRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_rounds_total",
			Help:      "Number of cleanup rounds run across all handles.",
		}),
		waitedPeers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_waited_peers_total",
			Help:      "Number of peer handles a cleanup round had to spin-wait on.",
		}),
		reclaimedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaimed_nodes_total",
			Help:      "Number of list nodes reclaimed by cleanup.",
		}),
		reclaimedVals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaimed_values_total",
			Help:      "Number of value cells reclaimed by cleanup.",
		}),
	}
	reg.MustRegister(r.bindings, r.cleanupRounds, r.waitedPeers, r.reclaimedNodes, r.reclaimedVals)
	return r
}

// ObserveBinding implements lfmap.Recorder.
func (r *Recorder) ObserveBinding(delta int) {
	r.bindings.Add(float64(delta))
}

// ObserveCleanup implements lfmap.Recorder.
func (r *Recorder) ObserveCleanup(waitedPeers, reclaimedNodes, reclaimedValues int) {
	r.cleanupRounds.Inc()
	r.waitedPeers.Add(float64(waitedPeers))
	r.reclaimedNodes.Add(float64(reclaimedNodes))
	r.reclaimedVals.Add(float64(reclaimedValues))
}
