// Command lfmapbench drives the concurrent workload described in spec.md's
// S5 scenario against a real Handle: N goroutines, each performing M random
// insert/get/remove operations over a small shared key space, while every
// goroutine periodically runs its own cleanup. It is the torture-test
// harness for the reclamation protocol, not a microbenchmark suite.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/semihalev/zlog/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ankitsheoran1/lockfree-map"
	"github.com/ankitsheoran1/lockfree-map/config"
	"github.com/ankitsheoran1/lockfree-map/metrics"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "lfmapbench.toml", "location of the config file, if not found it will be generated")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "OPTIONS:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "USAGE:")
	fmt.Fprintln(os.Stderr, "./lfmapbench -config=lfmapbench.toml")
	fmt.Fprintln(os.Stderr, "")
}

func main() {
	flag.Parse()

	runtime.GOMAXPROCS(runtime.NumCPU())

	cfg, err := config.Load(configPath)
	if err != nil {
		zlog.Error("config loading failed", "error", err.Error())
		os.Exit(1)
	}

	rec := metrics.New(prometheus.DefaultRegisterer, "lfmapbench")

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	root := lfmap.New[int, int](cfg.Buckets, lfmap.IntHasher(), func(a, b int) bool { return a < b },
		lfmap.WithRefreshRate[int, int](cfg.RefreshRate),
		lfmap.WithMetrics[int, int](rec))

	zlog.Info("starting lfmapbench",
		"goroutines", cfg.Goroutines, "ops_per_goroutine", cfg.OpsPerGoroutine,
		"keyspace", cfg.KeySpace, "buckets", cfg.Buckets)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for worker := 0; worker < cfg.Goroutines; worker++ {
		worker := worker
		g.Go(func() error {
			return runWorker(gctx, root.Clone(), worker, cfg, limiter)
		})
	}

	if err := g.Wait(); err != nil {
		zlog.Warn("workload stopped early", "error", err.Error())
	}

	elapsed := time.Since(started)
	zlog.Info("workload complete",
		"elapsed", elapsed.String(), "final_len", root.Len())

	root.Close()
}

// runWorker performs cfg.OpsPerGoroutine random insert/get/remove calls on
// its own Handle, stopping early if ctx is cancelled (Ctrl-C). Each worker
// closes its Handle on exit so spec.md's #5 (every handle's epoch parity
// ends even) and #4 (no leaked nodes once every handle is closed and a
// final cleanup runs) are both exercised end to end.
func runWorker(ctx context.Context, h *lfmap.Handle[int, int], id int, cfg *config.Config, limiter *rate.Limiter) error {
	defer h.Close()

	rng := rand.New(rand.NewSource(int64(id) + 1))

	for i := 0; i < cfg.OpsPerGoroutine; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		key := rng.Intn(cfg.KeySpace)
		switch rng.Intn(3) {
		case 0:
			h.Insert(key, key)
		case 1:
			h.Get(key)
		case 2:
			h.Remove(key)
		}
	}

	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	zlog.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		zlog.Error("metrics server stopped", "error", err.Error())
	}
}
