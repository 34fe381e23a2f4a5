// Package config loads the operator-tunable knobs for the stress-test
// driver (cmd/lfmapbench) from a TOML file, the same way the example
// pack's DNS server loads sdns.toml: decode onto a struct, generate a
// commented default file on first run, log what was loaded.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/semihalev/zlog/v2"
)

const configVersion = "1.0.0"

// Config holds every knob the stress-test driver exposes.
type Config struct {
	Version string

	// Buckets is the fixed bucket count the map under test is built with.
	Buckets int

	// RefreshRate is the handle's REFRESH_RATE: cleanup runs every this
	// many completed operations.
	RefreshRate int

	// Goroutines and OpsPerGoroutine size the S5 workload: N goroutines,
	// each performing M random insert/get/remove operations.
	Goroutines      int
	OpsPerGoroutine int

	// KeySpace bounds the random keys exercised, as in spec.md's S5
	// scenario (key space 0..KeySpace).
	KeySpace int

	// RateLimit caps aggregate operations per second across all
	// goroutines; 0 means unlimited.
	RateLimit int

	// MetricsAddr is the bind address for the Prometheus /metrics
	// endpoint; empty disables it.
	MetricsAddr string

	// LogLevel is one of debug, info, warn, error. Load decodes it and
	// defaults it to info; lfmapbench does not apply it to its logger.
	LogLevel string
}

var defaultConfig = `# version this config was generated from
version = "%s"

# fixed bucket count for the map under test
buckets = 64

# handle cleanup cadence, in completed operations
refreshrate = 1000

# S5-style concurrent workload
goroutines = 10
opspergoroutine = 1000000
keyspace = 8

# aggregate ops/sec cap across all goroutines; 0 = unlimited
ratelimit = 0

# bind address for the /metrics endpoint; empty disables it
metricsaddr = ":9090"

loglevel = "info"
`

// Load reads cfgfile, generating a default one first if it does not exist.
func Load(cfgfile string) (*Config, error) {
	if _, err := os.Stat(cfgfile); os.IsNotExist(err) {
		if err := generate(cfgfile); err != nil {
			return nil, err
		}
	}

	zlog.Info("Loading config file", "path", cfgfile)

	cfg := new(Config)
	if _, err := toml.DecodeFile(cfgfile, cfg); err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	if cfg.Version != configVersion {
		zlog.Warn("config file is out of version, consider regenerating it",
			"have", cfg.Version, "want", configVersion)
	}

	if cfg.Buckets <= 0 {
		cfg.Buckets = 64
	}
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = 1000
	}
	if cfg.Goroutines <= 0 {
		cfg.Goroutines = 10
	}
	if cfg.OpsPerGoroutine <= 0 {
		cfg.OpsPerGoroutine = 1_000_000
	}
	if cfg.KeySpace <= 0 {
		cfg.KeySpace = 8
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

func generate(path string) error {
	output, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not generate config: %w", err)
	}
	defer func() {
		if cerr := output.Close(); cerr != nil {
			zlog.Warn("config generation failed while closing file", "error", cerr.Error())
		}
	}()

	r := strings.NewReader(fmt.Sprintf(defaultConfig, configVersion))
	if _, err := io.Copy(output, r); err != nil {
		return fmt.Errorf("could not write default config: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		zlog.Info("default config file generated", "config", abs)
	}
	return nil
}
