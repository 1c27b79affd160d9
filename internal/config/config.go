package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	OpsAddress       string
	DatabaseURI      string
	OpsTokenHash     string
	LogLevel         string
	BusPartitions    int
	CreationDeadline time.Duration
	DispatchTimeout  time.Duration
	PointsLifetime   time.Duration
	SweepInterval    time.Duration
	SweepBatch       int
	WorkerPoolSize   int
	ShutdownTimeout  time.Duration
}

const (
	defaultOpsAddress       = ":8080"
	defaultLogLevel         = "info"
	defaultBusPartitions    = 8
	defaultCreationDeadline = 30 * time.Second
	defaultDispatchTimeout  = 5 * time.Second
	defaultPointsLifetime   = 365 * 24 * time.Hour
	defaultSweepInterval    = time.Minute
	defaultSweepBatch       = 64
	defaultWorkerPoolSize   = 4
	defaultShutdownTimeout  = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

// UsesMemoryStorage reports whether no database was configured.
func (c *Config) UsesMemoryStorage() bool {
	return c.DatabaseURI == ""
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		OpsAddress:       getString(lookup, "OPS_ADDRESS", defaultOpsAddress),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		OpsTokenHash:     getString(lookup, "OPS_TOKEN_HASH", ""),
		LogLevel:         getString(lookup, "LOG_LEVEL", defaultLogLevel),
		BusPartitions:    getInt(lookup, "BUS_PARTITIONS", defaultBusPartitions),
		CreationDeadline: getDuration(lookup, "CREATION_DEADLINE", defaultCreationDeadline),
		DispatchTimeout:  getDuration(lookup, "DISPATCH_TIMEOUT", defaultDispatchTimeout),
		PointsLifetime:   getDuration(lookup, "POINTS_LIFETIME", defaultPointsLifetime),
		SweepInterval:    getDuration(lookup, "EXPIRATION_SWEEP_INTERVAL", defaultSweepInterval),
		SweepBatch:       getInt(lookup, "EXPIRATION_SWEEP_BATCH", defaultSweepBatch),
		WorkerPoolSize:   getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("pointsledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	durations := []struct {
		name  string
		usage string
		dst   *time.Duration
		raw   string
	}{
		{name: "creation-deadline", usage: "Watchdog window for account and loyalty bank creation", dst: &cfg.CreationDeadline},
		{name: "dispatch-timeout", usage: "Timeout of a single workflow command", dst: &cfg.DispatchTimeout},
		{name: "points-lifetime", usage: "Age after which earned points expire", dst: &cfg.PointsLifetime},
		{name: "sweep-interval", usage: "Interval between expiration sweeps", dst: &cfg.SweepInterval},
		{name: "shutdown-timeout", usage: "Graceful shutdown timeout", dst: &cfg.ShutdownTimeout},
	}
	for i := range durations {
		d := &durations[i]
		d.raw = d.dst.String()
		fs.StringVar(&d.raw, d.name, d.raw, d.usage)
	}

	fs.StringVar(&cfg.OpsAddress, "a", cfg.OpsAddress, "Operator HTTP listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN, empty for in-memory storage")
	fs.StringVar(&cfg.OpsTokenHash, "ops-token-hash", cfg.OpsTokenHash, "Bcrypt hash of the operator bearer token")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.IntVar(&cfg.BusPartitions, "bus-partitions", cfg.BusPartitions, "Number of fact bus partitions")
	fs.IntVar(&cfg.SweepBatch, "sweep-batch", cfg.SweepBatch, "Maximum batches expired per sweep")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent expiration workers")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	for _, d := range durations {
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", strings.ReplaceAll(d.name, "-", " "), err)
		}
		*d.dst = parsed
	}

	if hashFile, ok := lookup("OPS_TOKEN_HASH_FILE"); ok && hashFile != "" {
		content, err := os.ReadFile(hashFile)
		if err != nil {
			return nil, fmt.Errorf("read ops token hash file: %w", err)
		}
		cfg.OpsTokenHash = strings.TrimSpace(string(content))
	}

	if cfg.BusPartitions <= 0 {
		cfg.BusPartitions = defaultBusPartitions
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = defaultSweepBatch
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.CreationDeadline <= 0 {
		cfg.CreationDeadline = defaultCreationDeadline
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = defaultDispatchTimeout
	}
	if cfg.PointsLifetime <= 0 {
		cfg.PointsLifetime = defaultPointsLifetime
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.OpsTokenHash != "" && !strings.HasPrefix(cfg.OpsTokenHash, "$2") {
		return nil, fmt.Errorf("ops token hash must be a bcrypt hash")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
