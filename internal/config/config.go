// Package config defines service configuration structures and loading.
//
// Conventions:
// - Defaults come from New; Load layers file and env on top.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SessionTTLMinutes bounds how long an inactive comparison session
	// survives before the caller must restart it.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// SessionSweepSeconds sets the in-memory session janitor interval.
	SessionSweepSeconds int `koanf:"session_sweep_seconds"`

	// RefreshQueueSize bounds the aggregate-stat refresh backlog.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// RefreshWorkerCount sets the number of refresh workers.
	RefreshWorkerCount int `koanf:"refresh_worker_count"`

	// MaxListLimit caps GET /rankings?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// CatalogBaseURL points at the external item catalog. Empty selects
	// the in-memory catalog (local runs and tests).
	CatalogBaseURL string `koanf:"catalog_base_url"`

	// CatalogTimeoutMS bounds each catalog call.
	CatalogTimeoutMS int `koanf:"catalog_timeout_ms"`

	// RedisAddr selects the redis session store when set, e.g.
	// "localhost:6379". Empty selects the in-memory session store.
	RedisAddr string `koanf:"redis_addr"`

	// RedisDB selects the redis logical database.
	RedisDB int `koanf:"redis_db"`

	// PostgresDSN selects the postgres ranking store when set. Empty
	// selects the in-memory store.
	PostgresDSN string `koanf:"postgres_dsn"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9090",
		SessionTTLMinutes:   30,
		SessionSweepSeconds: 60,
		RefreshQueueSize:    10_000,
		RefreshWorkerCount:  min(4, runtime.NumCPU()),
		MaxListLimit:        100,
		CatalogTimeoutMS:    5000,
	}
}
