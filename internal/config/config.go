// Package config defines service configuration and its defaults.
package config

import (
	"runtime"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the repository backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseURL is the Postgres connection string, required for the postgres store.
	DatabaseURL string `koanf:"database_url"`

	// SeedFile is a YAML file of projects loaded into the memory store at startup.
	SeedFile string `koanf:"seed_file"`

	// ScoreMapsDir is a directory holding s1_male.csv, s4.csv, ...
	ScoreMapsDir string `koanf:"score_maps_dir"`

	// ScoreMapsURL is a base URL serving the same files, tried after ScoreMapsDir.
	ScoreMapsURL string `koanf:"score_maps_url"`

	// RedisURL enables the shared score table cache when set.
	RedisURL string `koanf:"redis_url"`

	// ScoreMapCacheTTLSec is how long cached score tables live in Redis.
	ScoreMapCacheTTLSec int `koanf:"score_map_cache_ttl_sec"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory refresh queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many measurement ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps the leaderboard limit parameter.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MCPEnabled mounts the tool endpoint at /mcp.
	MCPEnabled bool `koanf:"mcp_enabled"`

	// LiveEnabled mounts the websocket endpoint.
	LiveEnabled bool `koanf:"live_enabled"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Store:               StoreMemory,
		ScoreMapsDir:        "scoremaps",
		ScoreMapCacheTTLSec: 3600,
		CORSOrigins:         []string{"*"},
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           1024,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		MCPEnabled:          true,
		LiveEnabled:         true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return invalid("unknown store %q", c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return invalid("database_url is required for the postgres store")
	case c.Store == StorePostgres && c.SeedFile != "":
		return invalid("seed_file only applies to the memory store")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("unknown log_format %q", c.LogFormat)
	case c.WorkerCount <= 0:
		return invalid("worker_count must be positive")
	case c.QueueSize <= 0:
		return invalid("queue_size must be positive")
	case c.DedupeSize <= 0:
		return invalid("dedupe_size must be positive")
	case c.MaxLeaderboardLimit <= 0:
		return invalid("max_leaderboard_limit must be positive")
	case c.ScoreMapCacheTTLSec < 0:
		return invalid("score_map_cache_ttl_sec must not be negative")
	}
	return nil
}
