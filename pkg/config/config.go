// Package config loads QuillGraph's ambient configuration: data directory,
// transaction limits, logging, and experimental feature toggles.
//
// Configuration is read from environment variables using Neo4j-compatible
// names where a Neo4j equivalent exists (NEO4J_dbms_*) and QUILLGRAPH_*
// names for everything specific to this engine. There is no config file
// format beyond the optional YAML override layer consumed by apoc/config.go;
// embedding this package keeps startup a single LoadFromEnv() call.
//
// Example:
//
//	config := config.LoadFromEnv()
//	if err := config.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Config: %s\n", config)
package config

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

// Config holds all QuillGraph configuration.
type Config struct {
	// Database settings
	Database DatabaseConfig

	// Runtime memory management (Go runtime tuning, object pools, plan cache)
	Memory MemoryConfig

	// Logging
	Logging LoggingConfig

	// Feature flags for experimental/optional execution behavior
	Features FeatureFlagsConfig
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// DataDir is the directory for data storage
	DataDir string
	// DefaultDatabase name
	DefaultDatabase string
	// ReadOnly mode
	ReadOnly bool
	// TransactionTimeout for long-running queries
	TransactionTimeout time.Duration
	// MaxConcurrentTransactions limit
	MaxConcurrentTransactions int
}

// MemoryConfig holds Go runtime memory tuning and execution-engine cache settings.
type MemoryConfig struct {
	// === Runtime Memory Management (Go runtime tuning) ===

	// RuntimeLimit is the soft memory limit (GOMEMLIMIT) in bytes
	// 0 = unlimited (Go manages automatically)
	// Set to 80% of container memory for optimal performance
	RuntimeLimit int64
	// RuntimeLimitStr is the human-readable form (e.g., "2GB", "512MB")
	RuntimeLimitStr string
	// GCPercent controls GC aggressiveness (GOGC)
	// 100 = default, lower = more aggressive (less memory, more CPU)
	GCPercent int
	// PoolEnabled controls object pooling for query result row buffers
	PoolEnabled bool
	// PoolMaxSize limits pool memory usage per pool
	PoolMaxSize int
	// QueryCacheEnabled controls query plan caching
	QueryCacheEnabled bool
	// QueryCacheSize is the maximum number of cached query plans
	QueryCacheSize int
	// QueryCacheTTL is how long cached plans remain valid
	QueryCacheTTL time.Duration
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (DEBUG, INFO, WARN, ERROR)
	Level string
	// QueryLogEnabled for query logging
	QueryLogEnabled bool
	// SlowQueryThreshold for logging slow queries
	SlowQueryThreshold time.Duration
}

// FeatureFlagsConfig holds feature flags for experimental/optional execution behavior.
type FeatureFlagsConfig struct {
	// ParallelEnabled controls whether scan/expand operators may fan out across goroutines
	ParallelEnabled bool
	// ParallelMaxWorkers caps worker goroutines (0 = runtime.NumCPU())
	ParallelMaxWorkers int
	// ParallelMinBatchSize is the minimum row count before parallelizing
	ParallelMinBatchSize int

	// AsyncWritesEnabled buffers physical writes for throughput at the cost of
	// a short durability window; the transactional contract is unaffected.
	AsyncWritesEnabled bool
	// AsyncFlushInterval controls how often buffered writes are flushed
	AsyncFlushInterval time.Duration
}

// LoadFromEnv loads configuration from environment variables.
//
// All values have sensible defaults, so LoadFromEnv() can be called without
// any environment variables set.
//
// Example:
//
//	os.Setenv("NEO4J_dbms_directories_data", "/var/lib/quill")
//	os.Setenv("QUILLGRAPH_ASYNC_WRITES_ENABLED", "false")
//	cfg := config.LoadFromEnv()
func LoadFromEnv() *Config {
	config := &Config{}

	// Database settings
	config.Database.DataDir = getEnv("NEO4J_dbms_directories_data", "./data")
	config.Database.DefaultDatabase = getEnv("NEO4J_dbms_default__database", "quill")
	config.Database.ReadOnly = getEnvBool("NEO4J_dbms_read__only", false)
	config.Database.TransactionTimeout = getEnvDuration("NEO4J_dbms_transaction_timeout", 30*time.Second)
	config.Database.MaxConcurrentTransactions = getEnvInt("NEO4J_dbms_transaction_concurrent_maximum", 1000)

	// Runtime memory management settings
	config.Memory.RuntimeLimitStr = getEnv("QUILLGRAPH_MEMORY_LIMIT", "0")
	config.Memory.RuntimeLimit = parseMemorySize(config.Memory.RuntimeLimitStr)
	config.Memory.GCPercent = getEnvInt("QUILLGRAPH_GC_PERCENT", 100)
	config.Memory.PoolEnabled = getEnvBool("QUILLGRAPH_POOL_ENABLED", true)
	config.Memory.PoolMaxSize = getEnvInt("QUILLGRAPH_POOL_MAX_SIZE", 1000)
	config.Memory.QueryCacheEnabled = getEnvBool("QUILLGRAPH_QUERY_CACHE_ENABLED", true)
	config.Memory.QueryCacheSize = getEnvInt("QUILLGRAPH_QUERY_CACHE_SIZE", 1000)
	config.Memory.QueryCacheTTL = getEnvDuration("QUILLGRAPH_QUERY_CACHE_TTL", 5*time.Minute)

	// Logging settings
	config.Logging.Level = getEnv("NEO4J_dbms_logs_debug_level", "INFO")
	config.Logging.QueryLogEnabled = getEnvBool("NEO4J_dbms_logs_query_enabled", false)
	config.Logging.SlowQueryThreshold = getEnvDuration("NEO4J_dbms_logs_query_threshold", 5*time.Second)

	// Feature flags
	config.Features.ParallelEnabled = getEnvBool("QUILLGRAPH_PARALLEL_ENABLED", true)
	config.Features.ParallelMaxWorkers = getEnvInt("QUILLGRAPH_PARALLEL_MAX_WORKERS", 0)
	config.Features.ParallelMinBatchSize = getEnvInt("QUILLGRAPH_PARALLEL_MIN_BATCH_SIZE", 1000)
	config.Features.AsyncWritesEnabled = getEnvBool("QUILLGRAPH_ASYNC_WRITES_ENABLED", false)
	config.Features.AsyncFlushInterval = getEnvDuration("QUILLGRAPH_ASYNC_FLUSH_INTERVAL", 50*time.Millisecond)

	return config
}

// Validate checks the configuration for logical errors and invalid values.
func (c *Config) Validate() error {
	if c.Database.MaxConcurrentTransactions <= 0 {
		return fmt.Errorf("invalid max concurrent transactions: %d", c.Database.MaxConcurrentTransactions)
	}
	if c.Database.TransactionTimeout <= 0 {
		return fmt.Errorf("invalid transaction timeout: %v", c.Database.TransactionTimeout)
	}
	return nil
}

// String returns a string representation of the Config suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, ReadOnly: %v, AsyncWrites: %v, Parallel: %v}",
		c.Database.DataDir, c.Database.ReadOnly,
		c.Features.AsyncWritesEnabled, c.Features.ParallelEnabled,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

// parseMemorySize parses a human-readable memory size string.
// Supports: "1024", "1KB", "1MB", "1GB", "1TB", "0", "unlimited"
func parseMemorySize(s string) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" || s == "0" || s == "UNLIMITED" {
		return 0
	}

	s = strings.TrimSuffix(s, "B")

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "T"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "T")
	}

	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val * multiplier
}

// FormatMemorySize formats bytes as human-readable string.
func FormatMemorySize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ApplyRuntimeMemory applies the runtime memory settings to the Go runtime.
// Should be called early in main() before heavy allocations.
func (c *MemoryConfig) ApplyRuntimeMemory() {
	if c.RuntimeLimit > 0 {
		debug.SetMemoryLimit(c.RuntimeLimit)
	}
	if c.GCPercent != 100 {
		debug.SetGCPercent(c.GCPercent)
	}
}
