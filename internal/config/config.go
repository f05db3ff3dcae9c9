package config

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"mcprice/adapters/compute"
	"mcprice/adapters/rng"
	"mcprice/domain/option"
	"mcprice/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Pricing   PricingConfig
	Compute   ComputeConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// PricingConfig holds the run inputs that are not contract terms
type PricingConfig struct {
	Strategy string
	Seed     uint64
	NumPaths int
}

// ComputeConfig holds executor tuning
type ComputeConfig struct {
	Workers        int
	BatchSize      int
	ReduceBlock    int
	MaxBufferBytes int64
}

// ProfilingConfig holds payoff profile settings
type ProfilingConfig struct {
	Sample int
}

// DefaultMaxBufferBytes is the payoff buffer budget (4 GiB)
const DefaultMaxBufferBytes int64 = 4 << 30

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Pricing:   *loadPricingConfig(),
		Compute:   *loadComputeConfig(),
		Profiling: *loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadPricingConfig() *PricingConfig {
	return &PricingConfig{
		Strategy: strings.ToLower(getEnvOrDefault("MCPRICE_STRATEGY", compute.StrategyGrid)),
		Seed:     getEnvUint64OrDefault("MCPRICE_SEED", rng.DefaultSeed),
		NumPaths: getEnvIntOrDefault("MCPRICE_NUM_PATHS", option.DefaultNumPaths),
	}
}

func loadComputeConfig() *ComputeConfig {
	return &ComputeConfig{
		Workers:        getEnvIntOrDefault("MCPRICE_WORKERS", runtime.GOMAXPROCS(0)),
		BatchSize:      getEnvIntOrDefault("MCPRICE_BATCH_SIZE", compute.DefaultThreadsPerBlock),
		ReduceBlock:    getEnvIntOrDefault("MCPRICE_REDUCE_BLOCK", compute.DefaultReduceBlock),
		MaxBufferBytes: getEnvInt64OrDefault("MCPRICE_MAX_BUFFER_BYTES", DefaultMaxBufferBytes),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Sample: getEnvIntOrDefault("MCPRICE_PROFILE_SAMPLE", 100_000),
	}
}

// Validate checks every field. CLI flag overrides go through it again.
func (c *Config) Validate() error {
	if !slices.Contains(compute.Strategies(), c.Pricing.Strategy) {
		return errors.ConfigInvalid(fmt.Sprintf("strategy %q is not one of %s",
			c.Pricing.Strategy, strings.Join(compute.Strategies(), ", ")))
	}
	if c.Pricing.NumPaths <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("number of paths must be positive, got %d", c.Pricing.NumPaths))
	}
	if c.Compute.Workers <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("workers must be positive, got %d", c.Compute.Workers))
	}
	if c.Compute.BatchSize <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("batch size must be positive, got %d", c.Compute.BatchSize))
	}
	if c.Compute.ReduceBlock <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("reduce block must be positive, got %d", c.Compute.ReduceBlock))
	}
	if c.Profiling.Sample <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("profile sample must be positive, got %d", c.Profiling.Sample))
	}
	return nil
}

// ComputeOptions maps the configuration onto executor options. The worker
// batch size is the chunk length of the pool and the block size of the grid.
func (c *Config) ComputeOptions() compute.Options {
	return compute.Options{
		Workers:         c.Compute.Workers,
		ChunkSize:       c.Compute.BatchSize,
		ThreadsPerBlock: c.Compute.BatchSize,
		ReduceBlock:     c.Compute.ReduceBlock,
		MaxBufferBytes:  c.Compute.MaxBufferBytes,
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// accepts decimal, 0x hex and 0o octal
func getEnvUint64OrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 0, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}
