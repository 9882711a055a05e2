package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/aradilov/chunkring/internal/demo"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Demo         demo.Config
	LogLevel     string
	LogFormat    string
	MetricsAddr  string
	Linger       time.Duration
	ReportFormat string
	ShowVersion  bool
}

func parseFlags() *CLIConfig {
	// flag.CommandLine exits on parse errors
	cfg, _ := parseFlagSet(flag.CommandLine, os.Args[1:])
	return cfg
}

func parseFlagSet(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	def := demo.DefaultConfig()
	var policy string

	// Define flags with environment variable fallback
	fs.IntVar(&cfg.Demo.Capacity, "capacity",
		getEnvInt("CHUNKRING_CAPACITY", def.Capacity),
		"Number of chunks, rounded up to a power of two (env: CHUNKRING_CAPACITY)")

	fs.IntVar(&cfg.Demo.ChunkSize, "chunk-size",
		getEnvInt("CHUNKRING_CHUNK_SIZE", def.ChunkSize),
		"Bytes per chunk (env: CHUNKRING_CHUNK_SIZE)")

	fs.IntVar(&cfg.Demo.Producers, "producers",
		getEnvInt("CHUNKRING_PRODUCERS", def.Producers),
		"Producer goroutines (env: CHUNKRING_PRODUCERS)")

	fs.IntVar(&cfg.Demo.Consumers, "consumers",
		getEnvInt("CHUNKRING_CONSUMERS", def.Consumers),
		"Consumer goroutines (env: CHUNKRING_CONSUMERS)")

	fs.IntVar(&cfg.Demo.ItemsPerProducer, "items",
		getEnvInt("CHUNKRING_ITEMS", def.ItemsPerProducer),
		"Items per producer (env: CHUNKRING_ITEMS)")

	fs.Float64Var(&cfg.Demo.Rate, "rate",
		getEnvFloat("CHUNKRING_RATE", def.Rate),
		"Items per second per producer, 0 for unlimited (env: CHUNKRING_RATE)")

	fs.StringVar(&policy, "policy",
		getEnv("CHUNKRING_POLICY", string(def.Policy)),
		"Producer claim policy: spin, try (env: CHUNKRING_POLICY)")

	fs.BoolVar(&cfg.Demo.Verify, "verify",
		getEnvBool("CHUNKRING_VERIFY", def.Verify),
		"Store and check a sha3-256 digest of every payload (env: CHUNKRING_VERIFY)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("CHUNKRING_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: CHUNKRING_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("CHUNKRING_LOG_FORMAT", "text"),
		"Log format: json, text (env: CHUNKRING_LOG_FORMAT)")

	fs.StringVar(&cfg.MetricsAddr, "metrics-addr",
		getEnv("CHUNKRING_METRICS_ADDR", ""),
		"Serve Prometheus metrics on this address, empty to disable (env: CHUNKRING_METRICS_ADDR)")

	fs.DurationVar(&cfg.Linger, "linger",
		getEnvDuration("CHUNKRING_LINGER", 0),
		"Keep serving metrics this long after the run (env: CHUNKRING_LINGER)")

	fs.StringVar(&cfg.ReportFormat, "report",
		getEnv("CHUNKRING_REPORT", "text"),
		"Report format: text, json (env: CHUNKRING_REPORT)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Demo.Policy = demo.Policy(policy)
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	if !slices.Contains([]string{"json", "text"}, cfg.ReportFormat) {
		return fmt.Errorf("invalid report format: %s", cfg.ReportFormat)
	}
	if cfg.Linger < 0 {
		return fmt.Errorf("invalid linger: %s", cfg.Linger)
	}

	return cfg.Demo.Validate()
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
