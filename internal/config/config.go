package config

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	DBPath       string
	FeedsCSVPath string

	// Scheduling settings
	CronSchedule string
	RunOnStartup bool
	StartupDelay time.Duration

	// Scrape settings
	MaxPerFeed   int
	FeedDelay    time.Duration
	FetchTimeout time.Duration

	// Retention settings
	RetentionDays int
	CleanupBatch  int

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DBPath:        DefaultDBPath,
		FeedsCSVPath:  DefaultFeedsCSVPath,
		CronSchedule:  DefaultCronSchedule,
		RunOnStartup:  DefaultRunOnStartup,
		StartupDelay:  DefaultStartupDelay,
		MaxPerFeed:    DefaultMaxPerFeed,
		FeedDelay:     DefaultFeedDelay,
		FetchTimeout:  DefaultFetchTimeout,
		RetentionDays: DefaultRetentionDays,
		CleanupBatch:  DefaultCleanupBatch,
		LogLevel:      logLevel,
	}
}

// FromEnv returns the default configuration with every environment
// override applied. Flags parsed later by the CLI take precedence over
// both.
func FromEnv() *Config {
	cfg := DefaultConfig()

	cfg.DBPath = GetEnvString("INGESTD_DB_PATH", cfg.DBPath)
	cfg.FeedsCSVPath = GetEnvString("INGESTD_FEEDS_CSV", cfg.FeedsCSVPath)
	cfg.CronSchedule = GetEnvString("CRON_SCHEDULE", cfg.CronSchedule)
	cfg.RunOnStartup = GetEnvBool("RUN_ON_STARTUP", cfg.RunOnStartup)
	cfg.MaxPerFeed = GetEnvInt("MAX_OPPORTUNITIES_PER_FEED", cfg.MaxPerFeed)
	cfg.FeedDelay = GetEnvDuration("INGESTD_FEED_DELAY", cfg.FeedDelay)
	cfg.FetchTimeout = GetEnvDuration("INGESTD_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.RetentionDays = GetEnvInt("INGESTD_RETENTION_DAYS", cfg.RetentionDays)
	cfg.CleanupBatch = GetEnvInt("INGESTD_CLEANUP_BATCH", cfg.CleanupBatch)
	cfg.LogLevel = GetEnvLogLevel("INGESTD_LOG_LEVEL", cfg.LogLevel)

	return cfg
}
