package config

import "time"

// Constants defining default values for application configuration
const (
	DefaultDBPath       = "./opportunities.db"
	DefaultFeedsCSVPath = ""

	// DefaultCronSchedule fires a scrape run every six hours. Standard
	// five-field specs and cron descriptors are both accepted.
	DefaultCronSchedule = "@every 6h"

	// CleanupCronSchedule is fixed: Sunday 02:00, interpreted in UTC.
	CleanupCronSchedule = "0 2 * * 0"

	DefaultMaxPerFeed    = 50
	DefaultRunOnStartup  = true
	DefaultRetentionDays = 90
	DefaultCleanupBatch  = 500

	DefaultFeedDelay    = 2 * time.Second
	DefaultFetchTimeout = 10 * time.Second
	DefaultStartupDelay = 5 * time.Second

	// UserAgent identifies the ingester to feed operators.
	UserAgent = "OppWatchIngestor/1.0 (+https://github.com/oppwatch/ingestor)"

	DefaultLogLevel = "info"
)
