package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"oppwatch/ingestor/internal/config"
	"oppwatch/ingestor/internal/database"
	"oppwatch/ingestor/internal/feeds"
	"oppwatch/ingestor/internal/fetch"
	"oppwatch/ingestor/internal/models"
	"oppwatch/ingestor/internal/schedule"
	"oppwatch/ingestor/internal/scrape"
	"oppwatch/ingestor/internal/store"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
}

func main() {
	cfg := config.FromEnv()

	if len(os.Args) < 2 {
		// No-argument default: run the scheduler until terminated.
		zerolog.SetGlobalLevel(cfg.LogLevel)
		if err := runDaemon(cfg); err != nil {
			log.Error().Err(err).Msg("Daemon failed")
			os.Exit(1)
		}
		return
	}

	scrapeCmd := flag.NewFlagSet("scrape", flag.ExitOnError)
	scrapeCmd.StringVar(&cfg.DBPath, "db", cfg.DBPath,
		"Path to the SQLite database file (env: INGESTD_DB_PATH)")
	scrapeCmd.StringVar(&cfg.FeedsCSVPath, "feeds", cfg.FeedsCSVPath,
		"Path to a CSV file replacing the built-in feed registry (env: INGESTD_FEEDS_CSV)")
	scrapeCmd.IntVar(&cfg.MaxPerFeed, "max-per-feed", cfg.MaxPerFeed,
		"Maximum items to process per feed (env: MAX_OPPORTUNITIES_PER_FEED)")

	var logLevelStr string
	scrapeCmd.StringVar(&logLevelStr, "log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: INGESTD_LOG_LEVEL)")

	switch os.Args[1] {
	case "scrape":
		scrapeCmd.Parse(os.Args[2:])

		if level, err := zerolog.ParseLevel(logLevelStr); err == nil {
			cfg.LogLevel = level
		}
		zerolog.SetGlobalLevel(cfg.LogLevel)

		if err := runScrape(cfg); err != nil {
			log.Error().Err(err).Msg("Scrape failed")
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: ingestd [command] [options]")
	fmt.Println("Commands:")
	fmt.Println("  scrape    Run one ingestion pass over all feeds and exit")
	fmt.Println("  help      Print this message")
	fmt.Println("\nWithout a command, ingestd starts the scheduler and runs until terminated.")
	fmt.Println("For command-specific options, use: ingestd [command] -h")
}

// newOrchestrator wires the pipeline: registry, fetcher, store.
func newOrchestrator(cfg *config.Config, db *database.DB) (*scrape.Orchestrator, error) {
	registry := feeds.DefaultRegistry()
	if cfg.FeedsCSVPath != "" {
		loaded, err := feeds.LoadCSV(cfg.FeedsCSVPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load feed registry: %w", err)
		}
		registry = loaded
	}

	st := store.New(db)
	st.CleanupBatch = cfg.CleanupBatch

	fetcher := fetch.New(cfg.FetchTimeout, config.UserAgent)
	return scrape.New(fetcher, st, registry, scrape.Config{
		MaxItemsPerFeed: cfg.MaxPerFeed,
		FeedDelay:       cfg.FeedDelay,
	}), nil
}

// runScrape executes a single ingestion pass and prints its summary.
func runScrape(cfg *config.Config) error {
	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	orch, err := newOrchestrator(cfg, db)
	if err != nil {
		return err
	}

	summary, err := orch.ScrapeAll(context.Background())
	if err != nil {
		return fmt.Errorf("scrape run failed: %w", err)
	}

	printSummary(summary)
	return nil
}

func printSummary(s *models.RunSummary) {
	fmt.Printf("Scrape run finished in %s\n", s.Duration.Round(time.Millisecond))
	fmt.Printf("  feeds:      %d\n", s.TotalFeeds)
	fmt.Printf("  processed:  %d\n", s.TotalProcessed)
	fmt.Printf("  saved:      %d\n", s.TotalSaved)
	fmt.Printf("  duplicates: %d\n", s.TotalDuplicates)
	fmt.Printf("  errors:     %d\n", s.TotalErrors)
}

// runDaemon starts the scheduler and blocks until SIGINT/SIGTERM.
func runDaemon(cfg *config.Config) error {
	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	orch, err := newOrchestrator(cfg, db)
	if err != nil {
		return err
	}

	sched := schedule.New(orch, cfg)
	if err := sched.Start(); err != nil {
		return err
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdown
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	// Stop cancels future trigger fires only; wait for any in-flight run.
	<-sched.Stop().Done()
	log.Info().Msg("Scheduler stopped")
	return nil
}
