// Package scrape drives one full ingestion pass: fetch each registered
// feed, normalize its items, dedup against the store and persist what is
// new.
package scrape

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"oppwatch/ingestor/internal/fetch"
	"oppwatch/ingestor/internal/models"
	"oppwatch/ingestor/internal/normalize"
	"oppwatch/ingestor/internal/store"
)

// ErrRunInProgress is returned when a run or a cleanup is invoked while
// another is still executing. The dedup read-before-write is not atomic,
// so overlapping runs could double-insert; overlapped invocations are
// skipped, never queued.
var ErrRunInProgress = errors.New("a run is already in progress")

// Fetcher fetches and parses one feed.
type Fetcher interface {
	Fetch(ctx context.Context, fd models.FeedDescriptor) (*fetch.Feed, error)
}

// Config carries the orchestrator knobs.
type Config struct {
	// MaxItemsPerFeed caps how many items of one feed are looked at per
	// run.
	MaxItemsPerFeed int
	// FeedDelay is the politeness pause between two feeds.
	FeedDelay time.Duration
}

// Orchestrator walks the registry strictly sequentially, one feed at a
// time, to respect source-site rate limits and keep store access
// serialized.
type Orchestrator struct {
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	store      *store.Store
	registry   []models.FeedDescriptor
	cfg        Config

	mu sync.Mutex // guards ScrapeAll and Cleanup against overlap
}

// New creates an Orchestrator over the given registry.
func New(fetcher Fetcher, st *store.Store, registry []models.FeedDescriptor, cfg Config) *Orchestrator {
	if cfg.MaxItemsPerFeed <= 0 {
		cfg.MaxItemsPerFeed = 50
	}
	return &Orchestrator{
		fetcher:    fetcher,
		normalizer: normalize.New(),
		store:      st,
		registry:   registry,
		cfg:        cfg,
	}
}

// ScrapeFeed processes one feed and returns its counters. A fetch failure
// yields errors=1 with no items processed. Per-item failures are counted
// individually; one bad item never aborts the feed.
func (o *Orchestrator) ScrapeFeed(ctx context.Context, fd models.FeedDescriptor) models.FeedRunResult {
	result := models.FeedRunResult{FeedName: fd.Name}

	feed, err := o.fetcher.Fetch(ctx, fd)
	if err != nil {
		log.Error().Err(err).Str("feed", fd.Name).Msg("Feed fetch failed")
		result.Errors++
		return result
	}

	items := feed.Items
	if len(items) > o.cfg.MaxItemsPerFeed {
		items = items[:o.cfg.MaxItemsPerFeed]
	}

	log.Info().
		Str("feed", fd.Name).
		Int("items", len(items)).
		Msg("Feed fetched, processing items")

	for _, item := range items {
		result.Processed++

		if item.Title == "" || item.Link == "" {
			log.Debug().Str("feed", fd.Name).Msg("Skipping item missing title or link")
			result.Errors++
			continue
		}

		exists, err := o.store.Exists(ctx, item.Title, item.Link)
		if err != nil {
			log.Error().Err(err).Str("feed", fd.Name).Str("title", item.Title).Msg("Dedup check failed")
			result.Errors++
			continue
		}
		if exists {
			result.Duplicates++
			continue
		}

		opp, err := o.normalizer.Normalize(item, fd)
		if err != nil {
			log.Warn().Err(err).Str("feed", fd.Name).Str("title", item.Title).Msg("Item rejected")
			result.Errors++
			continue
		}

		if err := o.store.Save(ctx, opp); err != nil {
			log.Error().Err(err).Str("feed", fd.Name).Str("title", item.Title).Msg("Save failed")
			result.Errors++
			continue
		}
		result.Saved++
	}

	return result
}

// ScrapeAll walks every registered feed in registry order, pausing
// FeedDelay between feeds, and aggregates the run summary. Returns
// ErrRunInProgress when another run or cleanup holds the lock.
func (o *Orchestrator) ScrapeAll(ctx context.Context) (*models.RunSummary, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	summary := &models.RunSummary{
		StartTime:  time.Now(),
		TotalFeeds: len(o.registry),
	}

	log.Info().Int("feeds", len(o.registry)).Msg("Starting scrape run")

	for i, fd := range o.registry {
		summary.Add(o.ScrapeFeed(ctx, fd))

		if i < len(o.registry)-1 && o.cfg.FeedDelay > 0 {
			select {
			case <-time.After(o.cfg.FeedDelay):
			case <-ctx.Done():
				log.Warn().Err(ctx.Err()).Msg("Scrape run cancelled between feeds")
				o.finish(summary)
				return summary, ctx.Err()
			}
		}
	}

	o.finish(summary)
	return summary, nil
}

// Cleanup deletes aged records through the store, serialized against
// scrape runs by the same lock.
func (o *Orchestrator) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if !o.mu.TryLock() {
		return 0, ErrRunInProgress
	}
	defer o.mu.Unlock()

	return o.store.Cleanup(ctx, retentionDays)
}

func (o *Orchestrator) finish(summary *models.RunSummary) {
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	log.Info().
		Dur("duration", summary.Duration).
		Int("feeds", summary.TotalFeeds).
		Int("processed", summary.TotalProcessed).
		Int("saved", summary.TotalSaved).
		Int("duplicates", summary.TotalDuplicates).
		Int("errors", summary.TotalErrors).
		Msg("Scrape run finished")
}
