// Package schedule wraps the orchestrator in recurring cron triggers.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"oppwatch/ingestor/internal/config"
	"oppwatch/ingestor/internal/scrape"
)

// Scheduler owns its trigger handles explicitly; there is no process-wide
// task registry. Three triggers start and stop together: the recurring
// scrape, the weekly retention cleanup and the optional one-off startup
// run.
type Scheduler struct {
	cron *cron.Cron
	orch *scrape.Orchestrator

	scrapeSpec    string
	retentionDays int
	runOnStartup  bool
	startupDelay  time.Duration

	startupTimer *time.Timer
	entries      []cron.EntryID
}

// New validates the scrape schedule and builds a stopped scheduler. An
// invalid CRON_SCHEDULE falls back to the default with a warning rather
// than failing startup.
func New(orch *scrape.Orchestrator, cfg *config.Config) *Scheduler {
	spec := cfg.CronSchedule
	if _, err := cron.ParseStandard(spec); err != nil {
		log.Warn().
			Err(err).
			Str("schedule", spec).
			Str("fallback", config.DefaultCronSchedule).
			Msg("Invalid cron schedule, using default")
		spec = config.DefaultCronSchedule
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		orch:          orch,
		scrapeSpec:    spec,
		retentionDays: cfg.RetentionDays,
		runOnStartup:  cfg.RunOnStartup,
		startupDelay:  cfg.StartupDelay,
	}
}

// Start registers the scrape and cleanup triggers and arms the startup
// run. The startup run fires once after its fixed delay, independent of
// the recurring trigger's first fire.
func (s *Scheduler) Start() error {
	id, err := s.cron.AddFunc(s.scrapeSpec, s.runScrape)
	if err != nil {
		return fmt.Errorf("failed to register scrape trigger: %w", err)
	}
	s.entries = append(s.entries, id)

	id, err = s.cron.AddFunc(config.CleanupCronSchedule, s.runCleanup)
	if err != nil {
		return fmt.Errorf("failed to register cleanup trigger: %w", err)
	}
	s.entries = append(s.entries, id)

	s.cron.Start()
	log.Info().
		Str("scrape_schedule", s.scrapeSpec).
		Str("cleanup_schedule", config.CleanupCronSchedule).
		Bool("run_on_startup", s.runOnStartup).
		Msg("Scheduler started")

	if s.runOnStartup {
		s.startupTimer = time.AfterFunc(s.startupDelay, s.runScrape)
	}
	return nil
}

// Stop cancels all registered triggers and any pending startup run. It
// does not interrupt a run already in progress; the returned context is
// done once in-flight jobs have finished.
func (s *Scheduler) Stop() context.Context {
	if s.startupTimer != nil {
		s.startupTimer.Stop()
	}
	log.Info().Msg("Scheduler stopping, waiting for in-flight runs")
	return s.cron.Stop()
}

func (s *Scheduler) runScrape() {
	summary, err := s.orch.ScrapeAll(context.Background())
	if err != nil {
		if errors.Is(err, scrape.ErrRunInProgress) {
			log.Warn().Msg("Previous run still in progress, skipping this fire")
			return
		}
		// A failed run is logged; the trigger stays registered.
		log.Error().Err(err).Msg("Scheduled scrape run failed")
		return
	}

	log.Info().
		Dur("duration", summary.Duration).
		Int("saved", summary.TotalSaved).
		Int("duplicates", summary.TotalDuplicates).
		Int("errors", summary.TotalErrors).
		Msg("Scheduled scrape run completed")
}

func (s *Scheduler) runCleanup() {
	deleted, err := s.orch.Cleanup(context.Background(), s.retentionDays)
	if err != nil {
		if errors.Is(err, scrape.ErrRunInProgress) {
			log.Warn().Msg("Run in progress, skipping scheduled cleanup")
			return
		}
		log.Error().Err(err).Msg("Scheduled cleanup failed")
		return
	}

	log.Info().
		Int64("deleted", deleted).
		Int("retention_days", s.retentionDays).
		Msg("Scheduled cleanup completed")
}
